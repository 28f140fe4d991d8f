package modules

import (
	"fmt"
	"sort"
)

type Dependency struct {
	Manager string `json:"manager"`
	Install string `json:"install"`
	Import  string `json:"import"`
}

type Measurement struct {
	Measurement string `json:"measurement"`
	Unit        string `json:"unit"`
}

type Channel struct {
	Types        []string      `json:"types"`
	Measurements []Measurement `json:"measurements"`
}

// Definition is the static description of an output variant.
type Definition struct {
	Name               string       `json:"name"`
	DisplayName        string       `json:"display_name"`
	Message            string       `json:"message,omitempty"`
	Library            string       `json:"library,omitempty"`
	URLManufacturer    string       `json:"url_manufacturer,omitempty"`
	Interfaces         []string     `json:"interfaces"`
	I2CLocations       []string     `json:"i2c_locations,omitempty"`
	I2CAddressEditable bool         `json:"i2c_address_editable"`
	Dependencies       []Dependency `json:"dependencies,omitempty"`
	Channels           []Channel    `json:"channels"`
	Options            []Option     `json:"options"`

	New func(env Env) Output `json:"-"`
}

// DefaultI2CLocation is the address used when an output does not configure
// one.
func (d *Definition) DefaultI2CLocation() string {
	if len(d.I2CLocations) == 0 {
		return ""
	}
	return d.I2CLocations[0]
}

type Registry struct {
	definitions map[string]*Definition
}

func NewRegistry(definitions ...*Definition) *Registry {
	r := &Registry{definitions: make(map[string]*Definition, len(definitions))}
	for _, definition := range definitions {
		r.definitions[definition.Name] = definition
	}
	return r
}

func (r *Registry) Lookup(name string) (*Definition, error) {
	definition, ok := r.definitions[name]
	if !ok {
		return nil, fmt.Errorf("can't find the %q output among the available outputs (available outputs: %v)", name, r.Names())
	}
	return definition, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) All() []*Definition {
	all := make([]*Definition, 0, len(r.definitions))
	for _, name := range r.Names() {
		all = append(all, r.definitions[name])
	}
	return all
}
