package modules

import (
	"fmt"
	"math"

	"github.com/mitchellh/mapstructure"
)

type OptionType string

const (
	OptionInteger OptionType = "integer"
	OptionFloat   OptionType = "float"
	OptionBool    OptionType = "bool"
	OptionSelect  OptionType = "select"
	OptionText    OptionType = "text"
)

type SelectOption struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// Constraint inspects a user supplied value and returns the messages to show
// for it. An empty slice means the value is accepted.
type Constraint func(value interface{}) []string

type Option struct {
	ID         string         `json:"id"`
	Type       OptionType     `json:"type"`
	Default    interface{}    `json:"default"`
	Required   bool           `json:"required"`
	Select     []SelectOption `json:"select,omitempty"`
	Constraint Constraint     `json:"-"`
	Name       string         `json:"name"`
	Phrase     string         `json:"phrase"`
}

// WithDefaults returns a new map holding every option default overridden by
// the values that were supplied.
func WithDefaults(options []Option, values map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(options)+len(values))
	for _, option := range options {
		if option.Default != nil {
			merged[option.ID] = option.Default
		}
	}
	for id, value := range values {
		merged[id] = value
	}
	return merged
}

// CheckOptions validates values against the option list. Failures are
// reported as messages and never stop the configuration from being used.
func CheckOptions(options []Option, values map[string]interface{}) []string {
	var messages []string
	for _, option := range options {
		value, ok := values[option.ID]
		if !ok || value == nil {
			if option.Required && option.Default == nil {
				messages = append(messages, fmt.Sprintf("%s is required", option.Name))
			}
			continue
		}

		if msg := checkType(option, value); msg != "" {
			messages = append(messages, msg)
			continue
		}
		if option.Constraint != nil {
			messages = append(messages, option.Constraint(value)...)
		}
	}
	return messages
}

func checkType(option Option, value interface{}) string {
	switch option.Type {
	case OptionInteger:
		f, err := toFloat(value)
		if err != nil || f != math.Trunc(f) {
			return fmt.Sprintf("%s: %v is not an integer", option.Name, value)
		}
	case OptionFloat:
		if _, err := toFloat(value); err != nil {
			return fmt.Sprintf("%s: %v is not a number", option.Name, value)
		}
	case OptionBool:
		var b bool
		if err := mapstructure.WeakDecode(value, &b); err != nil {
			return fmt.Sprintf("%s: %v is not a boolean", option.Name, value)
		}
	case OptionSelect:
		for _, choice := range option.Select {
			if sameValue(choice.Value, value) {
				return ""
			}
		}
		return fmt.Sprintf("%s: invalid selection %v", option.Name, value)
	}
	return ""
}

func sameValue(a, b interface{}) bool {
	fa, errA := toFloat(a)
	fb, errB := toFloat(b)
	if errA == nil && errB == nil {
		return fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(value interface{}) (float64, error) {
	var f float64
	err := mapstructure.WeakDecode(value, &f)
	return f, err
}

// PositiveValue accepts numbers strictly greater than zero.
func PositiveValue(value interface{}) []string {
	f, err := toFloat(value)
	if err != nil {
		return []string{fmt.Sprintf("%v is not a number", value)}
	}
	if f <= 0 {
		return []string{"Must be a positive value"}
	}
	return nil
}

// ByteValue accepts numbers in [0, 255].
func ByteValue(value interface{}) []string {
	f, err := toFloat(value)
	if err != nil {
		return []string{fmt.Sprintf("%v is not a number", value)}
	}
	var messages []string
	if f < 0 {
		messages = append(messages, "Must be a positive or zero value")
	}
	if f > 255 {
		messages = append(messages, "Must be less than 256")
	}
	return messages
}

var OnOffSelect = []SelectOption{
	{Value: 0, Label: "Off"},
	{Value: 1, Label: "On"},
}

var OnStateSelect = []SelectOption{
	{Value: 1, Label: "HIGH"},
	{Value: 0, Label: "LOW"},
}
