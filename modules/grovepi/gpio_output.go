package grovepi

import (
	"github.com/tr4cks/grove/modules"
)

var GPIOOutputOptions = append(append([]modules.Option{
	{
		ID:       "pin",
		Type:     modules.OptionSelect,
		Required: true,
		Select:   pinSelect,
		Name:     "GPIO Pin (Grove Pi+)",
		Phrase:   "The pin to control the state of",
	}},
	stateOptions("Set the state when the host starts", "Set the state when the host shuts down")...),
	onStateOption,
	triggerOption,
	modules.Option{
		ID:       "amps",
		Type:     modules.OptionFloat,
		Default:  0.0,
		Required: true,
		Name:     "Current (Amps)",
		Phrase:   "The current draw of the device being controlled",
	},
)

var GPIOOutput = &modules.Definition{
	Name:               "grove_pi_gpio_output",
	DisplayName:        "Grove Pi GPIO: On/Off",
	Message:            "Use one of the ports on the Grove Pi+ as a digital output.",
	Library:            "periph.io",
	URLManufacturer:    "https://www.dexterindustries.com/grovepi/",
	Interfaces:         []string{"I2C"},
	I2CLocations:       []string{"0x04"},
	I2CAddressEditable: false,
	Dependencies:       smbusDependency,
	Channels:           onOffChannel,
	Options:            GPIOOutputOptions,
	New:                NewGPIOOutput,
}

// GPIOOutputModule switches a Grove Pi+ port. Unlike GPIOModule it reports
// the raw level read back from the firmware, whatever the on state polarity.
type GPIOOutputModule struct {
	pinOutput
}

func NewGPIOOutput(env modules.Env) modules.Output {
	m := &GPIOOutputModule{}
	m.Env = env
	m.options = GPIOOutputOptions
	return m
}

func (m *GPIOOutputModule) Init(config modules.OutputConfig) error {
	return m.init(config)
}

func (m *GPIOOutputModule) IsOn(channel int) modules.Result[modules.State] {
	if !m.IsSetup() {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	level, err := m.readPin()
	if err != nil {
		m.Logger().Error().Err(err).Msg("Status check error")
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	return modules.Result[modules.State]{Value: modules.StateFromBool(level != 0)}
}
