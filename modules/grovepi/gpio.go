package grovepi

import (
	"github.com/tr4cks/grove/modules"
)

func stateOptions(startupPhrase, shutdownPhrase string) []modules.Option {
	return []modules.Option{
		{
			ID:      "state_startup",
			Type:    modules.OptionSelect,
			Default: 0,
			Select:  modules.OnOffSelect,
			Name:    "Startup State",
			Phrase:  startupPhrase,
		},
		{
			ID:      "state_shutdown",
			Type:    modules.OptionSelect,
			Default: 0,
			Select:  modules.OnOffSelect,
			Name:    "Shutdown State",
			Phrase:  shutdownPhrase,
		},
	}
}

var triggerOption = modules.Option{
	ID:      "trigger_functions_startup",
	Type:    modules.OptionBool,
	Default: false,
	Name:    "Trigger Functions at Startup",
	Phrase:  "Whether to trigger functions when the output switches at startup",
}

var onStateOption = modules.Option{
	ID:      "on_state",
	Type:    modules.OptionSelect,
	Default: 1,
	Select:  modules.OnStateSelect,
	Name:    "On State",
	Phrase:  "The state of the GPIO that corresponds to an On state",
}

var GPIOOptions = append(append([]modules.Option{
	{
		ID:       "pin",
		Type:     modules.OptionSelect,
		Default:  2,
		Required: true,
		Select:   pinSelect,
		Name:     "Grove Pi Pin",
		Phrase:   "The pin to control the state of",
	}},
	stateOptions("Set the state when the host starts", "Set the state when the host shuts down")...),
	onStateOption,
	triggerOption,
	modules.Option{
		ID:         "amps",
		Type:       modules.OptionFloat,
		Default:    0.0,
		Required:   true,
		Constraint: modules.PositiveValue,
		Name:       "Current (Amps)",
		Phrase:     "The current draw of the device being controlled",
	},
)

var GPIO = &modules.Definition{
	Name:               "grove_pio_gpio",
	DisplayName:        "Grove Pi GPIO: On/Off",
	Message:            "The specified GPIO pin will be set HIGH (3.3 volts) or LOW (0 volts) when turned on or off, depending on the On State option.",
	Library:            "periph.io",
	Interfaces:         []string{"I2C"},
	I2CLocations:       []string{"0x04"},
	I2CAddressEditable: false,
	Dependencies:       smbusDependency,
	Channels:           onOffChannel,
	Options:            GPIOOptions,
	New:                NewGPIO,
}

// GPIOModule switches a Grove Pi pin and reports it as on when the level read
// back matches the configured on state.
type GPIOModule struct {
	pinOutput
}

func NewGPIO(env modules.Env) modules.Output {
	m := &GPIOModule{}
	m.Env = env
	m.options = GPIOOptions
	return m
}

func (m *GPIOModule) Init(config modules.OutputConfig) error {
	return m.init(config)
}

func (m *GPIOModule) IsOn(channel int) modules.Result[modules.State] {
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
	return modules.Result[modules.State]{Value: modules.StateFromBool(int(level) == m.Config.OnState)}
}
