package grovepi

import (
	"fmt"

	"github.com/tr4cks/grove/modules"

	"periph.io/x/conn/v3/i2c"
)

func colorOption(id, name, phrase string) modules.Option {
	return modules.Option{
		ID:         id,
		Type:       modules.OptionInteger,
		Default:    255,
		Required:   true,
		Constraint: modules.ByteValue,
		Name:       name,
		Phrase:     phrase,
	}
}

var NeoPixelOptions = append(append([]modules.Option{
	colorOption("red", "Red value", "The red LED brightness value (0-255)"),
	colorOption("green", "Green value", "The green LED brightness value (0-255)"),
	colorOption("blue", "Blue value", "The blue LED brightness value (0-255)"),
},
	stateOptions("Set the state of the stick when the host starts", "Set the state of the stick when the host shuts down")...),
	triggerOption,
)

var NeoPixel = &modules.Definition{
	Name:               "grove_pi_adafruit_neopixel_stick",
	DisplayName:        "Adafruit Neopixel Stick via Grove Pi: On/Off Color",
	Message:            "The Neopixel strip will be set to the desired color based upon the color parameters selected.",
	Library:            "periph.io",
	Interfaces:         []string{"I2C"},
	I2CLocations:       []string{"0x04"},
	I2CAddressEditable: false,
	Dependencies:       smbusDependency,
	Channels:           onOffChannel,
	Options:            NeoPixelOptions,
	New:                NewNeoPixel,
}

type NeoPixelConfig struct {
	Red                     int  `mapstructure:"red" validate:"min=0,max=255"`
	Green                   int  `mapstructure:"green" validate:"min=0,max=255"`
	Blue                    int  `mapstructure:"blue" validate:"min=0,max=255"`
	StateStartup            int  `mapstructure:"state_startup" validate:"oneof=0 1"`
	StateShutdown           int  `mapstructure:"state_shutdown" validate:"oneof=0 1"`
	TriggerFunctionsStartup bool `mapstructure:"trigger_functions_startup"`
}

// NeoPixelModule lights a NeoPixel stick in a fixed color when on and blanks
// it when off. The firmware has no read back so the last written state is
// reported.
type NeoPixelModule struct {
	modules.DefaultOutput
	Config NeoPixelConfig

	bus    i2c.BusCloser
	device *modules.Device
}

func NewNeoPixel(env modules.Env) modules.Output {
	m := &NeoPixelModule{}
	m.Env = env
	return m
}

func (m *NeoPixelModule) Init(config modules.OutputConfig) error {
	err := m.DefaultOutput.Init(config)
	if err != nil {
		return err
	}
	err = modules.Decode(modules.WithDefaults(NeoPixelOptions, config.Options), &m.Config)
	if err != nil {
		return fmt.Errorf("error validating %q output configuration: %w", config.Name, err)
	}
	return nil
}

func (m *NeoPixelModule) Setup() {
	logger := m.Logger()
	if m.IsSetup() {
		m.release()
	}

	address, err := modules.ParseAddress(m.DefaultOutput.Config.I2CLocation)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot open i2c port")
		return
	}
	bus, err := m.Env.Open(m.DefaultOutput.Config.I2CBus)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot open i2c port")
		return
	}
	logger.Debug().
		Str("address", m.DefaultOutput.Config.I2CLocation).
		Int("bus", m.DefaultOutput.Config.I2CBus).
		Msg("I2C device opened")

	m.bus = bus
	m.device = modules.NewDevice(bus, address)

	startup := modules.StateFromBool(m.Config.StateStartup == 1)
	if err := m.write(startup); err != nil {
		logger.Error().Err(err).Msg("Neopixel was unable to be set up")
		m.closeBus()
		return
	}
	m.MarkSetup(true)

	if m.Config.TriggerFunctionsStartup {
		m.TriggerFunctions(0)
	}

	logger.Info().Str("startup", startup.String()).Msg("Neopixel set up")
}

func (m *NeoPixelModule) write(state modules.State) error {
	color := [3]byte{}
	if state == modules.StateOn {
		color = [3]byte{byte(m.Config.Red), byte(m.Config.Green), byte(m.Config.Blue)}
	} else {
		m.Logger().Debug().Uint16("address", m.device.Addr()).Msg("Setting LEDs off")
	}
	err := m.device.WriteBlock(neoPixelCommand, color[:]...)
	if err != nil {
		return err
	}
	m.SetCurrentState(state)
	return nil
}

func (m *NeoPixelModule) Switch(state modules.State, channel int) modules.Result[string] {
	if !m.IsSetup() {
		return modules.Result[string]{Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return m.SwitchResult(err)
	}
	return m.SwitchResult(m.write(state))
}

func (m *NeoPixelModule) IsOn(channel int) modules.Result[modules.State] {
	if !m.IsSetup() {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	return modules.Result[modules.State]{Value: m.CurrentState()}
}

func (m *NeoPixelModule) Stop() {
	m.Switch(modules.StateFromBool(m.Config.StateShutdown == 1), 0)
	m.release()
	m.Logger().Info().Msg("Neopixel stopped")
}

func (m *NeoPixelModule) release() {
	m.MarkSetup(false)
	m.closeBus()
}

func (m *NeoPixelModule) closeBus() {
	if m.bus == nil {
		return
	}
	if err := m.bus.Close(); err != nil {
		m.Logger().Warn().Err(err).Msg("Failed to close i2c port")
	}
	m.bus = nil
	m.device = nil
}
