// Package grovepi implements outputs driven through the Grove Pi+ firmware
// over I2C.
package grovepi

import (
	"errors"
	"fmt"

	"github.com/tr4cks/grove/modules"

	"periph.io/x/conn/v3/i2c"
)

// Grove Pi+ firmware commands. Every command is sent as a 4 byte block:
// command, then three arguments.
const (
	digitalReadCommand  byte = 1
	digitalWriteCommand byte = 2
	pinModeCommand      byte = 5
	neoPixelCommand     byte = 100
)

const pinModeOutput byte = 1

var errPinNotSet = errors.New("pin must be set")

var pinSelect = []modules.SelectOption{
	{Value: 2, Label: "D2"},
	{Value: 3, Label: "D3"},
	{Value: 4, Label: "D4"},
	{Value: 5, Label: "D5"},
	{Value: 6, Label: "D6"},
	{Value: 7, Label: "D7"},
	{Value: 8, Label: "D8"},
	{Value: 14, Label: "A0"},
	{Value: 15, Label: "A1"},
	{Value: 16, Label: "A2"},
}

var smbusDependency = []modules.Dependency{
	{Manager: "go", Install: "periph.io/x/host/v3", Import: "periph.io/x/conn/v3/i2c"},
}

var onOffChannel = []modules.Channel{
	{
		Types:        []string{"on_off"},
		Measurements: []modules.Measurement{{Measurement: "duration_time", Unit: "s"}},
	},
}

type PinConfig struct {
	Pin                     int     `mapstructure:"pin" validate:"omitempty,oneof=2 3 4 5 6 7 8 14 15 16"`
	StateStartup            int     `mapstructure:"state_startup" validate:"oneof=0 1"`
	StateShutdown           int     `mapstructure:"state_shutdown" validate:"oneof=0 1"`
	OnState                 int     `mapstructure:"on_state" validate:"oneof=0 1"`
	TriggerFunctionsStartup bool    `mapstructure:"trigger_functions_startup"`
	Amps                    float64 `mapstructure:"amps"`
}

// pinOutput drives one digital pin. The two GPIO variants share it and only
// differ in how the pin is read back.
type pinOutput struct {
	modules.DefaultOutput
	Config PinConfig

	options  []modules.Option
	bus      i2c.BusCloser
	device   *modules.Device
	onValue  byte
	offValue byte
}

func (o *pinOutput) init(config modules.OutputConfig) error {
	err := o.DefaultOutput.Init(config)
	if err != nil {
		return err
	}
	err = modules.Decode(modules.WithDefaults(o.options, config.Options), &o.Config)
	if err != nil {
		return fmt.Errorf("error validating %q output configuration: %w", config.Name, err)
	}
	o.onValue, o.offValue = 1, 0
	if o.Config.OnState == 0 {
		o.onValue, o.offValue = 0, 1
	}
	return nil
}

func (o *pinOutput) Setup() {
	logger := o.Logger()
	if o.IsSetup() {
		o.release()
	}
	if o.Config.Pin == 0 {
		logger.Error().Err(errPinNotSet).Msg("Could not set up output")
		return
	}

	address, err := modules.ParseAddress(o.DefaultOutput.Config.I2CLocation)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot open i2c port")
		return
	}
	bus, err := o.Env.Open(o.DefaultOutput.Config.I2CBus)
	if err != nil {
		logger.Error().Err(err).Msg("Cannot open i2c port")
		return
	}
	logger.Debug().
		Str("address", o.DefaultOutput.Config.I2CLocation).
		Int("bus", o.DefaultOutput.Config.I2CBus).
		Int("pin", o.Config.Pin).
		Msg("I2C device opened")

	o.bus = bus
	o.device = modules.NewDevice(bus, address)

	startup := modules.StateFromBool(o.Config.StateStartup == 1)
	err = o.device.WriteBlock(pinModeCommand, byte(o.Config.Pin), pinModeOutput, 0)
	if err == nil {
		err = o.write(startup)
	}
	if err != nil {
		logger.Error().Err(err).
			Int("pin", o.Config.Pin).
			Int("on_state", o.Config.OnState).
			Msg("Output was unable to be set up")
		o.closeBus()
		return
	}
	o.MarkSetup(true)

	if o.Config.TriggerFunctionsStartup {
		o.TriggerFunctions(0)
	}

	logger.Info().
		Int("pin", o.Config.Pin).
		Str("startup", startup.String()).
		Str("on", levelName(o.Config.OnState)).
		Msg("Output set up")
}

func (o *pinOutput) write(state modules.State) error {
	value := o.offValue
	if state == modules.StateOn {
		value = o.onValue
	}
	err := o.device.WriteBlock(digitalWriteCommand, byte(o.Config.Pin), value, 0)
	if err != nil {
		return err
	}
	o.SetCurrentState(state)
	return nil
}

func (o *pinOutput) Switch(state modules.State, channel int) modules.Result[string] {
	if !o.IsSetup() {
		return modules.Result[string]{Err: modules.ErrNotSetup}
	}
	if err := o.CheckChannel(channel); err != nil {
		return o.SwitchResult(err)
	}
	o.Logger().Debug().Str("state", state.String()).Int("pin", o.Config.Pin).Msg("Output switch called")
	return o.SwitchResult(o.write(state))
}

// readPin asks the firmware for the pin level and returns the level byte.
func (o *pinOutput) readPin() (byte, error) {
	err := o.device.WriteBlock(digitalReadCommand, byte(o.Config.Pin), 0, 0)
	if err != nil {
		return 0, err
	}
	data, err := o.device.ReadBlock(digitalReadCommand, 2)
	if err != nil {
		return 0, err
	}
	return data[1], nil
}

func (o *pinOutput) Stop() {
	o.Switch(modules.StateFromBool(o.Config.StateShutdown == 1), 0)
	o.release()
	o.Logger().Info().Msg("Output stopped")
}

func (o *pinOutput) release() {
	o.MarkSetup(false)
	o.closeBus()
}

func (o *pinOutput) closeBus() {
	if o.bus == nil {
		return
	}
	if err := o.bus.Close(); err != nil {
		o.Logger().Warn().Err(err).Msg("Failed to close i2c port")
	}
	o.bus = nil
	o.device = nil
}

func levelName(onState int) string {
	if onState == 1 {
		return "HIGH"
	}
	return "LOW"
}
