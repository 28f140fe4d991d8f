package modules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

var (
	ErrNotSetup       = errors.New("output is not set up")
	ErrInvalidChannel = errors.New("invalid output channel")
)

type State int

const (
	StateUnknown State = iota
	StateOff
	StateOn
)

func (s State) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	default:
		return "unknown"
	}
}

func StateFromBool(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

func ParseState(value string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "1", "true":
		return StateOn, nil
	case "off", "0", "false":
		return StateOff, nil
	}
	return StateUnknown, fmt.Errorf("invalid output state %q (expected on or off)", value)
}

// Output is the contract every output variant implements. Setup, Switch and
// Stop never panic or return errors that should stop the host: failures are
// logged and reflected in the returned Result.
type Output interface {
	Init(config OutputConfig) error
	Setup()
	Switch(state State, channel int) Result[string]
	IsOn(channel int) Result[State]
	IsSetup() bool
	Stop()
}

type OutputConfig struct {
	Name        string                 `yaml:"name" validate:"required"`
	Type        string                 `yaml:"type" validate:"required"`
	I2CBus      int                    `yaml:"i2c-bus" validate:"min=0"`
	I2CLocation string                 `yaml:"i2c-location"`
	Options     map[string]interface{} `yaml:"options"`
}

// TriggerFunc is called when an output asks the host to evaluate the
// functions attached to one of its channels.
type TriggerFunc func(output string, channel int)

type Env struct {
	Logger  zerolog.Logger
	Open    BusOpener
	Trigger TriggerFunc
}

// DefaultOutput holds what every variant shares: the environment it was built
// with, its configuration and the setup flag.
type DefaultOutput struct {
	Env    Env
	Config OutputConfig

	logger zerolog.Logger
	setup  bool
	state  State
}

func (d *DefaultOutput) Init(config OutputConfig) error {
	d.Config = config
	d.logger = d.Env.Logger.With().Str("output", config.Name).Str("type", config.Type).Logger()
	return nil
}

func (d *DefaultOutput) IsSetup() bool {
	return d.setup
}

// Logger returns the logger scoped to the output name and type.
func (d *DefaultOutput) Logger() *zerolog.Logger {
	return &d.logger
}

// MarkSetup records whether the output is ready to be switched.
func (d *DefaultOutput) MarkSetup(setup bool) {
	d.setup = setup
}

// CurrentState returns the last state successfully written.
func (d *DefaultOutput) CurrentState() State {
	return d.state
}

// SetCurrentState remembers a state once the hardware accepted it.
func (d *DefaultOutput) SetCurrentState(state State) {
	d.state = state
}

// TriggerFunctions notifies the host that the channel switched at startup.
func (d *DefaultOutput) TriggerFunctions(channel int) {
	if d.Env.Trigger == nil {
		return
	}
	d.Env.Trigger(d.Config.Name, channel)
}

// SwitchResult converts the outcome of a state change into the message
// handed back to the host.
func (d *DefaultOutput) SwitchResult(err error) Result[string] {
	if err != nil {
		msg := fmt.Sprintf("State change error: %s", err)
		d.logger.Error().Err(err).Msg("State change error")
		return Result[string]{msg, err}
	}
	return Result[string]{Value: "success"}
}

// CheckChannel rejects any channel other than 0; every variant exposes a
// single channel.
func (d *DefaultOutput) CheckChannel(channel int) error {
	if channel != 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, channel)
	}
	return nil
}
