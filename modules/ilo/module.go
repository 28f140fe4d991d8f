package ilo

import (
	"fmt"

	"github.com/tr4cks/grove/modules"
)

var keepSelect = []modules.SelectOption{
	{Value: -1, Label: "Do Nothing"},
	{Value: 0, Label: "Off"},
	{Value: 1, Label: "On"},
}

var Options = []modules.Option{
	{ID: "url", Type: modules.OptionText, Required: true, Name: "iLO URL", Phrase: "Address of the management controller"},
	{ID: "username", Type: modules.OptionText, Required: true, Name: "Username", Phrase: "iLO account name"},
	{ID: "password", Type: modules.OptionText, Required: true, Name: "Password", Phrase: "iLO account password"},
	{ID: "state_startup", Type: modules.OptionSelect, Default: -1, Select: keepSelect, Name: "Startup State", Phrase: "Set the state when the host starts"},
	{ID: "state_shutdown", Type: modules.OptionSelect, Default: -1, Select: keepSelect, Name: "Shutdown State", Phrase: "Set the state when the host shuts down"},
}

var Definition = &modules.Definition{
	Name:        "ilo",
	DisplayName: "HPE iLO: On/Off",
	Message:     "Presses the server power button through the iLO Redfish API when the requested state differs from the current one.",
	Library:     "net/http",
	Interfaces:  []string{"IP"},
	Channels:    []modules.Channel{{Types: []string{"on_off"}}},
	Options:     Options,
	New:         New,
}

type IloConfig struct {
	Url           string `mapstructure:"url" validate:"required"`
	Username      string `mapstructure:"username" validate:"required"`
	Password      string `mapstructure:"password" validate:"required"`
	StateStartup  int    `mapstructure:"state_startup" validate:"oneof=-1 0 1"`
	StateShutdown int    `mapstructure:"state_shutdown" validate:"oneof=-1 0 1"`
}

type IloModule struct {
	modules.DefaultOutput
	Config IloConfig
	Client *IloClient
}

func New(env modules.Env) modules.Output {
	m := &IloModule{}
	m.Env = env
	return m
}

func (m *IloModule) Init(config modules.OutputConfig) error {
	err := m.DefaultOutput.Init(config)
	if err != nil {
		return err
	}
	err = modules.Decode(modules.WithDefaults(Options, config.Options), &m.Config)
	if err != nil {
		return fmt.Errorf("error validating %q output configuration: %w", config.Name, err)
	}
	return nil
}

func (m *IloModule) Setup() {
	client, err := NewClient(m.Config.Url, m.Config.Username, m.Config.Password)
	if err != nil {
		m.Logger().Error().Err(err).Msg("Error creating iLO client")
		return
	}
	m.Client = client

	if m.Config.StateStartup >= 0 {
		err := m.apply(modules.StateFromBool(m.Config.StateStartup == 1))
		if err != nil {
			m.Logger().Error().Err(err).Msg("Output was unable to be set up")
			return
		}
	}
	m.MarkSetup(true)
	m.Logger().Info().Msg("Output set up")
}

// apply only presses the button when the server is not already in the
// requested state, the button being a toggle.
func (m *IloModule) apply(state modules.State) error {
	current, err := m.Client.PowerState()
	if err != nil {
		return err
	}
	if modules.StateFromBool(current == PowerStateOn) != state {
		err = m.Client.PushPowerButton()
		if err != nil {
			return err
		}
	}
	m.SetCurrentState(state)
	return nil
}

func (m *IloModule) Switch(state modules.State, channel int) modules.Result[string] {
	if !m.IsSetup() {
		return modules.Result[string]{Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return m.SwitchResult(err)
	}
	return m.SwitchResult(m.apply(state))
}

func (m *IloModule) IsOn(channel int) modules.Result[modules.State] {
	if !m.IsSetup() {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	value, err := m.Client.PowerState()
	if err != nil {
		m.Logger().Error().Err(err).Msg("Status check error")
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	switch value {
	case PowerStateOn:
		return modules.Result[modules.State]{Value: modules.StateOn}
	case PowerStateOff:
		return modules.Result[modules.State]{Value: modules.StateOff}
	}
	return modules.Result[modules.State]{Value: modules.StateUnknown}
}

func (m *IloModule) Stop() {
	if m.Config.StateShutdown >= 0 {
		m.Switch(modules.StateFromBool(m.Config.StateShutdown == 1), 0)
	}
	m.MarkSetup(false)
	m.Logger().Info().Msg("Output stopped")
}
