package wakeonlan

import (
	"errors"
	"fmt"

	"github.com/tr4cks/grove/modules"

	"github.com/linde12/gowol"
)

const broadcastAddress = "255.255.255.255"

var errPowerOffUnsupported = errors.New("powering off is not supported by wake-on-lan")

var keepSelect = []modules.SelectOption{
	{Value: -1, Label: "Do Nothing"},
	{Value: 0, Label: "Off"},
	{Value: 1, Label: "On"},
}

var Options = []modules.Option{
	{ID: "hostname", Type: modules.OptionText, Required: true, Name: "Hostname", Phrase: "The host pinged to know whether the machine is awake"},
	{ID: "mac", Type: modules.OptionText, Required: true, Name: "MAC Address", Phrase: "The hardware address the magic packet wakes up"},
	{ID: "state_startup", Type: modules.OptionSelect, Default: -1, Select: keepSelect, Name: "Startup State", Phrase: "Set the state when the host starts"},
	{ID: "state_shutdown", Type: modules.OptionSelect, Default: -1, Select: keepSelect, Name: "Shutdown State", Phrase: "Set the state when the host shuts down"},
}

var Definition = &modules.Definition{
	Name:        "wake_on_lan",
	DisplayName: "Wake-on-LAN: On",
	Message:     "Wakes a machine up with a magic packet and reports it as on while it answers pings.",
	Library:     "gowol",
	Interfaces:  []string{"IP"},
	Dependencies: []modules.Dependency{
		{Manager: "go", Install: "github.com/linde12/gowol", Import: "github.com/linde12/gowol"},
	},
	Channels: []modules.Channel{{Types: []string{"on_off"}}},
	Options:  Options,
	New:      New,
}

type WakeOnLanConfig struct {
	Hostname      string `mapstructure:"hostname" validate:"required"`
	Mac           string `mapstructure:"mac" validate:"required,mac"`
	StateStartup  int    `mapstructure:"state_startup" validate:"oneof=-1 0 1"`
	StateShutdown int    `mapstructure:"state_shutdown" validate:"oneof=-1 0 1"`
}

type WakeOnLanModule struct {
	modules.DefaultOutput
	Config WakeOnLanConfig

	send func(mac string) error
	ping func(hostname string) (bool, error)
}

func New(env modules.Env) modules.Output {
	m := &WakeOnLanModule{send: sendMagicPacket, ping: modules.Ping}
	m.Env = env
	return m
}

func sendMagicPacket(mac string) error {
	packet, err := gowol.NewMagicPacket(mac)
	if err != nil {
		return fmt.Errorf("error creating the magic packet: %w", err)
	}
	err = packet.Send(broadcastAddress)
	if err != nil {
		return fmt.Errorf("error sending the magic packet: %w", err)
	}
	return nil
}

func (m *WakeOnLanModule) Init(config modules.OutputConfig) error {
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

func (m *WakeOnLanModule) Setup() {
	if m.Config.StateStartup >= 0 {
		err := m.apply(modules.StateFromBool(m.Config.StateStartup == 1))
		if err != nil {
			m.Logger().Error().Err(err).Msg("Output was unable to be set up")
			return
		}
	}
	m.MarkSetup(true)
	m.Logger().Info().Str("mac", m.Config.Mac).Msg("Output set up")
}

func (m *WakeOnLanModule) apply(state modules.State) error {
	if state != modules.StateOn {
		return errPowerOffUnsupported
	}
	err := m.send(m.Config.Mac)
	if err != nil {
		return err
	}
	m.SetCurrentState(state)
	return nil
}

func (m *WakeOnLanModule) Switch(state modules.State, channel int) modules.Result[string] {
	if !m.IsSetup() {
		return modules.Result[string]{Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return m.SwitchResult(err)
	}
	return m.SwitchResult(m.apply(state))
}

func (m *WakeOnLanModule) IsOn(channel int) modules.Result[modules.State] {
	if !m.IsSetup() {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: modules.ErrNotSetup}
	}
	if err := m.CheckChannel(channel); err != nil {
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	alive, err := m.ping(m.Config.Hostname)
	if err != nil {
		m.Logger().Error().Err(err).Msg("Status check error")
		return modules.Result[modules.State]{Value: modules.StateUnknown, Err: err}
	}
	return modules.Result[modules.State]{Value: modules.StateFromBool(alive)}
}

func (m *WakeOnLanModule) Stop() {
	if m.Config.StateShutdown >= 0 {
		m.Switch(modules.StateFromBool(m.Config.StateShutdown == 1), 0)
	}
	m.MarkSetup(false)
	m.Logger().Info().Msg("Output stopped")
}
