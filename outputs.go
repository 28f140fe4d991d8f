package main

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tr4cks/grove/modules"
)

var ErrUnknownOutput = errors.New("unknown output")

type OutputEntry struct {
	modules.OutputConfig `yaml:",inline"`
	Schedule             []ScheduleEntry `yaml:"schedule" validate:"dive"`
}

// managedOutput serialises the calls made to one output: the HTTP server,
// the Discord bot and the scheduler all run on their own goroutines.
type managedOutput struct {
	mu         sync.Mutex
	entry      OutputEntry
	definition *modules.Definition
	output     modules.Output
	// initErr is set when the options could not be decoded; such an output
	// is kept but never set up.
	initErr error
}

type OutputStatus struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Setup   bool   `json:"setup"`
	State   string `json:"state"`
	Error   string `json:"error,omitempty"`
	Display string `json:"display_name"`
}

type Manager struct {
	logger   zerolog.Logger
	registry *modules.Registry
	open     modules.BusOpener

	outputs []*managedOutput
	byName  map[string]*managedOutput

	listenersMu sync.Mutex
	listeners   []modules.TriggerFunc
}

func NewManager(registry *modules.Registry, open modules.BusOpener, logger zerolog.Logger) *Manager {
	return &Manager{
		logger:   logger,
		registry: registry,
		open:     open,
		byName:   make(map[string]*managedOutput),
	}
}

// OnTrigger registers a listener for "trigger functions" notifications.
func (m *Manager) OnTrigger(listener modules.TriggerFunc) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, listener)
}

func (m *Manager) trigger(output string, channel int) {
	m.logger.Info().Str("output", output).Int("channel", channel).Msg("Triggering functions")
	m.listenersMu.Lock()
	listeners := append([]modules.TriggerFunc(nil), m.listeners...)
	m.listenersMu.Unlock()
	for _, listener := range listeners {
		listener(output, channel)
	}
}

// Load builds and initializes every configured output. Only an unknown
// variant or a duplicated name is an error: option problems are logged and
// an output whose options cannot be decoded stays unavailable.
func (m *Manager) Load(entries []OutputEntry) error {
	for _, entry := range entries {
		if _, ok := m.byName[entry.Name]; ok {
			return fmt.Errorf("output %q is defined more than once", entry.Name)
		}
		definition, err := m.registry.Lookup(entry.Type)
		if err != nil {
			return err
		}
		if entry.I2CLocation == "" {
			entry.I2CLocation = definition.DefaultI2CLocation()
		}

		logger := m.logger.With().Str("output", entry.Name).Logger()
		for _, msg := range modules.CheckOptions(definition.Options, entry.Options) {
			logger.Warn().Msg(msg)
		}

		output := definition.New(modules.Env{
			Logger:  m.logger,
			Open:    m.open,
			Trigger: m.trigger,
		})
		initErr := output.Init(entry.OutputConfig)
		if initErr != nil {
			logger.Error().Err(initErr).Msg("Output initialization error")
		}

		managed := &managedOutput{entry: entry, definition: definition, output: output, initErr: initErr}
		m.outputs = append(m.outputs, managed)
		m.byName[entry.Name] = managed
	}
	return nil
}

func (m *Manager) Setup() {
	for _, managed := range m.outputs {
		if managed.initErr != nil {
			recordSetup(managed.entry.Name, false)
			m.logger.Warn().Str("output", managed.entry.Name).Msg("Output unavailable, skipping setup")
			continue
		}
		managed.mu.Lock()
		managed.output.Setup()
		setup := managed.output.IsSetup()
		managed.mu.Unlock()

		recordSetup(managed.entry.Name, setup)
		if !setup {
			m.logger.Warn().Str("output", managed.entry.Name).Msg("Output unavailable")
		}
	}
}

// Stop applies the shutdown state of every output, last loaded first.
func (m *Manager) Stop() {
	for i := len(m.outputs) - 1; i >= 0; i-- {
		managed := m.outputs[i]
		if managed.initErr != nil {
			continue
		}
		managed.mu.Lock()
		managed.output.Stop()
		managed.mu.Unlock()
		recordSetup(managed.entry.Name, false)
	}
}

func (m *Manager) lookup(name string) (*managedOutput, error) {
	managed, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOutput, name)
	}
	return managed, nil
}

func (m *Manager) Switch(name string, state modules.State) (modules.Result[string], error) {
	managed, err := m.lookup(name)
	if err != nil {
		return modules.Result[string]{}, err
	}
	managed.mu.Lock()
	result := managed.output.Switch(state, 0)
	managed.mu.Unlock()

	recordSwitch(name, state, result)
	return result, nil
}

func (m *Manager) State(name string) (modules.Result[modules.State], error) {
	managed, err := m.lookup(name)
	if err != nil {
		return modules.Result[modules.State]{}, err
	}
	managed.mu.Lock()
	result := managed.output.IsOn(0)
	managed.mu.Unlock()

	if result.Err == nil {
		recordState(name, result.Value)
	}
	return result, nil
}

func (m *Manager) status(managed *managedOutput) OutputStatus {
	name := managed.entry.Name
	state, _ := m.State(name)

	managed.mu.Lock()
	setup := managed.output.IsSetup()
	managed.mu.Unlock()

	status := OutputStatus{
		Name:    name,
		Type:    managed.entry.Type,
		Setup:   setup,
		State:   state.Value.String(),
		Display: managed.definition.DisplayName,
	}
	switch {
	case managed.initErr != nil:
		status.Error = managed.initErr.Error()
	case state.Err != nil:
		status.Error = state.Err.Error()
	}
	return status
}

func (m *Manager) Status(name string) (OutputStatus, error) {
	managed, err := m.lookup(name)
	if err != nil {
		return OutputStatus{}, err
	}
	return m.status(managed), nil
}

// Statuses queries every output concurrently; outputs are independent
// devices so a slow one does not hold the others back.
func (m *Manager) Statuses() []OutputStatus {
	channels := make([]chan OutputStatus, len(m.outputs))
	for i, managed := range m.outputs {
		managed := managed
		task, channel := modules.MakeAsync(func() OutputStatus {
			return m.status(managed)
		})
		channels[i] = channel
		go task()
	}

	statuses := make([]OutputStatus, len(channels))
	for i, channel := range channels {
		statuses[i] = <-channel
	}
	return statuses
}

func (m *Manager) Names() []string {
	names := make([]string, len(m.outputs))
	for i, managed := range m.outputs {
		names[i] = managed.entry.Name
	}
	return names
}

func (m *Manager) Entries() []OutputEntry {
	entries := make([]OutputEntry, len(m.outputs))
	for i, managed := range m.outputs {
		entries[i] = managed.entry
	}
	return entries
}
