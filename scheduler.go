package main

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/tr4cks/grove/modules"
)

type ScheduleEntry struct {
	Cron  string `yaml:"cron" validate:"required"`
	State string `yaml:"state" validate:"required,oneof=on off"`
}

type switcher interface {
	Switch(name string, state modules.State) (modules.Result[string], error)
}

// Scheduler switches outputs on cron expressions.
type Scheduler struct {
	cron    *cron.Cron
	outputs switcher
	logger  zerolog.Logger
}

func NewScheduler(outputs switcher, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		outputs: outputs,
		logger:  logger,
	}
}

func (s *Scheduler) Add(output string, entries []ScheduleEntry) error {
	for _, entry := range entries {
		state, err := modules.ParseState(entry.State)
		if err != nil {
			return fmt.Errorf("invalid schedule for output %q: %w", output, err)
		}
		logger := s.logger.With().Str("output", output).Str("cron", entry.Cron).Str("state", state.String()).Logger()
		schedule, err := ParseCron(entry.Cron)
		if err != nil {
			return fmt.Errorf("output %q: %w", output, err)
		}
		s.cron.Schedule(schedule, cron.FuncJob(func() {
			result, err := s.outputs.Switch(output, state)
			if err == nil {
				err = result.Err
			}
			if err != nil {
				logger.Error().Err(err).Msg("Scheduled switch failed")
				return
			}
			logger.Info().Msg("Scheduled switch done")
		}))
		logger.Debug().Msg("Schedule added")
	}
	return nil
}

func ParseCron(spec string) (cron.Schedule, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return schedule, nil
}

func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for the running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
