package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tr4cks/grove/modules"
)

type recordingSwitcher struct {
	calls []string
}

func (r *recordingSwitcher) Switch(name string, state modules.State) (modules.Result[string], error) {
	r.calls = append(r.calls, name+":"+state.String())
	return modules.Result[string]{Value: "success"}, nil
}

func TestSchedulerAddsEntries(t *testing.T) {
	switcher := &recordingSwitcher{}
	scheduler := NewScheduler(switcher, zerolog.Nop())

	require.NoError(t, scheduler.Add("lights", []ScheduleEntry{
		{Cron: "0 6 * * *", State: "on"},
		{Cron: "0 22 * * *", State: "off"},
	}))
	assert.Equal(t, 2, scheduler.Len())

	for _, entry := range scheduler.cron.Entries() {
		entry.Job.Run()
	}
	assert.ElementsMatch(t, []string{"lights:on", "lights:off"}, switcher.calls)
}

func TestSchedulerRejectsInvalidEntries(t *testing.T) {
	scheduler := NewScheduler(&recordingSwitcher{}, zerolog.Nop())

	assert.Error(t, scheduler.Add("lights", []ScheduleEntry{{Cron: "every morning", State: "on"}}))
	assert.Error(t, scheduler.Add("lights", []ScheduleEntry{{Cron: "0 6 * * *", State: "dim"}}))
	assert.Equal(t, 0, scheduler.Len())
}

func TestSchedulerStartStop(t *testing.T) {
	scheduler := NewScheduler(&recordingSwitcher{}, zerolog.Nop())
	scheduler.Start()
	scheduler.Stop()
}
