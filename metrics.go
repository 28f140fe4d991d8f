package main

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tr4cks/grove/modules"
)

// Status values for the switch counter.
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusNotSetup = "not_setup"
)

var OutputSwitches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "grove_output_switches_total",
		Help: "Total number of output state changes requested",
	},
	[]string{"output", "state", "status"},
)

var OutputSetup = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "grove_output_setup",
		Help: "Whether the output is set up (1) or unavailable (0)",
	},
	[]string{"output"},
)

var OutputState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "grove_output_state",
		Help: "Last known output state: 1 on, 0 off, -1 unknown",
	},
	[]string{"output"},
)

// RegisterMetrics registers output metrics with the given registry. Panics if
// registration fails.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(OutputSwitches)
	reg.MustRegister(OutputSetup)
	reg.MustRegister(OutputState)
}

func recordSwitch(output string, state modules.State, result modules.Result[string]) {
	status := StatusSuccess
	switch {
	case errors.Is(result.Err, modules.ErrNotSetup):
		status = StatusNotSetup
	case result.Err != nil:
		status = StatusError
	}
	OutputSwitches.WithLabelValues(output, state.String(), status).Inc()
	if result.Err == nil {
		recordState(output, state)
	}
}

func recordState(output string, state modules.State) {
	value := -1.0
	switch state {
	case modules.StateOn:
		value = 1
	case modules.StateOff:
		value = 0
	}
	OutputState.WithLabelValues(output).Set(value)
}

func recordSetup(output string, setup bool) {
	value := 0.0
	if setup {
		value = 1
	}
	OutputSetup.WithLabelValues(output).Set(value)
}
