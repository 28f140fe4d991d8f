package grovepi

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tr4cks/grove/modules"
)

func TestGPIOOutputRequiresPin(t *testing.T) {
	o := &opener{bus: &recordingBus{}}
	output := NewGPIOOutput(newEnv(o, nil))
	require.NoError(t, output.Init(outputConfig(GPIOOutput.Name, nil)))

	output.Setup()

	assert.False(t, output.IsSetup())
	assert.Empty(t, o.opened)
}

func TestGPIOOutputSetup(t *testing.T) {
	bus := &recordingBus{}
	output := NewGPIOOutput(newEnv(&opener{bus: bus}, nil))
	require.NoError(t, output.Init(outputConfig(GPIOOutput.Name, map[string]interface{}{
		"pin":           "7",
		"on_state":      "0",
		"state_startup": 1,
	})))

	output.Setup()

	assert.True(t, output.IsSetup())
	assert.Equal(t, [][]byte{
		{pinModeCommand, 7, 1, 0},
		{digitalWriteCommand, 7, 0, 0},
	}, bus.writes())
}

func TestGPIOOutputIsOnReturnsRawLevel(t *testing.T) {
	for _, tc := range []struct {
		onState int
		level   byte
		expect  modules.State
	}{
		{1, 1, modules.StateOn},
		{1, 0, modules.StateOff},
		{0, 1, modules.StateOn},
		{0, 0, modules.StateOff},
	} {
		t.Run(fmt.Sprintf("on_state=%d/level=%d", tc.onState, tc.level), func(t *testing.T) {
			bus := readBackPlayback(5, byte(tc.onState), tc.level)
			output := NewGPIOOutput(newEnv(&opener{bus: bus}, nil))
			require.NoError(t, output.Init(outputConfig(GPIOOutput.Name, map[string]interface{}{
				"pin":      5,
				"on_state": tc.onState,
			})))
			output.Setup()
			require.True(t, output.IsSetup())

			state := output.IsOn(0)
			require.NoError(t, state.Err)
			assert.Equal(t, tc.expect, state.Value)
		})
	}
}
