package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tr4cks/grove/modules"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
username: admin
password: secret
log-level: debug
outputs:
  - name: pump
    type: grove_pio_gpio
    i2c-bus: 1
    options:
      pin: 3
      on_state: 1
      amps: 0.5
    schedule:
      - cron: "0 6 * * *"
        state: "on"
  - name: strip
    type: grove_pi_adafruit_neopixel_stick
    i2c-location: "0x05"
    options:
      red: 10
`)

	config, err := loadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, ":8080", config.Listen)
	assert.Equal(t, zerolog.DebugLevel, logLevel(config))
	assert.Nil(t, config.Discord)
	require.Len(t, config.Outputs, 2)
	pump := config.Outputs[0]
	assert.Equal(t, "pump", pump.Name)
	assert.Equal(t, "grove_pio_gpio", pump.Type)
	assert.Equal(t, 1, pump.I2CBus)
	assert.Equal(t, 3, pump.Options["pin"])
	assert.Equal(t, []ScheduleEntry{{Cron: "0 6 * * *", State: "on"}}, pump.Schedule)
	assert.Equal(t, "0x05", config.Outputs[1].I2CLocation)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "error opening file")

	_, err = loadConfig(writeConfig(t, "username: [admin"))
	assert.ErrorContains(t, err, "error decoding YAML file")

	_, err = loadConfig(writeConfig(t, "username: admin\n"))
	assert.ErrorContains(t, err, "Password")

	_, err = loadConfig(writeConfig(t, `
username: admin
password: secret
outputs:
  - name: pump
    type: grove_pio_gpio
    schedule:
      - cron: "0 6 * * *"
        state: dim
`))
	assert.ErrorContains(t, err, "State")
}

func TestLogLevelFallback(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, logLevel(&Config{}))
	assert.Equal(t, zerolog.InfoLevel, logLevel(&Config{LogLevel: "loud"}))
	assert.Equal(t, zerolog.WarnLevel, logLevel(&Config{LogLevel: "warn"}))
}

func TestValidateOutputs(t *testing.T) {
	entries := []OutputEntry{
		{OutputConfig: modules.OutputConfig{Name: "pump", Type: "grove_pio_gpio", Options: map[string]interface{}{"amps": 1.5}}},
		{OutputConfig: modules.OutputConfig{Name: "relay", Type: "grove_pi_gpio_output"}},
		{
			OutputConfig: modules.OutputConfig{Name: "strip", Type: "grove_pi_adafruit_neopixel_stick", Options: map[string]interface{}{"red": 256}},
			Schedule:     []ScheduleEntry{{Cron: "sometimes", State: "on"}},
		},
	}

	report, err := validateOutputs(newRegistry(), entries)

	require.NoError(t, err)
	assert.Equal(t, []string{"pump", "relay", "strip"}, report.names)
	assert.Empty(t, report.messages["pump"])
	assert.Contains(t, report.messages["relay"], "GPIO Pin (Grove Pi+) is required")
	assert.Contains(t, report.messages["strip"], "Must be less than 256")
	assert.GreaterOrEqual(t, len(report.messages["strip"]), 3)
}

func TestValidateOutputsUnknownType(t *testing.T) {
	_, err := validateOutputs(newRegistry(), []OutputEntry{
		{OutputConfig: modules.OutputConfig{Name: "heater", Type: "relay"}},
	})
	assert.ErrorContains(t, err, `output "heater"`)
}
