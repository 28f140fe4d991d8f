package main

import (
	"fmt"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommands(t *testing.T) {
	commands := buildCommands([]string{"fan", "lamp"})

	require.Len(t, commands, 3)
	assert.Equal(t, "output_status", commands[0].Name)
	assert.Nil(t, commands[0].DefaultMemberPermissions)
	for _, command := range commands[1:] {
		require.NotNil(t, command.DefaultMemberPermissions)
		assert.Equal(t, int64(discordgo.PermissionAdministrator), *command.DefaultMemberPermissions)
	}
	for _, command := range commands {
		require.Len(t, command.Options, 1)
		option := command.Options[0]
		assert.True(t, option.Required)
		require.Len(t, option.Choices, 2)
		assert.Equal(t, "lamp", option.Choices[1].Value)
	}
}

func TestBuildCommandsCapsChoices(t *testing.T) {
	names := make([]string, 40)
	for i := range names {
		names[i] = fmt.Sprintf("output-%02d", i)
	}

	commands := buildCommands(names)

	assert.Len(t, commands[0].Options[0].Choices, maxOptionChoices)
}

func TestStatusMessage(t *testing.T) {
	tests := []struct {
		status   OutputStatus
		expected string
	}{
		{OutputStatus{Name: "fan", Setup: true, State: "on"}, "🌞 fan is on"},
		{OutputStatus{Name: "fan", Setup: true, State: "off"}, "💤 fan is off"},
		{OutputStatus{Name: "fan", Setup: true, State: "unknown"}, "❔ fan is in an unknown state"},
		{OutputStatus{Name: "fan", Setup: false, State: "on"}, "🔌 fan is unavailable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, statusMessage(tt.status))
	}
}
