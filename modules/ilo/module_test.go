package ilo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tr4cks/grove/modules"
)

type fakeIlo struct {
	mu      sync.Mutex
	state   PowerState
	presses int
}

func (f *fakeIlo) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, password, ok := r.BasicAuth()
	if !ok || user != "admin" || password != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "/redfish/v1/Systems/1":
		json.NewEncoder(w).Encode(powerStatus{f.state})
	case "/redfish/v1/Systems/1/Actions/ComputerSystem.Reset":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if r.Method != http.MethodPost || body["ResetType"] != "PushPowerButton" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.presses++
		if f.state == PowerStateOn {
			f.state = PowerStateOff
		} else {
			f.state = PowerStateOn
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newModule(t *testing.T, server *httptest.Server, password string) *IloModule {
	t.Helper()
	m := New(modules.Env{Logger: zerolog.Nop()}).(*IloModule)
	require.NoError(t, m.Init(modules.OutputConfig{
		Name: "server",
		Type: Definition.Name,
		Options: map[string]interface{}{
			"url":      server.URL,
			"username": "admin",
			"password": password,
		},
	}))
	return m
}

func TestSwitchPressesButtonOnlyWhenStateDiffers(t *testing.T) {
	fake := &fakeIlo{state: PowerStateOff}
	server := httptest.NewTLSServer(fake)
	defer server.Close()

	m := newModule(t, server, "secret")
	m.Setup()
	require.True(t, m.IsSetup())

	require.NoError(t, m.Switch(modules.StateOn, 0).Err)
	require.NoError(t, m.Switch(modules.StateOn, 0).Err)
	assert.Equal(t, 1, fake.presses)
	assert.Equal(t, modules.StateOn, m.IsOn(0).Value)

	require.NoError(t, m.Switch(modules.StateOff, 0).Err)
	assert.Equal(t, 2, fake.presses)
	assert.Equal(t, modules.StateOff, m.IsOn(0).Value)
}

func TestRequestErrorsBecomeSwitchFailures(t *testing.T) {
	fake := &fakeIlo{state: PowerStateOff}
	server := httptest.NewTLSServer(fake)
	defer server.Close()

	m := newModule(t, server, "wrong")
	m.Setup()
	assert.True(t, m.IsSetup())

	result := m.Switch(modules.StateOn, 0)
	assert.Error(t, result.Err)
	assert.Contains(t, result.Value, "StatusCode: 401")

	state := m.IsOn(0)
	assert.Equal(t, modules.StateUnknown, state.Value)
	assert.Error(t, state.Err)
}

func TestStartupStateFailureAbortsSetup(t *testing.T) {
	fake := &fakeIlo{state: PowerStateOff}
	server := httptest.NewTLSServer(fake)
	defer server.Close()

	m := New(modules.Env{Logger: zerolog.Nop()}).(*IloModule)
	require.NoError(t, m.Init(modules.OutputConfig{
		Name: "server",
		Options: map[string]interface{}{
			"url":           server.URL,
			"username":      "admin",
			"password":      "wrong",
			"state_startup": 1,
		},
	}))
	m.Setup()
	assert.False(t, m.IsSetup())
}

func TestNewClientRejectsBadUrl(t *testing.T) {
	_, err := NewClient("://bad", "a", "b")
	assert.Error(t, err)
}
