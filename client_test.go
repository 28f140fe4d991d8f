package main

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tr4cks/grove/modules"
)

func TestClientAgainstRouter(t *testing.T) {
	router, manager := newTestRouter(t, fakeEntry("fan", nil), fakeEntry("lamp", nil))
	server := httptest.NewServer(router)
	defer server.Close()

	client := NewClient(server.URL, "admin", "secret")

	require.NoError(t, client.Switch("lamp", modules.StateOn))
	assert.Equal(t, []modules.State{modules.StateOn}, fakeOf(t, manager, "lamp").switches)

	status, err := client.Status("lamp")
	require.NoError(t, err)
	assert.Equal(t, "on", status.State)

	statuses, err := client.Statuses()
	require.NoError(t, err)
	assert.Len(t, statuses, 2)

	err = client.Switch("heater", modules.StateOn)
	assert.ErrorContains(t, err, "StatusCode: 404")
}

func TestClientBadCredentials(t *testing.T) {
	router, _ := newTestRouter(t, fakeEntry("fan", nil))
	server := httptest.NewServer(router)
	defer server.Close()

	err := NewClient(server.URL, "admin", "wrong").Switch("fan", modules.StateOff)
	assert.ErrorContains(t, err, "StatusCode: 401")
}
