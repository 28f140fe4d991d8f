package ilo

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type PowerState string

const (
	PowerStateOn      PowerState = "On"
	PowerStateOff     PowerState = "Off"
	PowerStateUnknown PowerState = "Unknown"
	PowerReset        PowerState = "Reset"
)

type powerStatus struct {
	PowerState PowerState `json:"PowerState"`
}

// IloClient talks to the Redfish API of an HPE iLO management controller.
type IloClient struct {
	url      *url.URL
	username string
	password string
	http     *http.Client
}

func NewClient(baseUrl string, username string, password string) (*IloClient, error) {
	parsedUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing the URL: %w", err)
	}
	parsedUrl.Scheme = "https"
	parsedUrl = parsedUrl.JoinPath("/redfish/v1/")

	// iLO ships with a self-signed certificate
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &IloClient{
		url:      parsedUrl,
		username: username,
		password: password,
		http:     &http.Client{Transport: transport, Timeout: 10 * time.Second},
	}, nil
}

func (c *IloClient) do(method string, path string, body interface{}, out interface{}) error {
	endpoint := c.url.JoinPath(path)

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding JSON: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("error creating the request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending the request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		content, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading the response body: %w", err)
		}
		return fmt.Errorf("unexpected iLO response (StatusCode: %d, Body: %v)", resp.StatusCode, string(content))
	}

	if out == nil {
		return nil
	}
	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("error decoding the JSON response: %w", err)
	}
	return nil
}

// PushPowerButton presses the virtual power button, toggling the server.
func (c *IloClient) PushPowerButton() error {
	reqBody := map[string]string{
		"ResetType": "PushPowerButton",
	}
	err := c.do(http.MethodPost, "/Systems/1/Actions/ComputerSystem.Reset/", reqBody, nil)
	if err != nil {
		return fmt.Errorf("error pushing the power button: %w", err)
	}
	return nil
}

func (c *IloClient) PowerState() (PowerState, error) {
	var status powerStatus
	err := c.do(http.MethodGet, "/Systems/1/", nil, &status)
	if err != nil {
		return PowerStateUnknown, fmt.Errorf("error retrieving server power status: %w", err)
	}
	return status.PowerState, nil
}
