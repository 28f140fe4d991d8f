package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tr4cks/grove/modules"
)

// Client drives a running server. Outputs own their bus exclusively, so the
// command line goes through the server instead of opening the hardware.
type Client struct {
	base     string
	username string
	password string
	http     *http.Client
}

type apiError struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func NewClient(base string, username string, password string) *Client {
	return &Client{
		base:     base,
		username: username,
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(method string, path string, out interface{}) error {
	endpoint, err := url.JoinPath(c.base, path)
	if err != nil {
		return fmt.Errorf("error building the URL: %w", err)
	}
	req, err := http.NewRequest(method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating the request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error sending the request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading the response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (StatusCode: %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected response (StatusCode: %d, Body: %v)", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		return fmt.Errorf("error decoding the JSON response: %w", err)
	}
	return nil
}

func (c *Client) Switch(name string, state modules.State) error {
	return c.do(http.MethodPost, fmt.Sprintf("/api/outputs/%s/%s", url.PathEscape(name), state), nil)
}

func (c *Client) Status(name string) (OutputStatus, error) {
	var status OutputStatus
	err := c.do(http.MethodGet, fmt.Sprintf("/api/outputs/%s/state", url.PathEscape(name)), &status)
	return status, err
}

func (c *Client) Statuses() ([]OutputStatus, error) {
	var statuses []OutputStatus
	err := c.do(http.MethodGet, "/api/outputs", &statuses)
	return statuses, err
}
