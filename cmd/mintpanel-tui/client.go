package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

type mintEvent struct {
	TxHash      string `json:"tx_hash"`
	FromAddress string `json:"from_address"`
	TokenID     string `json:"token_id"`
	BlockNumber uint64 `json:"block_number"`
}

// apiClient talks to a running mintpaneld.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		// Connect can wait on the wallet, so allow more than a status poll needs.
		http: &http.Client{Timeout: 2 * time.Minute},
	}
}

func (c *apiClient) do(method, path string, out interface{}) error {
	req, err := http.NewRequest(method, c.base+path, nil)
	if err != nil {
		return err
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s", e.Error)
		}
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (c *apiClient) View() (panel.View, error) {
	var v panel.View
	err := c.do(http.MethodGet, "/api/panel", &v)
	return v, err
}

func (c *apiClient) Connect() (panel.View, error) {
	var v panel.View
	err := c.do(http.MethodPost, "/api/connect", &v)
	return v, err
}

func (c *apiClient) Mint() (panel.View, error) {
	var v panel.View
	err := c.do(http.MethodPost, "/api/mint", &v)
	return v, err
}

func (c *apiClient) AckAlerts() error {
	return c.do(http.MethodPost, "/api/alerts/ack", nil)
}

func (c *apiClient) Events(limit int) ([]mintEvent, error) {
	var events []mintEvent
	err := c.do(http.MethodGet, fmt.Sprintf("/api/events?limit=%d", limit), &events)
	return events, err
}
