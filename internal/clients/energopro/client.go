package energopro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

// DefaultBaseURL is the public energo-pro outage API
const DefaultBaseURL = "https://my.energo-pro.ge/owback"

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches electricity outages from energo-pro
type Client struct {
	baseURL    string
	httpClient HTTPDoer
}

// NewClient creates a client for the public API
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return NewClientWithHTTPDoer(baseURL, &http.Client{Timeout: 30 * time.Second})
}

// NewClientWithHTTPDoer creates a client with a custom transport
func NewClientWithHTTPDoer(baseURL string, doer HTTPDoer) *Client {
	return &Client{baseURL: baseURL, httpClient: doer}
}

// FetchCity returns the dated outages the feed lists for a Georgian city name.
// Records are returned as published, one per service center.
func (c *Client) FetchCity(ctx context.Context, cityGe string) ([]alerts.Alert, error) {
	body, err := json.Marshal(map[string]string{"search": cityGe})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/searchAlerts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limit exceeded")
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(msg))
	}

	var root alerts.AlertsRoot
	if err := json.NewDecoder(resp.Body).Decode(&root); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return alerts.FilterScheduled(root.Data), nil
}
