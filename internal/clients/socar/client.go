package socar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

const (
	// DefaultBaseURL is the outage API behind mygas.ge
	DefaultBaseURL = "https://utilixwebapi.azurewebsites.net/api/Outage/GetOutagesWithPaging"
	// Origin is the site the API accepts requests from
	Origin = "https://mygas.ge"
)

// HTTPDoer is the subset of http.Client used by the client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches gas outages from Socar
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

// URL builds the paged search URL
func (c *Client) URL(page, size int, search string) string {
	params := url.Values{}
	params.Set("PageIndex", strconv.Itoa(page))
	params.Set("PageSize", strconv.Itoa(size))
	params.Set("searchText", search)
	return c.baseURL + "?" + params.Encode()
}

// GetOutages returns one page of outages matching search
func (c *Client) GetOutages(ctx context.Context, page, size int, search string) ([]alerts.SocarAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(page, size, search), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Origin", Origin)
	req.Header.Set("Referer", Origin)
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

	var result alerts.SocarPage
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Items, nil
}

// FetchCity returns the first page of outages for a Georgian city name
func (c *Client) FetchCity(ctx context.Context, cityGe string) ([]alerts.SocarAlert, error) {
	return c.GetOutages(ctx, 1, 100, cityGe)
}
