package envelope

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client fetches envelopes from the finance backend's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the backend at baseURL, e.g.
// "http://localhost:3001/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Envelopes returns every envelope for a household, including non-public
// ones. Visibility gating happens at display time, not fetch time.
func (c *Client) Envelopes(ctx context.Context, household string) ([]Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/households/%s/envelopes", c.baseURL, household), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch envelopes: status %d", resp.StatusCode)
	}

	var out []Envelope
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode envelopes: %w", err)
	}
	return out, nil
}
