// ABOUTME: HTTP implementation of ActivityClient against the gateway REST API
// ABOUTME: Used by console hosts that embed a Monitor against a remote gateway

package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPClient implements ActivityClient over the gateway's activity endpoints.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the given gateway base URL, sending the
// session token as a bearer credential.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// activityResponse mirrors the /api/activity payload.
type activityResponse struct {
	Snapshot *Snapshot `json:"snapshot"`
}

// connectResponse mirrors the /api/activity/connect payload.
type connectResponse struct {
	Connected bool `json:"connected"`
}

// FetchActivity retrieves the caller's current activity snapshot.
func (c *HTTPClient) FetchActivity(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/activity", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching activity: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching activity: unexpected status %d", resp.StatusCode)
	}

	var body activityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding activity response: %w", err)
	}
	return body.Snapshot, nil
}

// Connect performs the presence confirmation action. The boolean result is
// the server's verdict; false means the console stays locked.
func (c *HTTPClient) Connect(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/activity/connect", nil)
	if err != nil {
		return false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("connecting: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("connecting: unexpected status %d", resp.StatusCode)
	}

	var body connectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding connect response: %w", err)
	}
	return body.Connected, nil
}
