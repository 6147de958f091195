// Package backend talks to the briefing API: the wager list and the two
// authoritative refresh endpoints. The backend is an external collaborator;
// only its result contracts matter here.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// Client is an HTTP client for the briefing backend
type Client struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

// New creates a backend client
func New(baseURL, authToken string) *Client {
	return &Client{
		baseURL:   baseURL,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListWagers fetches the user's full wager list
func (c *Client) ListWagers(ctx context.Context) ([]models.Wager, error) {
	var response struct {
		Bets []models.Wager `json:"bets"`
	}
	if err := c.do(ctx, "GET", "/api/bets", nil, &response); err != nil {
		return nil, fmt.Errorf("listing wagers: %w", err)
	}
	return response.Bets, nil
}

// RefreshWagers asks the backend to compute live tracking for a batch of
// wager ids. Wagers the backend could not resolve are simply absent from the
// response - the caller falls back to client-side resolution for those.
func (c *Client) RefreshWagers(ctx context.Context, ids []string) ([]models.TrackingPayload, error) {
	var response struct {
		Bets []models.TrackingPayload `json:"bets"`
	}
	if err := c.do(ctx, "POST", "/api/bets/refresh-props", ids, &response); err != nil {
		return nil, fmt.Errorf("refreshing wagers: %w", err)
	}
	return response.Bets, nil
}

// RefreshParlayLegs asks the backend to refresh every leg of a batch of
// parlays.
func (c *Client) RefreshParlayLegs(ctx context.Context, ids []string) ([]models.ParlayRefresh, error) {
	var response struct {
		Parlays []models.ParlayRefresh `json:"parlays"`
	}
	if err := c.do(ctx, "POST", "/api/bets/refresh-parlay-legs", ids, &response); err != nil {
		return nil, fmt.Errorf("refreshing parlay legs: %w", err)
	}
	return response.Parlays, nil
}

// do executes one JSON request/response round trip
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("backend error: status=%d, body=%s", resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
