package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

const (
	BaseURL = "https://site.api.espn.com/apis/site/v2/sports"
)

// Client handles ESPN scoreboard API requests
type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
}

// New creates a new ESPN API client
func New() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent: "Mozilla/5.0 (compatible; BriefingBot/1.0)",
		baseURL:   BaseURL,
	}
}

// NewWithBaseURL creates a client pointed at a non-default base URL (tests)
func NewWithBaseURL(baseURL string) *Client {
	c := New()
	c.baseURL = baseURL
	return c
}

// FetchScores fetches live/recent events for a league. With liveOnly set,
// only in-progress events are returned. An empty date means whatever ESPN
// considers "today".
func (c *Client) FetchScores(ctx context.Context, league string, limit int, liveOnly bool, date string) ([]models.Event, error) {
	raw, err := c.fetchScoreboard(ctx, league, date)
	if err != nil {
		return nil, err
	}

	events := ParseScoreboard(raw, league)
	if liveOnly {
		events = filterState(events, models.StateIn)
	}
	return capEvents(events, limit), nil
}

// FetchSchedule fetches upcoming (pre-game) events for a league.
func (c *Client) FetchSchedule(ctx context.Context, league string, limit int, date string) ([]models.Event, error) {
	raw, err := c.fetchScoreboard(ctx, league, date)
	if err != nil {
		return nil, err
	}

	events := filterState(ParseScoreboard(raw, league), models.StatePre)
	return capEvents(events, limit), nil
}

// fetchScoreboard makes the scoreboard request and returns parsed JSON
func (c *Client) fetchScoreboard(ctx context.Context, league string, date string) (map[string]interface{}, error) {
	sportPath, ok := LeaguePath(league)
	if !ok {
		return nil, fmt.Errorf("unknown league: %s", league)
	}

	url := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, sportPath)
	if date != "" {
		url = fmt.Sprintf("%s?dates=%s", url, date)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ESPN API error: status=%d, body=%s", resp.StatusCode, string(body))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return result, nil
}

func filterState(events []models.Event, state models.GameState) []models.Event {
	var out []models.Event
	for _, ev := range events {
		if ev.State == state {
			out = append(out, ev)
		}
	}
	return out
}

func capEvents(events []models.Event, limit int) []models.Event {
	if limit > 0 && len(events) > limit {
		return events[:limit]
	}
	return events
}
