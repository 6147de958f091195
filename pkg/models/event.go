package models

import "time"

// GameState represents where an event is in its lifecycle
type GameState string

const (
	StatePre     GameState = "pre"
	StateIn      GameState = "in"
	StatePost    GameState = "post"
	StateUnknown GameState = "unknown"
)

// Event is one scheduled, live, or finished sporting contest.
// Scores are pointers because pre-game events carry no score at all.
type Event struct {
	EventID      string     `json:"event_id,omitempty"` // absent for unconfirmed scheduled events
	League       string     `json:"league"`             // "nba", "nfl", ...
	HomeTeam     string     `json:"home_team"`          // full display name, not a normalized key
	AwayTeam     string     `json:"away_team"`
	State        GameState  `json:"state"`
	HomeScore    *float64   `json:"home_score,omitempty"`
	AwayScore    *float64   `json:"away_score,omitempty"`
	Period       int        `json:"period,omitempty"`
	DisplayClock string     `json:"display_clock,omitempty"`
	ClockSeconds float64    `json:"clock_seconds,omitempty"`
	StatusText   string     `json:"status,omitempty"` // "5:09 - 2nd", "Final"
	Completed    bool       `json:"completed"`
	Date         *time.Time `json:"date,omitempty"`
	TBD          bool       `json:"tbd,omitempty"` // schedule slot with no confirmed matchup
}

// IsLive reports whether the event is currently in progress.
func (e *Event) IsLive() bool {
	return e.State == StateIn
}

// IsFinal reports whether the event has finished. Once final, scores are
// immutable for the remainder of the cache lifetime.
func (e *Event) IsFinal() bool {
	return e.State == StatePost
}
