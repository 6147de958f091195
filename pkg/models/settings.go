package models

import "time"

// UserSettings holds the dashboard preferences the engine polls by.
type UserSettings struct {
	UserID             string   `json:"user_id"`
	RefreshIntervalSec int      `json:"refresh_interval_sec"` // wager refresh cadence
	EventIntervalSec   int      `json:"event_interval_sec"`   // event poll cadence, floor-clamped at runtime
	Leagues            []string `json:"leagues"`              // ordered list of enabled leagues
	SelectedLeague     string   `json:"selected_league,omitempty"`
}

// RefreshInterval returns the wager refresh cadence as a duration.
func (s *UserSettings) RefreshInterval() time.Duration {
	return time.Duration(s.RefreshIntervalSec) * time.Second
}

// EventInterval returns the event poll cadence as a duration.
func (s *UserSettings) EventInterval() time.Duration {
	return time.Duration(s.EventIntervalSec) * time.Second
}

// UserSettingsUpdate is a partial settings update from the API.
type UserSettingsUpdate struct {
	RefreshIntervalSec *int      `json:"refresh_interval_sec,omitempty"`
	EventIntervalSec   *int      `json:"event_interval_sec,omitempty"`
	Leagues            *[]string `json:"leagues,omitempty"`
	SelectedLeague     *string   `json:"selected_league,omitempty"`
}
