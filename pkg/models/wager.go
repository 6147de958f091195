package models

import "time"

// WagerType is the bet type as entered by the user
type WagerType string

const (
	TypeMoneyline    WagerType = "Moneyline"
	TypeSpread       WagerType = "Spread"
	TypeTotal        WagerType = "Total"
	TypeProp         WagerType = "Prop"
	TypeFirstHalf    WagerType = "1st Half"
	TypeFirstQuarter WagerType = "1st Quarter"
	TypeTeamTotal    WagerType = "Team Total"
	TypeParlay       WagerType = "Parlay"
)

// WagerStatus is the settled status of a wager. This is separate from the
// live PropStatus derived by the engine: a wager stays Pending until the
// user (or backend settlement) grades it.
type WagerStatus string

const (
	StatusPending WagerStatus = "Pending"
	StatusWon     WagerStatus = "Won"
	StatusLost    WagerStatus = "Lost"
	StatusPushed  WagerStatus = "Pushed"
)

// PropStatus is the engine-derived live/terminal outcome for a tracked wager.
// Empty means the engine has no opinion yet.
type PropStatus string

const (
	PropStatusNone     PropStatus = ""
	PropStatusLiveHit  PropStatus = "live_hit"
	PropStatusLiveMiss PropStatus = "live_miss"
	PropStatusLivePush PropStatus = "live_push"
	PropStatusWon      PropStatus = "won"
	PropStatusLost     PropStatus = "lost"
	PropStatusPush     PropStatus = "push"
)

// IsTerminal reports whether the status is final. Terminal statuses are never
// overwritten by a later resolution pass.
func (s PropStatus) IsTerminal() bool {
	return s == PropStatusWon || s == PropStatusLost || s == PropStatusPush
}

// Side constants for over/under markets. For Moneyline and Spread wagers the
// side field holds the selected team's name instead.
const (
	SideOver  = "over"
	SideUnder = "under"
)

// CombinedPlayer is one constituent of a combined prop (multiple players who
// must together satisfy a line).
type CombinedPlayer struct {
	PlayerName   string    `json:"player_name"`
	TeamName     string    `json:"team_name,omitempty"`
	EventID      string    `json:"event_id,omitempty"`
	CurrentValue *float64  `json:"current_value,omitempty"`
	GameState    GameState `json:"game_state,omitempty"`
}

// Leg is one constituent selection within a parlay wager.
type Leg struct {
	Sport     string  `json:"sport"`
	Matchup   string  `json:"matchup"`
	Selection string  `json:"selection"`
	Odds      float64 `json:"odds"`

	// Tracking fields
	EventID    string   `json:"event_id,omitempty"`
	PlayerName string   `json:"player_name,omitempty"`
	TeamName   string   `json:"team_name,omitempty"`
	MarketType string   `json:"market_type,omitempty"` // "moneyline", "spread", "total_score", "rushing_yards", ...
	Line       *float64 `json:"line,omitempty"`
	Side       string   `json:"side,omitempty"`

	// Combined prop fields
	IsCombined      bool             `json:"is_combined,omitempty"`
	CombinedPlayers []CombinedPlayer `json:"combined_players,omitempty"`

	// Derived fields, written only by the engine
	CurrentValue    *float64   `json:"current_value,omitempty"`
	CurrentValueStr string     `json:"current_value_str,omitempty"`
	GameState       GameState  `json:"game_state,omitempty"`
	GameStatusText  string     `json:"game_status_text,omitempty"`
	PropStatus      PropStatus `json:"prop_status,omitempty"`
}

// Wager is a user's bet. The engine treats every field as read-only input
// except the derived block at the bottom, which it recomputes each tick.
type Wager struct {
	ID              string      `json:"id"`
	Sport           string      `json:"sport"`
	Type            WagerType   `json:"type"`
	Matchup         string      `json:"matchup"`   // free text, often "AwayTeam @ HomeTeam"
	Selection       string      `json:"selection"` // free text, may name a team or player
	Odds            float64     `json:"odds"`
	Stake           float64     `json:"stake"`
	Status          WagerStatus `json:"status"`
	Date            time.Time   `json:"date"`
	Book            string      `json:"book,omitempty"`
	PotentialPayout float64     `json:"potentialPayout"`
	Legs            []Leg       `json:"legs,omitempty"`

	// Tracking fields
	EventID    string   `json:"event_id,omitempty"`
	PlayerName string   `json:"player_name,omitempty"`
	TeamName   string   `json:"team_name,omitempty"`
	MarketType string   `json:"market_type,omitempty"`
	Line       *float64 `json:"line,omitempty"`
	Side       string   `json:"side,omitempty"`

	// Combined prop fields
	IsCombined      bool             `json:"is_combined,omitempty"`
	CombinedPlayers []CombinedPlayer `json:"combined_players,omitempty"`

	// Derived fields, written only by the engine
	CurrentValue    *float64   `json:"current_value,omitempty"`
	CurrentValueStr string     `json:"current_value_str,omitempty"`
	GameState       GameState  `json:"game_state,omitempty"`
	GameStatusText  string     `json:"game_status_text,omitempty"`
	PropStatus      PropStatus `json:"prop_status,omitempty"`
}

// IsParlay reports whether the wager is a multi-leg parlay.
func (w *Wager) IsParlay() bool {
	return w.Type == TypeParlay
}

// TrackingPayload is the backend-computed authoritative live tracking data
// for a single wager. When present for a wager id it wins over anything the
// engine derives locally.
type TrackingPayload struct {
	ID              string           `json:"id"`
	CurrentValue    *float64         `json:"current_value,omitempty"`
	CurrentValueStr string           `json:"current_value_str,omitempty"`
	GameState       GameState        `json:"game_state,omitempty"`
	GameStatusText  string           `json:"game_status_text,omitempty"`
	PropStatus      PropStatus       `json:"prop_status,omitempty"`
	CombinedPlayers []CombinedPlayer `json:"combined_players,omitempty"`
}

// ParlayRefresh is the backend's authoritative per-leg refresh for one parlay.
type ParlayRefresh struct {
	ID   string `json:"id"`
	Legs []Leg  `json:"legs"`
}

// ErrorResponse is the standard error body returned by the HTTP API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Float returns a pointer to v. Convenience for literal derived values.
func Float(v float64) *float64 {
	return &v
}
