// Package prefs reads and writes the user's dashboard preferences: the
// refresh cadences and the set/order of leagues to poll.
package prefs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/vkiragi/briefing/services/wager-engine/internal/providers/espn"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// Defaults applied when a user has no saved settings row
const (
	DefaultRefreshIntervalSec = 60
	DefaultEventIntervalSec   = 30
)

// Store reads user settings from Postgres
type Store struct {
	db       *sql.DB
	defaults models.UserSettings
}

// New creates a preference store. defaults fills in settings for users with
// no saved row; zero-valued fields fall back to the built-in defaults.
func New(db *sql.DB, defaults models.UserSettings) *Store {
	if defaults.RefreshIntervalSec <= 0 {
		defaults.RefreshIntervalSec = DefaultRefreshIntervalSec
	}
	if defaults.EventIntervalSec <= 0 {
		defaults.EventIntervalSec = DefaultEventIntervalSec
	}
	if len(defaults.Leagues) == 0 {
		defaults.Leagues = espn.DefaultLeagues
	}
	return &Store{
		db:       db,
		defaults: defaults,
	}
}

// Connect opens the settings database and verifies connectivity
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening settings db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging settings db: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	return db, nil
}

// GetSettings returns the user's settings, falling back to defaults when no
// row exists yet.
func (s *Store) GetSettings(ctx context.Context, userID string) (*models.UserSettings, error) {
	query := `
		SELECT refresh_interval_sec, event_interval_sec, leagues, COALESCE(selected_league, '')
		FROM user_settings
		WHERE user_id = $1
	`

	settings := &models.UserSettings{UserID: userID}
	var leagues string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&settings.RefreshIntervalSec,
		&settings.EventIntervalSec,
		&leagues,
		&settings.SelectedLeague,
	)
	if err == sql.ErrNoRows {
		return s.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}

	settings.Leagues = splitLeagues(leagues)
	if len(settings.Leagues) == 0 {
		settings.Leagues = s.defaults.Leagues
	}
	return settings, nil
}

// UpdateSettings applies a partial update and returns the new settings
func (s *Store) UpdateSettings(ctx context.Context, userID string, update models.UserSettingsUpdate) (*models.UserSettings, error) {
	current, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.RefreshIntervalSec != nil {
		current.RefreshIntervalSec = *update.RefreshIntervalSec
	}
	if update.EventIntervalSec != nil {
		current.EventIntervalSec = *update.EventIntervalSec
	}
	if update.Leagues != nil {
		current.Leagues = *update.Leagues
	}
	if update.SelectedLeague != nil {
		current.SelectedLeague = *update.SelectedLeague
	}

	query := `
		INSERT INTO user_settings (user_id, refresh_interval_sec, event_interval_sec, leagues, selected_league, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET refresh_interval_sec = $2, event_interval_sec = $3, leagues = $4, selected_league = $5, updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query,
		userID,
		current.RefreshIntervalSec,
		current.EventIntervalSec,
		strings.Join(current.Leagues, ","),
		current.SelectedLeague,
	)
	if err != nil {
		return nil, fmt.Errorf("saving settings: %w", err)
	}

	return current, nil
}

// DefaultSettings returns the store's configured defaults for a user
func (s *Store) DefaultSettings(userID string) *models.UserSettings {
	settings := s.defaults
	settings.UserID = userID
	settings.Leagues = append([]string(nil), s.defaults.Leagues...)
	return &settings
}

func splitLeagues(raw string) []string {
	var leagues []string
	for _, league := range strings.Split(raw, ",") {
		league = strings.TrimSpace(strings.ToLower(league))
		if league != "" {
			leagues = append(leagues, league)
		}
	}
	return leagues
}
