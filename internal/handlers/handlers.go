// Package handlers exposes the engine over HTTP: the enriched wager feed, the
// imperative refresh trigger, the cached event universe, and user settings.
package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/internal/orchestrator"
	"github.com/vkiragi/briefing/services/wager-engine/internal/providers/espn"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// SettingsStore is the persistence surface for user preferences
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, update models.UserSettingsUpdate) (*models.UserSettings, error)
}

// Engine is the orchestrator surface the handlers consume
type Engine interface {
	CurrentSnapshot() orchestrator.Snapshot
	RefreshNow(ctx context.Context)
}

// EventCache supplies cached events per league
type EventCache interface {
	Get(league, dateKey string) (events []models.Event, stale bool, ok bool)
	TodayKey() string
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	engine   Engine
	cache    EventCache
	settings SettingsStore
	userID   string
}

// NewHandler creates a new handler with dependencies
func NewHandler(engine Engine, cache EventCache, settings SettingsStore, userID string) *Handler {
	return &Handler{
		engine:   engine,
		cache:    cache,
		settings: settings,
		userID:   userID,
	}
}

// HealthCheck returns the health status of the engine
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "wager-engine",
	})
}

// GetLiveWagers returns the current enriched wager snapshot
func (h *Handler) GetLiveWagers(w http.ResponseWriter, r *http.Request) {
	snapshot := h.engine.CurrentSnapshot()
	if snapshot.Wagers == nil {
		snapshot.Wagers = []models.Wager{}
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// TriggerRefresh forces an immediate event+wager refresh pass. The pass runs
// in the background; the response acknowledges the trigger, and the result
// lands on the next snapshot read or WebSocket push.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		h.engine.RefreshNow(ctx)
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "refresh started",
	})
}

// GetEvents returns today's cached events for one league
// Query params: league
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	league := r.URL.Query().Get("league")
	if league == "" {
		respondError(w, http.StatusBadRequest, "league is required", nil)
		return
	}
	if _, ok := espn.LeaguePath(league); !ok {
		respondError(w, http.StatusBadRequest, "unknown league: "+league, nil)
		return
	}

	events, stale, _ := h.cache.Get(league, h.cache.TodayKey())
	if events == nil {
		events = []models.Event{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"league": league,
		"events": events,
		"count":  len(events),
		"stale":  stale,
	})
}

// GetSettings retrieves user settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	settings, err := h.settings.GetSettings(ctx, h.userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to retrieve settings", err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings applies a partial settings update
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var update models.UserSettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if update.RefreshIntervalSec != nil && *update.RefreshIntervalSec < 10 {
		respondError(w, http.StatusBadRequest, "refresh_interval_sec must be at least 10", nil)
		return
	}
	if update.EventIntervalSec != nil && *update.EventIntervalSec < 10 {
		respondError(w, http.StatusBadRequest, "event_interval_sec must be at least 10", nil)
		return
	}
	if update.Leagues != nil {
		for _, league := range *update.Leagues {
			if _, ok := espn.LeaguePath(league); !ok {
				respondError(w, http.StatusBadRequest, "unknown league: "+league, nil)
				return
			}
		}
	}

	settings, err := h.settings.UpdateSettings(ctx, h.userID, update)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save settings", err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[Handlers] error encoding response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err != nil {
		log.Printf("[Handlers] error: %s - %v", message, err)
	}

	resp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[Handlers] error encoding error response: %v", err)
	}
}
