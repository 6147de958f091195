package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// fakeSnapshot records saves and serves a canned load result
type fakeSnapshot struct {
	entries map[string]Entry
	loadErr error
	saved   []Entry
}

func (f *fakeSnapshot) Load(ctx context.Context) (map[string]Entry, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.entries, nil
}

func (f *fakeSnapshot) Save(ctx context.Context, entry Entry) error {
	f.saved = append(f.saved, entry)
	return nil
}

func frozenStore(ttl time.Duration, snap Snapshot, at time.Time) *Store {
	s := NewStore(ttl, snap)
	s.now = func() time.Time { return at }
	return s
}

func someEvents(ids ...string) []models.Event {
	events := make([]models.Event, 0, len(ids))
	for _, id := range ids {
		events = append(events, models.Event{EventID: id, League: "nba"})
	}
	return events
}

func TestGetWithinTTL(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	s := frozenStore(time.Minute, nil, at)
	today := s.TodayKey()

	s.Put(context.Background(), "nba", today, someEvents("1", "2"))

	events, stale, ok := s.Get("nba", today)
	if !ok || stale {
		t.Fatalf("Get = stale=%v ok=%v, want fresh hit", stale, ok)
	}
	if len(events) != 2 {
		t.Errorf("got %d events, want 2", len(events))
	}
	if s.NeedsFetch("nba", today) {
		t.Error("NeedsFetch = true for fresh entry")
	}
}

func TestGetPastTTLIsStaleButServed(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	s := frozenStore(time.Minute, nil, at)
	today := s.TodayKey()

	s.Put(context.Background(), "nba", today, someEvents("1"))

	// Advance past the TTL
	s.now = func() time.Time { return at.Add(2 * time.Minute) }

	events, stale, ok := s.Get("nba", today)
	if !ok || !stale {
		t.Fatalf("Get = stale=%v ok=%v, want stale hit", stale, ok)
	}
	if len(events) != 1 {
		t.Errorf("stale entry should still serve its events, got %d", len(events))
	}
	if !s.NeedsFetch("nba", today) {
		t.Error("NeedsFetch = false for stale entry")
	}
}

func TestGetMissingLeague(t *testing.T) {
	s := NewStore(time.Minute, nil)

	if _, _, ok := s.Get("nhl", s.TodayKey()); ok {
		t.Error("Get = ok for league never fetched")
	}
	if !s.NeedsFetch("nhl", s.TodayKey()) {
		t.Error("NeedsFetch = false for missing entry")
	}
}

func TestHydrateStaleEntriesServeWhileRevalidating(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	today := at.Format(DateKeyLayout)

	snap := &fakeSnapshot{entries: map[string]Entry{
		"nba:" + today: {
			League:    "nba",
			DateKey:   today,
			Events:    someEvents("1"),
			FetchedAt: at.Add(-10 * time.Minute),
		},
		"nfl:" + today: {
			League:    "nfl",
			DateKey:   today,
			Events:    someEvents("2"),
			FetchedAt: at.Add(-10 * time.Second),
		},
		"bad": {}, // malformed rows are skipped, not fatal
	}}

	s := frozenStore(time.Minute, snap, at)
	s.Hydrate(context.Background())

	events, stale, ok := s.Get("nba", today)
	if !ok || !stale || len(events) != 1 {
		t.Errorf("lapsed hydrated entry: stale=%v ok=%v n=%d, want served stale", stale, ok, len(events))
	}

	_, stale, ok = s.Get("nfl", today)
	if !ok || stale {
		t.Errorf("fresh hydrated entry: stale=%v ok=%v, want fresh", stale, ok)
	}
}

func TestHydrateLoadErrorStartsCold(t *testing.T) {
	snap := &fakeSnapshot{loadErr: errors.New("redis down")}
	s := NewStore(time.Minute, snap)

	s.Hydrate(context.Background())

	if _, _, ok := s.Get("nba", s.TodayKey()); ok {
		t.Error("cache should be empty after failed hydration")
	}
}

func TestPutPersistsOnlyToday(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	snap := &fakeSnapshot{}
	s := frozenStore(time.Minute, snap, at)

	s.Put(context.Background(), "nba", s.TodayKey(), someEvents("1"))
	s.Put(context.Background(), "nba", "2026-01-14", someEvents("2"))

	if len(snap.saved) != 1 {
		t.Fatalf("snapshot saves = %d, want 1 (today only)", len(snap.saved))
	}
	if snap.saved[0].DateKey != s.TodayKey() {
		t.Errorf("persisted date = %s, want today", snap.saved[0].DateKey)
	}

	// Both days are still readable from memory
	if _, _, ok := s.Get("nba", "2026-01-14"); !ok {
		t.Error("yesterday's entry should stay in memory")
	}
}

func TestSetLoadingLifecycle(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	s := frozenStore(time.Minute, nil, at)
	today := s.TodayKey()

	s.SetLoading("nba", today, true)
	if !s.NeedsFetch("nba", today) {
		t.Error("loading placeholder should still need a fetch")
	}

	s.Put(context.Background(), "nba", today, someEvents("1"))
	if s.NeedsFetch("nba", today) {
		t.Error("Put should clear the loading flag")
	}
}

func TestEventsForIgnoresStaleness(t *testing.T) {
	at := time.Date(2026, 1, 15, 19, 0, 0, 0, time.UTC)
	s := frozenStore(time.Minute, nil, at)

	s.Put(context.Background(), "nba", s.TodayKey(), someEvents("1"))
	s.now = func() time.Time { return at.Add(time.Hour) }

	if got := s.EventsFor("nba"); len(got) != 1 {
		t.Errorf("EventsFor = %d events, want stale events served", len(got))
	}
	if got := s.EventsFor("nhl"); got != nil {
		t.Errorf("EventsFor unknown league = %v, want nil", got)
	}
}
