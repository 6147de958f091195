package store

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// DateKeyLayout is the cache key date format, matching the games list keys
// used across the services.
const DateKeyLayout = "2006-01-02"

// Entry is one league's cached event list for one day.
type Entry struct {
	League    string         `json:"league"`
	DateKey   string         `json:"date_key"`
	Events    []models.Event `json:"events"`
	FetchedAt time.Time      `json:"fetched_at"`
	Loading   bool           `json:"-"` // a refresh for this entry is in flight
}

// Snapshot persists league entries so a warm reload never starts empty.
type Snapshot interface {
	Load(ctx context.Context) (map[string]Entry, error)
	Save(ctx context.Context, entry Entry) error
}

// Store is the per-league, per-day event cache. It exclusively owns Event
// records; readers get copies of the slice header and must not mutate events.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	snap    Snapshot
	now     func() time.Time
}

// NewStore creates an event cache with the given staleness TTL. snap may be
// nil, in which case nothing is persisted across restarts.
func NewStore(ttl time.Duration, snap Snapshot) *Store {
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		snap:    snap,
		now:     time.Now,
	}
}

func entryKey(league, dateKey string) string {
	return fmt.Sprintf("%s:%s", league, dateKey)
}

// TodayKey returns the cache date key for the store's current wall-clock day.
func (s *Store) TodayKey() string {
	return s.now().UTC().Format(DateKeyLayout)
}

// Hydrate loads the persisted snapshot. A missing or malformed snapshot is a
// cold start, not an error. Entries whose TTL already lapsed are kept as
// interim values; their age alone marks them stale, so the next scheduler
// pass revalidates them (stale-while-revalidate).
func (s *Store) Hydrate(ctx context.Context) {
	if s.snap == nil {
		return
	}

	loaded, err := s.snap.Load(ctx)
	if err != nil {
		log.Printf("[EventCache] snapshot load failed, starting cold: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, entry := range loaded {
		if entry.League == "" || entry.DateKey == "" {
			continue
		}
		entry.Loading = false
		s.entries[entryKey(entry.League, entry.DateKey)] = entry
	}
	log.Printf("[EventCache] hydrated %d league entries from snapshot", len(s.entries))
}

// Get returns the cached events for a league and date. stale reports that the
// entry is past its TTL (or still hydration-loading) and a refresh is due;
// the events are still returned as a plausible interim value.
func (s *Store) Get(league, dateKey string) (events []models.Event, stale bool, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[entryKey(league, dateKey)]
	if !found {
		return nil, false, false
	}
	return entry.Events, entry.Loading || !s.isValidLocked(entry), true
}

// Put stores a fetched event list and clears the league's loading flag.
// Same-day fetches are persisted; other dates are never written to the
// snapshot so the cache cannot grow without bound or leak a stale "today"
// across days.
func (s *Store) Put(ctx context.Context, league, dateKey string, events []models.Event) {
	entry := Entry{
		League:    league,
		DateKey:   dateKey,
		Events:    events,
		FetchedAt: s.now(),
	}

	s.mu.Lock()
	s.entries[entryKey(league, dateKey)] = entry
	today := s.now().UTC().Format(DateKeyLayout)
	s.mu.Unlock()

	if s.snap != nil && dateKey == today {
		if err := s.snap.Save(ctx, entry); err != nil {
			log.Printf("[EventCache] snapshot save failed for %s: %v", league, err)
		}
	}
}

// IsValid reports whether an entry is within its TTL.
func (s *Store) IsValid(entry Entry) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isValidLocked(entry)
}

func (s *Store) isValidLocked(entry Entry) bool {
	return s.now().Sub(entry.FetchedAt) < s.ttl
}

// NeedsFetch reports whether a league's entry for the date is missing, stale,
// or still loading from hydration.
func (s *Store) NeedsFetch(league, dateKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, found := s.entries[entryKey(league, dateKey)]
	if !found {
		return true
	}
	return entry.Loading || !s.isValidLocked(entry)
}

// IsLoading reports whether a refresh for the league entry is in flight (or
// a previous one died without clearing the flag).
func (s *Store) IsLoading(league, dateKey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[entryKey(league, dateKey)].Loading
}

// SetLoading flags a league entry while its refresh is in flight. Creates a
// placeholder entry when none exists yet.
func (s *Store) SetLoading(league, dateKey string, loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(league, dateKey)
	entry, found := s.entries[key]
	if !found {
		if !loading {
			return
		}
		entry = Entry{League: league, DateKey: dateKey}
	}
	entry.Loading = loading
	s.entries[key] = entry
}

// Leagues returns the league keys currently cached for a date.
func (s *Store) Leagues(dateKey string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var leagues []string
	for _, entry := range s.entries {
		if entry.DateKey == dateKey {
			leagues = append(leagues, entry.League)
		}
	}
	return leagues
}

// EventsFor returns today's cached events for a league regardless of
// staleness. Used by the resolution path, which prefers a stale event over
// no event.
func (s *Store) EventsFor(league string) []models.Event {
	events, _, _ := s.Get(league, s.TodayKey())
	return events
}
