package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/internal/store"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

const (
	// MaxEventsPerLeague caps the merged list written to the cache
	MaxEventsPerLeague = 10

	// BatchSize is how many leagues are fetched concurrently. The upstream
	// rate limit is the only reason this exists.
	BatchSize = 2

	// BatchDelay is the pause between league batches
	BatchDelay = 250 * time.Millisecond
)

// Provider fetches a league's live scores and forward schedule.
type Provider interface {
	FetchScores(ctx context.Context, league string, limit int, liveOnly bool, date string) ([]models.Event, error)
	FetchSchedule(ctx context.Context, league string, limit int, date string) ([]models.Event, error)
}

// Scheduler orchestrates per-league event fetches into the cache store.
type Scheduler struct {
	store      *store.Store
	provider   Provider
	batchSize  int
	batchDelay time.Duration
	running    atomic.Bool
}

// New creates a scheduler writing into the given cache store
func New(cache *store.Store, provider Provider) *Scheduler {
	return &Scheduler{
		store:      cache,
		provider:   provider,
		batchSize:  BatchSize,
		batchDelay: BatchDelay,
	}
}

// RefreshAll runs one orchestration pass over the given leagues for a date.
// Leagues whose cache entry is still within TTL are skipped - force does not
// override that. A league flagged loading is skipped too (its fetch is in
// flight); force retries those, recovering entries whose fetch died without
// clearing the flag. Only one pass runs at a time - a tick that fires
// mid-pass is a no-op.
func (s *Scheduler) RefreshAll(ctx context.Context, leagues []string, dateKey string, force bool) {
	if !s.running.CompareAndSwap(false, true) {
		log.Printf("[Scheduler] pass already in flight, skipping tick")
		return
	}
	defer s.running.Store(false)

	toFetch := make([]string, 0, len(leagues))
	seen := make(map[string]bool)
	for _, league := range leagues {
		if league == "" || seen[league] {
			continue
		}
		seen[league] = true
		if !s.store.NeedsFetch(league, dateKey) {
			continue
		}
		if s.store.IsLoading(league, dateKey) && !force {
			continue
		}
		toFetch = append(toFetch, league)
	}

	if len(toFetch) == 0 {
		return
	}
	log.Printf("[Scheduler] refreshing %d leagues for %s", len(toFetch), dateKey)

	for start := 0; start < len(toFetch); start += s.batchSize {
		if ctx.Err() != nil {
			return
		}

		end := start + s.batchSize
		if end > len(toFetch) {
			end = len(toFetch)
		}

		var wg sync.WaitGroup
		for _, league := range toFetch[start:end] {
			wg.Add(1)
			go func(league string) {
				defer wg.Done()
				s.refreshLeague(ctx, league, dateKey)
			}(league)
		}
		wg.Wait()

		if end < len(toFetch) {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.batchDelay):
			}
		}
	}
}

// refreshLeague fetches and merges one league's scores and schedule. A failed
// fetch leaves any existing cached events untouched and only clears the
// loading flag - one league's failure never corrupts another's data.
func (s *Scheduler) refreshLeague(ctx context.Context, league, dateKey string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Scheduler] PANIC refreshing %s: %v", league, r)
			s.store.SetLoading(league, dateKey, false)
		}
	}()

	s.store.SetLoading(league, dateKey, true)

	fetchDate := compactDate(dateKey)

	scores, err := s.provider.FetchScores(ctx, league, MaxEventsPerLeague, false, fetchDate)
	if err != nil {
		log.Printf("[Scheduler] %s scores fetch failed: %v", league, err)
		s.store.SetLoading(league, dateKey, false)
		return
	}

	schedule, err := s.provider.FetchSchedule(ctx, league, MaxEventsPerLeague, fetchDate)
	if err != nil {
		// Schedule is a best-effort supplement; live scores alone are
		// still worth caching
		log.Printf("[Scheduler] %s schedule fetch failed: %v", league, err)
		schedule = nil
	}

	merged := MergeEvents(scores, schedule)
	s.store.Put(ctx, league, dateKey, merged)
	log.Printf("[Scheduler] %s cached %d events", league, len(merged))
}

// MergeEvents combines live/recent scores with schedule entries. Scores take
// priority over schedule for the same event id, to-be-determined schedule
// slots are dropped, the result is deduplicated, capped, and ordered with
// in-progress events first (input order preserved otherwise).
func MergeEvents(scores, schedule []models.Event) []models.Event {
	merged := make([]models.Event, 0, len(scores)+len(schedule))
	seen := make(map[string]bool)

	for _, ev := range scores {
		if ev.EventID != "" {
			if seen[ev.EventID] {
				continue
			}
			seen[ev.EventID] = true
		}
		merged = append(merged, ev)
	}

	for _, ev := range schedule {
		if ev.TBD {
			continue
		}
		if ev.EventID != "" && seen[ev.EventID] {
			continue
		}
		if ev.EventID != "" {
			seen[ev.EventID] = true
		}
		merged = append(merged, ev)
	}

	merged = orderEvents(merged)

	if len(merged) > MaxEventsPerLeague {
		merged = merged[:MaxEventsPerLeague]
	}
	return merged
}

// orderEvents moves in-progress events to the front, keeping input order
// within each group.
func orderEvents(events []models.Event) []models.Event {
	ordered := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.State == models.StateIn {
			ordered = append(ordered, ev)
		}
	}
	for _, ev := range events {
		if ev.State != models.StateIn {
			ordered = append(ordered, ev)
		}
	}
	return ordered
}

// compactDate converts a cache date key (2006-01-02) to the upstream's
// YYYYMMDD query format.
func compactDate(dateKey string) string {
	t, err := time.Parse(store.DateKeyLayout, dateKey)
	if err != nil {
		return ""
	}
	return t.Format("20060102")
}
