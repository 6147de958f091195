// Package orchestrator drives the refresh cadence: it decides which wagers
// still need live tracking, batches them against the backend refresh
// endpoints, falls back to client-side matching/resolution for anything the
// backend didn't resolve, and publishes the enriched view.
package orchestrator

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/internal/matcher"
	"github.com/vkiragi/briefing/services/wager-engine/internal/parlay"
	"github.com/vkiragi/briefing/services/wager-engine/internal/resolver"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// MinEventInterval is the floor for the event poll cadence. Event data is
// needed for display even with zero pending wagers, so this ticker always
// runs, but never faster than this.
const MinEventInterval = 30 * time.Second

// staleWagerAge is how long a wager may sit with no live signal before it is
// presumed orphaned and dropped from tracking.
const staleWagerAge = 24 * time.Hour

// WagerAPI is the backend surface the orchestrator consumes.
type WagerAPI interface {
	ListWagers(ctx context.Context) ([]models.Wager, error)
	RefreshWagers(ctx context.Context, ids []string) ([]models.TrackingPayload, error)
	RefreshParlayLegs(ctx context.Context, ids []string) ([]models.ParlayRefresh, error)
}

// EventRefresher runs one event-fetch pass (the scheduler).
type EventRefresher interface {
	RefreshAll(ctx context.Context, leagues []string, dateKey string, force bool)
}

// EventSource supplies the cached event universe per league (the cache store).
type EventSource interface {
	EventsFor(league string) []models.Event
	TodayKey() string
}

// SettingsSource supplies the user's polling preferences.
type SettingsSource interface {
	GetSettings(ctx context.Context, userID string) (*models.UserSettings, error)
}

// Broadcaster receives the enriched snapshot after each completed tick.
type Broadcaster interface {
	BroadcastSnapshot(snapshot Snapshot)
}

// Snapshot is the view exposed to the presentation layer.
type Snapshot struct {
	Wagers        []models.Wager `json:"wagers"`
	LastUpdated   time.Time      `json:"last_updated"`
	CanResolveAll bool           `json:"can_resolve_all"`
}

// Orchestrator owns the authoritative merge of backend-resolved fields over
// client-matched fields. The underlying wager list is never mutated; all
// derived data lives in overlays applied at read time.
type Orchestrator struct {
	api       WagerAPI
	events    EventRefresher
	cache     EventSource
	settings  SettingsSource
	broadcast Broadcaster
	userID    string

	mu            sync.RWMutex
	wagers        []models.Wager
	authoritative map[string]models.TrackingPayload // backend overlay, wins on conflict
	local         map[string]models.Wager           // client-side fallback resolution
	parlayLegs    map[string][]models.Leg           // backend per-leg overlay for parlays
	lastUpdated   time.Time

	wagerBusy atomic.Bool
	eventBusy atomic.Bool

	now func() time.Time
}

// New creates an orchestrator. broadcast may be nil.
func New(api WagerAPI, events EventRefresher, cache EventSource, settings SettingsSource, broadcast Broadcaster, userID string) *Orchestrator {
	return &Orchestrator{
		api:           api,
		events:        events,
		cache:         cache,
		settings:      settings,
		broadcast:     broadcast,
		userID:        userID,
		authoritative: make(map[string]models.TrackingPayload),
		local:         make(map[string]models.Wager),
		parlayLegs:    make(map[string][]models.Leg),
		now:           time.Now,
	}
}

// Run starts the two polling loops and blocks until the context is
// cancelled. The event ticker and the wager ticker are independent: event
// data refreshes on a floor-clamped cadence regardless of wager activity,
// wagers refresh on the user-configured interval.
func (o *Orchestrator) Run(ctx context.Context) {
	settings := o.loadSettings(ctx)
	eventInterval, wagerInterval := tickIntervals(settings)

	log.Printf("[Orchestrator] starting: events every %s, wagers every %s, leagues %v",
		eventInterval, wagerInterval, settings.Leagues)

	// Prime both on startup
	o.eventTick(ctx, false)
	o.wagerTick(ctx)

	eventTicker := time.NewTicker(eventInterval)
	defer eventTicker.Stop()
	wagerTicker := time.NewTicker(wagerInterval)
	defer wagerTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Orchestrator] stopping")
			return
		case <-eventTicker.C:
			o.eventTick(ctx, false)
		case <-wagerTicker.C:
			o.wagerTick(ctx)
		}

		// Settings changes take effect on the next tick, not at restart
		settings = o.loadSettings(ctx)
		ei, wi := tickIntervals(settings)
		if ei != eventInterval {
			eventTicker.Reset(ei)
			eventInterval = ei
			log.Printf("[Orchestrator] event interval now %s", ei)
		}
		if wi != wagerInterval {
			wagerTicker.Reset(wi)
			wagerInterval = wi
			log.Printf("[Orchestrator] wager interval now %s", wi)
		}
	}
}

// tickIntervals derives the two ticker cadences from the user's settings.
// The event cadence is floor-clamped, the wager cadence falls back to a
// minute when unset.
func tickIntervals(settings *models.UserSettings) (event, wager time.Duration) {
	event = settings.EventInterval()
	if event < MinEventInterval {
		event = MinEventInterval
	}
	wager = settings.RefreshInterval()
	if wager <= 0 {
		wager = time.Minute
	}
	return event, wager
}

// RefreshNow runs an immediate forced event pass plus a wager pass. Exposed
// to the API layer as the imperative refresh trigger.
func (o *Orchestrator) RefreshNow(ctx context.Context) {
	o.eventTick(ctx, true)
	o.wagerTick(ctx)
}

// eventTick runs one scheduler pass. Guarded so a tick that fires while the
// previous one is still in flight is a no-op.
func (o *Orchestrator) eventTick(ctx context.Context, force bool) {
	if !o.eventBusy.CompareAndSwap(false, true) {
		return
	}
	defer o.eventBusy.Store(false)

	settings := o.loadSettings(ctx)
	leagues := pollLeagues(settings)
	o.events.RefreshAll(ctx, leagues, o.cache.TodayKey(), force)
}

// wagerTick runs one refresh pass over the active wagers
func (o *Orchestrator) wagerTick(ctx context.Context) {
	if !o.wagerBusy.CompareAndSwap(false, true) {
		return
	}
	defer o.wagerBusy.Store(false)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Orchestrator] PANIC in wager tick: %v", r)
		}
	}()

	wagers, err := o.api.ListWagers(ctx)
	if err != nil {
		// Transient failure: keep the existing overlay and try again next tick
		log.Printf("[Orchestrator] wager list fetch failed: %v", err)
		return
	}

	o.mu.Lock()
	o.wagers = wagers
	o.mu.Unlock()

	now := o.now()
	active := ActiveWagers(o.applyOverlays(wagers), now)
	parlays := ActiveParlays(wagers)

	if len(active) == 0 && len(parlays) == 0 {
		// Nothing to track - no network call this tick
		return
	}

	ids := wagerIDs(active)
	parlayIDs := wagerIDs(parlays)

	var wg sync.WaitGroup
	var payloads []models.TrackingPayload
	var legRefreshes []models.ParlayRefresh
	var payloadErr, legErr error

	if len(ids) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			payloads, payloadErr = o.api.RefreshWagers(ctx, ids)
		}()
	}
	if len(parlayIDs) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			legRefreshes, legErr = o.api.RefreshParlayLegs(ctx, parlayIDs)
		}()
	}
	wg.Wait()

	refreshed := make(map[string]bool)

	o.mu.Lock()
	if payloadErr != nil {
		log.Printf("[Orchestrator] wager refresh failed: %v", payloadErr)
	} else {
		for _, p := range payloads {
			if p.ID == "" {
				continue
			}
			if existing, ok := o.authoritative[p.ID]; ok && existing.PropStatus.IsTerminal() {
				// Terminal statuses are monotonic
				continue
			}
			o.authoritative[p.ID] = p
			refreshed[p.ID] = true
		}
	}
	if legErr != nil {
		log.Printf("[Orchestrator] parlay leg refresh failed: %v", legErr)
	} else {
		for _, pr := range legRefreshes {
			if pr.ID == "" {
				continue
			}
			o.parlayLegs[pr.ID] = pr.Legs
			refreshed[pr.ID] = true
		}
	}
	o.mu.Unlock()

	// Client-side fallback for everything the backend left unresolved
	o.resolveLocally(active, parlays, refreshed)

	o.mu.Lock()
	o.lastUpdated = now
	o.mu.Unlock()

	if o.broadcast != nil && ctx.Err() == nil {
		o.broadcast.BroadcastSnapshot(o.CurrentSnapshot())
	}
}

// resolveLocally runs the matcher/resolver for active wagers the backend did
// not return a payload for.
func (o *Orchestrator) resolveLocally(active, parlays []models.Wager, refreshed map[string]bool) {
	lookup := func(league string) []models.Event {
		return o.cache.EventsFor(league)
	}

	for _, w := range active {
		if refreshed[w.ID] {
			continue
		}
		ev := matcher.MatchWager(&w, lookup(strings.ToLower(w.Sport)))
		if ev == nil {
			continue
		}
		resolved := resolver.Resolve(w, ev, nil)

		o.mu.Lock()
		o.local[w.ID] = resolved
		o.mu.Unlock()
	}

	for _, p := range parlays {
		if refreshed[p.ID] {
			continue
		}
		resolved := parlay.Resolve(p, lookup)

		o.mu.Lock()
		o.local[p.ID] = resolved
		o.mu.Unlock()
	}
}

// EnrichedWagers returns the pending wagers with all overlays applied.
// Settled wagers are removed; the underlying list is never mutated.
func (o *Orchestrator) EnrichedWagers() []models.Wager {
	o.mu.RLock()
	wagers := o.wagers
	o.mu.RUnlock()

	var pending []models.Wager
	for _, w := range wagers {
		if w.Status != models.StatusPending {
			continue
		}
		pending = append(pending, w)
	}
	return o.applyOverlays(pending)
}

// applyOverlays produces enriched copies: backend payload first, client
// fallback second, raw wager last.
func (o *Orchestrator) applyOverlays(wagers []models.Wager) []models.Wager {
	o.mu.RLock()
	defer o.mu.RUnlock()

	out := make([]models.Wager, 0, len(wagers))
	for _, w := range wagers {
		if w.IsParlay() {
			if legs, ok := o.parlayLegs[w.ID]; ok {
				w = parlay.ApplyRefresh(w, legs)
			} else if local, ok := o.local[w.ID]; ok {
				w = local
			}
			out = append(out, w)
			continue
		}

		if auth, ok := o.authoritative[w.ID]; ok {
			w = resolver.Resolve(w, nil, &auth)
		} else if local, ok := o.local[w.ID]; ok {
			w = local
		}
		out = append(out, w)
	}
	return out
}

// CurrentSnapshot returns the full presentation-layer view.
func (o *Orchestrator) CurrentSnapshot() Snapshot {
	o.mu.RLock()
	lastUpdated := o.lastUpdated
	o.mu.RUnlock()

	return Snapshot{
		Wagers:        o.EnrichedWagers(),
		LastUpdated:   lastUpdated,
		CanResolveAll: o.CanResolveAll(),
	}
}

// LastUpdated reports when the last successful wager tick completed.
func (o *Orchestrator) LastUpdated() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastUpdated
}

// CanResolveAll reports whether every tracked wager and leg has reached a
// terminal status or a finished game. False when nothing is tracked.
func (o *Orchestrator) CanResolveAll() bool {
	return canResolveAll(o.EnrichedWagers(), o.now())
}

func canResolveAll(enriched []models.Wager, now time.Time) bool {
	tracked := 0
	for _, w := range enriched {
		if w.IsParlay() {
			if !hasTrackedLeg(w) {
				continue
			}
			tracked++
			for _, leg := range w.Legs {
				if !trackedLeg(leg) {
					continue
				}
				if !leg.PropStatus.IsTerminal() && leg.GameState != models.StatePost {
					return false
				}
			}
			continue
		}

		if !isTrackable(w, now) {
			continue
		}
		tracked++
		if !w.PropStatus.IsTerminal() && w.GameState != models.StatePost {
			return false
		}
	}
	return tracked > 0
}

// trackableTypes are the wager types the engine can follow live
var trackableTypes = map[models.WagerType]bool{
	models.TypeProp:         true,
	models.TypeFirstHalf:    true,
	models.TypeFirstQuarter: true,
	models.TypeTeamTotal:    true,
	models.TypeMoneyline:    true,
	models.TypeSpread:       true,
	models.TypeTotal:        true,
}

// ActiveWagers computes the set of single wagers that still need tracking
// this tick. The inputs should already carry any previously derived fields
// so terminal/finished wagers drop out.
func ActiveWagers(wagers []models.Wager, now time.Time) []models.Wager {
	var active []models.Wager
	for _, w := range wagers {
		if !isTrackable(w, now) {
			continue
		}
		if w.PropStatus.IsTerminal() || w.GameState == models.StatePost {
			continue
		}
		active = append(active, w)
	}
	return active
}

// isTrackable applies the static eligibility rules for a single wager
func isTrackable(w models.Wager, now time.Time) bool {
	if w.Status != models.StatusPending {
		return false
	}
	if !trackableTypes[w.Type] {
		return false
	}
	if !hasTrackingRef(w) {
		return false
	}

	// A wager dated before today is only worth tracking if its game is
	// already known to be live; otherwise it is presumed stale.
	if beforeToday(w.Date, now) && w.GameState != models.StateIn {
		return false
	}

	// Orphan guard: nothing live ever seen and older than a day
	if noLiveSignal(w) && now.Sub(w.Date) > staleWagerAge {
		return false
	}

	return true
}

// ActiveParlays computes the pending parlays that carry at least one
// trackable leg.
func ActiveParlays(wagers []models.Wager) []models.Wager {
	var active []models.Wager
	for _, w := range wagers {
		if w.Status != models.StatusPending || !w.IsParlay() {
			continue
		}
		if hasTrackedLeg(w) {
			active = append(active, w)
		}
	}
	return active
}

func hasTrackedLeg(w models.Wager) bool {
	for _, leg := range w.Legs {
		if trackedLeg(leg) {
			return true
		}
	}
	return false
}

// hasTrackingRef reports whether the wager carries enough to locate its
// event: an explicit event id, or matchup text for the matcher. Most wagers
// have only the free text.
func hasTrackingRef(w models.Wager) bool {
	return w.EventID != "" || strings.TrimSpace(w.Matchup) != ""
}

func trackedLeg(leg models.Leg) bool {
	return leg.EventID != "" || strings.TrimSpace(leg.Matchup) != ""
}

func noLiveSignal(w models.Wager) bool {
	return w.GameState == "" || w.GameState == models.StateUnknown
}

func beforeToday(date, now time.Time) bool {
	if date.IsZero() {
		return false
	}
	y1, m1, d1 := date.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

// pollLeagues returns the user's ordered league list, with the league
// implied by the current filter appended even when not enabled.
func pollLeagues(settings *models.UserSettings) []string {
	leagues := make([]string, 0, len(settings.Leagues)+1)
	seen := make(map[string]bool)
	for _, league := range settings.Leagues {
		if league == "" || seen[league] {
			continue
		}
		seen[league] = true
		leagues = append(leagues, league)
	}
	if sel := settings.SelectedLeague; sel != "" && !seen[sel] {
		leagues = append(leagues, sel)
	}
	return leagues
}

func wagerIDs(wagers []models.Wager) []string {
	ids := make([]string, 0, len(wagers))
	for _, w := range wagers {
		ids = append(ids, w.ID)
	}
	return ids
}

func (o *Orchestrator) loadSettings(ctx context.Context) *models.UserSettings {
	settings, err := o.settings.GetSettings(ctx, o.userID)
	if err != nil || settings == nil {
		if err != nil {
			log.Printf("[Orchestrator] settings load failed, using defaults: %v", err)
		}
		return defaultSettings(o.userID)
	}
	return settings
}

func defaultSettings(userID string) *models.UserSettings {
	return &models.UserSettings{
		UserID:             userID,
		RefreshIntervalSec: 60,
		EventIntervalSec:   int(MinEventInterval / time.Second),
		Leagues:            []string{"nfl", "nba", "mlb", "nhl"},
	}
}
