// Package resolver derives a wager's live/terminal outcome from event state.
// Resolve is a pure function: no hidden state, identical inputs give
// identical output, and it never mutates the event it reads.
package resolver

import (
	"fmt"
	"math"
	"strings"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// lineEpsilon guards float comparison against a half-point line
const lineEpsilon = 1e-6

// Resolve produces the enriched view of a wager given its matched event and
// an optional backend-computed authoritative payload.
//
//   - A terminal wager (won/lost/push) is already resolved and comes back
//     unchanged - terminal statuses are never recomputed.
//   - An authoritative payload short-circuits everything else: backend
//     resolution always wins.
//   - With no matched event the wager passes through unchanged.
func Resolve(w models.Wager, ev *models.Event, auth *models.TrackingPayload) models.Wager {
	if w.PropStatus.IsTerminal() {
		return w
	}

	if auth != nil {
		return applyAuthoritative(w, auth)
	}

	if ev == nil {
		return w
	}

	w.GameState = ev.State
	w.GameStatusText = ev.StatusText

	if ev.State == models.StatePre || ev.State == models.StateUnknown {
		return w
	}
	if ev.HomeScore == nil || ev.AwayScore == nil {
		// Live event with no score yet - nothing to derive
		return w
	}

	home := *ev.HomeScore
	away := *ev.AwayScore

	switch w.Type {
	case models.TypeMoneyline:
		return resolveMoneyline(w, ev, home, away)
	case models.TypeSpread:
		return resolveSpread(w, ev, home, away)
	case models.TypeTotal:
		return resolveTotal(w, home, away)
	case models.TypeTeamTotal:
		return resolveTeamTotal(w, ev, home, away)
	default:
		// Player props need per-player stat lines, which only the backend
		// has. Game state alone is still useful for display.
		return w
	}
}

// applyAuthoritative copies the backend's fields verbatim
func applyAuthoritative(w models.Wager, auth *models.TrackingPayload) models.Wager {
	w.CurrentValue = auth.CurrentValue
	w.CurrentValueStr = auth.CurrentValueStr
	if auth.GameState != "" {
		w.GameState = auth.GameState
	}
	w.GameStatusText = auth.GameStatusText
	w.PropStatus = auth.PropStatus
	if len(auth.CombinedPlayers) > 0 {
		w.CombinedPlayers = auth.CombinedPlayers
	}
	return w
}

// resolveMoneyline grades a pick of one team to win outright. While the game
// is live a tie counts as ahead (hit-or-push is shown as a hit pending the
// final); at the final a strict score win is required.
func resolveMoneyline(w models.Wager, ev *models.Event, home, away float64) models.Wager {
	side, ok := resolveSide(w.Selection, w.Side, ev)
	if !ok {
		// Ambiguous selection text - leave the status underived
		return w
	}

	margin := marginFor(side, home, away)
	w.CurrentValue = models.Float(margin)
	w.CurrentValueStr = fmt.Sprintf("%+d (%d-%d)", int(margin), int(away), int(home))

	if ev.State == models.StatePost {
		if margin > 0 {
			w.PropStatus = models.PropStatusWon
		} else {
			w.PropStatus = models.PropStatusLost
		}
		return w
	}

	if margin >= 0 {
		w.PropStatus = models.PropStatusLiveHit
	} else {
		w.PropStatus = models.PropStatusLiveMiss
	}
	return w
}

// resolveSpread grades a handicap pick: the selected team's margin plus the
// line must be positive. Landing exactly on the line is a push.
func resolveSpread(w models.Wager, ev *models.Event, home, away float64) models.Wager {
	if w.Line == nil {
		return w
	}

	side, ok := resolveSide(w.Selection, w.Side, ev)
	if !ok {
		return w
	}

	margin := marginFor(side, home, away)
	w.CurrentValue = models.Float(margin)
	w.CurrentValueStr = fmt.Sprintf("%+d (%d-%d)", int(margin), int(away), int(home))

	covered := margin + *w.Line
	final := ev.State == models.StatePost

	switch {
	case math.Abs(covered) < lineEpsilon:
		w.PropStatus = pickStatus(final, models.PropStatusPush, models.PropStatusLivePush)
	case covered > 0:
		w.PropStatus = pickStatus(final, models.PropStatusWon, models.PropStatusLiveHit)
	default:
		w.PropStatus = pickStatus(final, models.PropStatusLost, models.PropStatusLiveMiss)
	}
	return w
}

// resolveTotal grades an over/under on the combined score
func resolveTotal(w models.Wager, home, away float64) models.Wager {
	if w.Line == nil {
		return w
	}

	total := home + away
	w.CurrentValue = models.Float(total)
	w.CurrentValueStr = fmt.Sprintf("%d (%d-%d)", int(total), int(away), int(home))

	final := w.GameState == models.StatePost
	w.PropStatus = gradeOverUnder(total, *w.Line, strings.ToLower(w.Side), final)
	return w
}

// resolveTeamTotal grades an over/under on one team's score
func resolveTeamTotal(w models.Wager, ev *models.Event, home, away float64) models.Wager {
	if w.Line == nil {
		return w
	}

	// The tracked team is named by the team_name field or the selection
	side, ok := resolveSide(w.TeamName, w.Selection, ev)
	if !ok {
		return w
	}

	value := away
	if side == sideHome {
		value = home
	}
	w.CurrentValue = models.Float(value)
	w.CurrentValueStr = fmt.Sprintf("%d (%d-%d)", int(value), int(away), int(home))

	final := ev.State == models.StatePost
	w.PropStatus = gradeOverUnder(value, *w.Line, strings.ToLower(w.Side), final)
	return w
}

// gradeOverUnder applies the shared over/under comparison with the
// live-vs-final split
func gradeOverUnder(value, line float64, side string, final bool) models.PropStatus {
	if math.Abs(value-line) < lineEpsilon {
		return pickStatus(final, models.PropStatusPush, models.PropStatusLivePush)
	}

	var hit bool
	switch side {
	case models.SideOver:
		hit = value > line
	case models.SideUnder:
		hit = value < line
	default:
		return models.PropStatusNone
	}

	if hit {
		return pickStatus(final, models.PropStatusWon, models.PropStatusLiveHit)
	}
	return pickStatus(final, models.PropStatusLost, models.PropStatusLiveMiss)
}

func pickStatus(final bool, finalStatus, liveStatus models.PropStatus) models.PropStatus {
	if final {
		return finalStatus
	}
	return liveStatus
}

type teamSide int

const (
	sideNone teamSide = iota
	sideHome
	sideAway
)

// resolveSide determines which team the wager text selected. primary is tried
// first (selection for Moneyline, team_name for Team Total), then fallback.
func resolveSide(primary, fallback string, ev *models.Event) (teamSide, bool) {
	for _, text := range []string{primary, fallback} {
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		matchesHome := containsEither(text, ev.HomeTeam)
		matchesAway := containsEither(text, ev.AwayTeam)
		switch {
		case matchesHome && !matchesAway:
			return sideHome, true
		case matchesAway && !matchesHome:
			return sideAway, true
		}
	}
	return sideNone, false
}

// marginFor is the selected team's score minus the opponent's
func marginFor(side teamSide, home, away float64) float64 {
	if side == sideHome {
		return home - away
	}
	return away - home
}

// containsEither matches free text against a team display name. Selections
// like "Lakers ML" carry extra tokens, so the team's nickname (last word of
// the display name) is also tried.
func containsEither(text, team string) bool {
	team = strings.ToLower(strings.TrimSpace(team))
	if team == "" {
		return false
	}
	if strings.Contains(text, team) || strings.Contains(team, text) {
		return true
	}
	if fields := strings.Fields(team); len(fields) > 1 {
		return strings.Contains(text, fields[len(fields)-1])
	}
	return false
}
