// Package parlay fans a multi-leg wager out to the matcher/resolver per leg.
// The parlay-level roll-up of leg statuses is deliberately left to the
// presentation layer; this package only keeps each leg's derived view fresh.
package parlay

import (
	"fmt"
	"math"
	"strings"

	"github.com/vkiragi/briefing/services/wager-engine/internal/matcher"
	"github.com/vkiragi/briefing/services/wager-engine/internal/resolver"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// EventLookup supplies the cached event universe for a league.
type EventLookup func(league string) []models.Event

// Resolve re-resolves every leg of a parlay against the cached events.
// Settled (terminal) legs come back untouched. The input wager is not
// mutated; a copy with a fresh legs slice is returned.
func Resolve(p models.Wager, lookup EventLookup) models.Wager {
	if len(p.Legs) == 0 {
		return p
	}

	legs := make([]models.Leg, len(p.Legs))
	copy(legs, p.Legs)

	for i := range legs {
		legs[i] = ResolveLeg(legs[i], lookup)
	}

	p.Legs = legs
	return p
}

// ResolveLeg resolves a single leg using its own matchup/tracking fields.
func ResolveLeg(leg models.Leg, lookup EventLookup) models.Leg {
	if leg.PropStatus.IsTerminal() {
		return leg
	}

	if leg.IsCombined {
		return resolveCombined(leg)
	}

	events := lookup(strings.ToLower(leg.Sport))
	ev := matcher.MatchLeg(&leg, events)
	if ev == nil {
		return leg
	}

	resolved := resolver.Resolve(legAsWager(leg), ev, nil)
	return mergeDerived(leg, resolved)
}

// resolveCombined grades a combined prop from its constituents' tracked
// values. Every named player must have live data before the leg can report
// anything; with any one player missing the leg stays pending.
func resolveCombined(leg models.Leg) models.Leg {
	if leg.Line == nil || len(leg.CombinedPlayers) == 0 {
		return leg
	}

	total := 0.0
	state := models.GameState("")
	for _, player := range leg.CombinedPlayers {
		if player.CurrentValue == nil {
			return leg
		}
		total += *player.CurrentValue
		if player.GameState != "" {
			state = combineStates(state, player.GameState)
		}
	}

	leg.CurrentValue = models.Float(total)
	leg.CurrentValueStr = combinedDisplay(total, leg.CombinedPlayers)
	if state != "" {
		leg.GameState = state
	}

	side := strings.ToLower(leg.Side)
	if side == "" {
		side = models.SideOver
	}

	line := *leg.Line
	final := leg.GameState == models.StatePost

	var hit bool
	if side == models.SideOver {
		hit = total > line
	} else {
		hit = total < line
	}

	switch {
	case math.Abs(total-line) < 1e-6 && final:
		leg.PropStatus = models.PropStatusPush
	case final && hit:
		leg.PropStatus = models.PropStatusWon
	case final:
		leg.PropStatus = models.PropStatusLost
	case leg.GameState == models.StateIn && hit:
		leg.PropStatus = models.PropStatusLiveHit
	case leg.GameState == models.StateIn:
		leg.PropStatus = models.PropStatusLiveMiss
	}
	return leg
}

// combineStates folds per-player game states: any live constituent keeps the
// leg live; only all-final makes it final.
func combineStates(acc, next models.GameState) models.GameState {
	if acc == "" {
		return next
	}
	if acc == models.StateIn || next == models.StateIn {
		return models.StateIn
	}
	if acc == models.StatePost && next == models.StatePost {
		return models.StatePost
	}
	return acc
}

// combinedDisplay builds the "3 (Smith: 2, Brown: 1)" progress string
func combinedDisplay(total float64, players []models.CombinedPlayer) string {
	parts := make([]string, 0, len(players))
	for _, p := range players {
		name := p.PlayerName
		if fields := strings.Fields(name); len(fields) > 0 {
			name = fields[len(fields)-1]
		}
		value := 0
		if p.CurrentValue != nil {
			value = int(*p.CurrentValue)
		}
		parts = append(parts, fmt.Sprintf("%s: %d", name, value))
	}
	return fmt.Sprintf("%d (%s)", int(total), strings.Join(parts, ", "))
}

// ApplyRefresh overlays backend-refreshed legs onto a parlay by position.
// Legs the engine already holds as terminal are never overwritten - status
// is monotonic even against the backend.
func ApplyRefresh(p models.Wager, refreshed []models.Leg) models.Wager {
	if len(refreshed) == 0 || len(p.Legs) == 0 {
		return p
	}

	legs := make([]models.Leg, len(p.Legs))
	copy(legs, p.Legs)

	for i := range legs {
		if i >= len(refreshed) {
			break
		}
		if legs[i].PropStatus.IsTerminal() {
			continue
		}
		legs[i] = refreshed[i]
	}

	p.Legs = legs
	return p
}

// legAsWager adapts a leg into the resolver's wager shape. The leg's market
// type names the wire-level market; the resolver keys off the display type.
func legAsWager(leg models.Leg) models.Wager {
	return models.Wager{
		Sport:      leg.Sport,
		Type:       marketToType(leg.MarketType),
		Matchup:    leg.Matchup,
		Selection:  leg.Selection,
		Status:     models.StatusPending,
		EventID:    leg.EventID,
		PlayerName: leg.PlayerName,
		TeamName:   leg.TeamName,
		MarketType: leg.MarketType,
		Line:       leg.Line,
		Side:       leg.Side,
		PropStatus: leg.PropStatus,
	}
}

// mergeDerived copies the resolver's derived fields back onto the leg
func mergeDerived(leg models.Leg, resolved models.Wager) models.Leg {
	leg.CurrentValue = resolved.CurrentValue
	if resolved.CurrentValueStr != "" {
		leg.CurrentValueStr = resolved.CurrentValueStr
	}
	if resolved.GameState != "" {
		leg.GameState = resolved.GameState
	}
	if resolved.GameStatusText != "" {
		leg.GameStatusText = resolved.GameStatusText
	}
	if resolved.PropStatus != models.PropStatusNone {
		leg.PropStatus = resolved.PropStatus
	}
	return leg
}

// marketToType maps a leg's market key to the resolver's wager type
func marketToType(market string) models.WagerType {
	switch strings.ToLower(market) {
	case "moneyline":
		return models.TypeMoneyline
	case "spread":
		return models.TypeSpread
	case "total_score":
		return models.TypeTotal
	case "team_total":
		return models.TypeTeamTotal
	default:
		return models.TypeProp
	}
}
