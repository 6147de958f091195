// Package matcher finds the event a wager refers to. Wagers carry no
// canonical event reference in the general case, so matching is heuristic
// over free text with a fixed precedence order. Team-name collisions across
// leagues and cities are an accepted source of mismatch; ties go to the
// first event in list order.
package matcher

import (
	"strings"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// Match finds the best-matching event for a wager's matchup/selection text.
// Rules are tried in precedence order, first success wins:
//
//  1. Either team name substring-matches the matchup (both directions).
//  2. The matchup splits on "@" into away/home parts and both parts
//     substring-match the event's away/home teams respectively.
//  3. The selection substring-matches either team name (Moneyline-style
//     selections that just name a team).
//
// Returns nil when no event matches.
func Match(matchup, selection string, events []models.Event) *models.Event {
	matchup = strings.ToLower(strings.TrimSpace(matchup))
	selection = strings.ToLower(strings.TrimSpace(selection))

	// Rule 1: team name vs matchup text
	for i := range events {
		if containsTeam(matchup, events[i].HomeTeam) || containsTeam(matchup, events[i].AwayTeam) {
			return &events[i]
		}
	}

	// Rule 2: "Away @ Home" split, both sides must line up
	if awayPart, homePart, ok := splitMatchup(matchup); ok {
		for i := range events {
			if containsTeam(awayPart, events[i].AwayTeam) && containsTeam(homePart, events[i].HomeTeam) {
				return &events[i]
			}
		}
	}

	// Rule 3: selection names a team
	if selection != "" {
		for i := range events {
			if containsTeam(selection, events[i].HomeTeam) || containsTeam(selection, events[i].AwayTeam) {
				return &events[i]
			}
		}
	}

	return nil
}

// MatchWager matches using the wager's own matchup/selection fields.
func MatchWager(w *models.Wager, events []models.Event) *models.Event {
	return Match(w.Matchup, w.Selection, events)
}

// MatchLeg matches using a parlay leg's matchup/selection fields.
func MatchLeg(leg *models.Leg, events []models.Event) *models.Event {
	return Match(leg.Matchup, leg.Selection, events)
}

// containsTeam reports whether free text refers to a team display name:
// either string contains the other whole, or one word of the text equals the
// team's nickname (last word of the display name). The nickname check is what
// lets "Suns ML" find "Phoenix Suns"; it requires an exact word so "AFC"
// cannot claim "Alpha FC". Empty inputs never match.
func containsTeam(text, team string) bool {
	team = strings.ToLower(strings.TrimSpace(team))
	if text == "" || team == "" {
		return false
	}
	if strings.Contains(text, team) || strings.Contains(team, text) {
		return true
	}

	fields := strings.Fields(team)
	if len(fields) < 2 {
		return false
	}
	nickname := fields[len(fields)-1]
	for _, word := range strings.Fields(text) {
		if word == nickname {
			return true
		}
	}
	return false
}

// splitMatchup splits "Away @ Home" text into its two sides. Only a clean
// two-part split counts.
func splitMatchup(matchup string) (away, home string, ok bool) {
	parts := strings.Split(matchup, "@")
	if len(parts) != 2 {
		return "", "", false
	}
	away = strings.TrimSpace(parts[0])
	home = strings.TrimSpace(parts[1])
	if away == "" || home == "" {
		return "", "", false
	}
	return away, home, true
}
