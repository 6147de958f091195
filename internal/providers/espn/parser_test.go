package espn_test

import (
	"encoding/json"
	"testing"

	"github.com/vkiragi/briefing/services/wager-engine/internal/providers/espn"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// scoreboard payload trimmed to the fields the parser reads
const scoreboardJSON = `{
	"events": [
		{
			"id": "401585601",
			"date": "2026-01-15T20:00Z",
			"status": {
				"clock": 252.0,
				"displayClock": "4:12",
				"period": 3,
				"type": {
					"name": "STATUS_IN_PROGRESS",
					"state": "in",
					"completed": false,
					"description": "In Progress",
					"shortDetail": "4:12 - 3rd Quarter"
				}
			},
			"competitions": [{
				"competitors": [
					{
						"homeAway": "home",
						"score": "80",
						"team": {"displayName": "Boston Celtics"}
					},
					{
						"homeAway": "away",
						"score": "88",
						"team": {"displayName": "Los Angeles Lakers"}
					}
				]
			}]
		},
		{
			"id": "401585602",
			"date": "2026-01-16T01:30Z",
			"status": {
				"type": {
					"name": "STATUS_SCHEDULED",
					"state": "pre",
					"completed": false,
					"description": "Scheduled",
					"shortDetail": "1/15 - 8:30 PM EST"
				}
			},
			"competitions": [{
				"competitors": [
					{
						"homeAway": "away",
						"score": "0",
						"team": {"displayName": "Miami Heat"}
					},
					{
						"homeAway": "home",
						"score": "0",
						"team": {"displayName": "Denver Nuggets"}
					}
				]
			}]
		},
		{
			"id": "broken",
			"status": {"type": {"state": "pre"}}
		}
	]
}`

func parseFixture(t *testing.T) []models.Event {
	t.Helper()
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(scoreboardJSON), &raw); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return espn.ParseScoreboard(raw, "nba")
}

func TestParseScoreboard(t *testing.T) {
	events := parseFixture(t)

	if len(events) != 2 {
		t.Fatalf("parsed %d events, want 2 (broken entry skipped)", len(events))
	}

	live := events[0]
	if live.EventID != "401585601" {
		t.Errorf("EventID = %q", live.EventID)
	}
	if live.State != models.StateIn {
		t.Errorf("State = %q, want %q", live.State, models.StateIn)
	}
	if live.HomeTeam != "Boston Celtics" || live.AwayTeam != "Los Angeles Lakers" {
		t.Errorf("teams = %q / %q", live.HomeTeam, live.AwayTeam)
	}
	if live.HomeScore == nil || *live.HomeScore != 80 {
		t.Errorf("HomeScore = %v, want 80", live.HomeScore)
	}
	if live.AwayScore == nil || *live.AwayScore != 88 {
		t.Errorf("AwayScore = %v, want 88", live.AwayScore)
	}
	if live.StatusText != "4:12 - 3rd Quarter" {
		t.Errorf("StatusText = %q, want shortDetail", live.StatusText)
	}
	if live.Period != 3 || live.DisplayClock != "4:12" || live.ClockSeconds != 252 {
		t.Errorf("clock fields = %d %q %v", live.Period, live.DisplayClock, live.ClockSeconds)
	}
	if live.Date == nil {
		t.Error("Date = nil, want parsed")
	}
	if live.TBD {
		t.Error("TBD = true for a normal event")
	}
}

func TestParseScoreboardPreGame(t *testing.T) {
	events := parseFixture(t)
	pre := events[1]

	if pre.State != models.StatePre {
		t.Fatalf("State = %q, want %q", pre.State, models.StatePre)
	}
	// Zero scores pre-game are placeholders, not real values
	if pre.HomeScore != nil || pre.AwayScore != nil {
		t.Errorf("pre-game scores = %v / %v, want nil", pre.HomeScore, pre.AwayScore)
	}
	// homeAway swap: away listed first in the payload
	if pre.HomeTeam != "Denver Nuggets" || pre.AwayTeam != "Miami Heat" {
		t.Errorf("teams = %q / %q, want homeAway respected", pre.HomeTeam, pre.AwayTeam)
	}
}

func TestParseScoreboardTBD(t *testing.T) {
	raw := map[string]interface{}{
		"events": []interface{}{
			map[string]interface{}{
				"id": "1",
				"status": map[string]interface{}{
					"type": map[string]interface{}{
						"name":  "STATUS_TBD",
						"state": "pre",
					},
				},
				"competitions": []interface{}{
					map[string]interface{}{
						"competitors": []interface{}{
							map[string]interface{}{"team": map[string]interface{}{"displayName": "TBD"}},
							map[string]interface{}{"team": map[string]interface{}{"displayName": "TBD"}},
						},
					},
				},
			},
		},
	}

	events := espn.ParseScoreboard(raw, "soccer")
	if len(events) != 1 {
		t.Fatalf("parsed %d events, want 1", len(events))
	}
	if !events[0].TBD {
		t.Error("TBD = false, want flagged")
	}
}

func TestParseScoreboardEmpty(t *testing.T) {
	if got := espn.ParseScoreboard(map[string]interface{}{}, "nba"); got != nil {
		t.Errorf("ParseScoreboard(empty) = %v, want nil", got)
	}
	if got := espn.ParseScoreboard(map[string]interface{}{"events": "nope"}, "nba"); got != nil {
		t.Errorf("ParseScoreboard(bad type) = %v, want nil", got)
	}
}
