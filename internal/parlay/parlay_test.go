package parlay_test

import (
	"strings"
	"testing"

	"github.com/vkiragi/briefing/services/wager-engine/internal/parlay"
	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

func nbaLookup() parlay.EventLookup {
	events := []models.Event{
		{
			EventID:   "401",
			League:    "nba",
			AwayTeam:  "Los Angeles Lakers",
			HomeTeam:  "Boston Celtics",
			State:     models.StateIn,
			AwayScore: models.Float(88),
			HomeScore: models.Float(80),
		},
		{
			EventID:   "402",
			League:    "nba",
			AwayTeam:  "Miami Heat",
			HomeTeam:  "Denver Nuggets",
			State:     models.StatePost,
			AwayScore: models.Float(95),
			HomeScore: models.Float(101),
		},
	}
	return func(league string) []models.Event {
		if league == "nba" {
			return events
		}
		return nil
	}
}

func TestResolveMixedLegs(t *testing.T) {
	p := models.Wager{
		ID:     "parlay-1",
		Type:   models.TypeParlay,
		Status: models.StatusPending,
		Legs: []models.Leg{
			{
				Sport:      "NBA",
				Matchup:    "Heat @ Nuggets",
				Selection:  "Nuggets ML",
				MarketType: "moneyline",
			},
			{
				Sport:      "NBA",
				Matchup:    "Lakers @ Celtics",
				Selection:  "Lakers ML",
				MarketType: "moneyline",
			},
		},
	}

	got := parlay.Resolve(p, nbaLookup())

	if got.Legs[0].PropStatus != models.PropStatusWon {
		t.Errorf("final leg PropStatus = %q, want %q", got.Legs[0].PropStatus, models.PropStatusWon)
	}
	if got.Legs[1].PropStatus != models.PropStatusLiveHit {
		t.Errorf("live leg PropStatus = %q, want %q", got.Legs[1].PropStatus, models.PropStatusLiveHit)
	}
	if got.Legs[1].GameState != models.StateIn {
		t.Errorf("live leg GameState = %q, want %q", got.Legs[1].GameState, models.StateIn)
	}

	// Input legs must be untouched
	if p.Legs[0].PropStatus != models.PropStatusNone {
		t.Errorf("input parlay was mutated: %q", p.Legs[0].PropStatus)
	}
}

func TestResolveLegTerminalUntouched(t *testing.T) {
	leg := models.Leg{
		Sport:      "NBA",
		Matchup:    "Lakers @ Celtics",
		Selection:  "Lakers ML",
		MarketType: "moneyline",
		PropStatus: models.PropStatusLost,
	}

	got := parlay.ResolveLeg(leg, nbaLookup())
	if got.PropStatus != models.PropStatusLost {
		t.Errorf("terminal leg was recomputed: %q", got.PropStatus)
	}
}

func TestResolveLegNoMatchStaysPending(t *testing.T) {
	leg := models.Leg{
		Sport:     "NBA",
		Matchup:   "Chiefs @ Bills",
		Selection: "Chiefs ML",
	}

	got := parlay.ResolveLeg(leg, nbaLookup())
	if got.PropStatus != models.PropStatusNone {
		t.Errorf("unmatched leg PropStatus = %q, want none", got.PropStatus)
	}
}

func TestResolveCombinedProp(t *testing.T) {
	base := models.Leg{
		Sport:      "NFL",
		Selection:  "Smith + Brown combined TDs Over 2.5",
		IsCombined: true,
		Line:       models.Float(2.5),
		Side:       models.SideOver,
		CombinedPlayers: []models.CombinedPlayer{
			{PlayerName: "Jaylen Smith", CurrentValue: models.Float(2), GameState: models.StateIn},
			{PlayerName: "Marcus Brown", CurrentValue: models.Float(1), GameState: models.StateIn},
		},
	}

	t.Run("all players reporting", func(t *testing.T) {
		got := parlay.ResolveLeg(base, nbaLookup())

		if got.CurrentValue == nil || *got.CurrentValue != 3 {
			t.Fatalf("CurrentValue = %v, want 3", got.CurrentValue)
		}
		if got.PropStatus != models.PropStatusLiveHit {
			t.Errorf("PropStatus = %q, want %q", got.PropStatus, models.PropStatusLiveHit)
		}
		if !strings.Contains(got.CurrentValueStr, "Smith: 2") || !strings.Contains(got.CurrentValueStr, "Brown: 1") {
			t.Errorf("CurrentValueStr = %q, want per-player breakdown", got.CurrentValueStr)
		}
	})

	t.Run("missing player keeps leg pending", func(t *testing.T) {
		leg := base
		leg.CombinedPlayers = []models.CombinedPlayer{
			{PlayerName: "Jaylen Smith", CurrentValue: models.Float(2), GameState: models.StateIn},
			{PlayerName: "Marcus Brown"},
		}

		got := parlay.ResolveLeg(leg, nbaLookup())
		if got.CurrentValue != nil {
			t.Errorf("CurrentValue = %v, want nil with a silent player", got.CurrentValue)
		}
		if got.PropStatus != models.PropStatusNone {
			t.Errorf("PropStatus = %q, want pending", got.PropStatus)
		}
	})

	t.Run("all final grades the leg", func(t *testing.T) {
		leg := base
		leg.CombinedPlayers = []models.CombinedPlayer{
			{PlayerName: "Jaylen Smith", CurrentValue: models.Float(2), GameState: models.StatePost},
			{PlayerName: "Marcus Brown", CurrentValue: models.Float(0), GameState: models.StatePost},
		}

		got := parlay.ResolveLeg(leg, nbaLookup())
		if got.PropStatus != models.PropStatusLost {
			t.Errorf("PropStatus = %q, want %q", got.PropStatus, models.PropStatusLost)
		}
	})

	t.Run("one game final one live stays live", func(t *testing.T) {
		leg := base
		leg.CombinedPlayers = []models.CombinedPlayer{
			{PlayerName: "Jaylen Smith", CurrentValue: models.Float(2), GameState: models.StatePost},
			{PlayerName: "Marcus Brown", CurrentValue: models.Float(1), GameState: models.StateIn},
		}

		got := parlay.ResolveLeg(leg, nbaLookup())
		if got.GameState != models.StateIn {
			t.Errorf("GameState = %q, want live while any constituent is live", got.GameState)
		}
		if got.PropStatus != models.PropStatusLiveHit {
			t.Errorf("PropStatus = %q, want %q", got.PropStatus, models.PropStatusLiveHit)
		}
	})
}

func TestApplyRefresh(t *testing.T) {
	p := models.Wager{
		ID:     "parlay-2",
		Type:   models.TypeParlay,
		Status: models.StatusPending,
		Legs: []models.Leg{
			{Selection: "Leg A", PropStatus: models.PropStatusWon},
			{Selection: "Leg B", PropStatus: models.PropStatusLiveMiss},
		},
	}
	refreshed := []models.Leg{
		{Selection: "Leg A", PropStatus: models.PropStatusLost},
		{Selection: "Leg B", PropStatus: models.PropStatusLiveHit},
	}

	got := parlay.ApplyRefresh(p, refreshed)

	if got.Legs[0].PropStatus != models.PropStatusWon {
		t.Errorf("terminal leg was overwritten: %q", got.Legs[0].PropStatus)
	}
	if got.Legs[1].PropStatus != models.PropStatusLiveHit {
		t.Errorf("live leg not refreshed: %q", got.Legs[1].PropStatus)
	}
	if p.Legs[1].PropStatus != models.PropStatusLiveMiss {
		t.Errorf("input parlay was mutated: %q", p.Legs[1].PropStatus)
	}
}
