package espn

import (
	"strconv"
	"strings"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/pkg/models"
)

// ParseScoreboard extracts events from a raw ESPN scoreboard payload.
// Unparseable entries are skipped rather than failing the whole response.
func ParseScoreboard(raw map[string]interface{}, league string) []models.Event {
	rawEvents, ok := raw["events"].([]interface{})
	if !ok {
		return nil
	}

	var events []models.Event
	for _, item := range rawEvents {
		eventMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if ev, ok := parseEvent(eventMap, league); ok {
			events = append(events, ev)
		}
	}
	return events
}

// parseEvent converts one scoreboard event into a models.Event
func parseEvent(event map[string]interface{}, league string) (models.Event, bool) {
	competitions, ok := event["competitions"].([]interface{})
	if !ok || len(competitions) == 0 {
		return models.Event{}, false
	}

	competition, ok := competitions[0].(map[string]interface{})
	if !ok {
		return models.Event{}, false
	}

	competitors, ok := competition["competitors"].([]interface{})
	if !ok || len(competitors) < 2 {
		return models.Event{}, false
	}

	ev := models.Event{League: league, State: models.StateUnknown}

	if id := asString(event["id"]); id != "" {
		ev.EventID = id
	}

	status := asMap(event["status"])
	statusType := asMap(status["type"])

	state := strings.ToLower(asString(statusType["state"]))
	switch state {
	case "pre":
		ev.State = models.StatePre
	case "in":
		ev.State = models.StateIn
	case "post":
		ev.State = models.StatePost
	}
	ev.Completed, _ = statusType["completed"].(bool)
	ev.StatusText = asString(statusType["description"])
	if detail := asString(statusType["shortDetail"]); detail != "" {
		ev.StatusText = detail
	}
	ev.TBD = strings.EqualFold(asString(statusType["name"]), "STATUS_TBD")

	ev.Period = int(asFloat(status["period"]))
	ev.DisplayClock = asString(status["displayClock"])
	ev.ClockSeconds = asFloat(status["clock"])

	// ESPN usually lists home at index 0 but the homeAway field is
	// authoritative when present
	home := asMap(competitors[0])
	away := asMap(competitors[1])
	if asString(home["homeAway"]) == "away" || asString(away["homeAway"]) == "home" {
		home, away = away, home
	}

	ev.HomeTeam = teamName(home)
	ev.AwayTeam = teamName(away)
	if ev.HomeTeam == "" || ev.AwayTeam == "" {
		return models.Event{}, false
	}

	// Scores are strings upstream and absent pre-game
	if ev.State != models.StatePre {
		if v, ok := parseScore(home["score"]); ok {
			ev.HomeScore = models.Float(v)
		}
		if v, ok := parseScore(away["score"]); ok {
			ev.AwayScore = models.Float(v)
		}
	}

	if dateStr := asString(event["date"]); dateStr != "" {
		if t, err := time.Parse("2006-01-02T15:04Z", dateStr); err == nil {
			ev.Date = &t
		} else if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			ev.Date = &t
		}
	}

	return ev, true
}

func teamName(competitor map[string]interface{}) string {
	team := asMap(competitor["team"])
	if name := asString(team["displayName"]); name != "" {
		return name
	}
	// Tennis singles payloads nest the name under athlete instead
	athlete := asMap(competitor["athlete"])
	return asString(athlete["displayName"])
}

func parseScore(v interface{}) (float64, bool) {
	switch s := v.(type) {
	case string:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return s, true
	default:
		return 0, false
	}
}

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	f, _ := v.(float64)
	return f
}
