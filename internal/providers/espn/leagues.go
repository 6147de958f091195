package espn

// leaguePaths maps dashboard league keys to ESPN API sport paths.
var leaguePaths = map[string]string{
	"nfl":    "football/nfl",
	"nba":    "basketball/nba",
	"mlb":    "baseball/mlb",
	"nhl":    "hockey/nhl",
	"soccer": "soccer/eng.1",
	"epl":    "soccer/eng.1",
	"laliga": "soccer/esp.1",
	"ucl":    "soccer/uefa.champions",
	"europa": "soccer/uefa.europa",
	"ncaaf":  "football/college-football",
	"ncaab":  "basketball/mens-college-basketball",
}

// DefaultLeagues is the poll order used when the user has no saved preference.
var DefaultLeagues = []string{"nfl", "nba", "mlb", "nhl"}

// LeaguePath returns the ESPN sport path for a league key.
func LeaguePath(league string) (string, bool) {
	path, ok := leaguePaths[league]
	return path, ok
}

// KnownLeagues returns every league key the client can fetch.
func KnownLeagues() []string {
	keys := make([]string, 0, len(leaguePaths))
	for key := range leaguePaths {
		keys = append(keys, key)
	}
	return keys
}
