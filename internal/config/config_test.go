package config_test

import (
	"testing"
	"time"

	"github.com/vkiragi/briefing/services/wager-engine/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := config.LoadConfig()

	if cfg.Server.Addr != ":8085" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Engine.EventCacheTTL != 60*time.Second {
		t.Errorf("EventCacheTTL = %v", cfg.Engine.EventCacheTTL)
	}
	if len(cfg.Engine.Leagues) != 4 {
		t.Errorf("Leagues = %v, want 4 defaults", cfg.Engine.Leagues)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9000")
	t.Setenv("LEAGUES", "NFL, soccer ,,epl")
	t.Setenv("REFRESH_INTERVAL_SEC", "15")
	t.Setenv("EVENT_CACHE_TTL_SEC", "not-a-number")

	cfg := config.LoadConfig()

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}

	want := []string{"nfl", "soccer", "epl"}
	if len(cfg.Engine.Leagues) != len(want) {
		t.Fatalf("Leagues = %v, want %v", cfg.Engine.Leagues, want)
	}
	for i, league := range want {
		if cfg.Engine.Leagues[i] != league {
			t.Errorf("Leagues[%d] = %q, want %q", i, cfg.Engine.Leagues[i], league)
		}
	}

	if cfg.Engine.RefreshIntervalSec != 15 {
		t.Errorf("RefreshIntervalSec = %d", cfg.Engine.RefreshIntervalSec)
	}

	// Unparseable numbers fall back to the default
	if cfg.Engine.EventCacheTTL != 60*time.Second {
		t.Errorf("EventCacheTTL = %v, want default on parse failure", cfg.Engine.EventCacheTTL)
	}
}
