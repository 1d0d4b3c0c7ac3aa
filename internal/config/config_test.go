package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadAPIFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LEMON_API_ADDR", "LEMON_STORE", "LEMON_SEED", "LEMON_HISTORY_LIMIT", "LEMON_AUTO_DAY_EVERY", "LEMON_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.Store != StoreCSV || cfg.SnapshotPath != "gamestate.csv" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HistoryLimit != nil || cfg.AutoDayEvery != 0 || cfg.Seed != 0 || cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadAPIFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEMON_STORE", "SQLite")
	t.Setenv("LEMON_SEED", "42")
	t.Setenv("LEMON_HISTORY_LIMIT", "0")
	t.Setenv("LEMON_AUTO_DAY_EVERY", "90s")
	t.Setenv("LEMON_ADMIN_TOKEN", " s3cret ")
	t.Setenv("LEMON_LOG_LEVEL", "debug")

	cfg, err := LoadAPIFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Addr)
	}
	if cfg.Store != StoreSQLite || cfg.Seed != 42 || cfg.HistoryLimit == nil || *cfg.HistoryLimit != 0 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.AutoDayEvery != 90*time.Second || cfg.AdminToken != "s3cret" || cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadAPIFromEnvRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without url", env: map[string]string{"LEMON_STORE": "postgres", "DATABASE_URL": ""}},
		{name: "unknown store", env: map[string]string{"LEMON_STORE": "redis"}},
		{name: "negative history", env: map[string]string{"LEMON_STORE": "", "LEMON_HISTORY_LIMIT": "-1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadAPIFromEnv(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadCLIFromEnv(t *testing.T) {
	t.Setenv("LEM_API_BASE_URL", "http://stand.local:8080/")
	t.Setenv("LEM_ANIMATE", "false")
	t.Setenv("LEM_PLAYBACK_SECONDS", "nope")

	cfg := LoadCLIFromEnv()
	if cfg.APIBaseURL != "http://stand.local:8080" {
		t.Fatalf("base url = %q", cfg.APIBaseURL)
	}
	if cfg.Animate || cfg.PlaybackSeconds != 3 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}
