package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoreCSV      = "csv"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type APIConfig struct {
	Addr              string
	Store             string
	SnapshotPath      string
	SQLitePath        string
	DatabaseURL       string
	CatalogPath       string
	Seed              uint64
	// HistoryLimit overrides the catalog's history cap when set; 0 keeps everything.
	HistoryLimit      *int
	AutoDayEvery      time.Duration
	AdminToken        string
	DiscordWebhookURL string
	LogLevel          slog.Level
}

type CLIConfig struct {
	APIBaseURL      string
	AdminToken      string
	// Animate plays the day log back in a terminal program when stdout is a TTY.
	Animate         bool
	PlaybackSeconds float64
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("LEMON_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:              addr,
		Store:             strings.ToLower(envDefault("LEMON_STORE", StoreCSV)),
		SnapshotPath:      envDefault("LEMON_SNAPSHOT_PATH", "gamestate.csv"),
		SQLitePath:        envDefault("LEMON_SQLITE_PATH", "data/lemonade.sqlite"),
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CatalogPath:       strings.TrimSpace(os.Getenv("LEMON_CATALOG")),
		Seed:              envUintDefault("LEMON_SEED", 0),
		HistoryLimit:      envIntOptional("LEMON_HISTORY_LIMIT"),
		AutoDayEvery:      envDurationDefault("LEMON_AUTO_DAY_EVERY", 0),
		AdminToken:        strings.TrimSpace(os.Getenv("LEMON_ADMIN_TOKEN")),
		DiscordWebhookURL: strings.TrimSpace(os.Getenv("LEMON_DISCORD_WEBHOOK")),
		LogLevel:          envLevelDefault("LEMON_LOG_LEVEL", slog.LevelInfo),
	}
	switch cfg.Store {
	case StoreCSV, StoreSQLite, StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return cfg, fmt.Errorf("DATABASE_URL is required when LEMON_STORE=postgres")
		}
	default:
		return cfg, fmt.Errorf("unsupported LEMON_STORE %q", cfg.Store)
	}
	if cfg.HistoryLimit != nil && *cfg.HistoryLimit < 0 {
		return cfg, fmt.Errorf("LEMON_HISTORY_LIMIT must be >= 0")
	}
	if cfg.AutoDayEvery < 0 {
		return cfg, fmt.Errorf("LEMON_AUTO_DAY_EVERY must be >= 0")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL:      strings.TrimRight(envDefault("LEM_API_BASE_URL", "http://localhost:8080"), "/"),
		AdminToken:      strings.TrimSpace(os.Getenv("LEM_ADMIN_TOKEN")),
		Animate:         envBoolDefault("LEM_ANIMATE", true),
		PlaybackSeconds: envFloatDefault("LEM_PLAYBACK_SECONDS", 3),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envIntOptional(key string) *int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func envUintDefault(key string, fallback uint64) uint64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envFloatDefault(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envLevelDefault(key string, fallback slog.Level) slog.Level {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return fallback
	}
	return lvl
}
