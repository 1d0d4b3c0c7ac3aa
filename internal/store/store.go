package store

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"lemontycoon/internal/config"
	"lemontycoon/internal/game"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// Store persists the game snapshot. Load reports false when nothing was saved yet.
type Store interface {
	game.Snapshotter
	Load(ctx context.Context) (*game.State, bool, error)
	Close() error
}

// Open builds the backend named by cfg.Store.
func Open(ctx context.Context, cfg config.APIConfig, cat *game.Catalog, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		st  Store
		err error
	)
	switch cfg.Store {
	case config.StoreCSV, "":
		st, err = NewCSVStore(cfg.SnapshotPath, cat)
	case config.StoreSQLite:
		st, err = OpenSQLite(ctx, cfg.SQLitePath, cat)
	case config.StorePostgres:
		st, err = OpenPostgres(ctx, cfg.DatabaseURL, cat)
	case config.StoreMemory:
		st = NewMemoryStore(cat)
	default:
		return nil, fmt.Errorf("unsupported store %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("snapshot store ready", "store", cfg.Store)
	return st, nil
}

// LoadOrNew returns the persisted state, or a fresh one when the store is
// empty or its snapshot cannot be read.
func LoadOrNew(ctx context.Context, st Store, cat *game.Catalog, logger *slog.Logger) *game.State {
	if logger == nil {
		logger = slog.Default()
	}
	loaded, ok, err := st.Load(ctx)
	if err != nil {
		logger.Error("snapshot unreadable, starting fresh", "err", err)
		return game.NewState(cat)
	}
	if !ok {
		return game.NewState(cat)
	}
	logger.Info("snapshot restored", "day", loaded.Day, "cash", game.FormatMoney(loaded.Cash))
	return loaded
}
