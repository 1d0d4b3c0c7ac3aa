package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"lemontycoon/internal/api"
	"lemontycoon/internal/config"
	"lemontycoon/internal/game"
	"lemontycoon/internal/notify"
	"lemontycoon/internal/store"
)

// App is the wired game backend shared by the HTTP and Lambda entry points.
type App struct {
	Catalog *game.Catalog
	Store   store.Store
	Game    *game.Service
	Server  *api.Server
}

func New(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cat := game.DefaultCatalog()
	if cfg.CatalogPath != "" {
		loaded, err := game.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		cat = loaded
		logger.Info("catalog loaded", "path", cfg.CatalogPath)
	}
	if cfg.HistoryLimit != nil {
		cat.Rules.HistoryLimit = *cfg.HistoryLimit
	}

	st, err := store.Open(ctx, cfg, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	state := store.LoadOrNew(ctx, st, cat, logger)

	var notifier game.DayNotifier = notify.Nop{}
	if cfg.DiscordWebhookURL != "" {
		d, err := notify.NewDiscord(cfg.DiscordWebhookURL)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		notifier = d
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	svc := game.NewService(game.Options{
		Catalog:  cat,
		State:    state,
		Rand:     game.NewRand(seed),
		Store:    st,
		Notifier: notifier,
		Logger:   logger,
	})
	return &App{
		Catalog: cat,
		Store:   st,
		Game:    svc,
		Server:  api.New(cfg, logger, svc),
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// RunAutoDay closes a day every interval until ctx is done.
func RunAutoDay(ctx context.Context, svc *game.Service, every time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("auto day started", "every", every.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("auto day stopped")
			return
		case <-ticker.C:
			report, err := svc.StartDay(ctx, game.StartDayInput{})
			if err != nil {
				logger.Error("auto day failed", "err", err)
				continue
			}
			logger.Info("auto day complete", "day", report.Day, "next_day", report.State.Day)
		}
	}
}
