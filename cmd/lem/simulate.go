package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"lemontycoon/internal/game"
	"lemontycoon/internal/store"

	"github.com/spf13/cobra"
)

const (
	simRestockTarget = 30
	simIceReserve    = 2.0
	simUpgradeBuffer = 15.0
)

type simRow struct {
	Day        int
	Weather    string
	Event      string
	Sold       int
	Potential  int
	Revenue    float64
	NetProfit  float64
	Cash       float64
	Reputation int
}

func newSimulateCmd() *cobra.Command {
	var (
		days       int
		seed       uint64
		strategy   string
		catalogArg string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play days locally with a scripted strategy (no server needed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return fmt.Errorf("--days must be > 0")
			}
			if err := validateStrategy(strategy); err != nil {
				return err
			}
			cat := game.DefaultCatalog()
			if catalogArg != "" {
				loaded, err := game.LoadCatalog(catalogArg)
				if err != nil {
					return err
				}
				cat = loaded
			}
			rows, final, err := runSimulation(cmd.Context(), cat, days, seed, strategy)
			if err != nil {
				return err
			}
			renderSimulation(rows, final, strategy, seed)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of days to simulate")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&strategy, "strategy", strategyRestock, "none, restock or growth")
	cmd.Flags().StringVar(&catalogArg, "catalog", "", "YAML catalog overlay")
	return cmd
}

func runSimulation(ctx context.Context, cat *game.Catalog, days int, seed uint64, strategy string) ([]simRow, game.Snapshot, error) {
	svc := game.NewService(game.Options{
		Catalog: cat,
		Rand:    game.NewRand(seed),
		Store:   store.NewMemoryStore(cat),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	rows := make([]simRow, 0, days)
	for i := 0; i < days; i++ {
		if err := applyStrategy(ctx, svc, strategy); err != nil {
			return nil, game.Snapshot{}, err
		}
		report, err := svc.StartDay(ctx, game.StartDayInput{})
		if err != nil {
			return nil, game.Snapshot{}, err
		}
		row := simRow{
			Day:        report.Day,
			Weather:    report.Weather,
			Sold:       report.Summary.Sold,
			Potential:  report.Summary.Potential,
			Revenue:    report.Summary.Revenue,
			NetProfit:  report.Summary.NetProfit,
			Cash:       report.State.Cash,
			Reputation: report.State.Reputation,
		}
		if report.Event != nil {
			row.Event = report.Event.Kind
		}
		rows = append(rows, row)
	}
	return rows, svc.State(ctx), nil
}

func applyStrategy(ctx context.Context, svc *game.Service, strategy string) error {
	if strategy == strategyNone {
		return nil
	}
	st := svc.State(ctx)
	if strategy == strategyGrowth {
		if track, ok := nextUpgrade(st, simUpgradeBuffer); ok {
			next, err := svc.BuyUpgrade(ctx, game.UpgradeInput{Track: track})
			if err != nil {
				return fmt.Errorf("upgrade %s: %w", track, err)
			}
			st = next
		}
	}
	for _, p := range restockPlan(st, simRestockTarget, simIceReserve) {
		if _, err := svc.Buy(ctx, game.BuyInput{Item: p.Item, Quantity: p.Quantity}); err != nil {
			return fmt.Errorf("buy %d %s: %w", p.Quantity, p.Item, err)
		}
	}
	return nil
}

func renderSimulation(rows []simRow, final game.Snapshot, strategy string, seed uint64) {
	accent.Printf("\n== SIMULATION (%s, seed %d) ==\n", strategy, seed)
	fmt.Printf("%-5s %-8s %-10s %9s %10s %10s %10s %5s\n", "DAY", "WEATHER", "EVENT", "SOLD", "REVENUE", "NET", "CASH", "REP")
	for _, r := range rows {
		event := r.Event
		if event == "" {
			event = "-"
		}
		fmt.Printf("%-5d %-8s %-10s %4d/%-4d %10s %10s %10s %5d\n",
			r.Day, r.Weather, event, r.Sold, r.Potential,
			formatMoney(r.Revenue), colorizeMoney(r.NetProfit), formatMoney(r.Cash), r.Reputation)
	}
	fmt.Println()
	fmt.Printf("Final cash %s, reputation %d, %d achievements\n", formatMoney(final.Cash), final.Reputation, len(final.Achievements))
	fmt.Println()
}
