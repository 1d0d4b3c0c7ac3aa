package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	cl "lemontycoon/internal/cli"
	"lemontycoon/internal/config"
	"lemontycoon/internal/game"
	"lemontycoon/internal/syncq"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type options struct {
	cfg     config.CLIConfig
	apiBase string
	admin   string
}

func (o *options) client() *cl.Client {
	c := cl.NewClient(strings.TrimRight(strings.TrimSpace(o.apiBase), "/"))
	c.AdminToken = strings.TrimSpace(o.admin)
	return c
}

func main() {
	opts := loadOptions()

	root := &cobra.Command{
		Use:          "lem",
		Short:        "Lemonade Tycoon CLI",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.apiBase, "api", opts.apiBase, "game API base URL")

	root.AddCommand(
		newStateCmd(opts),
		newPriceCmd(opts),
		newRecipeCmd(opts),
		newBuyCmd(opts),
		newUpgradeCmd(opts),
		newDayCmd(opts),
		newResetCmd(opts),
		newSyncCmd(opts),
		newPlayCmd(opts),
		newSimulateCmd(),
		newProfileCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadOptions layers environment variables over the saved profile.
func loadOptions() *options {
	cfg := config.LoadCLIFromEnv()
	opts := &options{cfg: cfg, apiBase: cfg.APIBaseURL, admin: cfg.AdminToken}
	profile, err := cl.LoadProfile()
	if err != nil {
		printWarn(fmt.Sprintf("Ignoring unreadable profile: %v", err))
		return opts
	}
	if os.Getenv("LEM_API_BASE_URL") == "" && profile.APIBaseURL != "" {
		opts.apiBase = profile.APIBaseURL
	}
	if opts.admin == "" {
		opts.admin = profile.AdminToken
	}
	return opts
}

func newStateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the stand",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			st, err := opts.client().State(ctx)
			if err != nil {
				return err
			}
			renderState(st)
			return nil
		},
	}
}

func newPriceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "price <amount>",
		Short: "Set the price per cup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(args[0]), "$"), 64)
			if err != nil {
				return fmt.Errorf("invalid price %q", args[0])
			}
			return runMutation(cmd, opts, "/v1/price", cl.PriceBody(price), func(ctx context.Context, c *cl.Client, idem string) (game.Snapshot, error) {
				return c.SetPrice(ctx, price, idem)
			}, func(st game.Snapshot) string {
				return fmt.Sprintf("Price set to %s.", formatMoney(st.Price))
			})
		},
	}
}

func newRecipeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recipe <lemon> <sugar>",
		Short: "Set lemon and sugar ratios (0.5 to 1.5)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lemon, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return fmt.Errorf("invalid lemon ratio %q", args[0])
			}
			sugar, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return fmt.Errorf("invalid sugar ratio %q", args[1])
			}
			return runMutation(cmd, opts, "/v1/recipe", cl.RecipeBody(lemon, sugar), func(ctx context.Context, c *cl.Client, idem string) (game.Snapshot, error) {
				return c.SetRecipe(ctx, lemon, sugar, idem)
			}, func(st game.Snapshot) string {
				return fmt.Sprintf("Recipe set: lemon %.2f, sugar %.2f (quality %.2f).", st.Recipe.LemonRatio, st.Recipe.SugarRatio, st.Quality)
			})
		},
	}
}

func newBuyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <item> <qty>",
		Short: "Buy lemons, sugar, cups or ice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item := strings.ToLower(strings.TrimSpace(args[0]))
			qty, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil || qty <= 0 {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			return runMutation(cmd, opts, "/v1/buy", cl.BuyBody(item, qty), func(ctx context.Context, c *cl.Client, idem string) (game.Snapshot, error) {
				return c.Buy(ctx, item, qty, idem)
			}, func(st game.Snapshot) string {
				return fmt.Sprintf("Bought %d %s. Cash left %s.", qty, item, formatMoney(st.Cash))
			})
		},
	}
}

func newUpgradeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade <track>",
		Short: "Buy the next tier of juicer, stand, fridge or marketing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			track := strings.ToLower(strings.TrimSpace(args[0]))
			return runMutation(cmd, opts, "/v1/upgrade", cl.UpgradeBody(track), func(ctx context.Context, c *cl.Client, idem string) (game.Snapshot, error) {
				return c.Upgrade(ctx, track, idem)
			}, func(st game.Snapshot) string {
				tiers := st.UpgradeInfo[track]
				if lvl := st.Upgrades[track]; lvl < len(tiers) {
					return fmt.Sprintf("Upgraded %s to %s.", track, tiers[lvl].Name)
				}
				return fmt.Sprintf("Upgraded %s.", track)
			})
		},
	}
}

func newDayCmd(opts *options) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Open the stand and simulate one day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			idem := uuid.NewString()
			report, err := opts.client().StartDay(ctx, idem)
			if queued, qerr := queueOnNetworkError(err, syncq.Command{Method: http.MethodPost, Path: "/v1/start-day", IdempotencyKey: idem}); queued || qerr != nil {
				return qerr
			}
			if plain || !opts.cfg.Animate || !isTerminal() {
				renderDayPlain(report)
				return nil
			}
			total := time.Duration(opts.cfg.PlaybackSeconds * float64(time.Second))
			return playDay(report, total)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the customer log without animation")
	return cmd
}

func newResetCmd(opts *options) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Start over from day 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				answer, err := promptChoice("Reset the stand to day 1?", []string{"y", "n"}, "n")
				if err != nil {
					return err
				}
				if answer != "y" {
					printInfo("Reset cancelled.")
					return nil
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			if _, err := opts.client().Reset(ctx, uuid.NewString()); err != nil {
				return err
			}
			printSuccess("Stand reset. Good luck!")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation")
	return cmd
}

func newSyncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay writes queued while the API was unreachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue, err := syncq.Load()
			if err != nil {
				return err
			}
			if len(queue) == 0 {
				printInfo("Sync queue is empty.")
				return nil
			}
			client := opts.client()
			ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
			defer cancel()

			remaining, replayed, dropped := replayQueue(ctx, client, queue)
			if err := syncq.Save(remaining); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sync complete: replayed=%d dropped=%d remaining=%d", replayed, dropped, len(remaining)))
			return nil
		},
	}
}

// replayQueue keeps commands that still cannot reach the API. Duplicates were
// already applied and declines will never succeed, so both are dropped.
func replayQueue(ctx context.Context, client *cl.Client, queue []syncq.Command) ([]syncq.Command, int, int) {
	remaining := make([]syncq.Command, 0, len(queue))
	replayed, dropped := 0, 0
	for i, q := range queue {
		_, err := client.Do(ctx, q.Method, q.Path, q.Body, q.IdempotencyKey)
		var apiErr *cl.APIError
		switch {
		case err == nil:
			replayed++
		case errors.As(err, &apiErr) && apiErr.IsDuplicate():
			dropped++
			printInfo(fmt.Sprintf("Already applied: %s %s", q.Method, q.Path))
		case errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError:
			dropped++
			printError(fmt.Sprintf("Declined %s %s: %s", q.Method, q.Path, apiErr.Message))
		case cl.IsNetworkError(err):
			printError(fmt.Sprintf("Still offline: %v", err))
			return append(remaining, queue[i:]...), replayed, dropped
		default:
			remaining = append(remaining, q)
			printError(fmt.Sprintf("Sync failed for %s %s: %v", q.Method, q.Path, err))
		}
	}
	return remaining, replayed, dropped
}

func newProfileCmd(opts *options) *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved CLI settings",
	}

	var apiBase, admin string
	set := &cobra.Command{
		Use:   "set",
		Short: "Save the API URL and admin token",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := cl.LoadProfile()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("url") {
				p.APIBaseURL = apiBase
			}
			if cmd.Flags().Changed("admin-token") {
				p.AdminToken = admin
			}
			if err := cl.SaveProfile(p); err != nil {
				return err
			}
			printSuccess("Profile saved.")
			return nil
		},
	}
	set.Flags().StringVar(&apiBase, "url", "", "API base URL")
	set.Flags().StringVar(&admin, "admin-token", "", "admin bearer token for reset")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			token := "(none)"
			if opts.admin != "" {
				token = "(set)"
			}
			fmt.Printf("API:         %s\n", opts.apiBase)
			fmt.Printf("Admin token: %s\n", token)
			fmt.Printf("Animate:     %t (%.1fs)\n", opts.cfg.Animate, opts.cfg.PlaybackSeconds)
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Forget saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearProfile(); err != nil {
				return err
			}
			printSuccess("Profile cleared.")
			return nil
		},
	}

	profile.AddCommand(set, show, clearCmd)
	return profile
}

type mutateFunc func(ctx context.Context, c *cl.Client, idem string) (game.Snapshot, error)

func runMutation(cmd *cobra.Command, opts *options, path string, body map[string]any, fn mutateFunc, done func(game.Snapshot) string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	idem := uuid.NewString()
	st, err := fn(ctx, opts.client(), idem)
	queued, err := queueOnNetworkError(err, syncq.Command{
		Method:         http.MethodPost,
		Path:           path,
		Body:           body,
		IdempotencyKey: idem,
	})
	if err != nil || queued {
		return err
	}
	printSuccess(done(st))
	return nil
}

// queueOnNetworkError parks q for `lem sync` when the API was unreachable.
// API declines are returned unchanged.
func queueOnNetworkError(err error, q syncq.Command) (bool, error) {
	if err == nil {
		return false, nil
	}
	if !cl.IsNetworkError(err) {
		return false, err
	}
	if qerr := syncq.Push(q); qerr != nil {
		return false, fmt.Errorf("request failed and could not be queued: %w", errors.Join(err, qerr))
	}
	printWarn(fmt.Sprintf("API unreachable; queued %s %s. Run `lem sync` when it is back.", q.Method, q.Path))
	return true, nil
}
