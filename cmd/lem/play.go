package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	cl "lemontycoon/internal/cli"
	"lemontycoon/internal/game"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const (
	playRestockTarget = 30
	playPriceStep     = 0.05
)

type (
	stateMsg struct{ st game.Snapshot }
	dayMsg   struct{ report game.DayReport }
	errMsg   struct{ err error }
)

type playModel struct {
	client  *cl.Client
	st      game.Snapshot
	loaded  bool
	last    *game.DayReport
	status  string
	busy    bool
	timeout time.Duration
}

func newPlayCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Interactive stand dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := playModel{client: opts.client(), timeout: 30 * time.Second, status: "loading..."}
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func (m playModel) Init() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		st, err := m.client.State(ctx)
		if err != nil {
			return errMsg{err}
		}
		return stateMsg{st}
	})
}

func (m playModel) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.st, m.loaded, m.busy = msg.st, true, false
		if m.status == "loading..." || m.status == "working..." {
			m.status = ""
		}
		return m, nil
	case dayMsg:
		r := msg.report
		m.last = &r
		m.st, m.busy = r.State, false
		m.status = fmt.Sprintf("Day %d: sold %d/%d, net %s", r.Day, r.Summary.Sold, r.Summary.Potential, formatMoney(r.Summary.NetProfit))
		if len(r.Achievements) > 0 {
			m.status += fmt.Sprintf("  🏆 %s", r.Achievements[0].Name)
		}
		return m, nil
	case errMsg:
		m.busy = false
		m.status = "error: " + msg.err.Error()
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy || !m.loaded {
			return m, nil
		}
		if cmd := m.action(key); cmd != nil {
			m.busy = true
			m.status = "working..."
			return m, cmd
		}
	}
	return m, nil
}

func (m playModel) action(key string) tea.Cmd {
	client, st := m.client, m.st
	switch key {
	case "d":
		return m.call(func(ctx context.Context) tea.Msg {
			report, err := client.StartDay(ctx, uuid.NewString())
			if err != nil {
				return errMsg{err}
			}
			return dayMsg{report}
		})
	case "b":
		plan := restockPlan(st, playRestockTarget, 0)
		if len(plan) == 0 {
			return nil
		}
		return m.call(func(ctx context.Context) tea.Msg {
			next := st
			for _, p := range plan {
				out, err := client.Buy(ctx, p.Item, p.Quantity, uuid.NewString())
				if err != nil {
					return errMsg{err}
				}
				next = out
			}
			return stateMsg{next}
		})
	case "u":
		track, ok := nextUpgrade(st, 0)
		if !ok {
			return nil
		}
		return m.call(func(ctx context.Context) tea.Msg {
			out, err := client.Upgrade(ctx, track, uuid.NewString())
			if err != nil {
				return errMsg{err}
			}
			return stateMsg{out}
		})
	case "+", "=", "-":
		step := playPriceStep
		if key == "-" {
			step = -step
		}
		price := math.Round((st.Price+step)*100) / 100
		return m.call(func(ctx context.Context) tea.Msg {
			out, err := client.SetPrice(ctx, price, uuid.NewString())
			if err != nil {
				return errMsg{err}
			}
			return stateMsg{out}
		})
	case "r":
		return m.Init()
	}
	return nil
}

func (m playModel) View() string {
	if !m.loaded {
		return boxStyle.Render(titleStyle.Render("🍋 Lemonade Tycoon") + "\n" + m.status)
	}
	st := m.st
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("🍋 Lemonade Tycoon  Day %d", st.Day)) + "\n\n")
	fmt.Fprintf(&b, "Cash %s   Price %s   Reputation %d/%d %s\n",
		formatMoney(st.Cash), formatMoney(st.Price), st.Reputation, st.ReputationCap, stars(st.Stars))
	fmt.Fprintf(&b, "Weather %s, tomorrow %s\n", weatherLabel(st.Weather), weatherLabel(st.NextWeather))
	if st.ActiveEvent != nil {
		fmt.Fprintf(&b, "Event %s %s\n", st.ActiveEvent.Emoji, st.ActiveEvent.Name)
	}

	inv := make([]string, 0, len(st.Inventory))
	for _, item := range orderedKeys(st.Inventory, itemOrder) {
		inv = append(inv, fmt.Sprintf("%s %d", item, st.Inventory[item]))
	}
	b.WriteString("Stock   " + strings.Join(inv, "  ") + "\n")

	ups := make([]string, 0, len(st.Upgrades))
	for _, track := range orderedKeys(st.Upgrades, trackOrder) {
		tiers := st.UpgradeInfo[track]
		if lvl := st.Upgrades[track]; lvl < len(tiers) {
			ups = append(ups, tiers[lvl].Name)
		}
	}
	b.WriteString("Setup   " + strings.Join(ups, ", ") + "\n")

	if m.last != nil {
		b.WriteString("\n")
		log := m.last.Log
		for _, e := range log[max(0, len(log)-6):] {
			b.WriteString(styledLogLine(e) + "\n")
		}
	}
	if m.status != "" {
		b.WriteString("\n" + m.status + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("d start day · b restock · u upgrade · +/- price · r refresh · q quit"))
	return boxStyle.Render(b.String()) + "\n"
}
