package main

import (
	"bufio"
	"fmt"
	"os"
	"slices"
	"strings"

	"lemontycoon/internal/game"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

var (
	itemOrder  = []string{game.ItemLemons, game.ItemSugar, game.ItemCups, game.ItemIce}
	trackOrder = []string{game.TrackJuicer, game.TrackStand, game.TrackFridge, game.TrackMarketing}
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderState(st game.Snapshot) {
	accent.Printf("\n== LEMONADE STAND (Day %d) ==\n", st.Day)
	fmt.Printf("Cash:        %s\n", formatMoney(st.Cash))
	fmt.Printf("Price:       %s per cup\n", formatMoney(st.Price))
	fmt.Printf("Reputation:  %d/%d  %s\n", st.Reputation, st.ReputationCap, stars(st.Stars))
	fmt.Printf("Recipe:      lemon %.2f  sugar %.2f  (quality %.2f)\n", st.Recipe.LemonRatio, st.Recipe.SugarRatio, st.Quality)
	fmt.Printf("Weather:     %s today, %s tomorrow\n", weatherLabel(st.Weather), weatherLabel(st.NextWeather))
	if st.ActiveEvent != nil {
		fmt.Printf("Event:       %s %s\n", st.ActiveEvent.Emoji, st.ActiveEvent.Name)
	}
	if st.Streak > 1 {
		fmt.Printf("Streak:      %d profitable days\n", st.Streak)
	}

	fmt.Println()
	accent.Println("Inventory")
	fmt.Printf("%-8s %6s %8s\n", "ITEM", "QTY", "COST")
	for _, item := range orderedKeys(st.Inventory, itemOrder) {
		qty := fmt.Sprintf("%6d", st.Inventory[item])
		if st.Inventory[item] == 0 {
			qty = danger.Sprint(qty)
		}
		fmt.Printf("%-8s %s %8s\n", item, qty, formatMoney(st.Costs[item]))
	}

	fmt.Println()
	accent.Println("Upgrades")
	fmt.Printf("%-10s %-20s %-22s %10s\n", "TRACK", "CURRENT", "NEXT", "COST")
	for _, track := range orderedKeys(st.Upgrades, trackOrder) {
		tiers := st.UpgradeInfo[track]
		level := st.Upgrades[track]
		current, next, cost := "?", "maxed", ""
		if level < len(tiers) {
			current = tiers[level].Name
		}
		if level+1 < len(tiers) {
			next = tiers[level+1].Name
			cost = formatMoney(tiers[level+1].Cost)
		}
		fmt.Printf("%-10s %-20s %-22s %10s\n", track, truncate(current, 20), truncate(next, 22), cost)
	}

	if n := len(st.History); n > 0 {
		fmt.Println()
		accent.Println("Recent Days")
		fmt.Printf("%-5s %6s %10s %10s %10s\n", "DAY", "SALES", "REVENUE", "NET", "CASH")
		for _, h := range st.History[max(0, n-5):] {
			fmt.Printf("%-5d %6d %10s %10s %10s\n", h.Day, h.Sales, formatMoney(h.Revenue), colorizeMoney(h.NetProfit), formatMoney(h.Cash))
		}
	}

	fmt.Println()
	fmt.Printf("Achievements: %d/%d   Lifetime: %d cups, %s revenue\n",
		len(st.Achievements), len(st.AchievementInfo), st.Stats.TotalSales, formatMoney(st.Stats.TotalRevenue))
	fmt.Println()
}

func renderLogLine(e game.LogEntry) string {
	prefix := fmt.Sprintf("#%-3d ", e.Tick)
	switch e.Kind {
	case game.KindSale:
		price := ""
		if e.Price != nil {
			price = " " + formatMoney(*e.Price)
		}
		if e.Reason == game.ReasonPremium {
			return prefix + success.Sprint("✓ ") + e.Message + success.Sprint(price)
		}
		return prefix + success.Sprint("✓ ") + e.Message + price
	case game.KindMiss:
		return prefix + danger.Sprint("✗ ") + e.Message
	default:
		return prefix + warn.Sprint("★ ") + e.Message
	}
}

func renderDaySummary(r game.DayReport) {
	s := r.Summary
	accent.Printf("\n== DAY %d RESULTS (%s) ==\n", r.Day, weatherLabel(r.Weather))
	if r.Event != nil {
		warn.Printf("%s %s: %s\n", r.Event.Emoji, r.Event.Name, r.Event.Effect)
	}
	fmt.Printf("Customers:   %d (sold %d, missed %d, %.0f%% conversion)\n", s.Potential, s.Sold, s.Missed, s.Conversion*100)
	fmt.Printf("Revenue:     %s\n", formatMoney(s.Revenue))
	fmt.Printf("Ingredients: %s\n", formatMoney(s.COGS))
	if s.IceMelted > 0 {
		fmt.Printf("Ice melted:  %d (%s)\n", s.IceMelted, formatMoney(s.IceLoss))
	}
	if s.Fine > 0 {
		fmt.Printf("Fine:        %s\n", danger.Sprint(formatMoney(s.Fine)))
	}
	if s.EventBonus != nil {
		fmt.Printf("Bonus:       %s\n", *s.EventBonus)
	}
	fmt.Printf("Net profit:  %s\n", colorizeMoney(s.NetProfit))
	fmt.Printf("Reputation:  %s\n", colorizeSigned(s.RepChange))
	for _, a := range r.Achievements {
		success.Printf("🏆 %s: %s (+%s)\n", a.Name, a.Desc, formatMoney(a.Reward))
	}
	fmt.Println()
}

func renderDayPlain(r game.DayReport) {
	for _, e := range r.Log {
		fmt.Println(renderLogLine(e))
	}
	renderDaySummary(r)
}

func orderedKeys[V any](m map[string]V, preferred []string) []string {
	out := make([]string, 0, len(m))
	for _, k := range preferred {
		if _, ok := m[k]; ok {
			out = append(out, k)
		}
	}
	var extra []string
	for k := range m {
		if !slices.Contains(preferred, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func weatherLabel(w string) string {
	switch w {
	case game.WeatherSunny:
		return "☀️ sunny"
	case game.WeatherCloudy:
		return "☁️ cloudy"
	case game.WeatherRainy:
		return "🌧️ rainy"
	case game.WeatherHot:
		return "🔥 hot"
	default:
		return w
	}
}

func stars(v float64) string {
	full := int(v)
	if full > 5 {
		full = 5
	}
	if full < 0 {
		full = 0
	}
	return strings.Repeat("★", full) + strings.Repeat("☆", 5-full) + fmt.Sprintf(" %.1f", v)
}

func formatMoney(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func colorizeMoney(v float64) string {
	text := formatMoney(v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeSigned(v int) string {
	text := fmt.Sprintf("%+d", v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
