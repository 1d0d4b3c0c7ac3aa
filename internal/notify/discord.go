package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/discordgo"

	"lemontycoon/internal/game"
)

var (
	_ game.DayNotifier = Nop{}
	_ game.DayNotifier = (*Discord)(nil)
)

type Nop struct{}

func (Nop) DayClosed(context.Context, game.DayReport) error { return nil }

// Discord posts day summaries through an incoming webhook.
type Discord struct {
	session *discordgo.Session
	id      string
	token   string
}

// NewDiscord accepts a webhook URL of the form
// https://discord.com/api/webhooks/{id}/{token}.
func NewDiscord(webhookURL string) (*Discord, error) {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: session, id: id, token: token}, nil
}

func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("webhook url %q has no /webhooks/{id}/{token} path", raw)
}

func (d *Discord) DayClosed(ctx context.Context, report game.DayReport) error {
	_, err := d.session.WebhookExecute(d.id, d.token, false, &discordgo.WebhookParams{
		Username: "Lemonade Tycoon",
		Content:  FormatDay(report),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	return nil
}

// FormatDay renders a short plain-text recap of one simulated day.
func FormatDay(report game.DayReport) string {
	s := report.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "🍋 Day %d (%s): sold %d/%d cups, revenue $%.2f, net $%.2f, reputation %+d",
		report.Day, report.Weather, s.Sold, s.Potential, s.Revenue, s.NetProfit, s.RepChange)
	if report.Event != nil {
		fmt.Fprintf(&b, "\n%s %s: %s", report.Event.Emoji, report.Event.Name, report.Event.Effect)
	}
	for _, a := range report.Achievements {
		fmt.Fprintf(&b, "\n🏆 %s: %s (+$%.0f)", a.Name, a.Desc, a.Reward)
	}
	return b.String()
}
