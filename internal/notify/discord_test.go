package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lemontycoon/internal/game"
)

func sampleReport() game.DayReport {
	return game.DayReport{DayResult: game.DayResult{
		Day:     3,
		Weather: game.WeatherHot,
		Summary: game.DaySummary{Potential: 30, Sold: 29, Revenue: 23.2, NetProfit: 0, RepChange: 8},
		Event:   &game.EventOutcome{Kind: game.EventRush, Name: "School Bus Arrives", Emoji: "🚌", Effect: "School bus brought tons of customers!"},
		Achievements: []game.AchievementSpec{
			{ID: game.AchFirstSale, Name: "First Sale", Desc: "Sell your first cup", Reward: 5},
		},
	}}
}

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456/tok-en_x")
	require.NoError(t, err)
	assert.Equal(t, "123456", id)
	assert.Equal(t, "tok-en_x", token)

	for _, bad := range []string{"", "https://discord.com/api/webhooks/123", "https://example.com/hooks/1/2", "::"} {
		_, _, err := parseWebhookURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatDay(t *testing.T) {
	text := FormatDay(sampleReport())
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "🍋 Day 3 (hot): sold 29/30 cups, revenue $23.20, net $0.00, reputation +8", lines[0])
	assert.Equal(t, "🚌 School Bus Arrives: School bus brought tons of customers!", lines[1])
	assert.Equal(t, "🏆 First Sale: Sell your first cup (+$5)", lines[2])
}

type redirect struct {
	target *url.URL
}

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.target.Scheme
	req.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func TestDiscordPostsWebhook(t *testing.T) {
	var gotPath string
	var got struct {
		Username string `json:"username"`
		Content  string `json:"content"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	target, err := url.Parse(srv.URL)
	require.NoError(t, err)

	d, err := NewDiscord("https://discord.com/api/webhooks/42/secret")
	require.NoError(t, err)
	d.session.Client = &http.Client{Transport: redirect{target: target}}

	require.NoError(t, d.DayClosed(context.Background(), sampleReport()))
	assert.True(t, strings.HasSuffix(gotPath, "/webhooks/42/secret"), gotPath)
	assert.Equal(t, "Lemonade Tycoon", got.Username)
	assert.Contains(t, got.Content, "Day 3")
}

func TestNop(t *testing.T) {
	var n game.DayNotifier = Nop{}
	assert.NoError(t, n.DayClosed(context.Background(), sampleReport()))
}
