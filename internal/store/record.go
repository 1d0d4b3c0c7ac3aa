package store

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"lemontycoon/internal/game"
)

// Field is one column of the flat snapshot record.
type Field struct {
	Key   string
	Value string
}

func itemKey(item string) string   { return "inv_" + item }
func trackKey(track string) string { return "upg_" + track }

// EncodeRecord flattens st into ordered key/value pairs. Nested collections are
// embedded as JSON text.
func EncodeRecord(st *game.State, cat *game.Catalog) []Field {
	out := []Field{
		{"cash", moneyText(st.Cash)},
		{"day", strconv.Itoa(st.Day)},
		{"reputation", strconv.Itoa(st.Reputation)},
		{"stars", strconv.FormatFloat(st.Stars, 'f', 2, 64)},
	}
	for _, s := range cat.Supplies {
		out = append(out, Field{itemKey(s.Item), strconv.Itoa(st.Inventory[s.Item])})
	}
	out = append(out,
		Field{"price", moneyText(st.Price)},
		Field{"recipe_lemon", strconv.FormatFloat(st.Recipe.LemonRatio, 'f', -1, 64)},
		Field{"recipe_sugar", strconv.FormatFloat(st.Recipe.SugarRatio, 'f', -1, 64)},
	)
	for _, t := range cat.Upgrades {
		out = append(out, Field{trackKey(t.Track), strconv.Itoa(st.Upgrades[t.Track])})
	}
	out = append(out,
		Field{"stat_sales", strconv.Itoa(st.Stats.TotalSales)},
		Field{"stat_rev", moneyText(st.Stats.TotalRevenue)},
		Field{"stat_best", strconv.Itoa(st.Stats.BestDay)},
		Field{"stat_perfect", strconv.Itoa(st.Stats.PerfectDays)},
		Field{"weather", st.Weather},
		Field{"next_weather", st.NextWeather},
		Field{"streak", strconv.Itoa(st.Streak)},
		Field{"active_event", asJSON(st.ActiveEvent, "")},
		Field{"achievements", asJSON(nonNil(st.Achievements), "[]")},
		Field{"history", asJSON(nonNil(st.History), "[]")},
	)
	return out
}

// moneyText prints cents when that is exact and full precision otherwise.
func moneyText(d decimal.Decimal) string {
	if d.Round(2).Equal(d) {
		return d.StringFixed(2)
	}
	return d.String()
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func asJSON(v any, fallback string) string {
	if p, ok := v.(*game.ActiveEvent); ok && p == nil {
		return fallback
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(raw)
}

// DecodeRecord rebuilds a State from a flat record. Missing or unparsable
// values keep their defaults, malformed embedded JSON yields empty collections
// and the result is re-clamped against cat.
func DecodeRecord(values map[string]string, cat *game.Catalog) *game.State {
	st := game.NewState(cat)
	get := func(key string) (string, bool) {
		v, ok := values[key]
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	intField := func(key string, dst *int) {
		v, ok := get(key)
		if !ok {
			return
		}
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			return
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = int(f)
		}
	}
	floatField := func(key string, dst *float64) {
		if v, ok := get(key); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	moneyField := func(key string, dst *decimal.Decimal) {
		if v, ok := get(key); ok {
			if d, err := decimal.NewFromString(v); err == nil {
				*dst = d
			}
		}
	}

	moneyField("cash", &st.Cash)
	intField("day", &st.Day)
	intField("reputation", &st.Reputation)
	for _, s := range cat.Supplies {
		n := st.Inventory[s.Item]
		intField(itemKey(s.Item), &n)
		st.Inventory[s.Item] = n
	}
	moneyField("price", &st.Price)
	floatField("recipe_lemon", &st.Recipe.LemonRatio)
	floatField("recipe_sugar", &st.Recipe.SugarRatio)
	for _, t := range cat.Upgrades {
		n := st.Upgrades[t.Track]
		intField(trackKey(t.Track), &n)
		st.Upgrades[t.Track] = n
	}
	intField("stat_sales", &st.Stats.TotalSales)
	moneyField("stat_rev", &st.Stats.TotalRevenue)
	intField("stat_best", &st.Stats.BestDay)
	intField("stat_perfect", &st.Stats.PerfectDays)
	if v, ok := get("weather"); ok {
		st.Weather = v
	}
	if v, ok := get("next_weather"); ok {
		st.NextWeather = v
	}
	intField("streak", &st.Streak)

	if v, ok := get("active_event"); ok {
		st.ActiveEvent = decodeEvent(v)
	}
	if v, ok := get("achievements"); ok {
		st.Achievements = decodeAchievements(v)
	}
	if v, ok := get("history"); ok {
		st.History = decodeHistory(v)
	}

	st.Normalize(cat)
	return st
}

func decodeEvent(raw string) *game.ActiveEvent {
	if !gjson.Valid(raw) {
		return nil
	}
	v := gjson.Parse(raw)
	if !v.IsObject() {
		return nil
	}
	kind := v.Get("kind").String()
	if kind == "" {
		kind = v.Get("type").String()
	}
	name := v.Get("name").String()
	if kind == "" && name == "" {
		return nil
	}
	return &game.ActiveEvent{Kind: kind, Name: name, Emoji: v.Get("emoji").String()}
}

func decodeAchievements(raw string) []string {
	out := make([]string, 0)
	if !gjson.Valid(raw) {
		return out
	}
	v := gjson.Parse(raw)
	if !v.IsArray() {
		return out
	}
	v.ForEach(func(_, id gjson.Result) bool {
		if id.Type == gjson.String && id.String() != "" {
			out = append(out, id.String())
		}
		return true
	})
	return out
}

func decodeHistory(raw string) []game.HistoryEntry {
	out := make([]game.HistoryEntry, 0)
	if !gjson.Valid(raw) {
		return out
	}
	v := gjson.Parse(raw)
	if !v.IsArray() {
		return out
	}
	v.ForEach(func(_, e gjson.Result) bool {
		if !e.IsObject() {
			return true
		}
		out = append(out, game.HistoryEntry{
			Day:       int(e.Get("day").Int()),
			Cash:      e.Get("cash").Float(),
			Revenue:   e.Get("revenue").Float(),
			NetProfit: e.Get("net_profit").Float(),
			Sales:     int(e.Get("sales").Int()),
		})
		return true
	})
	return out
}

// Values indexes an encoded record by key.
func Values(fields []Field) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
