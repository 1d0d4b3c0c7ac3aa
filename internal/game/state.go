package game

import (
	"slices"

	"github.com/shopspring/decimal"
)

type Recipe struct {
	LemonRatio float64 `json:"lemon_ratio"`
	SugarRatio float64 `json:"sugar_ratio"`
}

type Stats struct {
	TotalSales   int
	TotalRevenue decimal.Decimal
	BestDay      int
	PerfectDays  int
}

type HistoryEntry struct {
	Day       int     `json:"day"`
	Cash      float64 `json:"cash"`
	Revenue   float64 `json:"revenue"`
	NetProfit float64 `json:"net_profit"`
	Sales     int     `json:"sales"`
}

type ActiveEvent struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
}

// State is the single mutable game record. It is not safe for concurrent use;
// Service serializes access to it.
type State struct {
	Cash         decimal.Decimal
	Day          int
	Reputation   int
	Stars        float64
	Inventory    map[string]int
	Price        decimal.Decimal
	Recipe       Recipe
	Upgrades     map[string]int
	Stats        Stats
	Achievements []string
	History      []HistoryEntry
	Weather      string
	NextWeather  string
	ActiveEvent  *ActiveEvent
	Streak       int
}

func NewState(cat *Catalog) *State {
	start := cat.Start
	st := &State{
		Cash:        money(start.Cash),
		Day:         1,
		Reputation:  start.Reputation,
		Inventory:   map[string]int{},
		Price:       money(start.Price),
		Recipe:      Recipe{LemonRatio: 1.0, SugarRatio: 1.0},
		Upgrades:    map[string]int{},
		Stats:       Stats{TotalRevenue: decimal.Zero},
		Weather:     start.Weather,
		NextWeather: start.NextWeather,
	}
	for _, s := range cat.Supplies {
		st.Inventory[s.Item] = start.Inventory[s.Item]
	}
	for _, t := range cat.Upgrades {
		st.Upgrades[t.Track] = 0
	}
	st.Normalize(cat)
	return st
}

func (s *State) HasAchievement(id string) bool {
	return slices.Contains(s.Achievements, id)
}

func (s *State) hasBasics() bool {
	for _, item := range basicItems {
		if s.Inventory[item] < 1 {
			return false
		}
	}
	return true
}

// Normalize re-establishes the state invariants against cat. Loaded snapshots
// pass through it before use.
func (s *State) Normalize(cat *Catalog) {
	r := cat.Rules
	if s.Day < 1 {
		s.Day = 1
	}
	if s.Inventory == nil {
		s.Inventory = map[string]int{}
	}
	for _, sup := range cat.Supplies {
		if s.Inventory[sup.Item] < 0 {
			s.Inventory[sup.Item] = 0
		}
		if _, ok := s.Inventory[sup.Item]; !ok {
			s.Inventory[sup.Item] = 0
		}
	}
	if s.Upgrades == nil {
		s.Upgrades = map[string]int{}
	}
	for _, t := range cat.Upgrades {
		s.Upgrades[t.Track] = clampInt(s.Upgrades[t.Track], 0, len(t.Tiers)-1)
	}
	s.Reputation = clampInt(s.Reputation, 0, cat.ReputationCap(s.Upgrades[TrackStand]))
	s.Stars = StarsFor(s.Reputation, r)

	minPrice, maxPrice := money(r.MinPrice), money(r.MaxPrice)
	if s.Price.LessThan(minPrice) {
		s.Price = minPrice
	}
	if s.Price.GreaterThan(maxPrice) {
		s.Price = maxPrice
	}
	s.Recipe.LemonRatio = clampFloat(s.Recipe.LemonRatio, r.MinRatio, r.MaxRatio)
	s.Recipe.SugarRatio = clampFloat(s.Recipe.SugarRatio, r.MinRatio, r.MaxRatio)

	if !cat.HasWeather(s.Weather) {
		s.Weather = cat.Weather[0].Name
	}
	if !cat.HasWeather(s.NextWeather) {
		s.NextWeather = cat.Weather[0].Name
	}

	uniq := s.Achievements[:0]
	seen := map[string]bool{}
	for _, id := range s.Achievements {
		if seen[id] {
			continue
		}
		seen[id] = true
		uniq = append(uniq, id)
	}
	s.Achievements = uniq
	s.trimHistory(r.HistoryLimit)
}

func (s *State) trimHistory(limit int) {
	if limit > 0 && len(s.History) > limit {
		s.History = append([]HistoryEntry(nil), s.History[len(s.History)-limit:]...)
	}
}

// quality is the recipe strength scaled by the juicer tier.
func (s *State) quality(cat *Catalog) float64 {
	recipe := (s.Recipe.LemonRatio + s.Recipe.SugarRatio) / 2
	return recipe * cat.TierFor(TrackJuicer, s.Upgrades[TrackJuicer]).Quality
}

type StatsView struct {
	TotalSales   int     `json:"total_sales"`
	TotalRevenue float64 `json:"total_revenue"`
	BestDay      int     `json:"best_day"`
	PerfectDays  int     `json:"perfect_days"`
}

// Snapshot is the JSON view of the state returned by every operation. It
// shares no memory with the State it was taken from.
type Snapshot struct {
	Cash            float64                    `json:"cash"`
	Day             int                        `json:"day"`
	Reputation      int                        `json:"reputation"`
	ReputationCap   int                        `json:"reputation_cap"`
	Stars           float64                    `json:"stars"`
	Inventory       map[string]int             `json:"inventory"`
	Price           float64                    `json:"price"`
	Recipe          Recipe                     `json:"recipe"`
	Quality         float64                    `json:"quality"`
	Upgrades        map[string]int             `json:"upgrades"`
	UpgradeInfo     map[string][]Tier          `json:"upgrade_info"`
	Weather         string                     `json:"weather"`
	NextWeather     string                     `json:"next_weather"`
	ActiveEvent     *ActiveEvent               `json:"active_event"`
	Costs           map[string]float64         `json:"costs"`
	History         []HistoryEntry             `json:"history"`
	Stats           StatsView                  `json:"stats"`
	Achievements    []string                   `json:"achievements"`
	AchievementInfo map[string]AchievementSpec `json:"achievement_info"`
	Streak          int                        `json:"streak"`
}

func (s *State) Snapshot(cat *Catalog) Snapshot {
	out := Snapshot{
		Cash:            MoneyFloat(s.Cash),
		Day:             s.Day,
		Reputation:      s.Reputation,
		ReputationCap:   cat.ReputationCap(s.Upgrades[TrackStand]),
		Stars:           s.Stars,
		Inventory:       make(map[string]int, len(s.Inventory)),
		Price:           MoneyFloat(s.Price),
		Recipe:          s.Recipe,
		Quality:         s.quality(cat),
		Upgrades:        make(map[string]int, len(s.Upgrades)),
		UpgradeInfo:     make(map[string][]Tier, len(cat.Upgrades)),
		Weather:         s.Weather,
		NextWeather:     s.NextWeather,
		Costs:           cat.Costs(),
		History:         append([]HistoryEntry{}, s.History...),
		Achievements:    append([]string{}, s.Achievements...),
		AchievementInfo: make(map[string]AchievementSpec, len(cat.Achievements)),
		Streak:          s.Streak,
		Stats: StatsView{
			TotalSales:   s.Stats.TotalSales,
			TotalRevenue: MoneyFloat(s.Stats.TotalRevenue),
			BestDay:      s.Stats.BestDay,
			PerfectDays:  s.Stats.PerfectDays,
		},
	}
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	for k, v := range s.Upgrades {
		out.Upgrades[k] = v
	}
	for _, t := range cat.Upgrades {
		out.UpgradeInfo[t.Track] = append([]Tier{}, t.Tiers...)
	}
	for _, a := range cat.Achievements {
		out.AchievementInfo[a.ID] = a
	}
	if s.ActiveEvent != nil {
		ev := *s.ActiveEvent
		out.ActiveEvent = &ev
	}
	return out
}
