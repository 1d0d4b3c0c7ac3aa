package game

import "github.com/shopspring/decimal"

const (
	AchFirstSale     = "first_sale"
	AchHundredSales  = "hundred_sales"
	AchThousandSales = "thousand_sales"
	AchProfitMaster  = "profit_master"
	AchFiveStar      = "five_star"
	AchTycoon        = "tycoon"
	AchPerfectDay    = "perfect_day"
	AchIceKing       = "ice_king"
)

// dayOutcome carries the facts of the finished day that predicates need
// beyond the state itself.
type dayOutcome struct {
	potential    int
	conversion   float64
	netProfit    decimal.Decimal
	weather      WeatherSpec
	iceShortfall int
}

var achievementRules = map[string]func(st *State, day dayOutcome) bool{
	AchFirstSale:     func(st *State, _ dayOutcome) bool { return st.Stats.TotalSales >= 1 },
	AchHundredSales:  func(st *State, _ dayOutcome) bool { return st.Stats.TotalSales >= 100 },
	AchThousandSales: func(st *State, _ dayOutcome) bool { return st.Stats.TotalSales >= 1000 },
	AchProfitMaster: func(_ *State, day dayOutcome) bool {
		return day.netProfit.GreaterThanOrEqual(decimal.NewFromInt(100))
	},
	AchFiveStar: func(st *State, _ dayOutcome) bool { return st.Reputation >= 100 },
	AchTycoon: func(st *State, _ dayOutcome) bool {
		return st.Cash.GreaterThanOrEqual(decimal.NewFromInt(1000))
	},
	AchPerfectDay: func(_ *State, day dayOutcome) bool { return day.potential > 0 && day.conversion >= 1.0 },
	AchIceKing: func(_ *State, day dayOutcome) bool {
		return day.weather.AlwaysIce && day.potential > 0 && day.iceShortfall == 0
	},
}

func KnownAchievement(id string) bool {
	_, ok := achievementRules[id]
	return ok
}

// unlockAchievements grants every catalog achievement whose rule now holds and
// that the state does not have yet, in catalog order.
func unlockAchievements(st *State, cat *Catalog, day dayOutcome) []AchievementSpec {
	out := make([]AchievementSpec, 0)
	for _, a := range cat.Achievements {
		if st.HasAchievement(a.ID) {
			continue
		}
		rule, ok := achievementRules[a.ID]
		if !ok || !rule(st, day) {
			continue
		}
		st.Achievements = append(st.Achievements, a.ID)
		st.Cash = st.Cash.Add(money(a.Reward))
		out = append(out, a)
	}
	return out
}
