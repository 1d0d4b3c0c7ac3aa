package game

import (
	"math"

	"github.com/shopspring/decimal"
)

type eventEffect struct {
	customerMult float64
	priceMult    float64
	tip          decimal.Decimal
	fine         decimal.Decimal
	reputation   int
	message      string
}

func rollEvent(events []EventSpec, rnd Rand) (EventSpec, bool) {
	for _, ev := range events {
		if rnd.Float64() < ev.Chance {
			return ev, true
		}
	}
	return EventSpec{}, false
}

func applyEvent(st *State, cat *Catalog, ev EventSpec, quality float64) eventEffect {
	eff := eventEffect{customerMult: 1, priceMult: 1, message: ev.Message}
	if ev.CustomerMult > 0 {
		eff.customerMult = ev.CustomerMult
	}
	if ev.PriceMult > 0 {
		eff.priceMult = ev.PriceMult
	}
	if ev.Tip > 0 {
		eff.tip = money(ev.Tip)
	}

	switch ev.Kind {
	case EventOutage:
		if st.Upgrades[TrackFridge] > 0 {
			eff.message = ev.AltMessage
		} else {
			st.Inventory[ItemIce] = 0
		}
	case EventCritic:
		if quality > cat.Rules.PremiumQuality {
			eff.reputation = ev.Reputation
		} else {
			eff.reputation = -ev.Reputation
			eff.message = ev.AltMessage
		}
	case EventInspector:
		if quality < cat.Rules.LowQuality {
			eff.fine = money(ev.Fine)
		} else {
			eff.message = ev.AltMessage
		}
	}
	return eff
}

func priceRef(d decimal.Decimal) *float64 {
	v := MoneyFloat(d)
	return &v
}

// SimulateDay plays one business day against st, mutating it in place. The
// outcome depends only on st, cat and the values drawn from rnd.
func SimulateDay(st *State, cat *Catalog, rnd Rand) DayResult {
	rules := cat.Rules
	weather := cat.WeatherFor(st.Weather)
	res := DayResult{Day: st.Day, Weather: weather.Name, Log: make([]LogEntry, 0), Achievements: make([]AchievementSpec, 0)}

	quality := st.quality(cat)
	appeal := cat.TierFor(TrackStand, st.Upgrades[TrackStand]).Appeal
	boost := cat.TierFor(TrackMarketing, st.Upgrades[TrackMarketing]).Boost

	st.ActiveEvent = nil
	eff := eventEffect{customerMult: 1, priceMult: 1}
	if ev, ok := rollEvent(cat.Events, rnd); ok {
		eff = applyEvent(st, cat, ev, quality)
		st.ActiveEvent = &ActiveEvent{Kind: ev.Kind, Name: ev.Name, Emoji: ev.Emoji}
		res.Event = &EventOutcome{Kind: ev.Kind, Name: ev.Name, Emoji: ev.Emoji, Effect: eff.message}
		if eff.message != "" {
			msg := eff.message
			res.Summary.EventBonus = &msg
		}
	}

	base := randInt(rnd, rules.Customers.Min, rules.Customers.Max)
	repFactor := 1 + float64(st.Reputation)/100
	potential := int(math.Floor(float64(base) * weather.CustomerMult * repFactor * appeal * eff.customerMult * (1 + boost/100)))
	if potential < 0 {
		potential = 0
	}

	var (
		revenue      = decimal.Zero
		cogs         = decimal.Zero
		sold, missed int
		iceShortfall int
	)
	iceCost, _ := cat.SupplyCost(ItemIce)
	var basicCost decimal.Decimal
	for _, item := range basicItems {
		c, _ := cat.SupplyCost(item)
		basicCost = basicCost.Add(c)
	}
	priceF := st.Price.InexactFloat64()

	miss := func(tick int, reason, msg string) {
		missed++
		res.Log = append(res.Log, LogEntry{Tick: tick, Kind: KindMiss, Reason: reason, Message: msg})
	}

	for i := 0; i < potential; i++ {
		if !st.hasBasics() {
			miss(i, ReasonSoldOut, "⛔ SOLD OUT")
			continue
		}
		hasIce := st.Inventory[ItemIce] >= 1
		wantsIce := weather.AlwaysIce || rnd.Float64() < rules.IceWantChance

		maxPrice := uniform(rnd, rules.MaxPriceLow, rules.MaxPriceHigh)*quality*eff.priceMult + weather.PriceBonus
		if st.Reputation > rules.RepPriceAbove {
			maxPrice += rules.RepPriceBonus
		}

		var (
			salePrice decimal.Decimal
			entry     LogEntry
			usedIce   bool
		)
		switch {
		case wantsIce && !hasIce:
			iceShortfall++
			if rnd.Float64() < rules.NoIceLeaveChance {
				miss(i, ReasonNoIce, "❌ No ice!")
				continue
			}
			salePrice = st.Price.Mul(money(rules.WarmSaleFactor))
			entry = LogEntry{Reason: ReasonWarm, Message: "😐 Warm sale"}
		case priceF > maxPrice:
			miss(i, ReasonTooExpensive, "💸 Too expensive")
			continue
		default:
			usedIce = hasIce
			if quality > rules.PremiumQuality {
				salePrice = st.Price.Mul(money(rules.PremiumFactor))
				entry = LogEntry{Reason: ReasonPremium, Message: "⭐ PREMIUM sale!"}
			} else {
				salePrice = st.Price
				entry = LogEntry{Reason: ReasonSold, Message: "✅ Sold!"}
			}
		}

		entry.Tick = i
		entry.Kind = KindSale
		entry.Price = priceRef(salePrice)
		res.Log = append(res.Log, entry)

		sold++
		revenue = revenue.Add(salePrice)
		for _, item := range basicItems {
			st.Inventory[item]--
		}
		cogs = cogs.Add(basicCost)
		if usedIce {
			st.Inventory[ItemIce]--
			cogs = cogs.Add(iceCost)
		}
	}

	if eff.tip.IsPositive() {
		revenue = revenue.Add(eff.tip)
		res.Log = append(res.Log, LogEntry{
			Tick:    len(res.Log),
			Kind:    KindSpecial,
			Reason:  ReasonTip,
			Message: "🌟 CELEBRITY TIP!",
			Price:   priceRef(eff.tip),
		})
	}

	conversion := 0.0
	if potential > 0 {
		conversion = float64(sold) / float64(potential)
	}
	repChange := 0
	switch {
	case potential > 0 && conversion >= 1.0:
		repChange = randInt(rnd, rules.PerfectRep.Min, rules.PerfectRep.Max)
		st.Stats.PerfectDays++
	case conversion > rules.GoodConversion:
		repChange = randInt(rnd, rules.GoodRep.Min, rules.GoodRep.Max)
	case conversion < rules.BadConversion:
		repChange = randInt(rnd, rules.BadRep.Min, rules.BadRep.Max)
	}
	if quality > rules.HighQuality {
		repChange += rules.HighQualityRep
	} else if quality < rules.LowQuality {
		repChange -= rules.LowQualityRep
	}
	repChange += eff.reputation
	st.Reputation = clampInt(st.Reputation+repChange, 0, cat.ReputationCap(st.Upgrades[TrackStand]))
	st.Stars = StarsFor(st.Reputation, rules)

	save := cat.TierFor(TrackFridge, st.Upgrades[TrackFridge]).IceSave
	melted := MeltedIce(st.Inventory[ItemIce], save)
	st.Inventory[ItemIce] -= melted
	iceLoss := iceCost.Mul(decimal.NewFromInt(int64(melted)))

	// the fine comes out of cash but is not part of the day's trading profit
	fine := decimal.Min(eff.fine, st.Cash.Add(revenue))
	net := revenue.Sub(cogs).Sub(iceLoss)
	st.Cash = st.Cash.Add(revenue).Sub(fine)
	if net.IsPositive() {
		st.Streak++
	} else {
		st.Streak = 0
	}

	st.Stats.TotalSales += sold
	st.Stats.TotalRevenue = st.Stats.TotalRevenue.Add(revenue)
	if sold > st.Stats.BestDay {
		st.Stats.BestDay = sold
	}

	st.History = append(st.History, HistoryEntry{
		Day:       st.Day,
		Cash:      MoneyFloat(st.Cash),
		Revenue:   MoneyFloat(revenue),
		NetProfit: MoneyFloat(net),
		Sales:     sold,
	})
	st.trimHistory(rules.HistoryLimit)

	st.Day++
	st.Weather = st.NextWeather
	st.NextWeather = cat.Weather[rnd.IntN(len(cat.Weather))].Name

	res.Achievements = unlockAchievements(st, cat, dayOutcome{
		potential:    potential,
		conversion:   conversion,
		netProfit:    net,
		weather:      weather,
		iceShortfall: iceShortfall,
	})

	res.Summary.Potential = potential
	res.Summary.Sold = sold
	res.Summary.Missed = missed
	res.Summary.Revenue = MoneyFloat(revenue)
	res.Summary.COGS = MoneyFloat(cogs)
	res.Summary.IceMelted = melted
	res.Summary.IceLoss = MoneyFloat(iceLoss)
	res.Summary.Fine = MoneyFloat(fine)
	res.Summary.NetProfit = MoneyFloat(net)
	res.Summary.Conversion = math.Round(conversion*1000) / 1000
	res.Summary.RepChange = repChange
	return res
}
