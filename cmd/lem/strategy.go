package main

import (
	"fmt"
	"math"
	"slices"

	"lemontycoon/internal/game"
)

const (
	strategyNone    = "none"
	strategyRestock = "restock"
	strategyGrowth  = "growth"
)

var strategies = []string{strategyNone, strategyRestock, strategyGrowth}

type purchase struct {
	Item     string
	Quantity int
}

// restockPlan tops basic supplies up to target units each, lemons first,
// spending no more than the cash on hand. Ice is bought last and only with
// what is left after keeping reserve aside.
func restockPlan(st game.Snapshot, target int, reserve float64) []purchase {
	cash := st.Cash
	var out []purchase
	for _, item := range []string{game.ItemLemons, game.ItemSugar, game.ItemCups, game.ItemIce} {
		need := target - st.Inventory[item]
		cost := st.Costs[item]
		if need <= 0 || cost <= 0 {
			continue
		}
		budget := cash
		if item == game.ItemIce {
			budget -= reserve
		}
		affordable := int(math.Floor(budget/cost + 1e-9))
		qty := min(need, affordable)
		if qty <= 0 {
			continue
		}
		out = append(out, purchase{Item: item, Quantity: qty})
		cash -= float64(qty) * cost
	}
	return out
}

// nextUpgrade picks the cheapest next tier that leaves at least reserve cash.
func nextUpgrade(st game.Snapshot, reserve float64) (string, bool) {
	best, bestCost := "", math.Inf(1)
	for _, track := range orderedKeys(st.Upgrades, trackOrder) {
		tiers := st.UpgradeInfo[track]
		level := st.Upgrades[track]
		if level+1 >= len(tiers) {
			continue
		}
		cost := tiers[level+1].Cost
		if cost < bestCost && st.Cash-cost >= reserve {
			best, bestCost = track, cost
		}
	}
	return best, best != ""
}

func validateStrategy(name string) error {
	if !slices.Contains(strategies, name) {
		return fmt.Errorf("unknown strategy %q (want one of %v)", name, strategies)
	}
	return nil
}
