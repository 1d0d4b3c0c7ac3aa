package main

import (
	"context"
	"testing"

	"lemontycoon/internal/game"
)

func TestRestockPlanRespectsCash(t *testing.T) {
	st := game.DefaultCatalog()
	snap := game.NewState(st).Snapshot(st)

	plan := restockPlan(snap, 30, 0)
	want := []purchase{
		{Item: game.ItemLemons, Quantity: 25},
		{Item: game.ItemSugar, Quantity: 25},
		{Item: game.ItemCups, Quantity: 20},
		{Item: game.ItemIce, Quantity: 30},
	}
	if len(plan) != len(want) {
		t.Fatalf("expected %v, got %v", want, plan)
	}
	for i := range want {
		if plan[i] != want[i] {
			t.Fatalf("step %d: expected %v, got %v", i, want[i], plan[i])
		}
	}

	snap.Cash = 3
	plan = restockPlan(snap, 30, 0)
	if len(plan) != 1 || plan[0] != (purchase{Item: game.ItemLemons, Quantity: 6}) {
		t.Fatalf("expected only 6 lemons, got %v", plan)
	}
}

func TestRestockPlanKeepsIceReserve(t *testing.T) {
	cat := game.DefaultCatalog()
	snap := game.NewState(cat).Snapshot(cat)
	snap.Inventory[game.ItemLemons] = 30
	snap.Inventory[game.ItemSugar] = 30
	snap.Inventory[game.ItemCups] = 30
	snap.Cash = 1.0

	if plan := restockPlan(snap, 30, 1.0); len(plan) != 0 {
		t.Fatalf("expected no ice within reserve, got %v", plan)
	}
	plan := restockPlan(snap, 30, 0.5)
	if len(plan) != 1 || plan[0] != (purchase{Item: game.ItemIce, Quantity: 10}) {
		t.Fatalf("expected 10 ice, got %v", plan)
	}
}

func TestNextUpgradePicksCheapestAffordable(t *testing.T) {
	cat := game.DefaultCatalog()
	snap := game.NewState(cat).Snapshot(cat)

	if _, ok := nextUpgrade(snap, 0); ok {
		t.Fatal("nothing is affordable with starting cash")
	}
	snap.Cash = 100
	track, ok := nextUpgrade(snap, 10)
	if !ok || track != game.TrackJuicer {
		t.Fatalf("expected juicer, got %q %v", track, ok)
	}
	snap.Cash = 80
	track, ok = nextUpgrade(snap, 0)
	if !ok || track != game.TrackJuicer {
		t.Fatalf("expected juicer at $50 over flyers at $75, got %q", track)
	}
}

func TestRunSimulationIsDeterministic(t *testing.T) {
	ctx := context.Background()
	for _, strategy := range strategies {
		a, finalA, err := runSimulation(ctx, game.DefaultCatalog(), 10, 42, strategy)
		if err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
		b, finalB, err := runSimulation(ctx, game.DefaultCatalog(), 10, 42, strategy)
		if err != nil {
			t.Fatalf("%s: %v", strategy, err)
		}
		if len(a) != 10 || len(b) != 10 {
			t.Fatalf("%s: expected 10 rows", strategy)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s day %d differs: %+v vs %+v", strategy, i+1, a[i], b[i])
			}
			if a[i].Day != i+1 {
				t.Fatalf("%s: expected day %d, got %d", strategy, i+1, a[i].Day)
			}
			if a[i].Cash < 0 || a[i].Sold > a[i].Potential {
				t.Fatalf("%s: broken row %+v", strategy, a[i])
			}
		}
		if finalA.Cash != finalB.Cash || finalA.Day != 11 {
			t.Fatalf("%s: final states differ or wrong day: %v %v day %d", strategy, finalA.Cash, finalB.Cash, finalA.Day)
		}
	}
}

func TestValidateStrategy(t *testing.T) {
	if err := validateStrategy("growth"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := validateStrategy("yolo"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
