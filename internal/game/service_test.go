package game

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	mu    sync.Mutex
	saves int
	last  Snapshot
	cat   *Catalog
	err   error
}

func (r *recordingStore) Save(_ context.Context, st *State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.last = st.Snapshot(r.cat)
	return r.err
}

type recordingNotifier struct {
	reports []DayReport
	err     error
}

func (n *recordingNotifier) DayClosed(_ context.Context, report DayReport) error {
	n.reports = append(n.reports, report)
	return n.err
}

func newServiceForTest(t *testing.T, mutate func(*State)) (*Service, *recordingStore) {
	t.Helper()
	cat := DefaultCatalog()
	st := NewState(cat)
	if mutate != nil {
		mutate(st)
	}
	store := &recordingStore{cat: cat}
	svc := NewService(Options{Catalog: cat, State: st, Rand: NewRand(3), Store: store})
	return svc, store
}

func TestServiceSetPrice(t *testing.T) {
	ctx := context.Background()
	svc, store := newServiceForTest(t, nil)

	for _, bad := range []float64{0, -1, 10.01, 50} {
		_, err := svc.SetPrice(ctx, PriceInput{Price: bad})
		require.ErrorIs(t, err, ErrInvalidPrice, "price %v", bad)
	}
	assert.Equal(t, 1.0, svc.State(ctx).Price)
	assert.Zero(t, store.saves)

	snap, err := svc.SetPrice(ctx, PriceInput{Price: 10})
	require.NoError(t, err)
	assert.Equal(t, 10.0, snap.Price)

	snap, err = svc.SetPrice(ctx, PriceInput{Price: 0.01})
	require.NoError(t, err)
	assert.Equal(t, 0.01, snap.Price)
	assert.Equal(t, 2, store.saves)
}

func TestServiceSetRecipeClamps(t *testing.T) {
	svc, _ := newServiceForTest(t, nil)

	lemon, sugar := 2.0, 0.1
	snap, err := svc.SetRecipe(context.Background(), RecipeInput{LemonRatio: &lemon, SugarRatio: &sugar})
	require.NoError(t, err)
	assert.Equal(t, Recipe{LemonRatio: 1.5, SugarRatio: 0.5}, snap.Recipe)
}

func TestServiceSetRecipeKeepsNilRatio(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	sugar := 1.3
	snap, err := svc.SetRecipe(ctx, RecipeInput{SugarRatio: &sugar})
	require.NoError(t, err)
	assert.Equal(t, Recipe{LemonRatio: 1.0, SugarRatio: 1.3}, snap.Recipe)

	lemon := 0.7
	snap, err = svc.SetRecipe(ctx, RecipeInput{LemonRatio: &lemon})
	require.NoError(t, err)
	assert.Equal(t, Recipe{LemonRatio: 0.7, SugarRatio: 1.3}, snap.Recipe)
}

func TestServiceSetRecipeConcurrentPartialUpdates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	lemon, sugar := 1.4, 0.6
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.SetRecipe(ctx, RecipeInput{LemonRatio: &lemon})
		}()
		go func() {
			defer wg.Done()
			_, _ = svc.SetRecipe(ctx, RecipeInput{SugarRatio: &sugar})
		}()
	}
	wg.Wait()
	assert.Equal(t, Recipe{LemonRatio: 1.4, SugarRatio: 0.6}, svc.State(ctx).Recipe)
}

func TestServiceBuy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	_, err := svc.Buy(ctx, BuyInput{Item: "limes", Quantity: 1})
	assert.ErrorIs(t, err, ErrUnknownItem)

	_, err = svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 0})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 60})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 25.0, svc.State(ctx).Cash)

	snap, err := svc.Buy(ctx, BuyInput{Item: " Lemons ", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, 20.0, snap.Cash)
	assert.Equal(t, 15, snap.Inventory[ItemLemons])

	// exact spend down to zero is allowed
	snap, err = svc.Buy(ctx, BuyInput{Item: ItemIce, Quantity: 400})
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Cash)
	assert.Equal(t, 400, snap.Inventory[ItemIce])
}

func TestServiceBuyUpgrade(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	_, err := svc.BuyUpgrade(ctx, UpgradeInput{Track: "rocket"})
	assert.ErrorIs(t, err, ErrUnknownUpgrade)

	_, err = svc.BuyUpgrade(ctx, UpgradeInput{Track: TrackJuicer})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	rich, _ := newServiceForTest(t, func(st *State) { st.Cash = decimal.NewFromInt(1000) })
	snap, err := rich.BuyUpgrade(ctx, UpgradeInput{Track: TrackJuicer})
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Upgrades[TrackJuicer])
	assert.Equal(t, 950.0, snap.Cash)

	snap, err = rich.BuyUpgrade(ctx, UpgradeInput{Track: TrackJuicer})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Upgrades[TrackJuicer])
	assert.Equal(t, 750.0, snap.Cash)

	_, err = rich.BuyUpgrade(ctx, UpgradeInput{Track: TrackJuicer})
	assert.ErrorIs(t, err, ErrMaxLevel)
	assert.Equal(t, 750.0, rich.State(ctx).Cash)
}

func TestServiceStandUpgradeRaisesCap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, func(st *State) { st.Cash = decimal.NewFromInt(200) })

	snap, err := svc.BuyUpgrade(ctx, UpgradeInput{Track: TrackStand})
	require.NoError(t, err)
	assert.Equal(t, 60, snap.ReputationCap)
	assert.Equal(t, 10, snap.Reputation)
}

func TestServiceIdempotency(t *testing.T) {
	ctx := context.Background()
	svc, store := newServiceForTest(t, nil)

	_, err := svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 2, IdempotencyKey: "k1"})
	require.NoError(t, err)
	_, err = svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 2, IdempotencyKey: "k1"})
	require.ErrorIs(t, err, ErrDuplicateIdempotency)
	assert.Equal(t, 7, svc.State(ctx).Inventory[ItemLemons])
	assert.Equal(t, 1, store.saves)

	// a declined mutation does not burn its key
	_, err = svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 500, IdempotencyKey: "k2"})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 1, IdempotencyKey: "k2"})
	require.NoError(t, err)

	_, err = svc.StartDay(ctx, StartDayInput{IdempotencyKey: "k1"})
	require.ErrorIs(t, err, ErrDuplicateIdempotency)
	assert.Equal(t, 1, svc.State(ctx).Day)
}

func TestIdempotencyLedgerForgetsOldest(t *testing.T) {
	l := newIdempotencyLedger(2)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, l.check(k))
		l.record(k, "buy")
	}
	assert.NoError(t, l.check("a"))
	assert.ErrorIs(t, l.check("b"), ErrDuplicateIdempotency)
	assert.ErrorIs(t, l.check(" c "), ErrDuplicateIdempotency)
	assert.NoError(t, l.check(""))
}

func TestServiceStartDay(t *testing.T) {
	ctx := context.Background()
	cat := DefaultCatalog()
	store := &recordingStore{cat: cat}
	notifier := &recordingNotifier{err: errors.New("webhook down")}
	svc := NewService(Options{Catalog: cat, Rand: NewRand(11), Store: store, Notifier: notifier})

	report, err := svc.StartDay(ctx, StartDayInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Day)
	assert.Equal(t, 2, report.State.Day)
	assert.Equal(t, report.Summary.Potential, report.Summary.Sold+report.Summary.Missed)
	assert.Len(t, report.State.History, 1)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, report.State, store.last)
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, report.Day, notifier.reports[0].Day)
}

func TestServiceReset(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	_, err := svc.Buy(ctx, BuyInput{Item: ItemCups, Quantity: 5, IdempotencyKey: "buy-1"})
	require.NoError(t, err)
	_, err = svc.StartDay(ctx, StartDayInput{})
	require.NoError(t, err)

	snap, err := svc.Reset(ctx, ResetInput{})
	require.NoError(t, err)
	assert.Equal(t, 25.0, snap.Cash)
	assert.Equal(t, 1, snap.Day)
	assert.Equal(t, 10, snap.Inventory[ItemCups])
	assert.Empty(t, snap.History)

	_, err = svc.Buy(ctx, BuyInput{Item: ItemCups, Quantity: 5, IdempotencyKey: "buy-1"})
	assert.ErrorIs(t, err, ErrDuplicateIdempotency)
}

func TestServiceSnapshotIsDetached(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	snap := svc.State(ctx)
	snap.Inventory[ItemLemons] = 999
	snap.Upgrades[TrackJuicer] = 2
	assert.Equal(t, 5, svc.State(ctx).Inventory[ItemLemons])
	assert.Equal(t, 0, svc.State(ctx).Upgrades[TrackJuicer])
}

func TestServicePersistFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	svc, store := newServiceForTest(t, nil)
	store.err = errors.New("disk full")

	snap, err := svc.SetPrice(ctx, PriceInput{Price: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, snap.Price)
}

func TestServiceConcurrentBuys(t *testing.T) {
	ctx := context.Background()
	svc, _ := newServiceForTest(t, nil)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Buy(ctx, BuyInput{Item: ItemLemons, Quantity: 1}); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	snap := svc.State(ctx)
	assert.Equal(t, 50, ok)
	assert.Equal(t, 0.0, snap.Cash)
	assert.Equal(t, 55, snap.Inventory[ItemLemons])
}
