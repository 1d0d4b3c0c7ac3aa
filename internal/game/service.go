package game

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Snapshotter persists the state after every mutation.
type Snapshotter interface {
	Save(ctx context.Context, st *State) error
}

type DayNotifier interface {
	DayClosed(ctx context.Context, report DayReport) error
}

type Options struct {
	Catalog  *Catalog
	State    *State
	Rand     Rand
	Store    Snapshotter
	Notifier DayNotifier
	Logger   *slog.Logger
	// IdempotencyLimit bounds the remembered keys; <= 0 uses 1024.
	IdempotencyLimit int
}

type Service struct {
	mu       sync.Mutex
	cat      *Catalog
	st       *State
	rand     Rand
	store    Snapshotter
	notifier DayNotifier
	log      *slog.Logger
	idem     *idempotencyLedger
}

func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Catalog == nil {
		opts.Catalog = DefaultCatalog()
	}
	if opts.State == nil {
		opts.State = NewState(opts.Catalog)
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(1)
	}
	return &Service{
		cat:      opts.Catalog,
		st:       opts.State,
		rand:     opts.Rand,
		store:    opts.Store,
		notifier: opts.Notifier,
		log:      opts.Logger,
		idem:     newIdempotencyLedger(opts.IdempotencyLimit),
	}
}

func (s *Service) Catalog() *Catalog {
	return s.cat
}

func (s *Service) State(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Snapshot(s.cat)
}

func (s *Service) SetPrice(ctx context.Context, in PriceInput) (Snapshot, error) {
	r := s.cat.Rules
	if math.IsNaN(in.Price) || in.Price < r.MinPrice || in.Price > r.MaxPrice {
		return Snapshot{}, s.decline("price", invalidf(ErrInvalidPrice, "price must be between $%.2f and $%.2f", r.MinPrice, r.MaxPrice))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		return Snapshot{}, err
	}
	s.st.Price = money(in.Price).Round(2)
	return s.commitLocked(ctx, in.IdempotencyKey, "price"), nil
}

// SetRecipe clamps the given ratios into the catalog bounds and keeps the
// current value of any ratio left nil; it never declines.
func (s *Service) SetRecipe(ctx context.Context, in RecipeInput) (Snapshot, error) {
	r := s.cat.Rules
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		return Snapshot{}, err
	}
	if in.LemonRatio != nil {
		s.st.Recipe.LemonRatio = clampFloat(*in.LemonRatio, r.MinRatio, r.MaxRatio)
	}
	if in.SugarRatio != nil {
		s.st.Recipe.SugarRatio = clampFloat(*in.SugarRatio, r.MinRatio, r.MaxRatio)
	}
	return s.commitLocked(ctx, in.IdempotencyKey, "recipe"), nil
}

func (s *Service) Buy(ctx context.Context, in BuyInput) (Snapshot, error) {
	item := normalizeKey(in.Item)
	unitCost, ok := s.cat.SupplyCost(item)
	if !ok {
		return Snapshot{}, s.decline("buy", invalidf(ErrUnknownItem, "%s", in.Item))
	}
	if in.Quantity <= 0 {
		return Snapshot{}, s.decline("buy", invalidf(ErrInvalidQuantity, "got %d", in.Quantity))
	}
	cost := unitCost.Mul(decimal.NewFromInt(int64(in.Quantity)))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		return Snapshot{}, err
	}
	if cost.GreaterThan(s.st.Cash) {
		return Snapshot{}, s.decline("buy", invalidf(ErrInsufficientFunds, "need %s, have %s", FormatMoney(cost), FormatMoney(s.st.Cash)))
	}
	s.st.Cash = s.st.Cash.Sub(cost)
	s.st.Inventory[item] += in.Quantity
	return s.commitLocked(ctx, in.IdempotencyKey, "buy"), nil
}

func (s *Service) BuyUpgrade(ctx context.Context, in UpgradeInput) (Snapshot, error) {
	track, ok := s.cat.Track(in.Track)
	if !ok {
		return Snapshot{}, s.decline("upgrade", invalidf(ErrUnknownUpgrade, "%s", in.Track))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		return Snapshot{}, err
	}
	level := s.st.Upgrades[track.Track]
	if level+1 >= len(track.Tiers) {
		return Snapshot{}, s.decline("upgrade", invalidf(ErrMaxLevel, "%s is at %s", track.Track, track.Tiers[len(track.Tiers)-1].Name))
	}
	next := track.Tiers[level+1]
	cost := money(next.Cost)
	if cost.GreaterThan(s.st.Cash) {
		return Snapshot{}, s.decline("upgrade", invalidf(ErrInsufficientFunds, "%s costs %s, have %s", next.Name, FormatMoney(cost), FormatMoney(s.st.Cash)))
	}
	s.st.Cash = s.st.Cash.Sub(cost)
	s.st.Upgrades[track.Track] = level + 1
	if track.Track == TrackStand {
		s.st.Normalize(s.cat)
	}
	return s.commitLocked(ctx, in.IdempotencyKey, "upgrade"), nil
}

func (s *Service) StartDay(ctx context.Context, in StartDayInput) (DayReport, error) {
	s.mu.Lock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		s.mu.Unlock()
		return DayReport{}, err
	}
	result := SimulateDay(s.st, s.cat, s.rand)
	report := DayReport{DayResult: result, State: s.commitLocked(ctx, in.IdempotencyKey, "start_day")}
	s.mu.Unlock()

	s.log.Info("day closed",
		"day", result.Day,
		"weather", result.Weather,
		"sold", result.Summary.Sold,
		"missed", result.Summary.Missed,
		"revenue", result.Summary.Revenue,
		"net_profit", result.Summary.NetProfit,
		"achievements", len(result.Achievements),
	)
	if s.notifier != nil {
		if err := s.notifier.DayClosed(ctx, report); err != nil {
			s.log.Warn("day notification failed", "day", result.Day, "err", err)
		}
	}
	return report, nil
}

func (s *Service) Reset(ctx context.Context, in ResetInput) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.idem.check(in.IdempotencyKey); err != nil {
		return Snapshot{}, err
	}
	s.st = NewState(s.cat)
	s.log.Info("game reset")
	return s.commitLocked(ctx, in.IdempotencyKey, "reset"), nil
}

// commitLocked records the idempotency key, persists and snapshots the state.
// Callers hold s.mu.
func (s *Service) commitLocked(ctx context.Context, key, action string) Snapshot {
	s.idem.record(key, action)
	if s.store != nil {
		if err := s.store.Save(ctx, s.st); err != nil {
			s.log.Error("persist state failed", "action", action, "err", err)
		}
	}
	return s.st.Snapshot(s.cat)
}

func (s *Service) decline(action string, err error) error {
	s.log.Debug("mutation declined", "action", action, "err", err)
	return err
}

type idempotencyLedger struct {
	limit int
	seen  map[string]string
	order []string
}

func newIdempotencyLedger(limit int) *idempotencyLedger {
	if limit <= 0 {
		limit = 1024
	}
	return &idempotencyLedger{limit: limit, seen: map[string]string{}}
}

func (l *idempotencyLedger) check(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	if _, ok := l.seen[key]; ok {
		return ErrDuplicateIdempotency
	}
	return nil
}

func (l *idempotencyLedger) record(key, action string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	l.seen[key] = action
	l.order = append(l.order, key)
	for len(l.order) > l.limit {
		delete(l.seen, l.order[0])
		l.order = l.order[1:]
	}
}
