package game

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ItemLemons = "lemons"
	ItemSugar  = "sugar"
	ItemCups   = "cups"
	ItemIce    = "ice"

	TrackJuicer    = "juicer"
	TrackStand     = "stand"
	TrackFridge    = "fridge"
	TrackMarketing = "marketing"

	WeatherSunny  = "sunny"
	WeatherCloudy = "cloudy"
	WeatherRainy  = "rainy"
	WeatherHot    = "hot"
)

// Log entry kinds and reasons.
const (
	KindSale    = "sale"
	KindMiss    = "miss"
	KindSpecial = "special"

	ReasonSold         = "sold"
	ReasonPremium      = "premium"
	ReasonWarm         = "warm"
	ReasonSoldOut      = "sold_out"
	ReasonNoIce        = "no_ice"
	ReasonTooExpensive = "too_expensive"
	ReasonTip          = "tip"
)

var (
	ErrInvalidPrice         = errors.New("invalid price")
	ErrUnknownItem          = errors.New("unknown item")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
	ErrInsufficientFunds    = errors.New("not enough cash")
	ErrUnknownUpgrade       = errors.New("unknown upgrade")
	ErrMaxLevel             = errors.New("already at max level")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCatalog       = errors.New("invalid catalog")
)

var (
	basicItems = []string{ItemLemons, ItemSugar, ItemCups}
	coreTracks = []string{TrackJuicer, TrackStand, TrackFridge, TrackMarketing}
)

func normalizeKey(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// MoneyFloat rounds to cents for JSON views and persisted history.
func MoneyFloat(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func FormatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func invalidf(base error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}

// MeltedIce is the number of units lost overnight for a fridge that saves the given fraction.
func MeltedIce(ice int, save float64) int {
	if ice <= 0 {
		return 0
	}
	keep := decimal.NewFromInt(1).Sub(money(clampFloat(save, 0, 1)))
	return int(decimal.NewFromInt(int64(ice)).Mul(keep).Floor().IntPart())
}

func StarsFor(reputation int, rules Rules) float64 {
	per := rules.StarPerReputation
	if per <= 0 {
		per = 25
	}
	return rules.StarBase + float64(reputation)/per
}
