package game

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type SupplySpec struct {
	Item string  `yaml:"item" json:"item"`
	Cost float64 `yaml:"cost" json:"cost"`
}

// Tier is one level of an upgrade track. Only the attributes relevant to the
// owning track are read.
type Tier struct {
	Name    string  `yaml:"name" json:"name"`
	Cost    float64 `yaml:"cost" json:"cost"`
	Speed   float64 `yaml:"speed,omitempty" json:"speed,omitempty"`
	Quality float64 `yaml:"quality,omitempty" json:"quality,omitempty"`
	Appeal  float64 `yaml:"appeal,omitempty" json:"appeal,omitempty"`
	RepCap  int     `yaml:"rep_cap,omitempty" json:"rep_cap,omitempty"`
	IceSave float64 `yaml:"ice_save" json:"ice_save"`
	Boost   float64 `yaml:"boost" json:"boost"`
}

type UpgradeTrack struct {
	Track string `yaml:"track" json:"track"`
	Tiers []Tier `yaml:"tiers" json:"tiers"`
}

type WeatherSpec struct {
	Name         string  `yaml:"name" json:"name"`
	CustomerMult float64 `yaml:"customer_mult" json:"customer_mult"`
	AlwaysIce    bool    `yaml:"always_ice" json:"always_ice"`
	PriceBonus   float64 `yaml:"price_bonus" json:"price_bonus"`
}

const (
	EventCritic    = "critic"
	EventCelebrity = "celebrity"
	EventInspector = "inspector"
	EventRival     = "rival"
	EventRush      = "rush"
	EventOutage    = "outage"
	EventFestival  = "festival"
)

type EventSpec struct {
	Kind         string  `yaml:"kind" json:"kind"`
	Name         string  `yaml:"name" json:"name"`
	Emoji        string  `yaml:"emoji" json:"emoji"`
	Chance       float64 `yaml:"chance" json:"chance"`
	CustomerMult float64 `yaml:"customer_mult,omitempty" json:"customer_mult,omitempty"`
	PriceMult    float64 `yaml:"price_mult,omitempty" json:"price_mult,omitempty"`
	Tip          float64 `yaml:"tip,omitempty" json:"tip,omitempty"`
	Reputation   int     `yaml:"reputation,omitempty" json:"reputation,omitempty"`
	Fine         float64 `yaml:"fine,omitempty" json:"fine,omitempty"`
	Message      string  `yaml:"message" json:"message"`
	AltMessage   string  `yaml:"alt_message,omitempty" json:"alt_message,omitempty"`
}

type AchievementSpec struct {
	ID     string  `yaml:"id" json:"id"`
	Name   string  `yaml:"name" json:"name"`
	Desc   string  `yaml:"desc" json:"desc"`
	Reward float64 `yaml:"reward" json:"reward"`
}

type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type Rules struct {
	MinPrice float64 `yaml:"min_price"`
	MaxPrice float64 `yaml:"max_price"`
	MinRatio float64 `yaml:"min_ratio"`
	MaxRatio float64 `yaml:"max_ratio"`

	Customers     IntRange `yaml:"customers"`
	MaxPriceLow   float64  `yaml:"max_price_low"`
	MaxPriceHigh  float64  `yaml:"max_price_high"`
	RepPriceAbove int      `yaml:"rep_price_above"`
	RepPriceBonus float64  `yaml:"rep_price_bonus"`

	IceWantChance    float64 `yaml:"ice_want_chance"`
	NoIceLeaveChance float64 `yaml:"no_ice_leave_chance"`
	WarmSaleFactor   float64 `yaml:"warm_sale_factor"`
	PremiumQuality   float64 `yaml:"premium_quality"`
	PremiumFactor    float64 `yaml:"premium_factor"`

	PerfectRep     IntRange `yaml:"perfect_rep"`
	GoodConversion float64  `yaml:"good_conversion"`
	GoodRep        IntRange `yaml:"good_rep"`
	BadConversion  float64  `yaml:"bad_conversion"`
	BadRep         IntRange `yaml:"bad_rep"`
	HighQuality    float64  `yaml:"high_quality"`
	HighQualityRep int      `yaml:"high_quality_rep"`
	LowQuality     float64  `yaml:"low_quality"`
	LowQualityRep  int      `yaml:"low_quality_rep"`

	StarBase          float64 `yaml:"star_base"`
	StarPerReputation float64 `yaml:"star_per_reputation"`

	// HistoryLimit caps the daily history; 0 keeps everything.
	HistoryLimit int `yaml:"history_limit"`
}

type StartSpec struct {
	Cash        float64        `yaml:"cash"`
	Reputation  int            `yaml:"reputation"`
	Inventory   map[string]int `yaml:"inventory"`
	Price       float64        `yaml:"price"`
	Weather     string         `yaml:"weather"`
	NextWeather string         `yaml:"next_weather"`
}

// Catalog holds the static tables the game is balanced with. It is loaded once
// and never mutated afterwards.
type Catalog struct {
	Supplies     []SupplySpec      `yaml:"supplies"`
	Upgrades     []UpgradeTrack    `yaml:"upgrades"`
	Weather      []WeatherSpec     `yaml:"weather"`
	Events       []EventSpec       `yaml:"events"`
	Achievements []AchievementSpec `yaml:"achievements"`
	Rules        Rules             `yaml:"rules"`
	Start        StartSpec         `yaml:"start"`
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		Supplies: []SupplySpec{
			{Item: ItemLemons, Cost: 0.50},
			{Item: ItemSugar, Cost: 0.20},
			{Item: ItemCups, Cost: 0.10},
			{Item: ItemIce, Cost: 0.05},
		},
		Upgrades: []UpgradeTrack{
			{Track: TrackJuicer, Tiers: []Tier{
				{Name: "Hand Squeezer", Cost: 0, Speed: 1.0, Quality: 1.0},
				{Name: "Metal Press", Cost: 50, Speed: 1.5, Quality: 1.2},
				{Name: "Industrial Juicer", Cost: 200, Speed: 3.0, Quality: 1.5},
			}},
			{Track: TrackStand, Tiers: []Tier{
				{Name: "Cardboard Box", Cost: 0, RepCap: 30, Appeal: 1.0},
				{Name: "Wooden Stand", Cost: 100, RepCap: 60, Appeal: 1.3},
				{Name: "Food Truck", Cost: 500, RepCap: 100, Appeal: 2.0},
			}},
			{Track: TrackFridge, Tiers: []Tier{
				{Name: "Cooler Box", Cost: 0, IceSave: 0.0},
				{Name: "Mini Fridge", Cost: 150, IceSave: 0.4},
				{Name: "Deep Freezer", Cost: 400, IceSave: 0.8},
			}},
			{Track: TrackMarketing, Tiers: []Tier{
				{Name: "Word of Mouth", Cost: 0, Boost: 0},
				{Name: "Flyers", Cost: 75, Boost: 5},
				{Name: "Social Media", Cost: 300, Boost: 15},
				{Name: "Billboard", Cost: 800, Boost: 30},
			}},
		},
		Weather: []WeatherSpec{
			{Name: WeatherSunny, CustomerMult: 1.0},
			{Name: WeatherCloudy, CustomerMult: 0.7},
			{Name: WeatherRainy, CustomerMult: 0.4},
			{Name: WeatherHot, CustomerMult: 1.8, AlwaysIce: true, PriceBonus: 0.50},
		},
		Events: []EventSpec{
			{Kind: EventCritic, Name: "Food Critic Visit", Emoji: "📰", Chance: 0.15, Reputation: 4,
				Message: "The critic raved about your lemonade!", AltMessage: "The critic was not impressed."},
			{Kind: EventCelebrity, Name: "Celebrity Spotted", Emoji: "⭐", Chance: 0.08, Tip: 50,
				Message: "Celebrity bought your lemonade!"},
			{Kind: EventInspector, Name: "Health Inspector", Emoji: "🔍", Chance: 0.12, Fine: 10,
				Message: "Watery lemonade! The inspector wrote you a fine.", AltMessage: "The inspector left satisfied."},
			{Kind: EventRival, Name: "Rival Stand Opens", Emoji: "🏪", Chance: 0.10, CustomerMult: 0.6,
				Message: "Rival stand stealing customers!"},
			{Kind: EventRush, Name: "School Bus Arrives", Emoji: "🚌", Chance: 0.20, CustomerMult: 2.0,
				Message: "School bus brought tons of customers!"},
			{Kind: EventOutage, Name: "Power Outage", Emoji: "⚡", Chance: 0.08,
				Message: "Power outage! All ice melted!", AltMessage: "Your fridge saved the day!"},
			{Kind: EventFestival, Name: "Festival Nearby", Emoji: "🎪", Chance: 0.10, CustomerMult: 1.5, PriceMult: 1.2,
				Message: "Festival crowd loves premium lemonade!"},
		},
		Achievements: []AchievementSpec{
			{ID: AchFirstSale, Name: "First Sale!", Desc: "Sell your first lemonade", Reward: 5},
			{ID: AchHundredSales, Name: "Century", Desc: "Make 100 sales", Reward: 50},
			{ID: AchThousandSales, Name: "Legendary", Desc: "Make 1000 sales", Reward: 200},
			{ID: AchProfitMaster, Name: "Profit Master", Desc: "Earn $100 in one day", Reward: 100},
			{ID: AchFiveStar, Name: "Five Star", Desc: "Reach 100 reputation", Reward: 150},
			{ID: AchTycoon, Name: "Tycoon", Desc: "Accumulate $1000 cash", Reward: 300},
			{ID: AchPerfectDay, Name: "Perfect Day", Desc: "100% conversion rate", Reward: 75},
			{ID: AchIceKing, Name: "Ice King", Desc: "Never run out of ice in hot weather", Reward: 50},
		},
		Rules: Rules{
			MinPrice:          0.01,
			MaxPrice:          10.00,
			MinRatio:          0.5,
			MaxRatio:          1.5,
			Customers:         IntRange{Min: 15, Max: 35},
			MaxPriceLow:       0.80,
			MaxPriceHigh:      2.00,
			RepPriceAbove:     60,
			RepPriceBonus:     0.40,
			IceWantChance:     0.4,
			NoIceLeaveChance:  0.4,
			WarmSaleFactor:    0.8,
			PremiumQuality:    1.2,
			PremiumFactor:     1.1,
			PerfectRep:        IntRange{Min: 8, Max: 12},
			GoodConversion:    0.75,
			GoodRep:           IntRange{Min: 3, Max: 6},
			BadConversion:     0.4,
			BadRep:            IntRange{Min: -8, Max: -3},
			HighQuality:       1.3,
			HighQualityRep:    3,
			LowQuality:        0.8,
			LowQualityRep:     3,
			StarBase:          1.0,
			StarPerReputation: 25,
			HistoryLimit:      60,
		},
		Start: StartSpec{
			Cash:        25.00,
			Reputation:  10,
			Inventory:   map[string]int{ItemLemons: 5, ItemSugar: 5, ItemCups: 10, ItemIce: 0},
			Price:       1.00,
			Weather:     WeatherSunny,
			NextWeather: WeatherCloudy,
		},
	}
}

// LoadCatalog overlays the YAML file at path on top of DefaultCatalog. Lists
// present in the file replace the defaults wholesale.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat := DefaultCatalog()
	if err := yaml.Unmarshal(raw, cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

func (c *Catalog) Validate() error {
	seen := map[string]bool{}
	for _, s := range c.Supplies {
		if s.Item == "" || s.Cost < 0 {
			return invalidf(ErrInvalidCatalog, "supply %q must have a name and a non-negative cost", s.Item)
		}
		seen[s.Item] = true
	}
	for _, item := range append(append([]string{}, basicItems...), ItemIce) {
		if !seen[item] {
			return invalidf(ErrInvalidCatalog, "missing supply %s", item)
		}
	}

	for _, track := range coreTracks {
		t, ok := c.Track(track)
		if !ok || len(t.Tiers) == 0 {
			return invalidf(ErrInvalidCatalog, "upgrade track %s needs at least one tier", track)
		}
		for i, tier := range t.Tiers {
			if tier.Cost < 0 {
				return invalidf(ErrInvalidCatalog, "%s tier %d has negative cost", track, i)
			}
			if track == TrackStand && tier.RepCap <= 0 {
				return invalidf(ErrInvalidCatalog, "stand tier %d needs a positive rep_cap", i)
			}
			if track == TrackFridge && (tier.IceSave < 0 || tier.IceSave > 1) {
				return invalidf(ErrInvalidCatalog, "fridge tier %d ice_save must be within [0, 1]", i)
			}
		}
	}

	if len(c.Weather) == 0 {
		return invalidf(ErrInvalidCatalog, "at least one weather kind is required")
	}
	names := map[string]bool{}
	for _, w := range c.Weather {
		if w.Name == "" || names[w.Name] {
			return invalidf(ErrInvalidCatalog, "weather names must be unique and non-empty (%q)", w.Name)
		}
		if w.CustomerMult < 0 {
			return invalidf(ErrInvalidCatalog, "weather %s has negative customer_mult", w.Name)
		}
		names[w.Name] = true
	}

	for _, ev := range c.Events {
		if ev.Chance < 0 || ev.Chance > 1 {
			return invalidf(ErrInvalidCatalog, "event %s chance must be within [0, 1]", ev.Kind)
		}
	}

	ids := map[string]bool{}
	for _, a := range c.Achievements {
		if !KnownAchievement(a.ID) {
			return invalidf(ErrInvalidCatalog, "achievement %s has no rule", a.ID)
		}
		if ids[a.ID] {
			return invalidf(ErrInvalidCatalog, "achievement %s listed twice", a.ID)
		}
		ids[a.ID] = true
	}

	r := c.Rules
	if r.MinPrice <= 0 || r.MaxPrice < r.MinPrice {
		return invalidf(ErrInvalidCatalog, "price bounds [%.2f, %.2f]", r.MinPrice, r.MaxPrice)
	}
	if r.MinRatio <= 0 || r.MaxRatio < r.MinRatio {
		return invalidf(ErrInvalidCatalog, "ratio bounds [%.2f, %.2f]", r.MinRatio, r.MaxRatio)
	}
	if r.Customers.Min < 0 || r.Customers.Max < r.Customers.Min {
		return invalidf(ErrInvalidCatalog, "customer range [%d, %d]", r.Customers.Min, r.Customers.Max)
	}
	if r.MaxPriceHigh < r.MaxPriceLow {
		return invalidf(ErrInvalidCatalog, "max price range [%.2f, %.2f]", r.MaxPriceLow, r.MaxPriceHigh)
	}
	if r.HistoryLimit < 0 {
		return invalidf(ErrInvalidCatalog, "history_limit must be >= 0")
	}
	return nil
}

func (c *Catalog) SupplyCost(item string) (decimal.Decimal, bool) {
	item = normalizeKey(item)
	for _, s := range c.Supplies {
		if s.Item == item {
			return money(s.Cost), true
		}
	}
	return decimal.Zero, false
}

func (c *Catalog) Costs() map[string]float64 {
	out := make(map[string]float64, len(c.Supplies))
	for _, s := range c.Supplies {
		out[s.Item] = s.Cost
	}
	return out
}

func (c *Catalog) Track(name string) (UpgradeTrack, bool) {
	name = normalizeKey(name)
	for _, t := range c.Upgrades {
		if t.Track == name {
			return t, true
		}
	}
	return UpgradeTrack{}, false
}

// TierFor returns the tier at level, clamped into the track's range.
func (c *Catalog) TierFor(track string, level int) Tier {
	t, ok := c.Track(track)
	if !ok || len(t.Tiers) == 0 {
		return Tier{}
	}
	return t.Tiers[clampInt(level, 0, len(t.Tiers)-1)]
}

func (c *Catalog) MaxLevel(track string) int {
	t, ok := c.Track(track)
	if !ok {
		return 0
	}
	return len(t.Tiers) - 1
}

// WeatherFor falls back to a neutral weather for names the catalog does not know.
func (c *Catalog) WeatherFor(name string) WeatherSpec {
	for _, w := range c.Weather {
		if w.Name == name {
			return w
		}
	}
	return WeatherSpec{Name: name, CustomerMult: 1.0}
}

func (c *Catalog) HasWeather(name string) bool {
	for _, w := range c.Weather {
		if w.Name == name {
			return true
		}
	}
	return false
}

func (c *Catalog) Achievement(id string) (AchievementSpec, bool) {
	for _, a := range c.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return AchievementSpec{}, false
}

func (c *Catalog) ReputationCap(standLevel int) int {
	return c.TierFor(TrackStand, standLevel).RepCap
}
