package game

type PriceInput struct {
	Price          float64
	IdempotencyKey string
}

// RecipeInput leaves a ratio unchanged when its field is nil.
type RecipeInput struct {
	LemonRatio     *float64
	SugarRatio     *float64
	IdempotencyKey string
}

type BuyInput struct {
	Item           string
	Quantity       int
	IdempotencyKey string
}

type UpgradeInput struct {
	Track          string
	IdempotencyKey string
}

type StartDayInput struct {
	IdempotencyKey string
}

type ResetInput struct {
	IdempotencyKey string
}

type LogEntry struct {
	Tick    int      `json:"tick"`
	Kind    string   `json:"type"`
	Reason  string   `json:"reason"`
	Message string   `json:"msg"`
	Price   *float64 `json:"price,omitempty"`
}

type DaySummary struct {
	Potential  int     `json:"potential"`
	Sold       int     `json:"sold"`
	Missed     int     `json:"missed"`
	Revenue    float64 `json:"revenue"`
	COGS       float64 `json:"cogs"`
	IceMelted  int     `json:"ice_melted"`
	IceLoss    float64 `json:"ice_loss"`
	Fine       float64 `json:"fine"`
	NetProfit  float64 `json:"net_profit"`
	Conversion float64 `json:"conversion"`
	RepChange  int     `json:"rep_change"`
	EventBonus *string `json:"event_bonus"`
}

type EventOutcome struct {
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Effect string `json:"effect"`
}

type DayResult struct {
	Day          int               `json:"day"`
	Weather      string            `json:"weather"`
	Log          []LogEntry        `json:"log"`
	Summary      DaySummary        `json:"summary"`
	Event        *EventOutcome     `json:"event,omitempty"`
	Achievements []AchievementSpec `json:"achievements"`
}

type DayReport struct {
	DayResult
	State Snapshot `json:"new_state"`
}
