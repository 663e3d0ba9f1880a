package game

import "time"

// EventEffectKind is the closed set of global event effects consumed by the
// modifier resolver and the market engine.
type EventEffectKind string

const (
	EventEffectWorkMultiplier   EventEffectKind = "work_multiplier"
	EventEffectGatherChance     EventEffectKind = "gather_chance"
	EventEffectGatherRareChance EventEffectKind = "gather_rare_chance"
	EventEffectMarketTax        EventEffectKind = "market_tax"
	EventEffectSmeltSpeed       EventEffectKind = "smelt_speed"
)

type EventEffect struct {
	Kind       EventEffectKind
	Multiplier float64
	TaxRate    float64
	ItemID     string // only for gather_rare_chance
}

type EventDef struct {
	ID          string
	Name        string
	Duration    time.Duration
	Description string
	Effect      EventEffect
}

// ActiveEvent is a live instance of an event definition. At most one is
// active at a time; the scheduler owns the singleton and hands snapshots to
// callers by value.
type ActiveEvent struct {
	EventDef
	StartedAt time.Time
	ExpiresAt time.Time
}

const (
	EventBitRush          = "bit_rush"
	EventSurgingResources = "surging_resources"
	EventGoldenHour       = "golden_hour"
	EventMarketMadness    = "market_madness"
	EventSuperSmelter     = "super_smelter"
)

var Events = map[string]EventDef{
	EventBitRush: {
		ID: EventBitRush, Name: "Bit Rush", Duration: 5 * time.Minute,
		Description: "All Bits earned from working are doubled.",
		Effect:      EventEffect{Kind: EventEffectWorkMultiplier, Multiplier: 2},
	},
	EventSurgingResources: {
		ID: EventSurgingResources, Name: "Surging Resources", Duration: 10 * time.Minute,
		Description: "The chance to find all common resources from gathering is increased.",
		Effect:      EventEffect{Kind: EventEffectGatherChance, Multiplier: 1.5},
	},
	EventGoldenHour: {
		ID: EventGoldenHour, Name: "Golden Hour", Duration: 5 * time.Minute,
		Description: "The chance to find a Trait Reforger from gathering is tripled.",
		Effect:      EventEffect{Kind: EventEffectGatherRareChance, Multiplier: 3, ItemID: ItemTraitReforger},
	},
	EventMarketMadness: {
		ID: EventMarketMadness, Name: "Market Madness", Duration: 15 * time.Minute,
		Description: "The market sales tax has been removed. Sell tax-free.",
		Effect:      EventEffect{Kind: EventEffectMarketTax, TaxRate: 0},
	},
	EventSuperSmelter: {
		ID: EventSuperSmelter, Name: "Super Smelter", Duration: 10 * time.Minute,
		Description: "All smelting and cooking jobs finish twice as fast.",
		Effect:      EventEffect{Kind: EventEffectSmeltSpeed, Multiplier: 2},
	},
}

var EventOrder = []string{
	EventBitRush,
	EventSurgingResources,
	EventGoldenHour,
	EventMarketMadness,
	EventSuperSmelter,
}
