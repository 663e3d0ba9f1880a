package game

type TraitRarity string

const (
	RarityCommon    TraitRarity = "Common"
	RarityUncommon  TraitRarity = "Uncommon"
	RarityRare      TraitRarity = "Rare"
	RarityLegendary TraitRarity = "Legendary"
)

type Trait struct {
	ID          string
	Name        string
	Rarity      TraitRarity
	Weight      int64
	MaxLevel    int
	Description string
}

const (
	TraitScavenger = "scavenger"
	TraitProdigy   = "prodigy"
	TraitWealth    = "wealth"
	TraitSurveyor  = "surveyor"
	TraitCollector = "collector"
	TraitTheAddict = "the_addict"
	TraitZealot    = "zealot"
)

var Traits = map[string]Trait{
	TraitScavenger: {
		ID: TraitScavenger, Name: "Scavenger", Rarity: RarityCommon, Weight: 30, MaxLevel: 5,
		Description: "Grants a 5% chance per level to find bonus common resources from working.",
	},
	TraitProdigy: {
		ID: TraitProdigy, Name: "Prodigy", Rarity: RarityCommon, Weight: 30, MaxLevel: 5,
		Description: "Reduces work and gather cooldowns by 5% per level.",
	},
	TraitWealth: {
		ID: TraitWealth, Name: "Wealth", Rarity: RarityUncommon, Weight: 15, MaxLevel: 5,
		Description: "Increases Bits earned from working by 5% per level.",
	},
	TraitSurveyor: {
		ID: TraitSurveyor, Name: "Surveyor", Rarity: RarityUncommon, Weight: 10, MaxLevel: 5,
		Description: "Grants a 2% chance per level to double your entire gathering haul.",
	},
	TraitCollector: {
		ID: TraitCollector, Name: "The Collector", Rarity: RarityRare, Weight: 7, MaxLevel: 5,
		Description: "Increases the bonus reward for first-time crafts by 20% per level.",
	},
	TraitTheAddict: {
		ID: TraitTheAddict, Name: "The Addict", Rarity: RarityRare, Weight: 7, MaxLevel: 5,
		Description: "After losing a gamble, gain The Rush, buffing your next work based on the share of wealth lost.",
	},
	TraitZealot: {
		ID: TraitZealot, Name: "Zealot", Rarity: RarityLegendary, Weight: 1, MaxLevel: 5,
		Description: "Gain stacks of Zeal on activity, boosting rewards per stack. Stacks reset after 10 minutes of inactivity.",
	},
}

// TraitOrder fixes the iteration order for weighted draws so a seeded random
// source reproduces the same sequence of results.
var TraitOrder = []string{
	TraitScavenger,
	TraitProdigy,
	TraitWealth,
	TraitSurveyor,
	TraitCollector,
	TraitTheAddict,
	TraitZealot,
}

// Per-level trait coefficients used by the modifier resolver.
const (
	ScavengerChancePerLevel   = 5.0  // percent
	ProdigyReductionPerLevel  = 5.0  // percent cooldown reduction
	WealthBonusPerLevel       = 5.0  // percent work bonus
	SurveyorChancePerLevel    = 2.0  // percent haul-double chance
	CollectorBonusPerLevel    = 20.0 // percent on the first-craft reward
	AddictRushPerLevel        = 50.0 // percent multiplier on fraction lost
	ZealBonusPerStackPerLevel = 2.5  // percent per zeal stack
)

// TraitSlotCount is the fixed number of trait slots per account.
const TraitSlotCount = 2
