package config

import "time"

// Application-wide constants organized by domain

// Currency and account lifecycle
const (
	CurrencyName    = "Bits"
	StartingBalance = 30
)

// Action rewards and cooldowns
const (
	WorkRewardMin  = 5
	WorkRewardMax  = 35
	WorkCooldown   = 1 * time.Minute
	GatherCooldown = 3 * time.Minute

	DailyRewardBase   = 1500
	DailyStreakBonus  = 250
	DailyCooldown     = 22 * time.Hour
	DailyStreakWindow = 48 * time.Hour

	HourlyRewardBase   = 25
	HourlyStreakBonus  = 25
	HourlyCooldown     = 1 * time.Hour
	HourlyStreakWindow = 2 * time.Hour

	// Floor below which no cooldown reduction can push an action.
	MinimumActionCooldown = 1 * time.Second

	MaxGatherTypesBase = 2

	// Paid the first time an account crafts a given item, scaled up by
	// The Collector trait.
	FirstCraftBonusBits = 25
)

// Gambling bounds
const (
	FlipMinBet  = 5
	FlipMaxBet  = 100
	SlotsMinBet = 10
	SlotsMaxBet = 1500

	SlotsCooldown = 5 * time.Second

	AddictRushDuration = 5 * time.Minute
)

// Market policy
const (
	MarketTaxRate  = 0.05
	MarketMinPrice = 1
	MarketMaxPrice = 10000

	// Markup applied over the trimmed mean of player prices when a vendor
	// derives a price from the market.
	VendorPriceMarkup = 1.15
	VendorListingCap  = 3

	LootboxListingCap = 5
)

// Smelting
const (
	SmeltTimePerItem    = 30 * time.Second
	SmeltCoalCostPerOre = 1
)

// Zeal decay
const (
	ZealDecayWindow = 10 * time.Minute
)

// Clans
const (
	ClanMemberLimit     = 10
	ClanJoinCooldown    = 1 * time.Hour
	ClanWarDuration     = 7 * 24 * time.Hour
	ClanCodeLength      = 5
	ClanNameMinLen      = 3
	ClanNameMaxLen      = 24
	ClanWarPointsPerAct = 1
	ClanWarPodiumSize   = 3
)

// Scheduler tick intervals
const (
	ZealDecayTickInterval   = 1 * time.Minute
	VendorTickInterval      = 1 * time.Minute
	LootboxTickInterval     = 1 * time.Minute
	SmeltingSweepInterval   = 5 * time.Second
	EventTickInterval       = 5 * time.Minute
	ClanWarTickInterval     = 1 * time.Minute
	GridTickInterval        = 1 * time.Hour
	PriceCorrectionInterval = 6 * time.Hour

	EventStartChance   = 0.15
	LootboxClearChance = 0.25
	TowerSurgeChance   = 0.10
	BasketBonusChance  = 0.50
)

// Timeouts
const (
	DefaultQueryTimeout     = 30 * time.Second
	CommandExecutionTimeout = 10 * time.Second
	SchedulerTaskTimeout    = 2 * time.Minute
	ShutdownTimeout         = 15 * time.Second
	VerificationTTL         = 5 * time.Minute
)

// Pagination
const (
	LinesPerPage        = 10
	PaginationCacheSize = 512
	LeaderboardSize     = 50
)

// Display names
const (
	DisplayNameMinLen = 3
	DisplayNameMaxLen = 16
)
