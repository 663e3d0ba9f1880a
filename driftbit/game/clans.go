package game

// ClanLevel is one rung of the clan ladder. Cost is the vault balance consumed
// by upgrading to this level from the previous one.
type ClanLevel struct {
	Level int
	Cost  int64
	Perks string
}

var ClanLevels = []ClanLevel{
	{Level: 1, Cost: 0, Perks: "Clan Creation"},
	{Level: 2, Cost: 500, Perks: "+5% Work Bonus"},
	{Level: 3, Cost: 1000, Perks: "+2.5% Momentum Chance"},
	{Level: 4, Cost: 3500, Perks: "Work Bonus increased to +10%"},
	{Level: 5, Cost: 7500, Perks: "Slots Max Bet Doubled"},
	{Level: 6, Cost: 15000, Perks: "+1 Abundance (bonus item from gathering)"},
	{Level: 7, Cost: 27000, Perks: "Momentum Chance increased to +5%"},
	{Level: 8, Cost: 40000, Perks: "Work Bonus increased to +15%"},
	{Level: 9, Cost: 70000, Perks: "Abundance increased to +2"},
	{Level: 10, Cost: 100000, Perks: "Abundance increased to +5"},
}

// ClanLevelAt returns the ladder entry for a level, or false past the top.
func ClanLevelAt(level int) (ClanLevel, bool) {
	for _, l := range ClanLevels {
		if l.Level == level {
			return l, true
		}
	}
	return ClanLevel{}, false
}

// Tiered passive bonuses unlocked by clan level, consumed by the modifier
// resolver. Thresholds follow the ladder perks above.
func ClanWorkBonusPercent(level int) float64 {
	switch {
	case level >= 8:
		return 15
	case level >= 4:
		return 10
	case level >= 2:
		return 5
	default:
		return 0
	}
}

func ClanMomentumChance(level int) float64 {
	switch {
	case level >= 7:
		return 5
	case level >= 3:
		return 2.5
	default:
		return 0
	}
}

func ClanAbundanceBonus(level int) int64 {
	switch {
	case level >= 10:
		return 5
	case level >= 9:
		return 2
	case level >= 6:
		return 1
	default:
		return 0
	}
}

func ClanDoublesSlotsCap(level int) bool { return level >= 5 }

// WarReward is the per-rank item payout distributed to every member of a
// placing clan when a war concludes.
type WarReward struct {
	ItemID   string
	Quantity int64
}

var ClanWarRewards = map[int][]WarReward{
	1: {{ItemID: ItemTraitReforger, Quantity: 5}, {ItemID: ItemCratesCrystal, Quantity: 3}},
	2: {{ItemID: ItemTraitReforger, Quantity: 3}, {ItemID: ItemCratesCrystal, Quantity: 1}},
	3: {{ItemID: ItemTraitReforger, Quantity: 1}},
}
