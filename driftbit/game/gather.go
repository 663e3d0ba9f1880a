package game

// GatherEntry describes one independently rolled find from a gather action.
type GatherEntry struct {
	ItemID     string
	BaseChance float64
	MinQty     int64
	MaxQty     int64
}

// GatherTable lists everything a gather can turn up. Each entry rolls on its
// own; the number of distinct finds per action is capped by the caller.
var GatherTable = []GatherEntry{
	{ItemID: ItemIronOre, BaseChance: 0.60, MinQty: 1, MaxQty: 3},
	{ItemID: ItemCopperOre, BaseChance: 0.40, MinQty: 1, MaxQty: 2},
	{ItemID: ItemStone, BaseChance: 0.70, MinQty: 2, MaxQty: 5},
	{ItemID: ItemWood, BaseChance: 0.50, MinQty: 1, MaxQty: 4},
	{ItemID: ItemCoal, BaseChance: 0.30, MinQty: 1, MaxQty: 2},
	{ItemID: ItemRawCrystal, BaseChance: 0.05, MinQty: 1, MaxQty: 1},
	{ItemID: ItemWildBerries, BaseChance: 0.15, MinQty: 1, MaxQty: 1},
	{ItemID: ItemGlowMushroom, BaseChance: 0.10, MinQty: 1, MaxQty: 1},
	{ItemID: ItemRawMeat, BaseChance: 0.20, MinQty: 1, MaxQty: 1},
	{ItemID: ItemSpicyPepper, BaseChance: 0.03, MinQty: 1, MaxQty: 1},
	{ItemID: ItemTraitReforger, BaseChance: 0.015, MinQty: 1, MaxQty: 1},
}
