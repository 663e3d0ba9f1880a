package game

// LootboxRewardKind distinguishes item payouts from raw currency payouts.
type LootboxRewardKind string

const (
	LootboxRewardItem LootboxRewardKind = "item"
	LootboxRewardBits LootboxRewardKind = "bits"
)

// LootboxEntry is one weighted outcome of opening a crate. Quantity is drawn
// uniformly in [MinQty, MaxQty] after the entry is selected.
type LootboxEntry struct {
	Kind   LootboxRewardKind
	ItemID string
	MinQty int64
	MaxQty int64
	Weight int64
}

type Lootbox struct {
	ID       string
	Name     string
	Price    int64
	Contents []LootboxEntry
}

var Lootboxes = map[string]Lootbox{
	ItemCratesMiners: {
		ID: ItemCratesMiners, Name: "Miner's Crate", Price: 250,
		Contents: []LootboxEntry{
			{Kind: LootboxRewardItem, ItemID: ItemIronOre, MinQty: 10, MaxQty: 25, Weight: 40},
			{Kind: LootboxRewardItem, ItemID: ItemCopperOre, MinQty: 8, MaxQty: 20, Weight: 30},
			{Kind: LootboxRewardItem, ItemID: ItemCoal, MinQty: 15, MaxQty: 30, Weight: 20},
			{Kind: LootboxRewardItem, ItemID: ItemBasicPickaxe, MinQty: 1, MaxQty: 1, Weight: 9},
			{Kind: LootboxRewardItem, ItemID: ItemSturdyPickaxe, MinQty: 1, MaxQty: 1, Weight: 1},
		},
	},
	ItemCratesBuilders: {
		ID: ItemCratesBuilders, Name: "Builder's Crate", Price: 300,
		Contents: []LootboxEntry{
			{Kind: LootboxRewardItem, ItemID: ItemWood, MinQty: 20, MaxQty: 50, Weight: 50},
			{Kind: LootboxRewardItem, ItemID: ItemStone, MinQty: 20, MaxQty: 50, Weight: 45},
			{Kind: LootboxRewardItem, ItemID: ItemSmelter, MinQty: 1, MaxQty: 1, Weight: 5},
		},
	},
	ItemCratesGamblers: {
		ID: ItemCratesGamblers, Name: "Gambler's Crate", Price: 400,
		Contents: []LootboxEntry{
			{Kind: LootboxRewardBits, MinQty: 1, MaxQty: 200, Weight: 60},
			{Kind: LootboxRewardBits, MinQty: 201, MaxQty: 600, Weight: 35},
			{Kind: LootboxRewardBits, MinQty: 601, MaxQty: 1500, Weight: 5},
		},
	},
	ItemCratesCrystal: {
		ID: ItemCratesCrystal, Name: "Crystal Crate", Price: 500,
		Contents: []LootboxEntry{
			{Kind: LootboxRewardItem, ItemID: ItemRawCrystal, MinQty: 1, MaxQty: 3, Weight: 80},
			{Kind: LootboxRewardItem, ItemID: ItemRawCrystal, MinQty: 4, MaxQty: 8, Weight: 18},
			{Kind: LootboxRewardItem, ItemID: ItemCrystalPickaxe, MinQty: 1, MaxQty: 1, Weight: 2},
		},
	},
	ItemCratesDNA: {
		ID: ItemCratesDNA, Name: "DNA Crate", Price: 100,
		Contents: []LootboxEntry{
			{Kind: LootboxRewardItem, ItemID: ItemTraitReforger, MinQty: 2, MaxQty: 15, Weight: 100},
		},
	},
}

// LootboxOrder fixes iteration order for tests and vendor rotation.
var LootboxOrder = []string{
	ItemCratesMiners,
	ItemCratesBuilders,
	ItemCratesGamblers,
	ItemCratesCrystal,
	ItemCratesDNA,
}
