package game

// VendorStock is one line a vendor may list; Price of zero means the restock
// task derives a price from recent player listings.
type VendorStock struct {
	ItemID   string
	Quantity int64
	Price    int64
}

type Vendor struct {
	ID     string
	Name   string
	Chance float64 // per-tick probability of listing something
	Stock  []VendorStock
}

// NPCPrefix marks vendor seller ids so market queries can tell player listings
// from vendor listings.
const NPCPrefix = "NPC_"

const (
	VendorTerra     = "NPC_TERRA"
	VendorNexus     = "NPC_NEXUS"
	VendorBlackrock = "NPC_BLACKROCK"
	VendorJunk      = "NPC_JUNK"
	VendorCollector = "NPC_COLLECTOR"
)

var Vendors = []Vendor{
	{
		ID: VendorTerra, Name: "TerraNova Exports", Chance: 0.5,
		Stock: []VendorStock{{ItemID: ItemWood, Quantity: 20}, {ItemID: ItemStone, Quantity: 20}},
	},
	{
		ID: VendorNexus, Name: "Nexus Logistics", Chance: 0.3,
		Stock: []VendorStock{
			{ItemID: ItemBasicPickaxe, Quantity: 1, Price: 15},
			{ItemID: ItemSturdyPickaxe, Quantity: 1, Price: 75},
		},
	},
	{
		ID: VendorBlackrock, Name: "Blackrock Mining Co.", Chance: 0.4,
		Stock: []VendorStock{
			{ItemID: ItemCoal, Quantity: 15},
			{ItemID: ItemIronOre, Quantity: 10},
			{ItemID: ItemCopperOre, Quantity: 10},
		},
	},
	{
		ID: VendorJunk, Name: "Junk Peddler", Chance: 0.6,
		Stock: []VendorStock{{ItemID: ItemStone, Quantity: 5}, {ItemID: ItemWood, Quantity: 5}},
	},
}

// LootboxVendorName labels the crate shop vendor.
const LootboxVendorName = "The Collector"

// PriceRange bounds the static fallback price for vendor listings when no
// player listings exist to derive a market price from.
type PriceRange struct {
	Min int64
	Max int64
}

var FallbackPrices = map[string]PriceRange{
	ItemWood:       {Min: 1, Max: 5},
	ItemStone:      {Min: 1, Max: 5},
	ItemCoal:       {Min: 2, Max: 8},
	ItemIronOre:    {Min: 3, Max: 10},
	ItemCopperOre:  {Min: 4, Max: 12},
	ItemRawCrystal: {Min: 50, Max: 150},
	ItemRawMeat:    {Min: 2, Max: 6},
}

// DefaultFallbackPrice is used when an item has no entry in FallbackPrices.
var DefaultFallbackPrice = PriceRange{Min: 1, Max: 50}
