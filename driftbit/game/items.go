// Package game holds the closed content registries: items, traits, buildings,
// gather tables, lootboxes, global events, vendors and the clan ladder. All
// lookups go through id->definition maps built at init so gameplay code can
// dispatch exhaustively instead of probing free-form strings.
package game

import "time"

type ItemType string

const (
	ItemTypeResource ItemType = "resource"
	ItemTypeTool     ItemType = "tool"
	ItemTypeFood     ItemType = "food"
	ItemTypeBuilding ItemType = "building"
	ItemTypeSpecial  ItemType = "special"
)

// BuffEffects are the time-limited modifiers granted by consuming a food item.
type BuffEffects struct {
	WorkBonusPercent        float64       `json:"work_bonus_percent,omitempty"`
	WorkCooldownReduction   time.Duration `json:"work_cooldown_reduction,omitempty"`
	GatherCooldownReduction time.Duration `json:"gather_cooldown_reduction,omitempty"`
	WorkDoubleOrNothing     bool          `json:"work_double_or_nothing,omitempty"`
}

// ToolEffects are passive bonuses applied per owned copy of a tool.
type ToolEffects struct {
	WorkBonusFlat    int64
	WorkBonusPercent float64
}

type Buff struct {
	Duration time.Duration
	Effects  BuffEffects
}

type Item struct {
	ID          string
	Name        string
	Type        ItemType
	Description string
	Tool        *ToolEffects
	Buff        *Buff
	Recipe      map[string]int64 // nil when not craftable
}

func (i Item) Craftable() bool { return len(i.Recipe) > 0 }

const (
	ItemTraitReforger    = "trait_reforger"
	ItemIronOre          = "iron_ore"
	ItemCopperOre        = "copper_ore"
	ItemWood             = "wood"
	ItemStone            = "stone"
	ItemCoal             = "coal"
	ItemRawCrystal       = "raw_crystal"
	ItemIronIngot        = "iron_ingot"
	ItemCopperIngot      = "copper_ingot"
	ItemCopperWire       = "copper_wire"
	ItemIronStick        = "iron_stick"
	ItemBasicPickaxe     = "basic_pickaxe"
	ItemSturdyPickaxe    = "sturdy_pickaxe"
	ItemIronPickaxe      = "iron_pickaxe"
	ItemCrystalPickaxe   = "crystal_pickaxe"
	ItemGatheringBasket  = "gathering_basket"
	ItemSmelter          = "smelter"
	ItemWildBerries      = "wild_berries"
	ItemGlowMushroom     = "glow_mushroom"
	ItemRawMeat          = "raw_meat"
	ItemSmokedMeat       = "smoked_meat"
	ItemSpicyPepper      = "spicy_pepper"
	ItemCratesMiners     = "miners_crate"
	ItemCratesBuilders   = "builders_crate"
	ItemCratesGamblers   = "gamblers_crate"
	ItemCratesCrystal    = "crystal_crate"
	ItemCratesDNA        = "dna_crate"
)

// Items is the full item registry. Buildings are appended at init so they can
// be crafted and held in inventory like any other item.
var Items = map[string]Item{
	ItemTraitReforger: {
		ID: ItemTraitReforger, Name: "Trait Reforger", Type: ItemTypeSpecial,
		Description: "A mysterious artifact that allows you to reshape your innate abilities.",
	},
	ItemIronOre:     {ID: ItemIronOre, Name: "Iron Ore", Type: ItemTypeResource},
	ItemCopperOre:   {ID: ItemCopperOre, Name: "Copper Ore", Type: ItemTypeResource},
	ItemWood:        {ID: ItemWood, Name: "Wood", Type: ItemTypeResource},
	ItemStone:       {ID: ItemStone, Name: "Stone", Type: ItemTypeResource},
	ItemCoal:        {ID: ItemCoal, Name: "Coal", Type: ItemTypeResource},
	ItemRawCrystal:  {ID: ItemRawCrystal, Name: "Raw Crystal", Type: ItemTypeResource},
	ItemIronIngot:   {ID: ItemIronIngot, Name: "Iron Ingot", Type: ItemTypeResource},
	ItemCopperIngot: {ID: ItemCopperIngot, Name: "Copper Ingot", Type: ItemTypeResource},
	ItemCopperWire: {
		ID: ItemCopperWire, Name: "Copper Wire", Type: ItemTypeResource,
		Recipe: map[string]int64{ItemCopperIngot: 1},
	},
	ItemIronStick: {
		ID: ItemIronStick, Name: "Iron Stick", Type: ItemTypeResource,
		Recipe: map[string]int64{ItemIronIngot: 2},
	},
	ItemBasicPickaxe: {
		ID: ItemBasicPickaxe, Name: "Basic Pickaxe", Type: ItemTypeTool,
		Tool:   &ToolEffects{WorkBonusFlat: 1},
		Recipe: map[string]int64{ItemStone: 5, ItemWood: 2},
	},
	ItemSturdyPickaxe: {
		ID: ItemSturdyPickaxe, Name: "Sturdy Pickaxe", Type: ItemTypeTool,
		Tool:   &ToolEffects{WorkBonusPercent: 10},
		Recipe: map[string]int64{ItemIronOre: 10, ItemWood: 3, ItemCoal: 2},
	},
	ItemIronPickaxe: {
		ID: ItemIronPickaxe, Name: "Iron Pickaxe", Type: ItemTypeTool,
		Tool:   &ToolEffects{WorkBonusFlat: 5},
		Recipe: map[string]int64{ItemIronIngot: 5, ItemWood: 2},
	},
	ItemCrystalPickaxe: {
		ID: ItemCrystalPickaxe, Name: "Crystal Pickaxe", Type: ItemTypeTool,
		Tool:   &ToolEffects{WorkBonusPercent: 30},
		Recipe: map[string]int64{ItemSturdyPickaxe: 1, ItemRawCrystal: 3, ItemIronOre: 5},
	},
	ItemGatheringBasket: {
		ID: ItemGatheringBasket, Name: "Gathering Basket", Type: ItemTypeTool,
		Recipe: map[string]int64{ItemWood: 15, ItemStone: 5},
	},
	ItemSmelter: {
		ID: ItemSmelter, Name: "Smelter", Type: ItemTypeTool,
		Recipe: map[string]int64{ItemStone: 9},
	},
	ItemWildBerries: {
		ID: ItemWildBerries, Name: "Wild Berries", Type: ItemTypeFood,
		Buff: &Buff{Duration: 5 * time.Minute, Effects: BuffEffects{GatherCooldownReduction: 10 * time.Second}},
	},
	ItemGlowMushroom: {
		ID: ItemGlowMushroom, Name: "Glow Mushroom", Type: ItemTypeFood,
		Buff: &Buff{Duration: 10 * time.Minute, Effects: BuffEffects{GatherCooldownReduction: 5 * time.Second}},
	},
	ItemRawMeat: {ID: ItemRawMeat, Name: "Raw Meat", Type: ItemTypeFood},
	ItemSmokedMeat: {
		ID: ItemSmokedMeat, Name: "Smoked Meat", Type: ItemTypeFood,
		Buff: &Buff{Duration: 5 * time.Minute, Effects: BuffEffects{WorkCooldownReduction: 15 * time.Second}},
	},
	ItemSpicyPepper: {
		ID: ItemSpicyPepper, Name: "Spicy Pepper", Type: ItemTypeFood,
		Buff: &Buff{Duration: 3 * time.Minute, Effects: BuffEffects{WorkDoubleOrNothing: true}},
	},
}

// SmeltableOres maps an ore to the ingot a smelter produces from it.
var SmeltableOres = map[string]string{
	ItemIronOre:   ItemIronIngot,
	ItemCopperOre: ItemCopperIngot,
}

// CookableFoods maps a raw food to its cooked form.
var CookableFoods = map[string]string{
	ItemRawMeat: ItemSmokedMeat,
}

func init() {
	for id, b := range Buildings {
		Items[id] = Item{
			ID:     id,
			Name:   b.Name,
			Type:   ItemTypeBuilding,
			Recipe: b.Recipe,
		}
	}
}
