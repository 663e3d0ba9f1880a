package game

// Building is a placeable power-grid structure. Generation and consumption are
// abstract power per hour; BitsGeneration is passive currency paid out by the
// grid production tick while the grid is online (generation >= consumption).
type Building struct {
	ID             string
	Name           string
	Generation     int64
	Consumption    int64
	BitsGeneration int64
	Recipe         map[string]int64
}

const (
	BuildingSolarPanel = "solar_panel"
	BuildingAutoMiner  = "auto_miner"
	BuildingTower      = "tower"
)

var Buildings = map[string]Building{
	BuildingSolarPanel: {
		ID: BuildingSolarPanel, Name: "Solar Panel",
		Generation: 10,
		Recipe:     map[string]int64{ItemCopperWire: 9, ItemIronIngot: 4, ItemCopperIngot: 5},
	},
	BuildingAutoMiner: {
		ID: BuildingAutoMiner, Name: "Auto-Miner",
		Consumption: 15, BitsGeneration: 25,
		Recipe: map[string]int64{ItemCopperWire: 20, ItemIronStick: 5},
	},
	BuildingTower: {
		ID: BuildingTower, Name: "Tower",
		Consumption: 20,
		Recipe:      map[string]int64{ItemCopperWire: 30, ItemIronStick: 5, ItemRawCrystal: 5},
	},
}

// GridSlots is the fixed per-account grid size.
const GridSlots = 3

// GridPower sums generation and consumption over a set of placed building ids.
// Empty slots are represented by empty strings and skipped.
func GridPower(slots []string) (generation, consumption, bits int64) {
	for _, id := range slots {
		b, ok := Buildings[id]
		if !ok {
			continue
		}
		generation += b.Generation
		consumption += b.Consumption
		bits += b.BitsGeneration
	}
	return generation, consumption, bits
}

// GridOnline reports whether the grid produces at least as much power as it
// consumes.
func GridOnline(slots []string) bool {
	gen, use, _ := GridPower(slots)
	return gen >= use
}

// GridHasTower reports whether a tower is placed, which enables the surge
// bonus on work and gather.
func GridHasTower(slots []string) bool {
	for _, id := range slots {
		if id == BuildingTower {
			return true
		}
	}
	return false
}
