package actions

import (
	"context"
	"fmt"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
)

// GridStatus is a snapshot of an account's power grid.
type GridStatus struct {
	Slots       []string
	Generation  int64
	Consumption int64
	BitsPerTick int64
	Online      bool
}

func gridStatus(account *models.Account) *GridStatus {
	gen, use, bits := game.GridPower(account.PowerGrid.Slots)
	return &GridStatus{
		Slots:       account.PowerGrid.Slots,
		Generation:  gen,
		Consumption: use,
		BitsPerTick: bits,
		Online:      gen >= use,
	}
}

// Grid returns the current grid layout and power budget.
func (s *Service) Grid(account *models.Account) *GridStatus {
	return gridStatus(account)
}

// PlaceBuilding installs an owned building into an empty grid slot. The item
// leaves the inventory while placed and comes back on removal.
func (s *Service) PlaceBuilding(ctx context.Context, account *models.Account, buildingID string, slot int) (*GridStatus, error) {
	if _, ok := game.Buildings[buildingID]; !ok {
		return nil, fmt.Errorf("unknown building %q", buildingID)
	}
	if slot < 0 || slot >= game.GridSlots {
		return nil, fmt.Errorf("grid slots run from 1 to %d", game.GridSlots)
	}
	if account.PowerGrid.Slots[slot] != "" {
		return nil, fmt.Errorf("slot %d is occupied by %s", slot+1, game.Items[account.PowerGrid.Slots[slot]].Name)
	}

	if err := s.accounts.DebitItem(ctx, account.ID, buildingID, 1); err != nil {
		return nil, err
	}
	grid := account.PowerGrid
	grid.Slots = append([]string(nil), grid.Slots...)
	grid.Slots[slot] = buildingID
	if err := s.accounts.SetPowerGrid(ctx, account.ID, grid); err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, buildingID, 1)
		return nil, err
	}
	account.PowerGrid = grid
	return gridStatus(account), nil
}

// RemoveBuilding clears a grid slot and returns the building to inventory.
func (s *Service) RemoveBuilding(ctx context.Context, account *models.Account, slot int) (*GridStatus, error) {
	if slot < 0 || slot >= game.GridSlots {
		return nil, fmt.Errorf("grid slots run from 1 to %d", game.GridSlots)
	}
	buildingID := account.PowerGrid.Slots[slot]
	if buildingID == "" {
		return nil, fmt.Errorf("slot %d is already empty", slot+1)
	}

	grid := account.PowerGrid
	grid.Slots = append([]string(nil), grid.Slots...)
	grid.Slots[slot] = ""
	if err := s.accounts.SetPowerGrid(ctx, account.ID, grid); err != nil {
		return nil, err
	}
	account.PowerGrid = grid
	if err := s.accounts.CreditItem(ctx, account.ID, buildingID, 1); err != nil {
		return nil, fmt.Errorf("returning %s to inventory: %w", buildingID, err)
	}
	return gridStatus(account), nil
}
