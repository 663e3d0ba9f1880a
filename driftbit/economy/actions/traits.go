package actions

import (
	"context"
	"fmt"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
)

// RerollResult holds the trait set drawn by a reforge.
type RerollResult struct {
	Previous []models.TraitSlot
	Rolled   []models.TraitSlot
}

// RerollTraits consumes one trait reforger and replaces the whole trait set
// with a fresh weighted draw. The old set is lost even when the new one is
// worse.
func (s *Service) RerollTraits(ctx context.Context, account *models.Account) (*RerollResult, error) {
	if err := s.accounts.DebitItem(ctx, account.ID, game.ItemTraitReforger, 1); err != nil {
		return nil, err
	}
	rolled, err := s.rewards.RollTraits()
	if err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, game.ItemTraitReforger, 1)
		return nil, fmt.Errorf("rolling traits: %w", err)
	}
	slots := make([]models.TraitSlot, len(rolled))
	for i, r := range rolled {
		slots[i] = models.TraitSlot{TraitID: r.TraitID, Level: r.Level}
	}
	if err := s.accounts.SetTraitSlots(ctx, account.ID, slots); err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, game.ItemTraitReforger, 1)
		return nil, err
	}
	res := &RerollResult{Previous: account.TraitSlots, Rolled: slots}
	account.TraitSlots = slots
	return res, nil
}
