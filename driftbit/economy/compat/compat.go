// Package compat lazily upgrades older account records to the current shape
// on first read, so the schema can evolve without a migration window. The
// normalization is idempotent: a second pass over an already-healed record
// changes nothing.
package compat

import (
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
)

// Normalize repairs a loaded account in place and reports whether anything
// changed, so callers only write back when a heal actually happened.
func Normalize(account *models.Account, now time.Time) bool {
	changed := false

	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
		changed = true
	}

	// Records predating the grid feature carry no slots at all; records
	// from the two-slot era are extended.
	if len(account.PowerGrid.Slots) < game.GridSlots {
		slots := make([]string, game.GridSlots)
		copy(slots, account.PowerGrid.Slots)
		account.PowerGrid.Slots = slots
		changed = true
	}
	if len(account.PowerGrid.Slots) > game.GridSlots {
		account.PowerGrid.Slots = account.PowerGrid.Slots[:game.GridSlots]
		changed = true
	}

	// Unknown building ids from removed content become empty slots.
	for i, id := range account.PowerGrid.Slots {
		if id == "" {
			continue
		}
		if _, ok := game.Buildings[id]; !ok {
			account.PowerGrid.Slots[i] = ""
			changed = true
		}
	}

	// Trait slots: drop unknown traits, clamp levels, and leave short sets
	// alone (the caller rolls missing slots with the reward engine, which
	// is not reachable from a pure normalization).
	kept := account.TraitSlots[:0]
	for _, slot := range account.TraitSlots {
		trait, ok := game.Traits[slot.TraitID]
		if !ok {
			changed = true
			continue
		}
		if slot.Level < 1 {
			slot.Level = 1
			changed = true
		}
		if slot.Level > trait.MaxLevel {
			slot.Level = trait.MaxLevel
			changed = true
		}
		kept = append(kept, slot)
	}
	if len(kept) > game.TraitSlotCount {
		kept = kept[:game.TraitSlotCount]
		changed = true
	}
	account.TraitSlots = kept

	// Expired buffs are pruned on read rather than waiting for a sweep.
	if pruned := pruneBuffs(account, now); pruned {
		changed = true
	}

	if account.Zeal.Stacks < 0 {
		account.Zeal.Stacks = 0
		changed = true
	}
	if account.DailyStreak < 0 {
		account.DailyStreak = 0
		changed = true
	}
	if account.HourlyStreak < 0 {
		account.HourlyStreak = 0
		changed = true
	}
	if account.ClanID < 0 {
		account.ClanID = 0
		changed = true
	}

	if account.SmeltJob != nil && account.SmeltJob.Quantity <= 0 {
		account.SmeltJob = nil
		changed = true
	}

	return changed
}

func pruneBuffs(account *models.Account, now time.Time) bool {
	if len(account.ActiveBuffs) == 0 {
		return false
	}
	kept := account.ActiveBuffs[:0]
	for _, b := range account.ActiveBuffs {
		if b.Active(now) {
			kept = append(kept, b)
		}
	}
	if len(kept) == len(account.ActiveBuffs) {
		return false
	}
	account.ActiveBuffs = kept
	return true
}
