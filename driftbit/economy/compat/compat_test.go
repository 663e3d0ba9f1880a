package compat

import (
	"reflect"
	"testing"
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func legacyAccount() *models.Account {
	return &models.Account{
		ID:      "legacy",
		Balance: 100,
		TraitSlots: []models.TraitSlot{
			{TraitID: game.TraitWealth, Level: 9},   // over max
			{TraitID: "removed_trait", Level: 2},    // unknown
			{TraitID: game.TraitProdigy, Level: -1}, // under min
		},
		ActiveBuffs: []models.Buff{
			{ItemID: "a", ExpiresAt: now.Add(-time.Hour)},
			{ItemID: "b", ExpiresAt: now.Add(time.Hour)},
		},
		PowerGrid: models.PowerGrid{Slots: []string{"old_reactor"}},
		Zeal:      models.Zeal{Stacks: -3},
		ClanID:    -7,
		SmeltJob:  &models.SmeltJob{ResultItemID: game.ItemIronIngot, Quantity: 0},
	}
}

func TestNormalizeHealsLegacyRecord(t *testing.T) {
	account := legacyAccount()
	if !Normalize(account, now) {
		t.Fatal("expected changes on a legacy record")
	}

	if len(account.PowerGrid.Slots) != game.GridSlots {
		t.Errorf("grid slots = %d, want %d", len(account.PowerGrid.Slots), game.GridSlots)
	}
	if account.PowerGrid.Slots[0] != "" {
		t.Errorf("unknown building survived: %q", account.PowerGrid.Slots[0])
	}

	if len(account.TraitSlots) != 2 {
		t.Fatalf("trait slots = %d, want 2", len(account.TraitSlots))
	}
	if account.TraitSlots[0].Level != game.Traits[game.TraitWealth].MaxLevel {
		t.Errorf("over-max level not clamped: %d", account.TraitSlots[0].Level)
	}
	if account.TraitSlots[1].TraitID != game.TraitProdigy || account.TraitSlots[1].Level != 1 {
		t.Errorf("under-min level not clamped: %+v", account.TraitSlots[1])
	}

	if len(account.ActiveBuffs) != 1 || account.ActiveBuffs[0].ItemID != "b" {
		t.Errorf("expired buffs not pruned: %+v", account.ActiveBuffs)
	}

	if account.Zeal.Stacks != 0 {
		t.Errorf("negative zeal survived: %d", account.Zeal.Stacks)
	}
	if account.ClanID != 0 {
		t.Errorf("negative clan id survived: %d", account.ClanID)
	}
	if account.SmeltJob != nil {
		t.Errorf("empty smelt job survived: %+v", account.SmeltJob)
	}
	if account.CreatedAt.IsZero() {
		t.Error("created_at not backfilled")
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	once := legacyAccount()
	Normalize(once, now)

	twice := legacyAccount()
	Normalize(twice, now)
	if Normalize(twice, now) {
		t.Error("second pass reported changes")
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("double heal diverged:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestNormalizeCleanRecordUntouched(t *testing.T) {
	account := &models.Account{
		ID:        "clean",
		Balance:   50,
		CreatedAt: now,
		TraitSlots: []models.TraitSlot{
			{TraitID: game.TraitWealth, Level: 2},
			{TraitID: game.TraitZealot, Level: 1},
		},
		PowerGrid: models.PowerGrid{Slots: []string{"", game.BuildingSolarPanel, ""}},
	}
	if Normalize(account, now) {
		t.Error("clean record reported changes")
	}
}

func TestNormalizeShortTraitSetPreserved(t *testing.T) {
	// A record rolled before the second slot existed keeps its single
	// trait; the missing slot is filled elsewhere, not invented here.
	account := &models.Account{
		ID:         "short",
		CreatedAt:  now,
		TraitSlots: []models.TraitSlot{{TraitID: game.TraitWealth, Level: 1}},
		PowerGrid:  models.PowerGrid{Slots: make([]string, game.GridSlots)},
	}
	Normalize(account, now)
	if len(account.TraitSlots) != 1 {
		t.Errorf("short trait set altered: %+v", account.TraitSlots)
	}
}
