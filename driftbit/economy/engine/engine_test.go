package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories/memory"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

func newTestEngine() (*Engine, *memory.AccountStore) {
	store := memory.NewAccountStore()
	return New(store, reward.NewEngine(reward.NewSeededSource(1)), nil), store
}

func TestGetOrCreateProvisionsLazily(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine()

	account, err := e.GetOrCreate(ctx, "Rook", "Rook", "")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if account.ID != "rook" {
		t.Errorf("id = %q, want lowercased rook", account.ID)
	}
	if account.Balance != config.StartingBalance {
		t.Errorf("balance = %d, want %d", account.Balance, config.StartingBalance)
	}
	if len(account.TraitSlots) != game.TraitSlotCount {
		t.Errorf("trait slots = %d, want %d", len(account.TraitSlots), game.TraitSlotCount)
	}
	if len(account.PowerGrid.Slots) != game.GridSlots {
		t.Errorf("grid slots = %d, want %d", len(account.PowerGrid.Slots), game.GridSlots)
	}

	// A second call returns the existing record, not a fresh roll.
	again, err := e.GetOrCreate(ctx, "rook", "Rook", "")
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if again.Balance != account.Balance || len(again.TraitSlots) != len(account.TraitSlots) {
		t.Error("second GetOrCreate did not return the existing account")
	}
}

func TestLoadHealsLegacyRecord(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()

	legacy := &models.Account{
		ID:        "old",
		Balance:   10,
		CreatedAt: time.Now(),
		TraitSlots: []models.TraitSlot{
			{TraitID: "removed_trait", Level: 3},
			{TraitID: game.TraitWealth, Level: 2},
		},
	}
	if err := store.Create(ctx, legacy); err != nil {
		t.Fatalf("seed: %v", err)
	}

	account, err := e.Load(ctx, "old")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(account.PowerGrid.Slots) != game.GridSlots {
		t.Errorf("grid not healed: %v", account.PowerGrid.Slots)
	}
	if len(account.TraitSlots) != 1 || account.TraitSlots[0].TraitID != game.TraitWealth {
		t.Errorf("traits not healed: %+v", account.TraitSlots)
	}

	// The heal persisted: a raw read shows the repaired shape.
	stored, err := store.GetByID(ctx, "old")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(stored.PowerGrid.Slots) != game.GridSlots {
		t.Error("healed record was not written back")
	}
}

func TestApplySpendGuards(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()
	store.Create(ctx, &models.Account{ID: "a", Balance: 50, CreatedAt: time.Now()})

	if err := e.ApplySpend(ctx, "a", 60); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("overspend error = %v, want ErrInsufficientFunds", err)
	}
	if balance, _ := store.GetBalance(ctx, "a"); balance != 50 {
		t.Errorf("balance changed on failed spend: %d", balance)
	}

	if err := e.ApplySpend(ctx, "a", 50); err != nil {
		t.Fatalf("exact spend failed: %v", err)
	}
	if balance, _ := store.GetBalance(ctx, "a"); balance != 0 {
		t.Errorf("balance = %d, want 0", balance)
	}

	if err := e.ApplySpend(ctx, "a", 0); err == nil {
		t.Error("zero spend accepted")
	}
}

func TestTransferRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()
	store.Create(ctx, &models.Account{ID: "a", Balance: 100, CreatedAt: time.Now()})
	store.Create(ctx, &models.Account{ID: "b", Balance: 40, CreatedAt: time.Now()})

	if err := e.TransferBalance(ctx, "a", "b", 30); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := e.TransferBalance(ctx, "b", "a", 30); err != nil {
		t.Fatalf("inverse transfer: %v", err)
	}

	balA, _ := store.GetBalance(ctx, "a")
	balB, _ := store.GetBalance(ctx, "b")
	if balA != 100 || balB != 40 {
		t.Errorf("round trip leaked: a=%d b=%d, want 100/40", balA, balB)
	}
}

func TestTransferRejectsSelf(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()
	store.Create(ctx, &models.Account{ID: "a", Balance: 100, CreatedAt: time.Now()})

	if err := e.TransferBalance(ctx, "a", "A", 10); err == nil {
		t.Fatal("self transfer accepted")
	}
	if balance, _ := store.GetBalance(ctx, "a"); balance != 100 {
		t.Errorf("balance changed on rejected transfer: %d", balance)
	}
}

func TestTransferRefundsFailedCredit(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()
	store.Create(ctx, &models.Account{ID: "a", Balance: 100, CreatedAt: time.Now()})

	if err := e.TransferBalance(ctx, "a", "ghost", 30); err == nil {
		t.Fatal("transfer to missing recipient accepted")
	}
	if balance, _ := store.GetBalance(ctx, "a"); balance != 100 {
		t.Errorf("debit not refunded after failed credit: %d", balance)
	}
}

func TestTransferCorruptBalanceRefused(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine()
	store.Create(ctx, &models.Account{ID: "a", CreatedAt: time.Now()})
	store.Create(ctx, &models.Account{ID: "b", CreatedAt: time.Now()})

	corrupt, _ := store.GetByID(ctx, "a")
	corrupt.Balance = -5
	store.Update(ctx, corrupt)

	err := e.TransferBalance(ctx, "a", "b", 1)
	if !errors.Is(err, economy.ErrCorruptBalance) {
		t.Fatalf("error = %v, want ErrCorruptBalance", err)
	}
}

func TestFoldAccounts(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	early := now.Add(-48 * time.Hour)
	recent := now.Add(-time.Minute)
	old := now.Add(-time.Hour)

	primary := &models.Account{
		ID:          "game_name",
		GameName:    "game_name",
		Balance:     100,
		DailyStreak: 2,
		LastWork:    &old,
		CreatedAt:   now,
		TraitSlots:  []models.TraitSlot{{TraitID: game.TraitWealth, Level: 1}},
	}
	secondary := &models.Account{
		ID:          "1234",
		DiscordID:   "1234",
		Balance:     50,
		DailyStreak: 7,
		LastWork:    &recent,
		CreatedAt:   early,
		SmeltJob:    &models.SmeltJob{ResultItemID: game.ItemIronIngot, Quantity: 3, FinishesAt: now.Add(time.Minute)},
		Zeal:        models.Zeal{Stacks: 5, LastAction: recent},
	}

	if err := foldAccounts(primary, secondary, now); err != nil {
		t.Fatalf("foldAccounts: %v", err)
	}

	if primary.Balance != 150 {
		t.Errorf("balance = %d, want 150", primary.Balance)
	}
	if primary.DiscordID != "1234" {
		t.Errorf("discord id not absorbed: %q", primary.DiscordID)
	}
	if primary.DailyStreak != 7 {
		t.Errorf("streak = %d, want the longer 7", primary.DailyStreak)
	}
	if !primary.LastWork.Equal(recent) {
		t.Errorf("cooldown stamp = %v, want the most recent", primary.LastWork)
	}
	if primary.SmeltJob == nil || primary.SmeltJob.Quantity != 3 {
		t.Errorf("smelt job not carried over: %+v", primary.SmeltJob)
	}
	if primary.Zeal.Stacks != 5 {
		t.Errorf("zeal = %d, want max 5", primary.Zeal.Stacks)
	}
	if len(primary.TraitSlots) != 1 || primary.TraitSlots[0].TraitID != game.TraitWealth {
		t.Errorf("primary traits replaced: %+v", primary.TraitSlots)
	}
	if !primary.CreatedAt.Equal(early) {
		t.Errorf("created_at = %v, want earliest %v", primary.CreatedAt, early)
	}
}

func TestFoldAccountsConflicts(t *testing.T) {
	now := time.Now()
	job := &models.SmeltJob{ResultItemID: game.ItemIronIngot, Quantity: 1, FinishesAt: now}

	tests := []struct {
		name      string
		primary   *models.Account
		secondary *models.Account
	}{
		{
			"both smelting",
			&models.Account{ID: "a", SmeltJob: job},
			&models.Account{ID: "b", SmeltJob: job},
		},
		{
			"corrupt primary balance",
			&models.Account{ID: "a", Balance: -1},
			&models.Account{ID: "b"},
		},
		{
			"corrupt secondary balance",
			&models.Account{ID: "a"},
			&models.Account{ID: "b", Balance: -10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := foldAccounts(tt.primary, tt.secondary, now)
			var conflict *economy.MergeConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("error = %v, want MergeConflictError", err)
			}
		})
	}
}
