// Package engine applies resolved action outcomes to the ledger as guarded
// conditional updates, and owns the retry/abort/refund protocol when a
// guarded write loses a race.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/uptrace/bun"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/compat"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

type Engine struct {
	accounts repositories.AccountRepository
	rewards  *reward.Engine
	tx       *TxManager
}

func New(accounts repositories.AccountRepository, rewards *reward.Engine, tx *TxManager) *Engine {
	return &Engine{accounts: accounts, rewards: rewards, tx: tx}
}

// GetOrCreate loads an account by id, provisioning it lazily on first
// reference with the starting balance and two rolled traits.
func (e *Engine) GetOrCreate(ctx context.Context, id, displayName, discordID string) (*models.Account, error) {
	account, err := e.Load(ctx, id)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, economy.ErrNotFound) {
		return nil, err
	}

	rolled, err := e.rewards.RollTraits()
	if err != nil {
		return nil, fmt.Errorf("failed to roll traits: %w", err)
	}
	slots := make([]models.TraitSlot, len(rolled))
	for i, r := range rolled {
		slots[i] = models.TraitSlot{TraitID: r.TraitID, Level: r.Level}
	}

	account = &models.Account{
		ID:          strings.ToLower(id),
		DisplayName: displayName,
		DiscordID:   discordID,
		Balance:     config.StartingBalance,
		TraitSlots:  slots,
		PowerGrid:   models.PowerGrid{Slots: make([]string, game.GridSlots)},
		CreatedAt:   time.Now(),
		Inventory:   map[string]int64{},
	}
	if discordID != "" && id == discordID {
		// Discord-born accounts key on the snowflake directly.
		account.ID = discordID
	}

	if err := e.accounts.Create(ctx, account); err != nil {
		// A concurrent first reference may have won the insert.
		if existing, getErr := e.Load(ctx, account.ID); getErr == nil {
			return existing, nil
		}
		return nil, err
	}

	slog.Info("Account created",
		slog.String("type", "db"),
		slog.String("account_id", account.ID),
		slog.String("traits", fmt.Sprintf("%s/%s", slots[0].TraitID, slots[1].TraitID)))
	return account, nil
}

// GetOrCreateGame loads or provisions a game-born account, which keys on its
// lowercased in-game name. Game names have priority: a Discord-born account
// squatting the name as a display name loses it and is flagged so the owner
// gets told to pick a new one. Reports whether the account was just created.
func (e *Engine) GetOrCreateGame(ctx context.Context, name string) (*models.Account, bool, error) {
	existing, err := e.LoadByName(ctx, name)
	if err == nil {
		if existing.GameName != "" {
			return existing, false, nil
		}
		existing.DisplayName = ""
		existing.WasBumped = true
		if err := e.accounts.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("failed to bump display name: %w", err)
		}
		slog.Info("Display name bumped",
			slog.String("type", "economy"),
			slog.String("name", name),
			slog.String("account_id", existing.ID))
	} else if !errors.Is(err, economy.ErrNotFound) {
		return nil, false, err
	}

	rolled, err := e.rewards.RollTraits()
	if err != nil {
		return nil, false, fmt.Errorf("failed to roll traits: %w", err)
	}
	slots := make([]models.TraitSlot, len(rolled))
	for i, r := range rolled {
		slots[i] = models.TraitSlot{TraitID: r.TraitID, Level: r.Level}
	}

	account := &models.Account{
		ID:         strings.ToLower(name),
		GameName:   name,
		Balance:    config.StartingBalance,
		TraitSlots: slots,
		PowerGrid:  models.PowerGrid{Slots: make([]string, game.GridSlots)},
		CreatedAt:  time.Now(),
		Inventory:  map[string]int64{},
	}
	if err := e.accounts.Create(ctx, account); err != nil {
		if won, getErr := e.Load(ctx, account.ID); getErr == nil {
			return won, false, nil
		}
		return nil, false, err
	}

	slog.Info("Account created",
		slog.String("type", "db"),
		slog.String("account_id", account.ID),
		slog.String("traits", fmt.Sprintf("%s/%s", slots[0].TraitID, slots[1].TraitID)))
	return account, true, nil
}

// Load fetches an account, self-heals legacy shapes, and attaches the
// inventory projection. Healed records are written back immediately.
func (e *Engine) Load(ctx context.Context, id string) (*models.Account, error) {
	account, err := e.accounts.GetByID(ctx, strings.ToLower(id))
	if err != nil {
		return nil, err
	}
	if compat.Normalize(account, time.Now()) {
		if err := e.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to persist healed account: %w", err)
		}
	}

	items, err := e.accounts.Items(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.Inventory = make(map[string]int64, len(items))
	for _, item := range items {
		account.Inventory[item.ItemID] = item.Quantity
	}
	return account, nil
}

// LoadByName resolves an account through its lowercased name.
func (e *Engine) LoadByName(ctx context.Context, name string) (*models.Account, error) {
	account, err := e.accounts.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return e.Load(ctx, account.ID)
}

// CheckBalance guards against corrupt records before any operation that
// would build on the stored value.
func (e *Engine) CheckBalance(ctx context.Context, id string) (int64, error) {
	balance, err := e.accounts.GetBalance(ctx, id)
	if err != nil {
		return 0, err
	}
	if balance < 0 {
		return balance, economy.ErrCorruptBalance
	}
	return balance, nil
}

// ApplyEarnings credits a non-negative amount.
func (e *Engine) ApplyEarnings(ctx context.Context, id string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("earnings must be non-negative, got %d", amount)
	}
	if amount == 0 {
		return nil
	}
	return e.accounts.CreditBalance(ctx, id, amount)
}

// ApplySpend debits with a sufficiency guard. The debit either applies in
// full or reports economy.ErrInsufficientFunds, never partially.
func (e *Engine) ApplySpend(ctx context.Context, id string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("spend must be positive, got %d", amount)
	}
	return e.accounts.DebitBalance(ctx, id, amount)
}

// TransferBalance moves bits between two distinct accounts. The debit leg is
// guarded; the credit leg runs only after the debit succeeds, and a failed
// credit refunds the debit so neither side observes a half-applied pair.
func (e *Engine) TransferBalance(ctx context.Context, fromID, toID string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %d", amount)
	}
	if strings.EqualFold(fromID, toID) {
		return fmt.Errorf("cannot transfer to the same account")
	}

	if _, err := e.CheckBalance(ctx, fromID); err != nil {
		return err
	}

	if err := e.accounts.DebitBalance(ctx, fromID, amount); err != nil {
		return err
	}
	if err := e.accounts.CreditBalance(ctx, toID, amount); err != nil {
		if refundErr := e.accounts.CreditBalance(ctx, fromID, amount); refundErr != nil {
			slog.Error("Transfer refund failed; ledger needs manual repair",
				slog.String("type", "db"),
				slog.String("from", fromID),
				slog.String("to", toID),
				slog.Int64("amount", amount),
				slog.Any("error", refundErr))
		}
		return fmt.Errorf("credit leg failed: %w", err)
	}
	return nil
}

// MergeAccounts fuses two aliases of the same identity into the primary
// record. The whole unit is serializable and all-or-nothing: any unsafe
// condition aborts with a typed MergeConflictError and no partial write.
func (e *Engine) MergeAccounts(ctx context.Context, primaryID, secondaryID string) error {
	primaryID = strings.ToLower(primaryID)
	secondaryID = strings.ToLower(secondaryID)
	if primaryID == secondaryID {
		return &economy.MergeConflictError{Reason: "both aliases resolve to the same record"}
	}

	return e.tx.WithTransaction(ctx, SerializableTransactionOptions(), func(ctx context.Context, tx bun.Tx) error {
		primary, err := lockAccount(ctx, tx, primaryID)
		if err != nil {
			return err
		}
		secondary, err := lockAccount(ctx, tx, secondaryID)
		if err != nil {
			return err
		}

		if err := foldAccounts(primary, secondary, time.Now()); err != nil {
			return err
		}

		// Inventory rows move under the primary key, summing collisions.
		if _, err := tx.NewRaw(`
			INSERT INTO account_items (account_id, item_id, quantity)
			SELECT ?, item_id, quantity FROM account_items WHERE account_id = ?
			ON CONFLICT (account_id, item_id) DO UPDATE SET quantity = account_items.quantity + EXCLUDED.quantity
		`, primary.ID, secondary.ID).Exec(ctx); err != nil {
			return fmt.Errorf("failed to fold inventory: %w", err)
		}
		if _, err := tx.NewDelete().
			Model((*models.AccountItem)(nil)).
			Where("account_id = ?", secondary.ID).
			Exec(ctx); err != nil {
			return err
		}

		// Open listings and clan ownership follow the surviving identity.
		if _, err := tx.NewUpdate().
			Model((*models.MarketListing)(nil)).
			Set("seller_id = ?", primary.ID).
			Set("seller_name = ?", primary.Name()).
			Where("seller_id = ?", secondary.ID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewUpdate().
			Model((*models.Clan)(nil)).
			Set("owner_id = ?", primary.ID).
			Where("owner_id = ?", secondary.ID).
			Exec(ctx); err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*models.Account)(nil)).
			Where("id = ?", secondary.ID).
			Exec(ctx); err != nil {
			return err
		}

		primary.NameLower = strings.ToLower(primary.Name())
		if _, err := tx.NewUpdate().
			Model(primary).
			WherePK().
			Exec(ctx); err != nil {
			return err
		}

		slog.Info("Accounts merged",
			slog.String("type", "db"),
			slog.String("primary", primary.ID),
			slog.String("secondary", secondary.ID),
			slog.Int64("combined_balance", primary.Balance))
		return nil
	})
}

func lockAccount(ctx context.Context, tx bun.Tx, id string) (*models.Account, error) {
	account := new(models.Account)
	err := tx.NewSelect().
		Model(account).
		Where("id = ?", id).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to lock account %s: %w", id, err)
	}
	return account, nil
}

// foldAccounts combines the secondary record into the primary in memory,
// or reports the typed reason automatic merging is unsafe.
func foldAccounts(primary, secondary *models.Account, now time.Time) error {
	if primary.SmeltJob != nil && secondary.SmeltJob != nil {
		return &economy.MergeConflictError{Reason: "both accounts have a smelting job in progress"}
	}
	if primary.Balance < 0 || secondary.Balance < 0 {
		return &economy.MergeConflictError{Reason: "an account balance is corrupt"}
	}

	primary.Balance += secondary.Balance

	if primary.GameName == "" {
		primary.GameName = secondary.GameName
	}
	if primary.DiscordID == "" {
		primary.DiscordID = secondary.DiscordID
	}
	if primary.DisplayName == "" {
		primary.DisplayName = secondary.DisplayName
	}

	if secondary.SmeltJob != nil {
		primary.SmeltJob = secondary.SmeltJob
	}

	// Whichever streak ran longer survives; cooldowns take the most recent
	// stamp so the merge can never be used to dodge a gate.
	if secondary.DailyStreak > primary.DailyStreak {
		primary.DailyStreak = secondary.DailyStreak
	}
	if secondary.HourlyStreak > primary.HourlyStreak {
		primary.HourlyStreak = secondary.HourlyStreak
	}
	primary.LastWork = latest(primary.LastWork, secondary.LastWork)
	primary.LastGather = latest(primary.LastGather, secondary.LastGather)
	primary.LastDaily = latest(primary.LastDaily, secondary.LastDaily)
	primary.LastHourly = latest(primary.LastHourly, secondary.LastHourly)
	primary.LastSlots = latest(primary.LastSlots, secondary.LastSlots)

	for _, b := range secondary.ActiveBuffs {
		if b.Active(now) {
			primary.ActiveBuffs = append(primary.ActiveBuffs, b)
		}
	}

	if secondary.Zeal.Stacks > primary.Zeal.Stacks {
		primary.Zeal = secondary.Zeal
	}

	// The primary keeps its trait set unless it never rolled one.
	if len(primary.TraitSlots) == 0 {
		primary.TraitSlots = secondary.TraitSlots
	}

	if primary.ClanID == 0 {
		primary.ClanID = secondary.ClanID
	}

	// Grid buildings survive from whichever side has more placed.
	if placedCount(secondary.PowerGrid.Slots) > placedCount(primary.PowerGrid.Slots) {
		primary.PowerGrid = secondary.PowerGrid
	}

	if secondary.CreatedAt.Before(primary.CreatedAt) && !secondary.CreatedAt.IsZero() {
		primary.CreatedAt = secondary.CreatedAt
	}
	return nil
}

func latest(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil || a.After(*b) {
		return a
	}
	return b
}

func placedCount(slots []string) int {
	n := 0
	for _, s := range slots {
		if s != "" {
			n++
		}
	}
	return n
}
