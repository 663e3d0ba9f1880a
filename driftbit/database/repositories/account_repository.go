package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByName(ctx context.Context, name string) (*models.Account, error)
	GetByDiscordID(ctx context.Context, discordID string) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id string) error

	// DebitBalance subtracts amount only when the stored balance covers it.
	// Returns economy.ErrInsufficientFunds when the guard fails.
	DebitBalance(ctx context.Context, id string, amount int64) error
	CreditBalance(ctx context.Context, id string, amount int64) error
	GetBalance(ctx context.Context, id string) (int64, error)

	ItemQuantity(ctx context.Context, accountID, itemID string) (int64, error)
	Items(ctx context.Context, accountID string) ([]*models.AccountItem, error)
	CreditItem(ctx context.Context, accountID, itemID string, quantity int64) error
	// DebitItem removes quantity only when the stored quantity covers it.
	// Returns economy.ErrInsufficientItems when the guard fails.
	DebitItem(ctx context.Context, accountID, itemID string, quantity int64) error

	SetCooldown(ctx context.Context, id string, action models.ActionKind, at time.Time) error
	SetStreak(ctx context.Context, id string, action models.ActionKind, streak int64) error
	SetBuffs(ctx context.Context, id string, buffs []models.Buff) error
	SetZeal(ctx context.Context, id string, zeal models.Zeal) error
	SetTraitSlots(ctx context.Context, id string, slots []models.TraitSlot) error
	SetPowerGrid(ctx context.Context, id string, grid models.PowerGrid) error
	SetSmeltJob(ctx context.Context, id string, job *models.SmeltJob) error
	SetClan(ctx context.Context, id string, clanID int64, cooldownUntil *time.Time) error

	ByClan(ctx context.Context, clanID int64) ([]*models.Account, error)
	TopByBalance(ctx context.Context, limit int) ([]*models.Account, error)
	SmeltingDue(ctx context.Context, before time.Time) ([]*models.Account, error)
	WithGrids(ctx context.Context) ([]*models.Account, error)
	AllIDs(ctx context.Context) ([]string, error)
}

type accountRepository struct {
	db bun.IDB
}

func NewAccountRepository(db bun.IDB) AccountRepository {
	return &accountRepository{db: db}
}

// WithTx rebinds the repository onto an open transaction so guarded updates
// participate in the caller's atomicity.
func (r *accountRepository) WithTx(tx bun.Tx) AccountRepository {
	return &accountRepository{db: tx}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}
	account.NameLower = strings.ToLower(account.Name())
	_, err := r.db.NewInsert().Model(account).Exec(ctx)
	return err
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("name_lower = ?", strings.ToLower(name)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("discord_id = ?", discordID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	account.NameLower = strings.ToLower(account.Name())
	_, err := r.db.NewUpdate().
		Model(account).
		WherePK().
		Exec(ctx)
	return err
}

func (r *accountRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.NewDelete().
		Model((*models.AccountItem)(nil)).
		Where("account_id = ?", id).
		Exec(ctx); err != nil {
		return err
	}
	_, err := r.db.NewDelete().
		Model((*models.Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) DebitBalance(ctx context.Context, id string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit amount must be non-negative, got %d", amount)
	}
	result, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = balance - ?", amount).
		Where("id = ? AND balance >= ?", id, amount).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrInsufficientFunds
	}
	return nil
}

func (r *accountRepository) CreditBalance(ctx context.Context, id string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must be non-negative, got %d", amount)
	}
	result, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("balance = balance + ?", amount).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrNotFound
	}
	return nil
}

func (r *accountRepository) GetBalance(ctx context.Context, id string) (int64, error) {
	var balance int64
	err := r.db.NewSelect().
		Model((*models.Account)(nil)).
		Column("balance").
		Where("id = ?", id).
		Scan(ctx, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, economy.ErrNotFound
	}
	return balance, err
}

func (r *accountRepository) ItemQuantity(ctx context.Context, accountID, itemID string) (int64, error) {
	var quantity int64
	err := r.db.NewSelect().
		Model((*models.AccountItem)(nil)).
		Column("quantity").
		Where("account_id = ? AND item_id = ?", accountID, itemID).
		Scan(ctx, &quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return quantity, err
}

func (r *accountRepository) Items(ctx context.Context, accountID string) ([]*models.AccountItem, error) {
	var items []*models.AccountItem
	err := r.db.NewSelect().
		Model(&items).
		Where("account_id = ? AND quantity > 0", accountID).
		Order("item_id ASC").
		Scan(ctx)
	return items, err
}

func (r *accountRepository) CreditItem(ctx context.Context, accountID, itemID string, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("item credit must be non-negative, got %d", quantity)
	}
	result, err := r.db.NewUpdate().
		Model((*models.AccountItem)(nil)).
		Set("quantity = quantity + ?", quantity).
		Where("account_id = ? AND item_id = ?", accountID, itemID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		_, err = r.db.NewInsert().
			Model(&models.AccountItem{
				AccountID: accountID,
				ItemID:    itemID,
				Quantity:  quantity,
			}).
			On("CONFLICT (account_id, item_id) DO UPDATE").
			Set("quantity = ai.quantity + EXCLUDED.quantity").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert inventory row: %w", err)
		}
	}
	return nil
}

func (r *accountRepository) DebitItem(ctx context.Context, accountID, itemID string, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("item debit must be non-negative, got %d", quantity)
	}
	result, err := r.db.NewUpdate().
		Model((*models.AccountItem)(nil)).
		Set("quantity = quantity - ?", quantity).
		Where("account_id = ? AND item_id = ? AND quantity >= ?", accountID, itemID, quantity).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrInsufficientItems
	}
	return nil
}

var cooldownColumns = map[models.ActionKind]string{
	models.ActionWork:   "last_work",
	models.ActionGather: "last_gather",
	models.ActionDaily:  "last_daily",
	models.ActionHourly: "last_hourly",
	models.ActionSlots:  "last_slots",
}

func (r *accountRepository) SetCooldown(ctx context.Context, id string, action models.ActionKind, at time.Time) error {
	column, ok := cooldownColumns[action]
	if !ok {
		return fmt.Errorf("unknown action kind %q", action)
	}
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set(column+" = ?", at).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetStreak(ctx context.Context, id string, action models.ActionKind, streak int64) error {
	var column string
	switch action {
	case models.ActionDaily:
		column = "daily_streak"
	case models.ActionHourly:
		column = "hourly_streak"
	default:
		return fmt.Errorf("action %q has no streak", action)
	}
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set(column+" = ?", streak).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetBuffs(ctx context.Context, id string, buffs []models.Buff) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("active_buffs = ?", buffs).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetZeal(ctx context.Context, id string, zeal models.Zeal) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("zeal = ?", zeal).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetTraitSlots(ctx context.Context, id string, slots []models.TraitSlot) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("trait_slots = ?", slots).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetPowerGrid(ctx context.Context, id string, grid models.PowerGrid) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("power_grid = ?", grid).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetSmeltJob(ctx context.Context, id string, job *models.SmeltJob) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("smelt_job = ?", job).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) SetClan(ctx context.Context, id string, clanID int64, cooldownUntil *time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*models.Account)(nil)).
		Set("clan_id = ?", clanID).
		Set("clan_join_cooldown_until = ?", cooldownUntil).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *accountRepository) ByClan(ctx context.Context, clanID int64) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("clan_id = ?", clanID).
		Order("balance DESC").
		Scan(ctx)
	return accounts, err
}

func (r *accountRepository) TopByBalance(ctx context.Context, limit int) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Order("balance DESC").
		Limit(limit).
		Scan(ctx)
	return accounts, err
}

func (r *accountRepository) SmeltingDue(ctx context.Context, before time.Time) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("smelt_job IS NOT NULL").
		Where("(smelt_job->>'finishes_at')::timestamptz <= ?", before).
		Scan(ctx)
	return accounts, err
}

func (r *accountRepository) WithGrids(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := r.db.NewSelect().
		Model(&accounts).
		Where("power_grid->'slots' IS NOT NULL").
		Where("jsonb_array_length(power_grid->'slots') > 0").
		Scan(ctx)
	return accounts, err
}

func (r *accountRepository) AllIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.NewSelect().
		Model((*models.Account)(nil)).
		Column("id").
		Scan(ctx, &ids)
	return ids, err
}
