package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
)

type ClanRepository interface {
	Create(ctx context.Context, clan *models.Clan) error
	GetByID(ctx context.Context, id int64) (*models.Clan, error)
	GetByCode(ctx context.Context, code string) (*models.Clan, error)
	GetByName(ctx context.Context, name string) (*models.Clan, error)
	Update(ctx context.Context, clan *models.Clan) error
	Delete(ctx context.Context, id int64) error
	All(ctx context.Context) ([]*models.Clan, error)

	// DebitVault subtracts from the vault only when it covers the amount.
	DebitVault(ctx context.Context, id int64, amount int64) error
	CreditVault(ctx context.Context, id int64, amount int64) error
	AddWarPoints(ctx context.Context, id int64, points int64) error
	// SetLevel advances the clan level only from the expected current level,
	// so two simultaneous upgrades cannot both apply.
	SetLevel(ctx context.Context, id int64, fromLevel, toLevel int) error

	TopByWarPoints(ctx context.Context, limit int) ([]*models.Clan, error)
	ResetWarPoints(ctx context.Context) error
}

type clanRepository struct {
	db bun.IDB
}

func NewClanRepository(db bun.IDB) ClanRepository {
	return &clanRepository{db: db}
}

func (r *clanRepository) Create(ctx context.Context, clan *models.Clan) error {
	if clan.CreatedAt.IsZero() {
		clan.CreatedAt = time.Now()
	}
	clan.NameLower = strings.ToLower(clan.Name)
	_, err := r.db.NewInsert().Model(clan).Exec(ctx)
	return err
}

func (r *clanRepository) GetByID(ctx context.Context, id int64) (*models.Clan, error) {
	clan := new(models.Clan)
	err := r.db.NewSelect().
		Model(clan).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return clan, nil
}

func (r *clanRepository) GetByCode(ctx context.Context, code string) (*models.Clan, error) {
	clan := new(models.Clan)
	err := r.db.NewSelect().
		Model(clan).
		Where("code = ?", strings.ToUpper(code)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return clan, nil
}

func (r *clanRepository) GetByName(ctx context.Context, name string) (*models.Clan, error) {
	clan := new(models.Clan)
	err := r.db.NewSelect().
		Model(clan).
		Where("name_lower = ?", strings.ToLower(name)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return clan, nil
}

func (r *clanRepository) Update(ctx context.Context, clan *models.Clan) error {
	clan.NameLower = strings.ToLower(clan.Name)
	_, err := r.db.NewUpdate().
		Model(clan).
		WherePK().
		Exec(ctx)
	return err
}

func (r *clanRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.NewDelete().
		Model((*models.Clan)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *clanRepository) All(ctx context.Context) ([]*models.Clan, error) {
	var clans []*models.Clan
	err := r.db.NewSelect().
		Model(&clans).
		Order("id ASC").
		Scan(ctx)
	return clans, err
}

func (r *clanRepository) DebitVault(ctx context.Context, id int64, amount int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("vault_balance = vault_balance - ?", amount).
		Where("id = ? AND vault_balance >= ?", id, amount).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrInsufficientFunds
	}
	return nil
}

func (r *clanRepository) CreditVault(ctx context.Context, id int64, amount int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("vault_balance = vault_balance + ?", amount).
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

func (r *clanRepository) AddWarPoints(ctx context.Context, id int64, points int64) error {
	_, err := r.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("war_points = war_points + ?", points).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *clanRepository) SetLevel(ctx context.Context, id int64, fromLevel, toLevel int) error {
	result, err := r.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("level = ?", toLevel).
		Where("id = ? AND level = ?", id, fromLevel).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrConflict
	}
	return nil
}

func (r *clanRepository) TopByWarPoints(ctx context.Context, limit int) ([]*models.Clan, error) {
	var clans []*models.Clan
	err := r.db.NewSelect().
		Model(&clans).
		Where("war_points > 0").
		Order("war_points DESC").
		Limit(limit).
		Scan(ctx)
	return clans, err
}

func (r *clanRepository) ResetWarPoints(ctx context.Context) error {
	_, err := r.db.NewUpdate().
		Model((*models.Clan)(nil)).
		Set("war_points = 0").
		Where("TRUE").
		Exec(ctx)
	return err
}
