package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
)

type StateRepository interface {
	WarState(ctx context.Context) (*models.WarState, error)
	SetWarEnd(ctx context.Context, endsAt time.Time) error

	CreateVerification(ctx context.Context, v *models.Verification) error
	// ClaimVerification atomically consumes a code, so a code redeems once.
	ClaimVerification(ctx context.Context, code string) (*models.Verification, error)
	PruneVerifications(ctx context.Context, olderThan time.Time) (int64, error)
}

type stateRepository struct {
	db bun.IDB
}

func NewStateRepository(db bun.IDB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) WarState(ctx context.Context) (*models.WarState, error) {
	state := new(models.WarState)
	err := r.db.NewSelect().
		Model(state).
		Where("key = ?", models.WarStateKey).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *stateRepository) SetWarEnd(ctx context.Context, endsAt time.Time) error {
	_, err := r.db.NewInsert().
		Model(&models.WarState{Key: models.WarStateKey, WarEndsAt: endsAt}).
		On("CONFLICT (key) DO UPDATE").
		Set("war_ends_at = EXCLUDED.war_ends_at").
		Exec(ctx)
	return err
}

func (r *stateRepository) CreateVerification(ctx context.Context, v *models.Verification) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	_, err := r.db.NewInsert().Model(v).Exec(ctx)
	return err
}

func (r *stateRepository) ClaimVerification(ctx context.Context, code string) (*models.Verification, error) {
	v := new(models.Verification)
	err := r.db.NewDelete().
		Model(v).
		Where("code = ?", code).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *stateRepository) PruneVerifications(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.NewDelete().
		Model((*models.Verification)(nil)).
		Where("created_at < ?", olderThan).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := result.RowsAffected()
	return affected, nil
}
