package actions

import (
	"context"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
)

// Pay moves bits to another account looked up by name.
func (s *Service) Pay(ctx context.Context, from *models.Account, targetName string, amount int64) (*models.Account, error) {
	target, err := s.engine.LoadByName(ctx, targetName)
	if err != nil {
		return nil, err
	}
	if err := s.engine.TransferBalance(ctx, from.ID, target.ID, amount); err != nil {
		return nil, err
	}
	from.Balance -= amount
	target.Balance += amount
	return target, nil
}

// Leaderboard lists the richest accounts.
func (s *Service) Leaderboard(ctx context.Context) ([]*models.Account, error) {
	return s.accounts.TopByBalance(ctx, config.LeaderboardSize)
}

// Timer is one action's cooldown status.
type Timer struct {
	Action    models.ActionKind
	Effective time.Duration
	Remaining time.Duration
	Ready     bool
}

// timerActions fixes the display order.
var timerActions = []models.ActionKind{
	models.ActionWork,
	models.ActionGather,
	models.ActionDaily,
	models.ActionHourly,
	models.ActionSlots,
}

// Timers resolves every action cooldown for an account, with trait, buff and
// clan reductions applied.
func (s *Service) Timers(ctx context.Context, account *models.Account) ([]Timer, error) {
	snap, err := s.snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	timers := make([]Timer, 0, len(timerActions))
	for _, action := range timerActions {
		check := modifier.Cooldown(snap, action)
		timers = append(timers, Timer{
			Action:    action,
			Effective: check.Effective,
			Remaining: check.Remaining,
			Ready:     check.Ready,
		})
	}
	return timers, nil
}
