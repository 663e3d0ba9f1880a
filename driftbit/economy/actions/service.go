// Package actions implements the player-facing operations: earning, crafting,
// gambling, grid building and trait management. Each action loads a snapshot,
// resolves modifiers, and applies the outcome through guarded updates.
package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

// EventSource yields the currently active global event, or nil. The scheduler
// owns the singleton; actions only ever see a snapshot.
type EventSource func() *game.ActiveEvent

// nowFunc is swapped out by tests that need to steer the clock.
var nowFunc = time.Now

type Service struct {
	engine   *engine.Engine
	accounts repositories.AccountRepository
	clans    repositories.ClanRepository
	market   *market.Manager
	clanMgr  *clan.Manager
	rewards  *reward.Engine
	event    EventSource
}

func NewService(
	eng *engine.Engine,
	accounts repositories.AccountRepository,
	clans repositories.ClanRepository,
	marketMgr *market.Manager,
	clanMgr *clan.Manager,
	rewards *reward.Engine,
	event EventSource,
) *Service {
	if event == nil {
		event = func() *game.ActiveEvent { return nil }
	}
	return &Service{
		engine:   eng,
		accounts: accounts,
		clans:    clans,
		market:   marketMgr,
		clanMgr:  clanMgr,
		rewards:  rewards,
		event:    event,
	}
}

// Engine exposes the underlying transaction engine for surfaces that need
// account provisioning.
func (s *Service) Engine() *engine.Engine { return s.engine }

// Market exposes the market manager for the shop surfaces.
func (s *Service) Market() *market.Manager { return s.market }

// Clans exposes the clan manager for the clan surfaces.
func (s *Service) Clans() *clan.Manager { return s.clanMgr }

// CooldownError reports a rate-gated action attempted too soon.
type CooldownError struct {
	Action    models.ActionKind
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}

// snapshot assembles the resolver input for an account, loading its clan
// when it has one.
func (s *Service) snapshot(ctx context.Context, account *models.Account) (modifier.Snapshot, error) {
	snap := modifier.Snapshot{
		Account: account,
		Event:   s.event(),
		Now:     nowFunc(),
	}
	if account.ClanID != 0 {
		clanRec, err := s.clans.GetByID(ctx, account.ClanID)
		if err == nil {
			snap.Clan = clanRec
		}
	}
	return snap, nil
}

// gate enforces a cooldown. Momentum is rolled up front, independent of how
// much time has elapsed: a momentum pass both bypasses an active cooldown
// and leaves the last-action stamp untouched afterward.
func (s *Service) gate(snap modifier.Snapshot, action models.ActionKind) (momentum bool, err error) {
	if action == models.ActionWork || action == models.ActionGather {
		momentum = s.rewards.Chance(modifier.MomentumChance(snap))
	}
	if momentum {
		return true, nil
	}
	if check := modifier.Cooldown(snap, action); !check.Ready {
		return false, &CooldownError{Action: action, Remaining: check.Remaining}
	}
	return false, nil
}

// bumpZeal advances the zeal stack for zealot accounts after a qualifying
// action. Stacks that went stale restart from one.
func (s *Service) bumpZeal(ctx context.Context, account *models.Account, now time.Time) {
	if account.TraitLevels(game.TraitZealot) == 0 {
		return
	}
	zeal := account.Zeal
	if zeal.Stacks > 0 && now.Sub(zeal.LastAction) > config.ZealDecayWindow {
		zeal.Stacks = 0
	}
	zeal.Stacks++
	zeal.LastAction = now
	account.Zeal = zeal
	_ = s.accounts.SetZeal(ctx, account.ID, zeal)
}
