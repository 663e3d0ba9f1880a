package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
	"github.com/junovette/driftbit/driftbit/game"
)

// WorkResult reports one resolved work action.
type WorkResult struct {
	Base        int64
	Payout      int64
	Momentum    bool
	CoinFlipped bool // a double-or-nothing buff was armed and consumed
	CoinWon     bool
	Surged      bool
	BonusItemID string // scavenger find, empty when none
}

// scavengerLoot is the pool of common resources a scavenger proc draws from.
var scavengerLoot = []string{game.ItemWood, game.ItemStone, game.ItemCoal, game.ItemIronOre}

func (s *Service) Work(ctx context.Context, account *models.Account) (*WorkResult, error) {
	snap, err := s.snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	momentum, err := s.gate(snap, models.ActionWork)
	if err != nil {
		return nil, err
	}

	out := modifier.Work(snap)
	base := s.rewards.Between(config.WorkRewardMin, config.WorkRewardMax)
	payout := out.Apply(base)
	res := &WorkResult{Base: base, Momentum: momentum}

	if out.DoubleOrNothing {
		res.CoinFlipped = true
		if s.rewards.Chance(50) {
			res.CoinWon = true
			payout *= 2
		} else {
			payout = 0
		}
		s.consumeBuff(ctx, account, snap.Now, func(e game.BuffEffects) bool { return e.WorkDoubleOrNothing })
	}
	if out.SurgeActive && s.rewards.Chance(config.TowerSurgeChance*100) {
		res.Surged = true
		payout *= 2
	}
	res.Payout = payout

	if payout > 0 {
		if err := s.accounts.CreditBalance(ctx, account.ID, payout); err != nil {
			return nil, fmt.Errorf("crediting work payout: %w", err)
		}
		account.Balance += payout
	}
	if s.rewards.Chance(out.ScavengerChance) {
		itemID := scavengerLoot[s.rewards.Between(0, int64(len(scavengerLoot)-1))]
		if err := s.accounts.CreditItem(ctx, account.ID, itemID, 1); err == nil {
			res.BonusItemID = itemID
		}
	}

	if !momentum {
		if err := s.accounts.SetCooldown(ctx, account.ID, models.ActionWork, snap.Now); err != nil {
			return nil, err
		}
		now := snap.Now
		account.LastWork = &now
	}
	s.bumpZeal(ctx, account, snap.Now)
	s.clanMgr.RecordWarAction(ctx, account)
	return res, nil
}

// GatherFind is one credited stack from a gather sweep.
type GatherFind struct {
	ItemID   string
	Quantity int64
}

type GatherResult struct {
	Finds       []GatherFind
	Momentum    bool
	BasketBonus int64 // extra copies the baskets tucked into the haul
	Doubled     bool  // surveyor proc doubled the whole haul
	Surged      bool
}

func (s *Service) Gather(ctx context.Context, account *models.Account) (*GatherResult, error) {
	snap, err := s.snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	momentum, err := s.gate(snap, models.ActionGather)
	if err != nil {
		return nil, err
	}

	out := modifier.Gather(snap)
	res := &GatherResult{Momentum: momentum}

	// Each basket widens the distinct-find cap by one and gets a coin flip
	// for a bonus copy on every find.
	basketCount := account.Inventory[game.ItemGatheringBasket]
	maxTypes := out.MaxTypes + basketCount

	// Shuffle so the rare tail entries see the cap as often as the common
	// head ones.
	table := make([]game.GatherEntry, len(game.GatherTable))
	copy(table, game.GatherTable)
	s.rewards.Shuffle(len(table), func(i, j int) { table[i], table[j] = table[j], table[i] })

	for _, entry := range table {
		if int64(len(res.Finds)) >= maxTypes {
			break
		}
		chance := entry.BaseChance * 100 * out.ChanceMultiplier
		if entry.ItemID == out.RareItemID {
			chance = entry.BaseChance * 100 * out.RareChanceMultiplier
		}
		if !s.rewards.Chance(chance) {
			continue
		}
		qty := s.rewards.Between(entry.MinQty, entry.MaxQty) + out.AbundanceBonus
		for i := int64(0); i < basketCount; i++ {
			if s.rewards.Chance(config.BasketBonusChance * 100) {
				qty++
				res.BasketBonus++
			}
		}
		res.Finds = append(res.Finds, GatherFind{ItemID: entry.ItemID, Quantity: qty})
	}

	if len(res.Finds) > 0 && s.rewards.Chance(out.SurveyorChance) {
		res.Doubled = true
	}
	if len(res.Finds) > 0 && out.SurgeActive && s.rewards.Chance(config.TowerSurgeChance*100) {
		res.Surged = true
	}
	for i := range res.Finds {
		if res.Doubled {
			res.Finds[i].Quantity *= 2
		}
		if res.Surged {
			res.Finds[i].Quantity *= 2
		}
		if err := s.accounts.CreditItem(ctx, account.ID, res.Finds[i].ItemID, res.Finds[i].Quantity); err != nil {
			return nil, fmt.Errorf("crediting gather find: %w", err)
		}
	}

	if !momentum {
		if err := s.accounts.SetCooldown(ctx, account.ID, models.ActionGather, snap.Now); err != nil {
			return nil, err
		}
		now := snap.Now
		account.LastGather = &now
	}
	s.bumpZeal(ctx, account, snap.Now)
	s.clanMgr.RecordWarAction(ctx, account)
	return res, nil
}

// ClaimResult is a daily or hourly streak payout.
type ClaimResult struct {
	Amount int64
	Streak int64 // streak after this claim
}

// Daily pays the daily stipend. The streak survives as long as consecutive
// claims land inside the window; a late claim restarts it.
func (s *Service) Daily(ctx context.Context, account *models.Account) (*ClaimResult, error) {
	return s.claim(ctx, account, models.ActionDaily,
		account.LastDaily, account.DailyStreak,
		config.DailyStreakWindow, config.DailyRewardBase, config.DailyStreakBonus)
}

func (s *Service) Hourly(ctx context.Context, account *models.Account) (*ClaimResult, error) {
	return s.claim(ctx, account, models.ActionHourly,
		account.LastHourly, account.HourlyStreak,
		config.HourlyStreakWindow, config.HourlyRewardBase, config.HourlyStreakBonus)
}

func (s *Service) claim(
	ctx context.Context,
	account *models.Account,
	action models.ActionKind,
	last *time.Time, streak int64,
	window time.Duration, base, bonus int64,
) (*ClaimResult, error) {
	snap, err := s.snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	check := modifier.Cooldown(snap, action)
	if !check.Ready {
		return nil, &CooldownError{Action: action, Remaining: check.Remaining}
	}
	if last != nil && snap.Now.Sub(*last) > window {
		streak = 0
	}
	amount := base + bonus*streak
	streak++

	if err := s.accounts.CreditBalance(ctx, account.ID, amount); err != nil {
		return nil, fmt.Errorf("crediting %s reward: %w", action, err)
	}
	if err := s.accounts.SetCooldown(ctx, account.ID, action, snap.Now); err != nil {
		return nil, err
	}
	if err := s.accounts.SetStreak(ctx, account.ID, action, streak); err != nil {
		return nil, err
	}
	account.Balance += amount
	now := snap.Now
	switch action {
	case models.ActionDaily:
		account.LastDaily, account.DailyStreak = &now, streak
	case models.ActionHourly:
		account.LastHourly, account.HourlyStreak = &now, streak
	}
	return &ClaimResult{Amount: amount, Streak: streak}, nil
}

// consumeBuff removes the first active buff matching the predicate and
// persists the pruned set.
func (s *Service) consumeBuff(ctx context.Context, account *models.Account, now time.Time, match func(game.BuffEffects) bool) {
	kept := account.ActiveBuffs[:0]
	consumed := false
	for _, b := range account.ActiveBuffs {
		if !consumed && b.Active(now) && match(b.Effects) {
			consumed = true
			continue
		}
		kept = append(kept, b)
	}
	if !consumed {
		return
	}
	account.ActiveBuffs = append([]models.Buff(nil), kept...)
	_ = s.accounts.SetBuffs(ctx, account.ID, account.ActiveBuffs)
}
