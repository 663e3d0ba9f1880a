package actions

import (
	"context"
	"fmt"
	"math"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
	"github.com/junovette/driftbit/driftbit/game"
)

// FlipResult is a coin flip outcome. Winnings is the net change: +bet on a
// win, -bet on a loss.
type FlipResult struct {
	Won      bool
	Bet      int64
	Winnings int64
	Rushed   bool // loss triggered The Addict's rush buff
}

func (s *Service) Flip(ctx context.Context, account *models.Account, bet int64) (*FlipResult, error) {
	if bet < config.FlipMinBet || bet > config.FlipMaxBet {
		return nil, fmt.Errorf("flip bets must be between %d and %d", config.FlipMinBet, config.FlipMaxBet)
	}
	balanceBefore, err := s.engine.CheckBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.DebitBalance(ctx, account.ID, bet); err != nil {
		return nil, err
	}
	account.Balance = balanceBefore - bet

	res := &FlipResult{Bet: bet}
	if s.rewards.Chance(50) {
		res.Won = true
		res.Winnings = bet
		if err := s.accounts.CreditBalance(ctx, account.ID, bet*2); err != nil {
			return nil, fmt.Errorf("crediting flip winnings: %w", err)
		}
		account.Balance += bet * 2
		return res, nil
	}
	res.Winnings = -bet
	res.Rushed = s.applyRush(ctx, account, bet, balanceBefore)
	return res, nil
}

// SlotsResult is one spin. Reels holds the three landed symbols.
type SlotsResult struct {
	Reels      [3]string
	Bet        int64
	Multiplier float64
	Winnings   int64 // gross payout credited, zero on a loss
	Rushed     bool
}

func (s *Service) Slots(ctx context.Context, account *models.Account, bet int64) (*SlotsResult, error) {
	snap, err := s.snapshot(ctx, account)
	if err != nil {
		return nil, err
	}
	maxBet := modifier.SlotsMaxBet(snap.Clan)
	if bet < config.SlotsMinBet || bet > maxBet {
		return nil, fmt.Errorf("slots bets must be between %d and %d", config.SlotsMinBet, maxBet)
	}
	check := modifier.Cooldown(snap, models.ActionSlots)
	if !check.Ready {
		return nil, &CooldownError{Action: models.ActionSlots, Remaining: check.Remaining}
	}

	balanceBefore, err := s.engine.CheckBalance(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.DebitBalance(ctx, account.ID, bet); err != nil {
		return nil, err
	}
	account.Balance = balanceBefore - bet

	res := &SlotsResult{Bet: bet}
	for i := range res.Reels {
		res.Reels[i] = game.SlotSymbols[s.rewards.Between(0, int64(len(game.SlotSymbols)-1))]
	}
	res.Multiplier = slotsMultiplier(res.Reels)

	if err := s.accounts.SetCooldown(ctx, account.ID, models.ActionSlots, snap.Now); err != nil {
		return nil, err
	}
	now := snap.Now
	account.LastSlots = &now

	if res.Multiplier > 0 {
		res.Winnings = int64(math.Floor(float64(bet) * res.Multiplier))
		if err := s.accounts.CreditBalance(ctx, account.ID, res.Winnings); err != nil {
			return nil, fmt.Errorf("crediting slots winnings: %w", err)
		}
		account.Balance += res.Winnings
		return res, nil
	}
	res.Rushed = s.applyRush(ctx, account, bet, balanceBefore)
	return res, nil
}

func slotsMultiplier(reels [3]string) float64 {
	a, b, c := reels[0], reels[1], reels[2]
	switch {
	case a == b && b == c && a == game.SlotsJackpotSymbol:
		return game.SlotsJackpotMultiplier
	case a == b && b == c:
		return game.SlotsThreeOfAKindMult
	case a == b || b == c || a == c:
		return game.SlotsTwoOfAKindMult
	default:
		return 0
	}
}

// applyRush attaches The Addict's rush buff after a gambling loss, replacing
// any rush already running rather than stacking.
func (s *Service) applyRush(ctx context.Context, account *models.Account, lost, balanceBefore int64) bool {
	snapNow := nowFunc()
	buff := modifier.RushBuff(lost, balanceBefore, account.TraitLevels(game.TraitTheAddict), snapNow)
	if buff == nil {
		return false
	}
	kept := make([]models.Buff, 0, len(account.ActiveBuffs)+1)
	for _, b := range account.ActiveBuffs {
		if b.ItemID == buff.ItemID || !b.Active(snapNow) {
			continue
		}
		kept = append(kept, b)
	}
	account.ActiveBuffs = append(kept, *buff)
	if err := s.accounts.SetBuffs(ctx, account.ID, account.ActiveBuffs); err != nil {
		return false
	}
	return true
}
