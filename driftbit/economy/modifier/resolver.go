// Package modifier computes effective cooldowns and reward multipliers from
// an account snapshot, its clan, and the active global event. Everything here
// is pure: random gates (momentum, scavenger, double-or-nothing) are returned
// as chances for the caller to roll, never rolled in place.
package modifier

import (
	"math"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
)

// Snapshot is everything the resolver reads. Clan and Event are nil when the
// account is unaffiliated or no event is running.
type Snapshot struct {
	Account *models.Account
	Clan    *models.Clan
	Event   *game.ActiveEvent
	Now     time.Time
}

func (s Snapshot) clanLevel() int {
	if s.Clan == nil {
		return 0
	}
	return s.Clan.Level
}

func (s Snapshot) eventEffect(kind game.EventEffectKind) (game.EventEffect, bool) {
	if s.Event == nil || s.Now.After(s.Event.ExpiresAt) {
		return game.EventEffect{}, false
	}
	if s.Event.Effect.Kind != kind {
		return game.EventEffect{}, false
	}
	return s.Event.Effect, true
}

// CooldownCheck is the gate decision for one action attempt.
type CooldownCheck struct {
	Effective time.Duration // cooldown after all reductions
	Remaining time.Duration // zero when ready
	Ready     bool
}

// Cooldown resolves the effective cooldown for an action and whether it has
// elapsed. Percentage reductions are summed and applied once, then flat
// reductions subtract, and the result never drops below the fixed minimum.
func Cooldown(s Snapshot, action models.ActionKind) CooldownCheck {
	base := baseCooldown(action)
	effective := base

	if action == models.ActionWork || action == models.ActionGather {
		reduction := game.ProdigyReductionPerLevel * float64(s.Account.TraitLevels(game.TraitProdigy))
		if reduction > 0 {
			effective = time.Duration(float64(base) * (1 - reduction/100))
		}
		for _, b := range s.Account.CurrentBuffs(s.Now) {
			switch action {
			case models.ActionWork:
				effective -= b.Effects.WorkCooldownReduction
			case models.ActionGather:
				effective -= b.Effects.GatherCooldownReduction
			}
		}
	}

	if effective < config.MinimumActionCooldown {
		effective = config.MinimumActionCooldown
	}

	last := s.Account.CooldownStamp(action)
	if last == nil || last.IsZero() {
		return CooldownCheck{Effective: effective, Ready: true}
	}
	elapsed := s.Now.Sub(*last)
	if elapsed >= effective {
		return CooldownCheck{Effective: effective, Ready: true}
	}
	return CooldownCheck{Effective: effective, Remaining: effective - elapsed}
}

func baseCooldown(action models.ActionKind) time.Duration {
	switch action {
	case models.ActionWork:
		return config.WorkCooldown
	case models.ActionGather:
		return config.GatherCooldown
	case models.ActionDaily:
		return config.DailyCooldown
	case models.ActionHourly:
		return config.HourlyCooldown
	case models.ActionSlots:
		return config.SlotsCooldown
	}
	return 0
}

// MomentumChance is the clan-tier probability (percent) of bypassing the
// cooldown gate outright on this attempt. Rolled by the caller,
// independently of the elapsed-time check.
func MomentumChance(s Snapshot) float64 {
	return game.ClanMomentumChance(s.clanLevel())
}

// WorkOutcome carries every modifier feeding a work payout. BonusPercent is
// the summed additive percentage; the random gates are chances in percent.
type WorkOutcome struct {
	BonusPercent    float64
	FlatBonus       int64
	EventMultiplier float64
	DoubleOrNothing bool // a buff arms the all-or-nothing coin
	ScavengerChance float64
	SurgeActive     bool // tower placed and grid online
}

// Work resolves the modifier stack for a work action. Percentages from
// traits, clan tier, tools, buffs and zeal are summed, never compounded.
func Work(s Snapshot) WorkOutcome {
	out := WorkOutcome{EventMultiplier: 1}

	out.BonusPercent += game.WealthBonusPerLevel * float64(s.Account.TraitLevels(game.TraitWealth))
	out.BonusPercent += game.ClanWorkBonusPercent(s.clanLevel())
	out.BonusPercent += zealBonusPercent(s)

	for _, b := range s.Account.CurrentBuffs(s.Now) {
		out.BonusPercent += b.Effects.WorkBonusPercent
		if b.Effects.WorkDoubleOrNothing {
			out.DoubleOrNothing = true
		}
	}

	out.FlatBonus, out.BonusPercent = addToolBonuses(s, out.BonusPercent)

	if effect, ok := s.eventEffect(game.EventEffectWorkMultiplier); ok {
		out.EventMultiplier = effect.Multiplier
	}

	out.ScavengerChance = game.ScavengerChancePerLevel * float64(s.Account.TraitLevels(game.TraitScavenger))
	out.SurgeActive = game.GridHasTower(s.Account.PowerGrid.Slots) && game.GridOnline(s.Account.PowerGrid.Slots)
	return out
}

// Apply turns a base roll into the payout. One floor, applied after the
// summed percentage; flat bonuses land after the floor, and the event
// multiplier scales the whole result.
func (o WorkOutcome) Apply(base int64) int64 {
	amount := int64(math.Floor(float64(base) * (1 + o.BonusPercent/100)))
	amount += o.FlatBonus
	if o.EventMultiplier != 1 {
		amount = int64(math.Floor(float64(amount) * o.EventMultiplier))
	}
	if amount < 0 {
		amount = 0
	}
	return amount
}

func zealBonusPercent(s Snapshot) float64 {
	levels := s.Account.TraitLevels(game.TraitZealot)
	if levels == 0 || s.Account.Zeal.Stacks == 0 {
		return 0
	}
	if s.Now.Sub(s.Account.Zeal.LastAction) > config.ZealDecayWindow {
		// Stale stacks contribute nothing even before the decay sweep
		// zeroes them.
		return 0
	}
	return game.ZealBonusPerStackPerLevel * float64(levels) * float64(s.Account.Zeal.Stacks)
}

// zealAbundanceBonus converts zeal into extra gather copies: one per full
// ten percent of work bonus.
func zealAbundanceBonus(s Snapshot) int64 {
	return int64(zealBonusPercent(s) / 10)
}

// addToolBonuses folds owned-tool effects into the stack. Every copy of a
// tool counts; the account item list is read from the snapshot's inventory
// projection.
func addToolBonuses(s Snapshot, percent float64) (int64, float64) {
	var flat int64
	for itemID, qty := range s.Account.Inventory {
		if qty <= 0 {
			continue
		}
		item, ok := game.Items[itemID]
		if !ok || item.Tool == nil {
			continue
		}
		flat += item.Tool.WorkBonusFlat * qty
		percent += item.Tool.WorkBonusPercent * float64(qty)
	}
	return flat, percent
}

// GatherOutcome is the modifier stack for a gather sweep.
type GatherOutcome struct {
	ChanceMultiplier     float64 // scales every table entry's find chance
	RareChanceMultiplier float64 // scales one specific item's chance
	RareItemID           string
	AbundanceBonus       int64 // extra copies of each found stack
	SurveyorChance       float64
	SurgeActive          bool
	MaxTypes             int64
}

func Gather(s Snapshot) GatherOutcome {
	out := GatherOutcome{
		ChanceMultiplier:     1,
		RareChanceMultiplier: 1,
		MaxTypes:             config.MaxGatherTypesBase,
	}
	if effect, ok := s.eventEffect(game.EventEffectGatherChance); ok {
		out.ChanceMultiplier = effect.Multiplier
	}
	if effect, ok := s.eventEffect(game.EventEffectGatherRareChance); ok {
		out.RareChanceMultiplier = effect.Multiplier
		out.RareItemID = effect.ItemID
	}
	out.AbundanceBonus = game.ClanAbundanceBonus(s.clanLevel()) + zealAbundanceBonus(s)
	out.SurveyorChance = game.SurveyorChancePerLevel * float64(s.Account.TraitLevels(game.TraitSurveyor))
	out.SurgeActive = game.GridHasTower(s.Account.PowerGrid.Slots) && game.GridOnline(s.Account.PowerGrid.Slots)
	return out
}

// MarketTaxRate is the cut taken from a sale's proceeds, overridable to zero
// by the tax event.
func MarketTaxRate(event *game.ActiveEvent, now time.Time) float64 {
	s := Snapshot{Event: event, Now: now}
	if effect, ok := s.eventEffect(game.EventEffectMarketTax); ok {
		return effect.TaxRate
	}
	return config.MarketTaxRate
}

// SlotsMaxBet doubles at the clan tier that unlocks it.
func SlotsMaxBet(clan *models.Clan) int64 {
	max := int64(config.SlotsMaxBet)
	if clan != nil && game.ClanDoublesSlotsCap(clan.Level) {
		max *= 2
	}
	return max
}

// SmeltDuration is the wall time for a smelting batch. Extra smelters run the
// batch in parallel, and the smelter event halves whatever remains.
func SmeltDuration(quantity, smelters int64, event *game.ActiveEvent, now time.Time) time.Duration {
	if smelters < 1 {
		smelters = 1
	}
	d := time.Duration(quantity) * (config.SmeltTimePerItem / time.Duration(smelters))
	s := Snapshot{Event: event, Now: now}
	if effect, ok := s.eventEffect(game.EventEffectSmeltSpeed); ok && effect.Multiplier > 0 {
		d = time.Duration(float64(d) / effect.Multiplier)
	}
	return d
}

// RushBuff sizes The Addict's post-loss buff: the work bonus is the fraction
// of wealth lost times the per-level coefficient.
func RushBuff(lost, balanceBefore int64, addictLevels int, now time.Time) *models.Buff {
	if addictLevels == 0 || lost <= 0 || balanceBefore <= 0 {
		return nil
	}
	fraction := float64(lost) / float64(balanceBefore)
	if fraction > 1 {
		fraction = 1
	}
	return &models.Buff{
		ItemID:    "the_rush",
		ExpiresAt: now.Add(config.AddictRushDuration),
		Effects: game.BuffEffects{
			WorkBonusPercent: fraction * game.AddictRushPerLevel * float64(addictLevels),
		},
	}
}
