package models

import (
	"time"

	"github.com/junovette/driftbit/driftbit/game"
	"github.com/uptrace/bun"
)

// Buff is a time-limited modifier attached by consuming an item. The effects
// are snapshotted at attach time so item rebalances never mutate live buffs.
type Buff struct {
	ItemID    string           `json:"item_id"`
	ExpiresAt time.Time        `json:"expires_at"`
	Effects   game.BuffEffects `json:"effects"`
}

func (b Buff) Active(now time.Time) bool { return b.ExpiresAt.After(now) }

type TraitSlot struct {
	TraitID string `json:"trait_id"`
	Level   int    `json:"level"`
}

type Zeal struct {
	Stacks     int64     `json:"stacks"`
	LastAction time.Time `json:"last_action"`
}

type PowerGrid struct {
	Slots    []string  `json:"slots"` // empty string = empty slot
	LastTick time.Time `json:"last_tick"`
}

type SmeltJob struct {
	ResultItemID string    `json:"result_item_id"`
	Quantity     int64     `json:"quantity"`
	FinishesAt   time.Time `json:"finishes_at"`
}

// Account is one ledger record. The primary key is the lowercased game name
// for game-born accounts or the Discord snowflake for Discord-born ones; the
// two alias spaces are fused by account merging.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID          string `bun:"id,pk"`
	GameName    string `bun:"game_name"`
	NameLower   string `bun:"name_lower"`
	DisplayName string `bun:"display_name"`
	DiscordID   string `bun:"discord_id"`

	Balance int64 `bun:"balance,notnull,default:0"`

	LastWork   *time.Time `bun:"last_work"`
	LastGather *time.Time `bun:"last_gather"`
	LastDaily  *time.Time `bun:"last_daily"`
	LastHourly *time.Time `bun:"last_hourly"`
	LastSlots  *time.Time `bun:"last_slots"`

	DailyStreak  int64 `bun:"daily_streak,notnull,default:0"`
	HourlyStreak int64 `bun:"hourly_streak,notnull,default:0"`

	ActiveBuffs []Buff      `bun:"active_buffs,type:jsonb"`
	TraitSlots  []TraitSlot `bun:"trait_slots,type:jsonb"`
	Zeal        Zeal        `bun:"zeal,type:jsonb"`

	ClanID                int64      `bun:"clan_id,notnull,default:0"` // 0 = no clan
	ClanJoinCooldownUntil *time.Time `bun:"clan_join_cooldown_until"`

	PowerGrid PowerGrid `bun:"power_grid,type:jsonb"`
	SmeltJob  *SmeltJob `bun:"smelt_job,type:jsonb"`

	WasBumped bool      `bun:"was_bumped,notnull,default:false"`
	CreatedAt time.Time `bun:"created_at,notnull"`

	// Inventory is a read-time projection of this account's item rows,
	// loaded alongside the record so modifier resolution can see owned
	// tools without further queries. Never written back from here.
	Inventory map[string]int64 `bun:"-"`
}

// Name returns the best display name for the account.
func (a *Account) Name() string {
	switch {
	case a.GameName != "":
		return a.GameName
	case a.DisplayName != "":
		return a.DisplayName
	default:
		return "User " + a.ID
	}
}

// CooldownStamp returns the last-performed instant for an action kind.
func (a *Account) CooldownStamp(action ActionKind) *time.Time {
	switch action {
	case ActionWork:
		return a.LastWork
	case ActionGather:
		return a.LastGather
	case ActionDaily:
		return a.LastDaily
	case ActionHourly:
		return a.LastHourly
	case ActionSlots:
		return a.LastSlots
	}
	return nil
}

// CurrentBuffs filters out expired buffs.
func (a *Account) CurrentBuffs(now time.Time) []Buff {
	var out []Buff
	for _, b := range a.ActiveBuffs {
		if b.Active(now) {
			out = append(out, b)
		}
	}
	return out
}

// TraitLevels sums levels across slots holding the given trait.
func (a *Account) TraitLevels(traitID string) int {
	total := 0
	for _, s := range a.TraitSlots {
		if s.TraitID == traitID {
			total += s.Level
		}
	}
	return total
}

// ActionKind identifies a cooldown-gated player action.
type ActionKind string

const (
	ActionWork   ActionKind = "work"
	ActionGather ActionKind = "gather"
	ActionDaily  ActionKind = "daily"
	ActionHourly ActionKind = "hourly"
	ActionSlots  ActionKind = "slots"
)

// AccountItem is one inventory row. Quantity never goes below zero; debits
// are guarded at the store.
type AccountItem struct {
	bun.BaseModel `bun:"table:account_items,alias:ai"`

	AccountID string `bun:"account_id,pk"`
	ItemID    string `bun:"item_id,pk"`
	Quantity  int64  `bun:"quantity,notnull,default:0"`
}
