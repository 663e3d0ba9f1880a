package models

import (
	"time"

	"github.com/uptrace/bun"
)

// WarState is the singleton clan-war clock. A single row keyed by
// WarStateKey drives war-point accrual and the scheduler's rollover.
type WarState struct {
	bun.BaseModel `bun:"table:war_state,alias:ws"`

	Key       string    `bun:"key,pk"`
	WarEndsAt time.Time `bun:"war_ends_at,notnull"`
}

const WarStateKey = "clan_war"

// Active reports whether a war is currently running.
func (w *WarState) Active(now time.Time) bool {
	return w != nil && now.Before(w.WarEndsAt)
}

// Verification is a pending account-link code issued on Discord and redeemed
// from in-game chat. Codes expire after a short TTL.
type Verification struct {
	bun.BaseModel `bun:"table:verifications,alias:v"`

	Code      string    `bun:"code,pk"`
	DiscordID string    `bun:"discord_id,notnull"`
	GameName  string    `bun:"game_name,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}
