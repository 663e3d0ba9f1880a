package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Recruitment string

const (
	RecruitmentOpen   Recruitment = "open"
	RecruitmentClosed Recruitment = "closed"
)

// Clan membership is one-directional: accounts carry a clan_id foreign key
// and the member roster is always derived by query, never embedded here.
type Clan struct {
	bun.BaseModel `bun:"table:clans,alias:c"`

	ID           int64       `bun:"id,pk,autoincrement"`
	Code         string      `bun:"code,notnull,unique"`
	Name         string      `bun:"name,notnull"`
	NameLower    string      `bun:"name_lower,notnull,unique"`
	OwnerID      string      `bun:"owner_id,notnull"`
	Level        int         `bun:"level,notnull,default:1"`
	VaultBalance int64       `bun:"vault_balance,notnull,default:0"`
	WarPoints    int64       `bun:"war_points,notnull,default:0"`
	Recruitment  Recruitment `bun:"recruitment,notnull,default:'open'"`

	Applicants     []string `bun:"applicants,type:jsonb"`
	PendingInvites []string `bun:"pending_invites,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull"`
}

func (c *Clan) HasApplicant(accountID string) bool {
	for _, id := range c.Applicants {
		if id == accountID {
			return true
		}
	}
	return false
}

func (c *Clan) HasInvite(accountID string) bool {
	for _, id := range c.PendingInvites {
		if id == accountID {
			return true
		}
	}
	return false
}
