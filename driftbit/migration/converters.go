package migration

import (
	"math"
	"strings"
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy/compat"
	"github.com/junovette/driftbit/driftbit/game"
)

// msTime converts a legacy millisecond epoch into a *time.Time. Zero and
// negative stamps mean "never".
func msTime(ms *float64) *time.Time {
	if ms == nil || *ms <= 0 || math.IsNaN(*ms) || math.IsInf(*ms, 0) {
		return nil
	}
	t := time.UnixMilli(int64(*ms))
	return &t
}

// safeInt truncates a legacy number, mapping NaN and infinities to zero.
// The old bot let corrupted balances linger; the import heals them.
func safeInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// convertAccount maps one legacy document onto the relational account model
// and returns the inventory separately, since items live in their own table.
// clanIDs maps legacy clan ObjectIDs to new serial ids; memberOf repairs
// accounts whose clanId was lost but who still appear on a clan roster.
func convertAccount(doc MongoAccount, clanIDs map[string]int64, memberOf map[string]int64, now time.Time) (*models.Account, map[string]int64) {
	account := &models.Account{
		ID:           strings.ToLower(doc.ID),
		GameName:     deref(doc.GameName),
		DisplayName:  deref(doc.DisplayName),
		DiscordID:    deref(doc.DiscordID),
		Balance:      safeInt(doc.Balance),
		LastWork:     msTime(doc.LastWork),
		LastGather:   msTime(doc.LastGather),
		LastDaily:    msTime(doc.LastDaily),
		LastHourly:   msTime(doc.LastHourly),
		LastSlots:    msTime(doc.LastSlots),
		DailyStreak:  safeInt(doc.DailyStreak),
		HourlyStreak: safeInt(doc.HourlyStreak),
		WasBumped:    doc.WasBumped,
		CreatedAt:    now,
	}
	account.NameLower = strings.ToLower(account.Name())

	if doc.ClanID != nil {
		account.ClanID = clanIDs[doc.ClanID.Hex()]
	}
	if account.ClanID == 0 {
		account.ClanID = memberOf[account.ID]
	}
	if doc.ClanJoinCooldown != nil && doc.ClanJoinCooldown.After(now) {
		until := *doc.ClanJoinCooldown
		account.ClanJoinCooldownUntil = &until
	}

	if doc.Traits != nil {
		for _, slot := range doc.Traits.Slots {
			if _, ok := game.Traits[slot.Name]; !ok {
				continue
			}
			account.TraitSlots = append(account.TraitSlots, models.TraitSlot{
				TraitID: slot.Name,
				Level:   int(safeInt(slot.Level)),
			})
		}
	}

	if doc.Zeal != nil {
		account.Zeal = models.Zeal{Stacks: safeInt(doc.Zeal.Stacks)}
		if last := msTime(&doc.Zeal.LastAction); last != nil {
			account.Zeal.LastAction = *last
		}
	}

	slots := make([]string, game.GridSlots)
	if doc.PowerGrid != nil {
		for i, s := range doc.PowerGrid.Slots {
			if i >= game.GridSlots || s == nil {
				continue
			}
			slots[i] = *s
		}
	}
	account.PowerGrid = models.PowerGrid{Slots: slots, LastTick: now}

	// Unfinished smelting batches carry over; finished ones are delivered
	// straight into the converted inventory.
	inventory := make(map[string]int64, len(doc.Inventory))
	for itemID, qty := range doc.Inventory {
		if _, ok := game.Items[itemID]; !ok {
			continue
		}
		if n := safeInt(qty); n > 0 {
			inventory[itemID] = n
		}
	}
	if doc.Smelting != nil && doc.Smelting.Quantity > 0 {
		finish := doc.Smelting.FinishTime
		if at := msTime(&finish); at != nil && at.After(now) {
			account.SmeltJob = &models.SmeltJob{
				ResultItemID: doc.Smelting.ResultItemID,
				Quantity:     safeInt(doc.Smelting.Quantity),
				FinishesAt:   *at,
			}
		} else if _, ok := game.Items[doc.Smelting.ResultItemID]; ok {
			inventory[doc.Smelting.ResultItemID] += safeInt(doc.Smelting.Quantity)
		}
	}

	for _, b := range doc.ActiveBuffs {
		expires := b.ExpiresAt
		at := msTime(&expires)
		if at == nil || !at.After(now) {
			continue
		}
		item, ok := game.Items[b.ItemID]
		if !ok || item.Buff == nil {
			continue
		}
		account.ActiveBuffs = append(account.ActiveBuffs, models.Buff{
			ItemID:    b.ItemID,
			ExpiresAt: *at,
			Effects:   item.Buff.Effects,
		})
	}

	compat.Normalize(account, now)
	return account, inventory
}

func convertClan(doc MongoClan, now time.Time) *models.Clan {
	recruitment := models.RecruitmentClosed
	if safeInt(doc.Recruitment) == 1 {
		recruitment = models.RecruitmentOpen
	}
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &models.Clan{
		Code:           strings.ToUpper(doc.Code),
		Name:           doc.Name,
		NameLower:      strings.ToLower(doc.Name),
		OwnerID:        strings.ToLower(doc.OwnerID),
		Level:          int(safeInt(doc.Level)),
		VaultBalance:   safeInt(doc.VaultBalance),
		WarPoints:      safeInt(doc.WarPoints),
		Recruitment:    recruitment,
		Applicants:     lowerAll(doc.Applicants),
		PendingInvites: lowerAll(doc.PendingInvites),
		CreatedAt:      createdAt,
	}
}

func convertListing(doc MongoListing, now time.Time) *models.MarketListing {
	return &models.MarketListing{
		ListingID:  safeInt(doc.ListingID),
		SellerID:   strings.ToLower(doc.SellerID),
		SellerName: doc.SellerName,
		ItemID:     doc.ItemID,
		Quantity:   safeInt(doc.Quantity),
		UnitPrice:  safeInt(doc.Price),
		CreatedAt:  now,
	}
}

func lowerAll(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = strings.ToLower(id)
	}
	return out
}
