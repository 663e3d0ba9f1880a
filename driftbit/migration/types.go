package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The legacy deployment stored every numeric field as a JavaScript number,
// so everything lands here as float64 and is truncated on conversion.

// MongoAccount is one document from the legacy economy collection.
type MongoAccount struct {
	ID          string  `bson:"_id"`
	GameName    *string `bson:"drednotName"`
	DisplayName *string `bson:"displayName"`
	DiscordID   *string `bson:"discordId"`
	Balance     float64 `bson:"balance"`

	LastWork   *float64 `bson:"lastWork"`
	LastGather *float64 `bson:"lastGather"`
	LastDaily  *float64 `bson:"lastDaily"`
	LastHourly *float64 `bson:"lastHourly"`
	LastSlots  *float64 `bson:"lastSlots"`

	DailyStreak  float64 `bson:"dailyStreak"`
	HourlyStreak float64 `bson:"hourlyStreak"`

	Inventory   map[string]float64 `bson:"inventory"`
	Smelting    *MongoSmelting     `bson:"smelting"`
	ActiveBuffs []MongoBuff        `bson:"activeBuffs"`
	WasBumped   bool               `bson:"wasBumped"`

	ClanID           *primitive.ObjectID `bson:"clanId"`
	ClanJoinCooldown *time.Time          `bson:"clanJoinCooldown"`

	Traits    *MongoTraits    `bson:"traits"`
	Zeal      *MongoZeal      `bson:"zeal"`
	PowerGrid *MongoPowerGrid `bson:"powerGrid"`
}

type MongoSmelting struct {
	ResultItemID string  `bson:"resultItemId"`
	Quantity     float64 `bson:"quantity"`
	FinishTime   float64 `bson:"finishTime"`
}

type MongoBuff struct {
	ItemID    string  `bson:"itemId"`
	ExpiresAt float64 `bson:"expiresAt"`
}

type MongoTraits struct {
	Slots []MongoTraitSlot `bson:"slots"`
}

// MongoTraitSlot holds the trait id in Name; the legacy code never stored
// the display name despite the field label.
type MongoTraitSlot struct {
	Name  string  `bson:"name"`
	Level float64 `bson:"level"`
}

type MongoZeal struct {
	Stacks     float64 `bson:"stacks"`
	LastAction float64 `bson:"lastAction"`
}

type MongoPowerGrid struct {
	Slots    []*string `bson:"slots"`
	LastTick float64   `bson:"lastTick"`
}

// MongoClan is one document from the legacy clans collection. The member
// roster was embedded; the relational schema derives it from accounts.
type MongoClan struct {
	ID             primitive.ObjectID `bson:"_id"`
	Name           string             `bson:"name"`
	Code           string             `bson:"code"`
	OwnerID        string             `bson:"ownerId"`
	Members        []string           `bson:"members"`
	Level          float64            `bson:"level"`
	VaultBalance   float64            `bson:"vaultBalance"`
	WarPoints      float64            `bson:"warPoints"`
	Recruitment    float64            `bson:"recruitment"`
	Applicants     []string           `bson:"applicants"`
	PendingInvites []string           `bson:"pendingInvites"`
	CreatedAt      time.Time          `bson:"createdAt"`
}

// MongoListing is one document from the legacy market collection.
type MongoListing struct {
	ListingID  float64 `bson:"listingId"`
	SellerID   string  `bson:"sellerId"`
	SellerName string  `bson:"sellerName"`
	ItemID     string  `bson:"itemId"`
	Quantity   float64 `bson:"quantity"`
	Price      float64 `bson:"price"`
}

// MongoWarState is the legacy clan-war clock document.
type MongoWarState struct {
	StateKey   string    `bson:"stateKey"`
	WarEndTime time.Time `bson:"warEndTime"`
}

// TableStats tracks per-table migration counts.
type TableStats struct {
	Read     int
	Migrated int
	Skipped  int
}
