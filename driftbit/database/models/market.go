package models

import (
	"time"

	"github.com/uptrace/bun"
)

// MarketListing is one open sale offer. ListingID is a dense, reused positive
// integer: the lowest unused id is always assigned to the next listing.
type MarketListing struct {
	bun.BaseModel `bun:"table:market_listings,alias:ml"`

	ListingID  int64     `bun:"listing_id,pk"`
	SellerID   string    `bun:"seller_id,notnull"`
	SellerName string    `bun:"seller_name,notnull"`
	ItemID     string    `bun:"item_id,notnull"`
	Quantity   int64     `bun:"quantity,notnull"`
	UnitPrice  int64     `bun:"unit_price,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull"`
}

// TotalCost is the full price of buying the listing out.
func (l *MarketListing) TotalCost() int64 {
	return l.Quantity * l.UnitPrice
}

// LootboxListing is vendor-only crate stock in the crate shop.
type LootboxListing struct {
	bun.BaseModel `bun:"table:lootbox_listings,alias:ll"`

	LootboxID string `bun:"lootbox_id,pk"`
	Quantity  int64  `bun:"quantity,notnull"`
	UnitPrice int64  `bun:"unit_price,notnull"`
}
