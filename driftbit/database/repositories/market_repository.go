package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/game"
)

type MarketRepository interface {
	// CreateListing assigns the lowest unused positive listing id and
	// inserts the row. The assigned id is written back into the listing.
	CreateListing(ctx context.Context, listing *models.MarketListing) error
	GetListing(ctx context.Context, listingID int64) (*models.MarketListing, error)
	Listings(ctx context.Context) ([]*models.MarketListing, error)
	ListingsByItem(ctx context.Context, itemID string) ([]*models.MarketListing, error)
	ListingsBySeller(ctx context.Context, sellerID string) ([]*models.MarketListing, error)

	// ClaimListing atomically removes and returns a listing. Exactly one of
	// any number of concurrent claimants wins; the rest get ErrConflict.
	ClaimListing(ctx context.Context, listingID int64) (*models.MarketListing, error)
	// Restore reinserts a claimed listing under its original id, used to
	// compensate a buy whose payment leg failed.
	Restore(ctx context.Context, listing *models.MarketListing) error

	AveragePrice(ctx context.Context, itemID string) (int64, bool, error)

	LootboxStock(ctx context.Context) ([]*models.LootboxListing, error)
	ReplaceLootboxStock(ctx context.Context, stock []*models.LootboxListing) error
	// DebitLootboxStock decrements crate stock, failing when quantity is short.
	DebitLootboxStock(ctx context.Context, lootboxID string, quantity int64) error
	// CreditLootboxStock returns crates to shop stock, recreating the row when
	// a debit emptied it.
	CreditLootboxStock(ctx context.Context, listing *models.LootboxListing, quantity int64) error
}

type marketRepository struct {
	db bun.IDB
}

func NewMarketRepository(db bun.IDB) MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) CreateListing(ctx context.Context, listing *models.MarketListing) error {
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now()
	}
	// Lowest unused positive id, so cancelled ids are reused and the id
	// space stays dense.
	err := r.db.NewRaw(`
		INSERT INTO market_listings (listing_id, seller_id, seller_name, item_id, quantity, unit_price, created_at)
		SELECT (
			SELECT MIN(n) FROM generate_series(1, (SELECT COALESCE(MAX(listing_id), 0) + 1 FROM market_listings)) n
			WHERE n NOT IN (SELECT listing_id FROM market_listings)
		), ?, ?, ?, ?, ?, ?
		RETURNING listing_id
	`, listing.SellerID, listing.SellerName, listing.ItemID, listing.Quantity, listing.UnitPrice, listing.CreatedAt).
		Scan(ctx, &listing.ListingID)
	if err != nil {
		return err
	}
	return nil
}

func (r *marketRepository) GetListing(ctx context.Context, listingID int64) (*models.MarketListing, error) {
	listing := new(models.MarketListing)
	err := r.db.NewSelect().
		Model(listing).
		Where("listing_id = ?", listingID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *marketRepository) Listings(ctx context.Context) ([]*models.MarketListing, error) {
	var listings []*models.MarketListing
	err := r.db.NewSelect().
		Model(&listings).
		Order("listing_id ASC").
		Scan(ctx)
	return listings, err
}

func (r *marketRepository) ListingsByItem(ctx context.Context, itemID string) ([]*models.MarketListing, error) {
	var listings []*models.MarketListing
	err := r.db.NewSelect().
		Model(&listings).
		Where("item_id = ?", itemID).
		Order("unit_price ASC, listing_id ASC").
		Scan(ctx)
	return listings, err
}

func (r *marketRepository) ListingsBySeller(ctx context.Context, sellerID string) ([]*models.MarketListing, error) {
	var listings []*models.MarketListing
	err := r.db.NewSelect().
		Model(&listings).
		Where("seller_id = ?", sellerID).
		Order("listing_id ASC").
		Scan(ctx)
	return listings, err
}

func (r *marketRepository) ClaimListing(ctx context.Context, listingID int64) (*models.MarketListing, error) {
	listing := new(models.MarketListing)
	err := r.db.NewDelete().
		Model(listing).
		Where("listing_id = ?", listingID).
		Returning("*").
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, economy.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (r *marketRepository) Restore(ctx context.Context, listing *models.MarketListing) error {
	_, err := r.db.NewInsert().Model(listing).Exec(ctx)
	return err
}

// AveragePrice returns the trimmed mean of open player listing prices for an
// item. Vendor listings are excluded so restock pricing never feeds on
// itself; the cheapest and dearest ten percent are dropped when the sample
// is big enough for the trim to remove anything.
func (r *marketRepository) AveragePrice(ctx context.Context, itemID string) (int64, bool, error) {
	var prices []int64
	err := r.db.NewSelect().
		Model((*models.MarketListing)(nil)).
		Column("unit_price").
		Where("item_id = ?", itemID).
		Where("seller_id NOT LIKE ?", game.NPCPrefix+"%").
		Order("unit_price ASC").
		Scan(ctx, &prices)
	if err != nil {
		return 0, false, err
	}
	if len(prices) == 0 {
		return 0, false, nil
	}
	if trim := len(prices) / 10; trim > 0 {
		prices = prices[trim : len(prices)-trim]
	}
	var sum int64
	for _, p := range prices {
		sum += p
	}
	return sum / int64(len(prices)), true, nil
}

func (r *marketRepository) LootboxStock(ctx context.Context) ([]*models.LootboxListing, error) {
	var stock []*models.LootboxListing
	err := r.db.NewSelect().
		Model(&stock).
		Order("lootbox_id ASC").
		Scan(ctx)
	return stock, err
}

func (r *marketRepository) ReplaceLootboxStock(ctx context.Context, stock []*models.LootboxListing) error {
	if _, err := r.db.NewDelete().
		Model((*models.LootboxListing)(nil)).
		Where("TRUE").
		Exec(ctx); err != nil {
		return err
	}
	if len(stock) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&stock).Exec(ctx)
	return err
}

func (r *marketRepository) DebitLootboxStock(ctx context.Context, lootboxID string, quantity int64) error {
	result, err := r.db.NewUpdate().
		Model((*models.LootboxListing)(nil)).
		Set("quantity = quantity - ?", quantity).
		Where("lootbox_id = ? AND quantity >= ?", lootboxID, quantity).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrConflict
	}
	return nil
}

func (r *marketRepository) CreditLootboxStock(ctx context.Context, listing *models.LootboxListing, quantity int64) error {
	row := &models.LootboxListing{
		LootboxID: listing.LootboxID,
		Quantity:  quantity,
		UnitPrice: listing.UnitPrice,
	}
	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (lootbox_id) DO UPDATE").
		Set("quantity = ll.quantity + EXCLUDED.quantity").
		Exec(ctx)
	return err
}
