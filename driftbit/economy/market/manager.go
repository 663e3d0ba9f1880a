// Package market maintains the open order book: player and vendor listings,
// compact id allocation, and the atomic list/buy/cancel sequences with
// compensating refunds when a leg fails partway.
package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"log/slog"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
	"github.com/junovette/driftbit/driftbit/game"
)

type Manager struct {
	listings repositories.MarketRepository
	accounts repositories.AccountRepository
}

func NewManager(listings repositories.MarketRepository, accounts repositories.AccountRepository) *Manager {
	return &Manager{listings: listings, accounts: accounts}
}

// List posts a sale offer. The seller's stock is debited first under a
// quantity guard; a failed insert afterwards refunds the debit in full.
func (m *Manager) List(ctx context.Context, seller *models.Account, itemID string, quantity, unitPrice int64) (*models.MarketListing, error) {
	item, ok := game.Items[itemID]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", itemID)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}
	if unitPrice < config.MarketMinPrice || unitPrice > config.MarketMaxPrice {
		return nil, fmt.Errorf("price must be between %d and %d %s",
			config.MarketMinPrice, config.MarketMaxPrice, config.CurrencyName)
	}

	if err := m.accounts.DebitItem(ctx, seller.ID, itemID, quantity); err != nil {
		return nil, err
	}

	listing := &models.MarketListing{
		SellerID:   seller.ID,
		SellerName: seller.Name(),
		ItemID:     item.ID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		CreatedAt:  time.Now(),
	}
	if err := m.listings.CreateListing(ctx, listing); err != nil {
		if refundErr := m.accounts.CreditItem(ctx, seller.ID, itemID, quantity); refundErr != nil {
			slog.Error("Listing refund failed",
				slog.String("type", "db"),
				slog.String("seller", seller.ID),
				slog.String("item", itemID),
				slog.Int64("quantity", quantity),
				slog.Any("error", refundErr))
		}
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// BuyResult reports what a completed purchase moved.
type BuyResult struct {
	Listing        *models.MarketListing
	TotalPaid      int64
	SellerProceeds int64
	TaxRate        float64
}

// Buy executes a purchase. The listing is removed first (delete-and-return,
// so exactly one concurrent buyer can win), then the buyer's balance is
// debited under a guard; any failure after removal reinserts the listing
// verbatim. Sale proceeds are taxed unless the active event zeroes the rate.
func (m *Manager) Buy(ctx context.Context, buyer *models.Account, listingID int64, event *game.ActiveEvent) (*BuyResult, error) {
	listing, err := m.listings.ClaimListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.SellerID == buyer.ID {
		m.restore(ctx, listing)
		return nil, fmt.Errorf("cannot buy your own listing")
	}

	total := listing.TotalCost()
	if err := m.accounts.DebitBalance(ctx, buyer.ID, total); err != nil {
		m.restore(ctx, listing)
		return nil, err
	}

	if err := m.accounts.CreditItem(ctx, buyer.ID, listing.ItemID, listing.Quantity); err != nil {
		// Refund the payment and put the listing back; the buy never
		// half-applies.
		if refundErr := m.accounts.CreditBalance(ctx, buyer.ID, total); refundErr != nil {
			slog.Error("Buy refund failed",
				slog.String("type", "db"),
				slog.String("buyer", buyer.ID),
				slog.Int64("listing_id", listingID),
				slog.Any("error", refundErr))
		}
		m.restore(ctx, listing)
		return nil, fmt.Errorf("failed to credit purchase: %w", err)
	}

	taxRate := modifier.MarketTaxRate(event, time.Now())
	proceeds := int64(math.Round(float64(total) * (1 - taxRate)))

	// Vendor sellers are not real accounts; their proceeds leave the
	// economy.
	if !strings.HasPrefix(listing.SellerID, game.NPCPrefix) {
		if err := m.accounts.CreditBalance(ctx, listing.SellerID, proceeds); err != nil {
			slog.Error("Seller credit failed",
				slog.String("type", "db"),
				slog.String("seller", listing.SellerID),
				slog.Int64("proceeds", proceeds),
				slog.Any("error", err))
		}
	}

	return &BuyResult{
		Listing:        listing,
		TotalPaid:      total,
		SellerProceeds: proceeds,
		TaxRate:        taxRate,
	}, nil
}

// Cancel withdraws the caller's own listing and returns the stock.
func (m *Manager) Cancel(ctx context.Context, seller *models.Account, listingID int64) (*models.MarketListing, error) {
	listing, err := m.listings.ClaimListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != seller.ID {
		m.restore(ctx, listing)
		return nil, fmt.Errorf("listing #%d is not yours", listingID)
	}
	if err := m.accounts.CreditItem(ctx, seller.ID, listing.ItemID, listing.Quantity); err != nil {
		m.restore(ctx, listing)
		return nil, fmt.Errorf("failed to refund stock: %w", err)
	}
	return listing, nil
}

func (m *Manager) restore(ctx context.Context, listing *models.MarketListing) {
	if err := m.listings.Restore(ctx, listing); err != nil {
		slog.Error("Listing restore failed",
			slog.String("type", "db"),
			slog.Int64("listing_id", listing.ListingID),
			slog.Any("error", err))
	}
}

// Correction records one listing removed by the price-policy sweep.
type Correction struct {
	Listing *models.MarketListing
	Reason  string
}

// CorrectionSweep removes listings whose price fell outside policy bounds
// after a rule change, refunding the seller's stock. Failures are logged
// per listing so one bad record never halts the sweep.
func (m *Manager) CorrectionSweep(ctx context.Context) ([]Correction, error) {
	listings, err := m.listings.Listings(ctx)
	if err != nil {
		return nil, err
	}

	var corrections []Correction
	for _, listing := range listings {
		if listing.UnitPrice >= config.MarketMinPrice && listing.UnitPrice <= config.MarketMaxPrice {
			continue
		}
		claimed, err := m.listings.ClaimListing(ctx, listing.ListingID)
		if err != nil {
			// Bought or cancelled since the scan; nothing to correct.
			continue
		}
		if !strings.HasPrefix(claimed.SellerID, game.NPCPrefix) {
			if err := m.accounts.CreditItem(ctx, claimed.SellerID, claimed.ItemID, claimed.Quantity); err != nil {
				slog.Error("Correction refund failed",
					slog.String("type", "db"),
					slog.Int64("listing_id", claimed.ListingID),
					slog.String("seller", claimed.SellerID),
					slog.Any("error", err))
				m.restore(ctx, claimed)
				continue
			}
		}
		corrections = append(corrections, Correction{
			Listing: claimed,
			Reason: fmt.Sprintf("price %d outside the allowed range %d-%d",
				claimed.UnitPrice, config.MarketMinPrice, config.MarketMaxPrice),
		})
	}
	return corrections, nil
}

// Listings lists the open book in id order.
func (m *Manager) Listings(ctx context.Context) ([]*models.MarketListing, error) {
	return m.listings.Listings(ctx)
}

// ListVendor posts a vendor offer onto the book. Vendor stock is conjured,
// not debited from any inventory, and proceeds from vendor sales are burned
// by the buy path.
func (m *Manager) ListVendor(ctx context.Context, vendorID, vendorName, itemID string, quantity, unitPrice int64) (*models.MarketListing, error) {
	if unitPrice < config.MarketMinPrice {
		unitPrice = config.MarketMinPrice
	}
	if unitPrice > config.MarketMaxPrice {
		unitPrice = config.MarketMaxPrice
	}
	listing := &models.MarketListing{
		SellerID:   vendorID,
		SellerName: vendorName,
		ItemID:     itemID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		CreatedAt:  time.Now(),
	}
	if err := m.listings.CreateListing(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// VendorListings returns a vendor's open offers.
func (m *Manager) VendorListings(ctx context.Context, vendorID string) ([]*models.MarketListing, error) {
	return m.listings.ListingsBySeller(ctx, vendorID)
}

// AveragePrice exposes the trimmed mean of open listings for an item.
func (m *Manager) AveragePrice(ctx context.Context, itemID string) (int64, bool, error) {
	return m.listings.AveragePrice(ctx, itemID)
}

// LootboxStock lists the crate shop's current offers.
func (m *Manager) LootboxStock(ctx context.Context) ([]*models.LootboxListing, error) {
	return m.listings.LootboxStock(ctx)
}

// DebitStock removes crates from shop stock, failing with a conflict when a
// concurrent buyer drained it first.
func (m *Manager) DebitStock(ctx context.Context, lootboxID string, quantity int64) error {
	return m.listings.DebitLootboxStock(ctx, lootboxID, quantity)
}

// CreditStock puts crates back on the shelf, used to unwind a purchase whose
// delivery failed.
func (m *Manager) CreditStock(ctx context.Context, listing *models.LootboxListing, quantity int64) error {
	return m.listings.CreditLootboxStock(ctx, listing, quantity)
}

// ReplaceStock swaps the whole crate shop inventory, used by the rotation
// task.
func (m *Manager) ReplaceStock(ctx context.Context, stock []*models.LootboxListing) error {
	return m.listings.ReplaceLootboxStock(ctx, stock)
}

// Conflict reports whether an error means the listing was consumed by a
// concurrent racer.
func Conflict(err error) bool {
	return errors.Is(err, economy.ErrConflict) || errors.Is(err, economy.ErrNotFound)
}
