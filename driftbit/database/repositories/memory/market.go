package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/game"
)

type MarketStore struct {
	mu       sync.Mutex
	listings map[int64]*models.MarketListing
	crates   map[string]*models.LootboxListing
}

func NewMarketStore() *MarketStore {
	return &MarketStore{
		listings: make(map[int64]*models.MarketListing),
		crates:   make(map[string]*models.LootboxListing),
	}
}

func (s *MarketStore) CreateListing(_ context.Context, listing *models.MarketListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := int64(1)
	for {
		if _, taken := s.listings[id]; !taken {
			break
		}
		id++
	}
	listing.ListingID = id
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = time.Now()
	}
	cp := *listing
	s.listings[id] = &cp
	return nil
}

func (s *MarketStore) GetListing(_ context.Context, listingID int64) (*models.MarketListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, economy.ErrNotFound
	}
	cp := *listing
	return &cp, nil
}

func (s *MarketStore) Listings(_ context.Context) ([]*models.MarketListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.MarketListing
	for _, l := range s.listings {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ListingID < out[j].ListingID })
	return out, nil
}

func (s *MarketStore) ListingsByItem(_ context.Context, itemID string) ([]*models.MarketListing, error) {
	all, _ := s.Listings(nil)
	var out []*models.MarketListing
	for _, l := range all {
		if l.ItemID == itemID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitPrice != out[j].UnitPrice {
			return out[i].UnitPrice < out[j].UnitPrice
		}
		return out[i].ListingID < out[j].ListingID
	})
	return out, nil
}

func (s *MarketStore) ListingsBySeller(_ context.Context, sellerID string) ([]*models.MarketListing, error) {
	all, _ := s.Listings(nil)
	var out []*models.MarketListing
	for _, l := range all {
		if l.SellerID == sellerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MarketStore) ClaimListing(_ context.Context, listingID int64) (*models.MarketListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	listing, ok := s.listings[listingID]
	if !ok {
		return nil, economy.ErrConflict
	}
	delete(s.listings, listingID)
	cp := *listing
	return &cp, nil
}

func (s *MarketStore) Restore(_ context.Context, listing *models.MarketListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.listings[listing.ListingID]; taken {
		return economy.ErrConflict
	}
	cp := *listing
	s.listings[listing.ListingID] = &cp
	return nil
}

func (s *MarketStore) AveragePrice(_ context.Context, itemID string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prices []int64
	for _, l := range s.listings {
		if l.ItemID == itemID && !strings.HasPrefix(l.SellerID, game.NPCPrefix) {
			prices = append(prices, l.UnitPrice)
		}
	}
	if len(prices) == 0 {
		return 0, false, nil
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	if trim := len(prices) / 10; trim > 0 {
		prices = prices[trim : len(prices)-trim]
	}
	var sum int64
	for _, p := range prices {
		sum += p
	}
	return sum / int64(len(prices)), true, nil
}

func (s *MarketStore) LootboxStock(_ context.Context) ([]*models.LootboxListing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.LootboxListing
	for _, l := range s.crates {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LootboxID < out[j].LootboxID })
	return out, nil
}

func (s *MarketStore) ReplaceLootboxStock(_ context.Context, stock []*models.LootboxListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.crates = make(map[string]*models.LootboxListing)
	for _, l := range stock {
		cp := *l
		s.crates[l.LootboxID] = &cp
	}
	return nil
}

func (s *MarketStore) DebitLootboxStock(_ context.Context, lootboxID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	crate, ok := s.crates[lootboxID]
	if !ok || crate.Quantity < quantity {
		return economy.ErrConflict
	}
	crate.Quantity -= quantity
	if crate.Quantity == 0 {
		delete(s.crates, lootboxID)
	}
	return nil
}

func (s *MarketStore) CreditLootboxStock(_ context.Context, listing *models.LootboxListing, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	crate, ok := s.crates[listing.LootboxID]
	if !ok {
		s.crates[listing.LootboxID] = &models.LootboxListing{
			LootboxID: listing.LootboxID,
			Quantity:  quantity,
			UnitPrice: listing.UnitPrice,
		}
		return nil
	}
	crate.Quantity += quantity
	return nil
}
