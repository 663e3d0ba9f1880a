package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories/memory"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/game"
)

func newTestMarket(t *testing.T) (*Manager, *memory.AccountStore, *memory.MarketStore) {
	t.Helper()
	accounts := memory.NewAccountStore()
	listings := memory.NewMarketStore()
	return NewManager(listings, accounts), accounts, listings
}

func seedAccount(t *testing.T, store *memory.AccountStore, id string, balance int64, items map[string]int64) *models.Account {
	t.Helper()
	ctx := context.Background()
	account := &models.Account{ID: id, GameName: id, Balance: balance, CreatedAt: time.Now()}
	if err := store.Create(ctx, account); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	for itemID, qty := range items {
		if err := store.CreditItem(ctx, id, itemID, qty); err != nil {
			t.Fatalf("seed items: %v", err)
		}
	}
	return account
}

func TestListDebitsStock(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})

	listing, err := m.List(ctx, seller, game.ItemIronOre, 4, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.ListingID != 1 {
		t.Errorf("first listing id = %d, want 1", listing.ListingID)
	}
	if qty, _ := accounts.ItemQuantity(ctx, "seller", game.ItemIronOre); qty != 6 {
		t.Errorf("seller stock = %d, want 6", qty)
	}
}

func TestListValidation(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})

	tests := []struct {
		name   string
		itemID string
		qty    int64
		price  int64
	}{
		{"unknown item", "imaginary", 1, 10},
		{"zero quantity", game.ItemIronOre, 0, 10},
		{"price below floor", game.ItemIronOre, 1, 0},
		{"price above cap", game.ItemIronOre, 1, config.MarketMaxPrice + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.List(ctx, seller, tt.itemID, tt.qty, tt.price); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	// Validation rejects before any mutation.
	if qty, _ := accounts.ItemQuantity(ctx, "seller", game.ItemIronOre); qty != 10 {
		t.Errorf("stock changed by rejected listings: %d", qty)
	}
}

func TestListInsufficientStock(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 3})

	_, err := m.List(ctx, seller, game.ItemIronOre, 5, 10)
	if !errors.Is(err, economy.ErrInsufficientItems) {
		t.Fatalf("error = %v, want ErrInsufficientItems", err)
	}
}

func TestListingIDReusesLowestGap(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 100})

	var ids []int64
	for i := 0; i < 3; i++ {
		listing, err := m.List(ctx, seller, game.ItemIronOre, 1, 10)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		ids = append(ids, listing.ListingID)
	}
	if ids[0] != 1 || ids[1] != 2 || ids[2] != 3 {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}

	// {1,3}: cancelling #2 makes 2 the lowest unused id.
	if _, err := m.Cancel(ctx, seller, 2); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	listing, err := m.List(ctx, seller, game.ItemIronOre, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.ListingID != 2 {
		t.Errorf("next id after gap = %d, want 2", listing.ListingID)
	}

	// {1,2,3}: no gap, so next-after-max.
	listing, err = m.List(ctx, seller, game.ItemIronOre, 1, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.ListingID != 4 {
		t.Errorf("next id with no gap = %d, want 4", listing.ListingID)
	}
}

func TestCancelReturnsExactStock(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})

	listing, err := m.List(ctx, seller, game.ItemIronOre, 7, 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := m.Cancel(ctx, seller, listing.ListingID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if qty, _ := accounts.ItemQuantity(ctx, "seller", game.ItemIronOre); qty != 10 {
		t.Errorf("stock after cancel = %d, want the original 10", qty)
	}
}

func TestCancelNotOwner(t *testing.T) {
	ctx := context.Background()
	m, accounts, listings := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})
	other := seedAccount(t, accounts, "other", 0, nil)

	listing, err := m.List(ctx, seller, game.ItemIronOre, 2, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := m.Cancel(ctx, other, listing.ListingID); err == nil {
		t.Fatal("cancel of another seller's listing accepted")
	}
	// The listing survives the rejected cancel.
	if _, err := listings.GetListing(ctx, listing.ListingID); err != nil {
		t.Errorf("listing gone after rejected cancel: %v", err)
	}
}

func TestBuyHappyPath(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})
	buyer := seedAccount(t, accounts, "buyer", 1000, nil)

	listing, err := m.List(ctx, seller, game.ItemIronOre, 4, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	result, err := m.Buy(ctx, buyer, listing.ListingID, nil)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if result.TotalPaid != 100 {
		t.Errorf("paid %d, want 100", result.TotalPaid)
	}
	// 100 x (1 - 0.05) = 95.
	if result.SellerProceeds != 95 {
		t.Errorf("proceeds %d, want 95", result.SellerProceeds)
	}

	if balance, _ := accounts.GetBalance(ctx, "buyer"); balance != 900 {
		t.Errorf("buyer balance = %d, want 900", balance)
	}
	if balance, _ := accounts.GetBalance(ctx, "seller"); balance != 95 {
		t.Errorf("seller balance = %d, want 95", balance)
	}
	if qty, _ := accounts.ItemQuantity(ctx, "buyer", game.ItemIronOre); qty != 4 {
		t.Errorf("buyer stock = %d, want 4", qty)
	}
}

func TestBuyTaxFreeUnderEvent(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})
	buyer := seedAccount(t, accounts, "buyer", 1000, nil)

	listing, err := m.List(ctx, seller, game.ItemIronOre, 4, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	def := game.Events[game.EventMarketMadness]
	event := &game.ActiveEvent{EventDef: def, StartedAt: time.Now(), ExpiresAt: time.Now().Add(def.Duration)}
	result, err := m.Buy(ctx, buyer, listing.ListingID, event)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if result.SellerProceeds != 100 {
		t.Errorf("tax-free proceeds = %d, want 100", result.SellerProceeds)
	}
}

func TestBuySelfPurchaseReinserted(t *testing.T) {
	ctx := context.Background()
	m, accounts, listings := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 1000, map[string]int64{game.ItemIronOre: 10})

	listing, err := m.List(ctx, seller, game.ItemIronOre, 4, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := m.Buy(ctx, seller, listing.ListingID, nil); err == nil {
		t.Fatal("self purchase accepted")
	}

	restored, err := listings.GetListing(ctx, listing.ListingID)
	if err != nil {
		t.Fatalf("listing not reinserted: %v", err)
	}
	if restored.Quantity != 4 || restored.UnitPrice != 25 {
		t.Errorf("listing altered by rejected self purchase: %+v", restored)
	}
	if balance, _ := accounts.GetBalance(ctx, "seller"); balance != 1000 {
		t.Errorf("seller balance changed: %d", balance)
	}
}

func TestBuyInsufficientFundsCompensates(t *testing.T) {
	ctx := context.Background()
	m, accounts, listings := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})
	buyer := seedAccount(t, accounts, "buyer", 50, nil)

	listing, err := m.List(ctx, seller, game.ItemIronOre, 4, 25)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if _, err := m.Buy(ctx, buyer, listing.ListingID, nil); !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("error = %v, want ErrInsufficientFunds", err)
	}

	// Full compensation: listing back verbatim, nothing moved.
	if _, err := listings.GetListing(ctx, listing.ListingID); err != nil {
		t.Errorf("listing not restored: %v", err)
	}
	if balance, _ := accounts.GetBalance(ctx, "buyer"); balance != 50 {
		t.Errorf("buyer balance = %d, want 50", balance)
	}
	if qty, _ := accounts.ItemQuantity(ctx, "buyer", game.ItemIronOre); qty != 0 {
		t.Errorf("buyer credited despite failed buy: %d", qty)
	}
}

func TestConcurrentBuyExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	m, accounts, _ := newTestMarket(t)
	seller := seedAccount(t, accounts, "seller", 0, map[string]int64{game.ItemIronOre: 10})

	listing, err := m.List(ctx, seller, game.ItemIronOre, 5, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	const buyers = 8
	accountsByID := make([]*models.Account, buyers)
	for i := 0; i < buyers; i++ {
		accountsByID[i] = seedAccount(t, accounts, string(rune('a'+i)), 1000, nil)
	}

	var wg sync.WaitGroup
	results := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = m.Buy(ctx, accountsByID[i], listing.ListingID, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for i, err := range results {
		if err == nil {
			wins++
			continue
		}
		if !Conflict(err) {
			t.Errorf("buyer %d got unexpected error: %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d buyers won, want exactly 1", wins)
	}

	// Inventory credited exactly once across all buyers.
	var credited int64
	for i := 0; i < buyers; i++ {
		qty, _ := accounts.ItemQuantity(ctx, accountsByID[i].ID, game.ItemIronOre)
		credited += qty
	}
	if credited != 5 {
		t.Errorf("total credited = %d, want 5", credited)
	}
}

func TestCorrectionSweep(t *testing.T) {
	ctx := context.Background()
	m, accounts, listings := newTestMarket(t)
	seedAccount(t, accounts, "seller", 0, nil)

	// An out-of-policy listing that predates the price bounds.
	rogue := &models.MarketListing{
		SellerID:   "seller",
		SellerName: "seller",
		ItemID:     game.ItemIronOre,
		Quantity:   3,
		UnitPrice:  config.MarketMaxPrice + 500,
	}
	if err := listings.CreateListing(ctx, rogue); err != nil {
		t.Fatalf("seed rogue listing: %v", err)
	}
	fine := &models.MarketListing{
		SellerID:   "seller",
		SellerName: "seller",
		ItemID:     game.ItemIronOre,
		Quantity:   1,
		UnitPrice:  100,
	}
	if err := listings.CreateListing(ctx, fine); err != nil {
		t.Fatalf("seed fine listing: %v", err)
	}

	corrections, err := m.CorrectionSweep(ctx)
	if err != nil {
		t.Fatalf("CorrectionSweep: %v", err)
	}
	if len(corrections) != 1 || corrections[0].Listing.ListingID != rogue.ListingID {
		t.Fatalf("corrections = %+v, want just the rogue listing", corrections)
	}
	if qty, _ := accounts.ItemQuantity(ctx, "seller", game.ItemIronOre); qty != 3 {
		t.Errorf("refund = %d, want 3", qty)
	}
	if _, err := listings.GetListing(ctx, fine.ListingID); err != nil {
		t.Errorf("in-policy listing removed: %v", err)
	}
}

func TestAveragePriceIgnoresVendorListings(t *testing.T) {
	ctx := context.Background()
	m, _, listings := newTestMarket(t)

	seed := []struct {
		id     int64
		seller string
		price  int64
	}{
		{1, "alice", 10},
		{2, "bob", 20},
		{3, game.VendorTerra, 9000},
	}
	for _, s := range seed {
		err := listings.Restore(ctx, &models.MarketListing{
			ListingID: s.id, SellerID: s.seller, SellerName: s.seller,
			ItemID: game.ItemWood, Quantity: 1, UnitPrice: s.price,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed listing %d: %v", s.id, err)
		}
	}

	avg, ok, err := m.AveragePrice(ctx, game.ItemWood)
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if !ok {
		t.Fatal("expected a price from the two player listings")
	}
	if avg != 15 {
		t.Errorf("avg = %d, want 15 (vendor listing must not count)", avg)
	}
}

func TestAveragePriceTrimsTenPercent(t *testing.T) {
	ctx := context.Background()
	m, _, listings := newTestMarket(t)

	// Ten samples: 1 and 1000 are the outliers the trim must drop, the
	// eight in between average 50.
	prices := []int64{1, 50, 50, 50, 50, 50, 50, 50, 50, 1000}
	for i, p := range prices {
		err := listings.Restore(ctx, &models.MarketListing{
			ListingID: int64(i + 1), SellerID: "seller", SellerName: "seller",
			ItemID: game.ItemStone, Quantity: 1, UnitPrice: p,
			CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed listing %d: %v", i+1, err)
		}
	}

	avg, ok, err := m.AveragePrice(ctx, game.ItemStone)
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if !ok {
		t.Fatal("expected a price")
	}
	if avg != 50 {
		t.Errorf("avg = %d, want 50 after trimming the 10%% tails", avg)
	}
}
