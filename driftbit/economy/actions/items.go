package actions

import (
	"context"
	"fmt"
	"math"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/modifier"
	"github.com/junovette/driftbit/driftbit/game"
)

// CraftResult reports a completed craft. FirstCraftBonus is the bits paid the
// first time this account crafts the item, zero otherwise.
type CraftResult struct {
	ItemID          string
	Quantity        int64
	FirstCraftBonus int64
}

func (s *Service) Craft(ctx context.Context, account *models.Account, itemID string, quantity int64) (*CraftResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("craft quantity must be positive")
	}
	item, ok := game.Items[itemID]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", itemID)
	}
	if !item.Craftable() {
		return nil, fmt.Errorf("%s cannot be crafted", item.Name)
	}

	held, err := s.accounts.ItemQuantity(ctx, account.ID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.debitRecipe(ctx, account.ID, item.Recipe, quantity); err != nil {
		return nil, err
	}
	if err := s.accounts.CreditItem(ctx, account.ID, itemID, quantity); err != nil {
		return nil, fmt.Errorf("crediting crafted item: %w", err)
	}

	res := &CraftResult{ItemID: itemID, Quantity: quantity}
	if held == 0 {
		bonusPct := game.CollectorBonusPerLevel * float64(account.TraitLevels(game.TraitCollector))
		bonus := int64(math.Floor(config.FirstCraftBonusBits * (1 + bonusPct/100)))
		if err := s.accounts.CreditBalance(ctx, account.ID, bonus); err == nil {
			res.FirstCraftBonus = bonus
			account.Balance += bonus
		}
	}
	return res, nil
}

// debitRecipe takes every ingredient for a batch, refunding what was already
// taken when a later ingredient runs short.
func (s *Service) debitRecipe(ctx context.Context, accountID string, recipe map[string]int64, batches int64) error {
	type taken struct {
		itemID string
		qty    int64
	}
	var debited []taken
	for ingredient, perBatch := range recipe {
		need := perBatch * batches
		if err := s.accounts.DebitItem(ctx, accountID, ingredient, need); err != nil {
			for _, t := range debited {
				_ = s.accounts.CreditItem(ctx, accountID, t.itemID, t.qty)
			}
			if economy.Insufficient(err) {
				return fmt.Errorf("missing %d %s: %w", need, ingredient, economy.ErrInsufficientItems)
			}
			return err
		}
		debited = append(debited, taken{itemID: ingredient, qty: need})
	}
	return nil
}

// EatResult reports a consumed food and the buff it granted, if any.
type EatResult struct {
	ItemID string
	Buff   *models.Buff
}

// Eat consumes one unit of a food item. Re-eating the same food refreshes its
// buff duration instead of stacking a second copy.
func (s *Service) Eat(ctx context.Context, account *models.Account, itemID string) (*EatResult, error) {
	item, ok := game.Items[itemID]
	if !ok {
		return nil, fmt.Errorf("unknown item %q", itemID)
	}
	if item.Type != game.ItemTypeFood {
		return nil, fmt.Errorf("%s is not edible", item.Name)
	}
	if item.Buff == nil {
		return nil, fmt.Errorf("%s must be cooked first", item.Name)
	}
	if err := s.accounts.DebitItem(ctx, account.ID, itemID, 1); err != nil {
		return nil, err
	}

	now := nowFunc()
	buff := models.Buff{
		ItemID:    itemID,
		ExpiresAt: now.Add(item.Buff.Duration),
		Effects:   item.Buff.Effects,
	}
	kept := make([]models.Buff, 0, len(account.ActiveBuffs)+1)
	for _, b := range account.ActiveBuffs {
		if b.ItemID == itemID || !b.Active(now) {
			continue
		}
		kept = append(kept, b)
	}
	account.ActiveBuffs = append(kept, buff)
	if err := s.accounts.SetBuffs(ctx, account.ID, account.ActiveBuffs); err != nil {
		return nil, err
	}
	return &EatResult{ItemID: itemID, Buff: &buff}, nil
}

// SmeltResult reports a started smelting batch.
type SmeltResult struct {
	Job *models.SmeltJob
}

// Smelt starts a batch converting ores to ingots or raw foods to cooked ones.
// The smelter runs one batch at a time and burns coal per input item; the
// scheduler sweep delivers the output when the job finishes.
func (s *Service) Smelt(ctx context.Context, account *models.Account, inputID string, quantity int64) (*SmeltResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("smelt quantity must be positive")
	}
	now := nowFunc()
	if account.SmeltJob != nil {
		return nil, fmt.Errorf("the smelter is already running until %s", account.SmeltJob.FinishesAt.Format("15:04:05"))
	}
	resultID, ok := game.SmeltableOres[inputID]
	if !ok {
		resultID, ok = game.CookableFoods[inputID]
	}
	if !ok {
		return nil, fmt.Errorf("%s cannot be smelted", inputID)
	}
	smelters, err := s.accounts.ItemQuantity(ctx, account.ID, game.ItemSmelter)
	if err != nil {
		return nil, err
	}
	if smelters == 0 {
		return nil, fmt.Errorf("a smelter is required: %w", economy.ErrInsufficientItems)
	}

	if err := s.accounts.DebitItem(ctx, account.ID, inputID, quantity); err != nil {
		return nil, err
	}
	coal := quantity * config.SmeltCoalCostPerOre
	if err := s.accounts.DebitItem(ctx, account.ID, game.ItemCoal, coal); err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, inputID, quantity)
		if economy.Insufficient(err) {
			return nil, fmt.Errorf("smelting %d items needs %d coal: %w", quantity, coal, economy.ErrInsufficientItems)
		}
		return nil, err
	}

	job := &models.SmeltJob{
		ResultItemID: resultID,
		Quantity:     quantity,
		FinishesAt:   now.Add(modifier.SmeltDuration(quantity, smelters, s.event(), now)),
	}
	if err := s.accounts.SetSmeltJob(ctx, account.ID, job); err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, inputID, quantity)
		_ = s.accounts.CreditItem(ctx, account.ID, game.ItemCoal, coal)
		return nil, err
	}
	account.SmeltJob = job
	return &SmeltResult{Job: job}, nil
}

// OpenResult is the outcome of opening one owned crate.
type OpenResult struct {
	LootboxID string
	Kind      game.LootboxRewardKind
	ItemID    string
	Quantity  int64
}

func (s *Service) OpenLootbox(ctx context.Context, account *models.Account, lootboxID string) (*OpenResult, error) {
	if _, ok := game.Lootboxes[lootboxID]; !ok {
		return nil, fmt.Errorf("unknown lootbox %q", lootboxID)
	}
	if err := s.accounts.DebitItem(ctx, account.ID, lootboxID, 1); err != nil {
		return nil, err
	}
	reward, err := s.rewards.OpenLootbox(lootboxID)
	if err != nil {
		_ = s.accounts.CreditItem(ctx, account.ID, lootboxID, 1)
		return nil, err
	}
	switch reward.Kind {
	case game.LootboxRewardBits:
		if err := s.accounts.CreditBalance(ctx, account.ID, reward.Quantity); err != nil {
			return nil, fmt.Errorf("crediting lootbox bits: %w", err)
		}
		account.Balance += reward.Quantity
	case game.LootboxRewardItem:
		if err := s.accounts.CreditItem(ctx, account.ID, reward.ItemID, reward.Quantity); err != nil {
			return nil, fmt.Errorf("crediting lootbox item: %w", err)
		}
	}
	return &OpenResult{LootboxID: lootboxID, Kind: reward.Kind, ItemID: reward.ItemID, Quantity: reward.Quantity}, nil
}

// BuyLootboxResult reports a crate-shop purchase.
type BuyLootboxResult struct {
	LootboxID string
	Quantity  int64
	TotalPaid int64
}

// BuyLootbox purchases crates from the rotating shop stock. The balance is
// taken first so a stock race only ever needs a refund, never a stock credit.
func (s *Service) BuyLootbox(ctx context.Context, account *models.Account, lootboxID string, quantity int64) (*BuyLootboxResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("purchase quantity must be positive")
	}
	stock, err := s.market.LootboxStock(ctx)
	if err != nil {
		return nil, err
	}
	var listing *models.LootboxListing
	for _, l := range stock {
		if l.LootboxID == lootboxID {
			listing = l
			break
		}
	}
	if listing == nil {
		return nil, fmt.Errorf("%s is not in stock: %w", lootboxID, economy.ErrNotFound)
	}

	total := listing.UnitPrice * quantity
	if err := s.accounts.DebitBalance(ctx, account.ID, total); err != nil {
		return nil, err
	}
	if err := s.market.DebitStock(ctx, lootboxID, quantity); err != nil {
		_ = s.accounts.CreditBalance(ctx, account.ID, total)
		return nil, err
	}
	if err := s.accounts.CreditItem(ctx, account.ID, lootboxID, quantity); err != nil {
		_ = s.accounts.CreditBalance(ctx, account.ID, total)
		_ = s.market.CreditStock(ctx, listing, quantity)
		return nil, fmt.Errorf("crediting purchased crates: %w", err)
	}
	account.Balance -= total
	return &BuyLootboxResult{LootboxID: lootboxID, Quantity: quantity, TotalPaid: total}, nil
}
