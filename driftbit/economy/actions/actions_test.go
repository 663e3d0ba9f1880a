package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories/memory"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

type fixture struct {
	svc      *Service
	accounts *memory.AccountStore
	market   *memory.MarketStore
	clans    *memory.ClanStore
	state    *memory.StateStore
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	accounts := memory.NewAccountStore()
	marketStore := memory.NewMarketStore()
	clans := memory.NewClanStore()
	state := memory.NewStateStore()
	rewards := reward.NewEngine(reward.NewSeededSource(seed))
	eng := engine.New(accounts, rewards, nil)
	svc := NewService(
		eng, accounts, clans,
		market.NewManager(marketStore, accounts),
		clan.NewManager(clans, accounts, state, rewards),
		rewards, nil,
	)
	return &fixture{svc: svc, accounts: accounts, market: marketStore, clans: clans, state: state}
}

func (f *fixture) newAccount(t *testing.T, id string, balance int64) *models.Account {
	t.Helper()
	account := &models.Account{
		ID:        id,
		GameName:  id,
		Balance:   balance,
		Zeal:      models.Zeal{},
		PowerGrid: models.PowerGrid{Slots: make([]string, game.GridSlots)},
		Inventory: map[string]int64{},
		CreatedAt: time.Now(),
	}
	if err := f.accounts.Create(context.Background(), account); err != nil {
		t.Fatalf("creating account: %v", err)
	}
	return account
}

func (f *fixture) give(t *testing.T, accountID, itemID string, qty int64) {
	t.Helper()
	if err := f.accounts.CreditItem(context.Background(), accountID, itemID, qty); err != nil {
		t.Fatalf("crediting %s: %v", itemID, err)
	}
}

func (f *fixture) quantity(t *testing.T, accountID, itemID string) int64 {
	t.Helper()
	qty, err := f.accounts.ItemQuantity(context.Background(), accountID, itemID)
	if err != nil {
		t.Fatalf("reading %s quantity: %v", itemID, err)
	}
	return qty
}

func (f *fixture) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	bal, err := f.accounts.GetBalance(context.Background(), accountID)
	if err != nil {
		t.Fatalf("reading balance: %v", err)
	}
	return bal
}

func TestWorkPaysAndStampsCooldown(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	account := f.newAccount(t, "miner", 0)

	res, err := f.svc.Work(ctx, account)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	if res.Base < config.WorkRewardMin || res.Base > config.WorkRewardMax {
		t.Errorf("base roll %d outside [%d, %d]", res.Base, config.WorkRewardMin, config.WorkRewardMax)
	}
	if res.Payout != res.Base {
		t.Errorf("unmodified payout = %d, want base %d", res.Payout, res.Base)
	}
	if got := f.balance(t, "miner"); got != res.Payout {
		t.Errorf("balance = %d, want %d", got, res.Payout)
	}
	if account.LastWork == nil {
		t.Fatal("LastWork not stamped")
	}

	_, err = f.svc.Work(ctx, account)
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("immediate retry error = %v, want CooldownError", err)
	}
	if cd.Remaining <= 0 || cd.Remaining > config.WorkCooldown {
		t.Errorf("remaining = %s, want within (0, %s]", cd.Remaining, config.WorkCooldown)
	}
}

func TestMomentumWorkSkipsCooldownStamp(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	account := f.newAccount(t, "lucky", 0)

	warband := &models.Clan{Name: "Warband", Code: "WRBND", OwnerID: account.ID, Level: 7}
	if err := f.clans.Create(ctx, warband); err != nil {
		t.Fatalf("create clan: %v", err)
	}
	account.ClanID = warband.ID

	stamp := time.Now().Add(-1 * time.Second)
	account.LastWork = &stamp
	if err := f.accounts.Update(ctx, account); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Level 7 grants a 5% momentum roll. The account stays deep inside its
	// cooldown, so any success can only be a momentum pass, and that pass
	// must leave the stamp alone.
	for i := 0; i < 2000; i++ {
		account.LastWork = &stamp
		res, err := f.svc.Work(ctx, account)
		var cd *CooldownError
		if errors.As(err, &cd) {
			continue
		}
		if err != nil {
			t.Fatalf("work: %v", err)
		}
		if !res.Momentum {
			t.Fatal("gated work succeeded without momentum")
		}
		if account.LastWork == nil || !account.LastWork.Equal(stamp) {
			t.Fatalf("momentum work rewrote LastWork: %v, want %v", account.LastWork, stamp)
		}
		stored, err := f.accounts.GetByID(ctx, account.ID)
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		if stored.LastWork == nil || !stored.LastWork.Equal(stamp) {
			t.Fatalf("momentum work stamped the store: %v, want %v", stored.LastWork, stamp)
		}
		return
	}
	t.Fatal("momentum never fired in 2000 gated attempts at 5%")
}

func TestWorkDoubleOrNothingConsumesBuff(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()
	account := f.newAccount(t, "gambler", 0)
	account.ActiveBuffs = []models.Buff{{
		ItemID:    game.ItemSpicyPepper,
		ExpiresAt: time.Now().Add(time.Minute),
		Effects:   game.BuffEffects{WorkDoubleOrNothing: true},
	}}
	if err := f.accounts.SetBuffs(ctx, account.ID, account.ActiveBuffs); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.Work(ctx, account)
	if err != nil {
		t.Fatalf("work: %v", err)
	}
	if !res.CoinFlipped {
		t.Error("armed buff did not flip the coin")
	}
	if res.CoinWon && res.Payout == 0 {
		t.Error("won coin but payout is zero")
	}
	if !res.CoinWon && res.Payout != 0 {
		t.Errorf("lost coin but payout = %d", res.Payout)
	}
	if got := f.balance(t, "gambler"); got != res.Payout {
		t.Errorf("balance = %d, want %d", got, res.Payout)
	}
	for _, b := range account.ActiveBuffs {
		if b.Effects.WorkDoubleOrNothing {
			t.Error("double-or-nothing buff survived its flip")
		}
	}
}

func TestWorkBumpsZeal(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	account := f.newAccount(t, "zealot", 0)
	account.TraitSlots = []models.TraitSlot{{TraitID: game.TraitZealot, Level: 1}}

	if _, err := f.svc.Work(ctx, account); err != nil {
		t.Fatalf("work: %v", err)
	}
	if account.Zeal.Stacks != 1 {
		t.Errorf("zeal stacks = %d, want 1", account.Zeal.Stacks)
	}

	account.LastWork = nil
	if _, err := f.svc.Work(ctx, account); err != nil {
		t.Fatalf("second work: %v", err)
	}
	if account.Zeal.Stacks != 2 {
		t.Errorf("zeal stacks = %d, want 2", account.Zeal.Stacks)
	}
}

func TestWorkRecordsWarPoints(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	account := f.newAccount(t, "warrior", 0)

	clanRec := &models.Clan{Code: "WAR01", Name: "Raiders", NameLower: "raiders", OwnerID: "warrior", Level: 1}
	if err := f.clans.Create(ctx, clanRec); err != nil {
		t.Fatal(err)
	}
	account.ClanID = clanRec.ID
	if err := f.state.SetWarEnd(ctx, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Work(ctx, account); err != nil {
		t.Fatalf("work: %v", err)
	}
	got, err := f.clans.GetByID(ctx, clanRec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.WarPoints != config.ClanWarPointsPerAct {
		t.Errorf("war points = %d, want %d", got.WarPoints, config.ClanWarPointsPerAct)
	}
}

func TestGatherCreditsFindsWithinBounds(t *testing.T) {
	f := newFixture(t, 11)
	ctx := context.Background()
	account := f.newAccount(t, "forager", 0)

	bounds := map[string]game.GatherEntry{}
	for _, e := range game.GatherTable {
		bounds[e.ItemID] = e
	}

	var sawFind bool
	for i := 0; i < 50; i++ {
		account.LastGather = nil
		res, err := f.svc.Gather(ctx, account)
		if err != nil {
			t.Fatalf("gather %d: %v", i, err)
		}
		limit := int64(config.MaxGatherTypesBase)
		if int64(len(res.Finds)) > limit {
			t.Fatalf("gather %d returned %d finds, cap %d", i, len(res.Finds), limit)
		}
		for _, find := range res.Finds {
			sawFind = true
			entry, ok := bounds[find.ItemID]
			if !ok {
				t.Fatalf("gather produced unknown item %q", find.ItemID)
			}
			max := entry.MaxQty
			if res.Doubled {
				max *= 2
			}
			if find.Quantity < 1 || find.Quantity > max {
				t.Errorf("%s quantity %d outside [1, %d]", find.ItemID, find.Quantity, max)
			}
			if got := f.quantity(t, account.ID, find.ItemID); got < find.Quantity {
				t.Errorf("%s credited %d, inventory shows %d", find.ItemID, find.Quantity, got)
			}
		}
	}
	if !sawFind {
		t.Error("50 gathers produced nothing, the table should hit often")
	}
}

func TestGatherBasketsWidenCapAndAddCopies(t *testing.T) {
	f := newFixture(t, 13)
	ctx := context.Background()
	account := f.newAccount(t, "basketeer", 0)
	f.give(t, account.ID, game.ItemGatheringBasket, 3)
	account.Inventory[game.ItemGatheringBasket] = 3

	cap := int64(config.MaxGatherTypesBase) + 3
	var sawWideHaul, sawBonusCopy bool
	for i := 0; i < 60; i++ {
		account.LastGather = nil
		res, err := f.svc.Gather(ctx, account)
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		if int64(len(res.Finds)) > cap {
			t.Fatalf("got %d finds, cap with 3 baskets is %d", len(res.Finds), cap)
		}
		if int64(len(res.Finds)) > int64(config.MaxGatherTypesBase) {
			sawWideHaul = true
		}
		if res.BasketBonus > 0 {
			sawBonusCopy = true
		}
	}
	if !sawWideHaul {
		t.Error("3 baskets never widened the haul past the base cap in 60 sweeps")
	}
	if !sawBonusCopy {
		t.Error("3 baskets never added a bonus copy in 60 sweeps at 50% per basket")
	}
}

func TestGatherShufflesTableOrder(t *testing.T) {
	f := newFixture(t, 19)
	ctx := context.Background()
	account := f.newAccount(t, "wanderer", 0)

	// With the declaration-order walk, entries past the cap could only be
	// found when every earlier roll missed. Under a shuffle, the tail items
	// land within the cap often enough to show up across many sweeps.
	head := map[string]bool{}
	for i, e := range game.GatherTable {
		if int64(i) < int64(config.MaxGatherTypesBase) {
			head[e.ItemID] = true
		}
	}
	sawTail := false
	for i := 0; i < 400 && !sawTail; i++ {
		account.LastGather = nil
		res, err := f.svc.Gather(ctx, account)
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, find := range res.Finds {
			if !head[find.ItemID] {
				sawTail = true
			}
		}
	}
	if !sawTail {
		t.Error("400 sweeps never found an item outside the table head")
	}
}

func TestGatherZealAddsAbundance(t *testing.T) {
	f := newFixture(t, 23)
	ctx := context.Background()
	account := f.newAccount(t, "fervent", 0)
	account.TraitSlots = []models.TraitSlot{{TraitID: game.TraitZealot, Level: 4}}
	// 20 stacks * 2.5 * 4 = 200% work bonus, worth +20 copies per find.
	account.Zeal = models.Zeal{Stacks: 20, LastAction: time.Now()}
	if err := f.accounts.Update(ctx, account); err != nil {
		t.Fatalf("update: %v", err)
	}

	for i := 0; i < 40; i++ {
		account.LastGather = nil
		res, err := f.svc.Gather(ctx, account)
		if err != nil {
			t.Fatalf("gather: %v", err)
		}
		for _, find := range res.Finds {
			if find.Quantity < 21 {
				t.Fatalf("%s quantity %d, zeal should add at least 20", find.ItemID, find.Quantity)
			}
			return
		}
	}
	t.Error("40 sweeps produced no finds to check")
}

func TestDailyStreakAccrualAndLapse(t *testing.T) {
	f := newFixture(t, 17)
	ctx := context.Background()
	account := f.newAccount(t, "regular", 0)

	res, err := f.svc.Daily(ctx, account)
	if err != nil {
		t.Fatalf("first daily: %v", err)
	}
	if res.Amount != config.DailyRewardBase || res.Streak != 1 {
		t.Errorf("first claim = %d bits streak %d, want %d and 1", res.Amount, res.Streak, config.DailyRewardBase)
	}

	// Inside the window: the streak bonus lands.
	stamp := time.Now().Add(-23 * time.Hour)
	account.LastDaily = &stamp
	if err := f.accounts.SetCooldown(ctx, account.ID, models.ActionDaily, stamp); err != nil {
		t.Fatal(err)
	}
	res, err = f.svc.Daily(ctx, account)
	if err != nil {
		t.Fatalf("second daily: %v", err)
	}
	want := int64(config.DailyRewardBase + config.DailyStreakBonus)
	if res.Amount != want || res.Streak != 2 {
		t.Errorf("second claim = %d bits streak %d, want %d and 2", res.Amount, res.Streak, want)
	}

	// Past the window: the streak restarts.
	stamp = time.Now().Add(-50 * time.Hour)
	account.LastDaily = &stamp
	if err := f.accounts.SetCooldown(ctx, account.ID, models.ActionDaily, stamp); err != nil {
		t.Fatal(err)
	}
	res, err = f.svc.Daily(ctx, account)
	if err != nil {
		t.Fatalf("lapsed daily: %v", err)
	}
	if res.Amount != config.DailyRewardBase || res.Streak != 1 {
		t.Errorf("lapsed claim = %d bits streak %d, want %d and 1", res.Amount, res.Streak, config.DailyRewardBase)
	}
}

func TestDailyOnCooldown(t *testing.T) {
	f := newFixture(t, 19)
	ctx := context.Background()
	account := f.newAccount(t, "eager", 0)
	if _, err := f.svc.Daily(ctx, account); err != nil {
		t.Fatalf("daily: %v", err)
	}
	_, err := f.svc.Daily(ctx, account)
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("retry error = %v, want CooldownError", err)
	}
}

func TestHourlyStreak(t *testing.T) {
	f := newFixture(t, 23)
	ctx := context.Background()
	account := f.newAccount(t, "hour", 0)
	res, err := f.svc.Hourly(ctx, account)
	if err != nil {
		t.Fatalf("hourly: %v", err)
	}
	if res.Amount != config.HourlyRewardBase || res.Streak != 1 {
		t.Errorf("first hourly = %d streak %d, want %d and 1", res.Amount, res.Streak, config.HourlyRewardBase)
	}
	if got := f.balance(t, account.ID); got != res.Amount {
		t.Errorf("balance = %d, want %d", got, res.Amount)
	}
}

func TestFlipValidatesAndSettles(t *testing.T) {
	f := newFixture(t, 29)
	ctx := context.Background()
	account := f.newAccount(t, "flipper", 1000)

	for _, bet := range []int64{config.FlipMinBet - 1, config.FlipMaxBet + 1} {
		if _, err := f.svc.Flip(ctx, account, bet); err == nil {
			t.Errorf("bet %d accepted outside bounds", bet)
		}
	}

	res, err := f.svc.Flip(ctx, account, 100)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	want := int64(1000) + res.Winnings
	if got := f.balance(t, account.ID); got != want {
		t.Errorf("balance = %d, want %d", got, want)
	}
	if res.Won && res.Winnings != 100 {
		t.Errorf("win pays net %d, want 100", res.Winnings)
	}
	if !res.Won && res.Winnings != -100 {
		t.Errorf("loss costs net %d, want -100", res.Winnings)
	}
}

func TestFlipInsufficientFunds(t *testing.T) {
	f := newFixture(t, 31)
	ctx := context.Background()
	account := f.newAccount(t, "broke", 10)
	_, err := f.svc.Flip(ctx, account, 50)
	if !errors.Is(err, economy.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := f.balance(t, account.ID); got != 10 {
		t.Errorf("balance = %d, want untouched 10", got)
	}
}

func TestSlotsSettlesAgainstReels(t *testing.T) {
	f := newFixture(t, 37)
	ctx := context.Background()
	account := f.newAccount(t, "spinner", 100000)

	for i := 0; i < 30; i++ {
		account.LastSlots = nil
		if err := f.accounts.SetCooldown(ctx, account.ID, models.ActionSlots, time.Now().Add(-time.Minute)); err != nil {
			t.Fatal(err)
		}
		before := f.balance(t, account.ID)
		res, err := f.svc.Slots(ctx, account, 100)
		if err != nil {
			t.Fatalf("spin %d: %v", i, err)
		}
		if got := slotsMultiplier(res.Reels); got != res.Multiplier {
			t.Errorf("spin %d multiplier %v does not match reels %v", i, res.Multiplier, res.Reels)
		}
		want := before - 100 + res.Winnings
		if got := f.balance(t, account.ID); got != want {
			t.Errorf("spin %d balance = %d, want %d", i, got, want)
		}
	}
}

func TestSlotsCooldownAndBounds(t *testing.T) {
	f := newFixture(t, 41)
	ctx := context.Background()
	account := f.newAccount(t, "cooldown", 10000)

	for _, bet := range []int64{config.SlotsMinBet - 1, config.SlotsMaxBet + 1} {
		if _, err := f.svc.Slots(ctx, account, bet); err == nil {
			t.Errorf("bet %d accepted outside bounds", bet)
		}
	}
	if _, err := f.svc.Slots(ctx, account, 100); err != nil {
		t.Fatalf("spin: %v", err)
	}
	_, err := f.svc.Slots(ctx, account, 100)
	var cd *CooldownError
	if !errors.As(err, &cd) {
		t.Fatalf("immediate respin error = %v, want CooldownError", err)
	}
}

func TestSlotsLossTriggersRush(t *testing.T) {
	f := newFixture(t, 43)
	ctx := context.Background()
	account := f.newAccount(t, "addict", 100000)
	account.TraitSlots = []models.TraitSlot{{TraitID: game.TraitTheAddict, Level: 3}}

	var rushed bool
	for i := 0; i < 50 && !rushed; i++ {
		account.LastSlots = nil
		if err := f.accounts.SetCooldown(ctx, account.ID, models.ActionSlots, time.Now().Add(-time.Minute)); err != nil {
			t.Fatal(err)
		}
		res, err := f.svc.Slots(ctx, account, 1000)
		if err != nil {
			t.Fatalf("spin: %v", err)
		}
		if res.Winnings == 0 {
			if !res.Rushed {
				t.Fatal("loss with The Addict did not attach the rush")
			}
			rushed = true
		}
	}
	if !rushed {
		t.Fatal("50 spins never lost")
	}
	var found bool
	for _, b := range account.ActiveBuffs {
		if b.ItemID == "the_rush" {
			found = true
			if b.Effects.WorkBonusPercent <= 0 {
				t.Error("rush buff carries no work bonus")
			}
		}
	}
	if !found {
		t.Error("rush buff missing from active buffs")
	}
}

func TestCraftConsumesRecipeAndPaysFirstCraft(t *testing.T) {
	f := newFixture(t, 47)
	ctx := context.Background()
	account := f.newAccount(t, "smith", 0)
	f.give(t, account.ID, game.ItemStone, 10)
	f.give(t, account.ID, game.ItemWood, 4)

	res, err := f.svc.Craft(ctx, account, game.ItemBasicPickaxe, 1)
	if err != nil {
		t.Fatalf("craft: %v", err)
	}
	if res.FirstCraftBonus != config.FirstCraftBonusBits {
		t.Errorf("first-craft bonus = %d, want %d", res.FirstCraftBonus, config.FirstCraftBonusBits)
	}
	if got := f.quantity(t, account.ID, game.ItemBasicPickaxe); got != 1 {
		t.Errorf("pickaxes = %d, want 1", got)
	}
	if got := f.quantity(t, account.ID, game.ItemStone); got != 5 {
		t.Errorf("stone = %d, want 5", got)
	}
	if got := f.quantity(t, account.ID, game.ItemWood); got != 2 {
		t.Errorf("wood = %d, want 2", got)
	}

	res, err = f.svc.Craft(ctx, account, game.ItemBasicPickaxe, 1)
	if err != nil {
		t.Fatalf("second craft: %v", err)
	}
	if res.FirstCraftBonus != 0 {
		t.Errorf("repeat craft paid %d, want 0", res.FirstCraftBonus)
	}
}

func TestCraftCollectorScalesBonus(t *testing.T) {
	f := newFixture(t, 53)
	ctx := context.Background()
	account := f.newAccount(t, "curator", 0)
	account.TraitSlots = []models.TraitSlot{{TraitID: game.TraitCollector, Level: 2}}
	f.give(t, account.ID, game.ItemStone, 5)
	f.give(t, account.ID, game.ItemWood, 2)

	res, err := f.svc.Craft(ctx, account, game.ItemBasicPickaxe, 1)
	if err != nil {
		t.Fatalf("craft: %v", err)
	}
	// 25 base scaled by 2 levels at 20% each.
	if res.FirstCraftBonus != 35 {
		t.Errorf("bonus = %d, want 35", res.FirstCraftBonus)
	}
}

func TestCraftRollsBackOnShortfall(t *testing.T) {
	f := newFixture(t, 59)
	ctx := context.Background()
	account := f.newAccount(t, "short", 0)
	f.give(t, account.ID, game.ItemStone, 5)

	_, err := f.svc.Craft(ctx, account, game.ItemBasicPickaxe, 1)
	if !errors.Is(err, economy.ErrInsufficientItems) {
		t.Fatalf("err = %v, want ErrInsufficientItems", err)
	}
	if got := f.quantity(t, account.ID, game.ItemStone); got != 5 {
		t.Errorf("stone = %d after failed craft, want 5 back", got)
	}
}

func TestCraftRejectsUncraftable(t *testing.T) {
	f := newFixture(t, 61)
	acc := f.newAccount(t, "nocraft", 0)
	if _, err := f.svc.Craft(context.Background(), acc, game.ItemIronOre, 1); err == nil {
		t.Error("raw ore crafted")
	}
	if _, err := f.svc.Craft(context.Background(), acc, game.ItemBasicPickaxe, 0); err == nil {
		t.Error("zero quantity accepted")
	}
}

func TestEatAttachesAndRefreshesBuff(t *testing.T) {
	f := newFixture(t, 67)
	ctx := context.Background()
	account := f.newAccount(t, "eater", 0)
	f.give(t, account.ID, game.ItemWildBerries, 2)

	res, err := f.svc.Eat(ctx, account, game.ItemWildBerries)
	if err != nil {
		t.Fatalf("eat: %v", err)
	}
	if res.Buff == nil || res.Buff.Effects.GatherCooldownReduction != 10*time.Second {
		t.Fatalf("buff = %+v, want 10s gather reduction", res.Buff)
	}
	first := res.Buff.ExpiresAt

	res, err = f.svc.Eat(ctx, account, game.ItemWildBerries)
	if err != nil {
		t.Fatalf("second eat: %v", err)
	}
	if count := len(account.ActiveBuffs); count != 1 {
		t.Errorf("buffs = %d after re-eating, want 1 refreshed", count)
	}
	if !res.Buff.ExpiresAt.After(first) && !res.Buff.ExpiresAt.Equal(first) {
		t.Error("refreshed buff expires earlier than the original")
	}
	if got := f.quantity(t, account.ID, game.ItemWildBerries); got != 0 {
		t.Errorf("berries = %d, want 0", got)
	}
}

func TestEatRejectsNonFood(t *testing.T) {
	f := newFixture(t, 71)
	ctx := context.Background()
	account := f.newAccount(t, "picky", 0)
	f.give(t, account.ID, game.ItemIronOre, 1)
	f.give(t, account.ID, game.ItemRawMeat, 1)

	if _, err := f.svc.Eat(ctx, account, game.ItemIronOre); err == nil {
		t.Error("ate iron ore")
	}
	if _, err := f.svc.Eat(ctx, account, game.ItemRawMeat); err == nil {
		t.Error("ate raw meat without cooking")
	}
	if _, err := f.svc.Eat(ctx, account, game.ItemSpicyPepper); !errors.Is(err, economy.ErrInsufficientItems) {
		t.Errorf("eating unowned food err = %v, want ErrInsufficientItems", err)
	}
}

func TestSmeltStartsJobAndBurnsInputs(t *testing.T) {
	f := newFixture(t, 73)
	ctx := context.Background()
	account := f.newAccount(t, "smelter", 0)
	f.give(t, account.ID, game.ItemSmelter, 1)
	f.give(t, account.ID, game.ItemIronOre, 5)
	f.give(t, account.ID, game.ItemCoal, 5)

	res, err := f.svc.Smelt(ctx, account, game.ItemIronOre, 5)
	if err != nil {
		t.Fatalf("smelt: %v", err)
	}
	if res.Job.ResultItemID != game.ItemIronIngot || res.Job.Quantity != 5 {
		t.Errorf("job = %+v, want 5 iron ingots", res.Job)
	}
	wantFinish := time.Now().Add(5 * config.SmeltTimePerItem)
	if diff := res.Job.FinishesAt.Sub(wantFinish); diff < -time.Second || diff > time.Second {
		t.Errorf("finishes at %s, want about %s", res.Job.FinishesAt, wantFinish)
	}
	if got := f.quantity(t, account.ID, game.ItemIronOre); got != 0 {
		t.Errorf("ore left = %d, want 0", got)
	}
	if got := f.quantity(t, account.ID, game.ItemCoal); got != 0 {
		t.Errorf("coal left = %d, want 0", got)
	}

	f.give(t, account.ID, game.ItemIronOre, 1)
	f.give(t, account.ID, game.ItemCoal, 1)
	if _, err := f.svc.Smelt(ctx, account, game.ItemIronOre, 1); err == nil {
		t.Error("second job started while the smelter was busy")
	}
}

func TestSmeltRequiresSmelterAndCoal(t *testing.T) {
	f := newFixture(t, 79)
	ctx := context.Background()
	account := f.newAccount(t, "cold", 0)
	f.give(t, account.ID, game.ItemIronOre, 3)

	if _, err := f.svc.Smelt(ctx, account, game.ItemIronOre, 3); !errors.Is(err, economy.ErrInsufficientItems) {
		t.Fatalf("no smelter err = %v, want ErrInsufficientItems", err)
	}

	f.give(t, account.ID, game.ItemSmelter, 1)
	if _, err := f.svc.Smelt(ctx, account, game.ItemIronOre, 3); !errors.Is(err, economy.ErrInsufficientItems) {
		t.Fatalf("no coal err = %v, want ErrInsufficientItems", err)
	}
	if got := f.quantity(t, account.ID, game.ItemIronOre); got != 3 {
		t.Errorf("ore = %d after failed start, want 3 back", got)
	}
	if _, err := f.svc.Smelt(ctx, account, game.ItemStone, 1); err == nil {
		t.Error("stone accepted for smelting")
	}
}

func TestOpenLootboxDeliversContents(t *testing.T) {
	f := newFixture(t, 83)
	ctx := context.Background()
	account := f.newAccount(t, "opener", 0)
	f.give(t, account.ID, game.ItemCratesDNA, 1)

	res, err := f.svc.OpenLootbox(ctx, account, game.ItemCratesDNA)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if res.Kind != game.LootboxRewardItem || res.ItemID != game.ItemTraitReforger {
		t.Fatalf("reward = %+v, want trait reforgers", res)
	}
	if res.Quantity < 2 || res.Quantity > 15 {
		t.Errorf("quantity = %d outside the crate range", res.Quantity)
	}
	if got := f.quantity(t, account.ID, game.ItemTraitReforger); got != res.Quantity {
		t.Errorf("reforgers = %d, want %d", got, res.Quantity)
	}
	if got := f.quantity(t, account.ID, game.ItemCratesDNA); got != 0 {
		t.Errorf("crates = %d, want 0", got)
	}

	if _, err := f.svc.OpenLootbox(ctx, account, game.ItemCratesDNA); !errors.Is(err, economy.ErrInsufficientItems) {
		t.Errorf("opening without a crate err = %v, want ErrInsufficientItems", err)
	}
}

func TestBuyLootboxFromStock(t *testing.T) {
	f := newFixture(t, 89)
	ctx := context.Background()
	account := f.newAccount(t, "shopper", 600)
	stock := []*models.LootboxListing{{LootboxID: game.ItemCratesMiners, Quantity: 5, UnitPrice: 250}}
	if err := f.market.ReplaceLootboxStock(ctx, stock); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.BuyLootbox(ctx, account, game.ItemCratesMiners, 2)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if res.TotalPaid != 500 {
		t.Errorf("paid %d, want 500", res.TotalPaid)
	}
	if got := f.balance(t, account.ID); got != 100 {
		t.Errorf("balance = %d, want 100", got)
	}
	if got := f.quantity(t, account.ID, game.ItemCratesMiners); got != 2 {
		t.Errorf("crates = %d, want 2", got)
	}

	if _, err := f.svc.BuyLootbox(ctx, account, game.ItemCratesMiners, 4); !errors.Is(err, economy.ErrConflict) {
		t.Errorf("overbuying stock err = %v, want ErrConflict", err)
	}
	if got := f.balance(t, account.ID); got != 100 {
		t.Errorf("balance = %d after failed buy, want refunded 100", got)
	}
	if _, err := f.svc.BuyLootbox(ctx, account, game.ItemCratesCrystal, 1); !errors.Is(err, economy.ErrNotFound) {
		t.Errorf("unstocked crate err = %v, want ErrNotFound", err)
	}
}

// jammedInventory refuses item credits so delivery failures can be exercised.
type jammedInventory struct {
	*memory.AccountStore
}

func (jammedInventory) CreditItem(context.Context, string, string, int64) error {
	return errors.New("inventory write refused")
}

func TestBuyLootboxRestoresStockWhenDeliveryFails(t *testing.T) {
	ctx := context.Background()
	accounts := memory.NewAccountStore()
	marketStore := memory.NewMarketStore()
	clans := memory.NewClanStore()
	state := memory.NewStateStore()
	rewards := reward.NewEngine(reward.NewSeededSource(97))
	svc := NewService(
		engine.New(accounts, rewards, nil),
		jammedInventory{accounts}, clans,
		market.NewManager(marketStore, accounts),
		clan.NewManager(clans, accounts, state, rewards),
		rewards, nil,
	)

	account := &models.Account{
		ID: "shopper", GameName: "shopper", Balance: 600,
		PowerGrid: models.PowerGrid{Slots: make([]string, game.GridSlots)},
		Inventory: map[string]int64{},
		CreatedAt: time.Now(),
	}
	if err := accounts.Create(ctx, account); err != nil {
		t.Fatal(err)
	}
	stock := []*models.LootboxListing{{LootboxID: game.ItemCratesMiners, Quantity: 2, UnitPrice: 250}}
	if err := marketStore.ReplaceLootboxStock(ctx, stock); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.BuyLootbox(ctx, account, game.ItemCratesMiners, 2); err == nil {
		t.Fatal("buy succeeded despite failed delivery")
	}

	if bal, _ := accounts.GetBalance(ctx, "shopper"); bal != 600 {
		t.Errorf("balance = %d after unwind, want 600", bal)
	}
	after, err := marketStore.LootboxStock(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 || after[0].LootboxID != game.ItemCratesMiners || after[0].Quantity != 2 {
		t.Errorf("stock after unwind = %+v, want 2 x %s back on the shelf", after, game.ItemCratesMiners)
	}
}

func TestGridPlaceAndRemove(t *testing.T) {
	f := newFixture(t, 97)
	ctx := context.Background()
	account := f.newAccount(t, "builder", 0)
	f.give(t, account.ID, game.BuildingSolarPanel, 1)

	status, err := f.svc.PlaceBuilding(ctx, account, game.BuildingSolarPanel, 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if status.Generation != 10 || !status.Online {
		t.Errorf("status = %+v, want 10 generation online", status)
	}
	if got := f.quantity(t, account.ID, game.BuildingSolarPanel); got != 0 {
		t.Errorf("panel still in inventory: %d", got)
	}

	if _, err := f.svc.PlaceBuilding(ctx, account, game.BuildingSolarPanel, 0); err == nil {
		t.Error("placed into an occupied slot")
	}
	if _, err := f.svc.PlaceBuilding(ctx, account, game.BuildingSolarPanel, game.GridSlots); err == nil {
		t.Error("placed out of range")
	}
	if _, err := f.svc.PlaceBuilding(ctx, account, "castle", 1); err == nil {
		t.Error("placed an unknown building")
	}

	status, err = f.svc.RemoveBuilding(ctx, account, 0)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if status.Generation != 0 {
		t.Errorf("generation = %d after removal, want 0", status.Generation)
	}
	if got := f.quantity(t, account.ID, game.BuildingSolarPanel); got != 1 {
		t.Errorf("panel = %d after removal, want 1 returned", got)
	}
	if _, err := f.svc.RemoveBuilding(ctx, account, 0); err == nil {
		t.Error("removed from an empty slot")
	}
}

func TestGridOfflineWhenUnderpowered(t *testing.T) {
	f := newFixture(t, 101)
	ctx := context.Background()
	account := f.newAccount(t, "dark", 0)
	f.give(t, account.ID, game.BuildingAutoMiner, 1)

	status, err := f.svc.PlaceBuilding(ctx, account, game.BuildingAutoMiner, 0)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if status.Online {
		t.Error("miner with no generation reports online")
	}
	if status.BitsPerTick != 25 {
		t.Errorf("bits per tick = %d, want 25", status.BitsPerTick)
	}
}

func TestRerollTraitsConsumesReforger(t *testing.T) {
	f := newFixture(t, 103)
	ctx := context.Background()
	account := f.newAccount(t, "reroller", 0)
	account.TraitSlots = []models.TraitSlot{{TraitID: game.TraitWealth, Level: 3}}
	f.give(t, account.ID, game.ItemTraitReforger, 1)

	res, err := f.svc.RerollTraits(ctx, account)
	if err != nil {
		t.Fatalf("reroll: %v", err)
	}
	if len(res.Rolled) != game.TraitSlotCount {
		t.Fatalf("rolled %d slots, want %d", len(res.Rolled), game.TraitSlotCount)
	}
	for _, slot := range res.Rolled {
		if _, ok := game.Traits[slot.TraitID]; !ok {
			t.Errorf("rolled unknown trait %q", slot.TraitID)
		}
		if slot.Level != 1 {
			t.Errorf("rolled level %d, want 1", slot.Level)
		}
	}
	if got := f.quantity(t, account.ID, game.ItemTraitReforger); got != 0 {
		t.Errorf("reforgers = %d, want 0", got)
	}

	if _, err := f.svc.RerollTraits(ctx, account); !errors.Is(err, economy.ErrInsufficientItems) {
		t.Errorf("reroll without a reforger err = %v, want ErrInsufficientItems", err)
	}
}

func TestPayMovesBalance(t *testing.T) {
	f := newFixture(t, 107)
	ctx := context.Background()
	from := f.newAccount(t, "sender", 100)
	f.newAccount(t, "receiver", 0)

	target, err := f.svc.Pay(ctx, from, "receiver", 40)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if target.Balance != 40 {
		t.Errorf("target balance = %d, want 40", target.Balance)
	}
	if got := f.balance(t, "sender"); got != 60 {
		t.Errorf("sender balance = %d, want 60", got)
	}
	if _, err := f.svc.Pay(ctx, from, "nobody", 10); !errors.Is(err, economy.ErrNotFound) {
		t.Errorf("paying a ghost err = %v, want ErrNotFound", err)
	}
}

func TestTimersReflectCooldowns(t *testing.T) {
	f := newFixture(t, 109)
	ctx := context.Background()
	account := f.newAccount(t, "watcher", 0)

	timers, err := f.svc.Timers(ctx, account)
	if err != nil {
		t.Fatalf("timers: %v", err)
	}
	if len(timers) != 5 {
		t.Fatalf("timers = %d entries, want 5", len(timers))
	}
	for _, timer := range timers {
		if !timer.Ready {
			t.Errorf("%s not ready on a fresh account", timer.Action)
		}
	}

	if _, err := f.svc.Work(ctx, account); err != nil {
		t.Fatalf("work: %v", err)
	}
	timers, err = f.svc.Timers(ctx, account)
	if err != nil {
		t.Fatalf("timers: %v", err)
	}
	for _, timer := range timers {
		if timer.Action == models.ActionWork {
			if timer.Ready || timer.Remaining <= 0 {
				t.Errorf("work timer = %+v, want counting down", timer)
			}
		}
	}
}
