package router

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/junovette/driftbit/driftbit/api"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories/memory"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/paginate"
)

type fixture struct {
	router   *Router
	accounts *memory.AccountStore
	state    *memory.StateStore
	notified []string
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	accounts := memory.NewAccountStore()
	marketStore := memory.NewMarketStore()
	clans := memory.NewClanStore()
	state := memory.NewStateStore()
	rewards := reward.NewEngine(reward.NewSeededSource(seed))
	eng := engine.New(accounts, rewards, nil)
	marketMgr := market.NewManager(marketStore, accounts)
	clanMgr := clan.NewManager(clans, accounts, state, rewards)
	svc := actions.NewService(eng, accounts, clans, marketMgr, clanMgr, rewards, nil)

	f := &fixture{accounts: accounts, state: state}
	f.router = New(eng, accounts, state, clans, svc, marketMgr, clanMgr,
		paginate.NewStore(), nil,
		func(discordID, message string) {
			f.notified = append(f.notified, discordID+": "+message)
		})
	return f
}

func (f *fixture) run(t *testing.T, username, command string, args ...string) string {
	t.Helper()
	reply, err := f.router.Run(context.Background(), api.Command{
		Name:     command,
		UserID:   username,
		UserName: username,
		Args:     args,
	})
	if err != nil {
		t.Fatalf("%s %v: unexpected error: %v", command, args, err)
	}
	return reply
}

func TestFirstContactProvisionsAccount(t *testing.T) {
	f := newFixture(t, 1)

	reply := f.run(t, "Newbie", "work")
	if !strings.Contains(reply, "Welcome!") {
		t.Fatalf("first contact should welcome, got %q", reply)
	}

	reply = f.run(t, "Newbie", "bal")
	want := fmt.Sprintf("%d", config.StartingBalance)
	if !strings.Contains(reply, want) {
		t.Fatalf("balance reply %q should mention the starting balance %s", reply, want)
	}
}

func TestGameNameBumpsDiscordDisplayName(t *testing.T) {
	f := newFixture(t, 2)

	squatter := &models.Account{
		ID:          "111222333",
		DiscordID:   "111222333",
		DisplayName: "Miner",
		Balance:     50,
		PowerGrid:   models.PowerGrid{Slots: make([]string, 3)},
		CreatedAt:   time.Now(),
	}
	if err := f.accounts.Create(context.Background(), squatter); err != nil {
		t.Fatalf("creating squatter: %v", err)
	}

	reply := f.run(t, "Miner", "bal")
	if !strings.Contains(reply, "Welcome!") {
		t.Fatalf("game-born registration should win the name, got %q", reply)
	}

	bumped, err := f.accounts.GetByID(context.Background(), "111222333")
	if err != nil {
		t.Fatalf("reloading squatter: %v", err)
	}
	if !bumped.WasBumped || bumped.DisplayName != "" {
		t.Fatalf("squatter should be bumped, got WasBumped=%v DisplayName=%q", bumped.WasBumped, bumped.DisplayName)
	}
}

func TestGameplayRefusalsAreRepliesNotErrors(t *testing.T) {
	f := newFixture(t, 3)
	f.run(t, "gambler", "bal") // provision with the starting balance

	reply := f.run(t, "gambler", "flip", "100")
	if !strings.Contains(reply, "enough") {
		t.Fatalf("overdraw should come back as a chat reply, got %q", reply)
	}

	f.run(t, "gambler", "work")
	reply = f.run(t, "gambler", "work")
	if !strings.Contains(reply, "again in") {
		t.Fatalf("cooldown should come back as a chat reply, got %q", reply)
	}
}

func TestPaginationNavigation(t *testing.T) {
	f := newFixture(t, 4)
	for i := 0; i < 15; i++ {
		f.run(t, fmt.Sprintf("player%02d", i), "bal")
	}

	first := f.run(t, "player00", "lb")
	if !strings.Contains(first, "page 1/2") {
		t.Fatalf("leaderboard should open on page 1/2, got %q", first)
	}
	second := f.run(t, "player00", "n")
	if !strings.Contains(second, "page 2/2") {
		t.Fatalf("next should advance to page 2/2, got %q", second)
	}
	back := f.run(t, "player00", "p")
	if !strings.Contains(back, "page 1/2") {
		t.Fatalf("prev should return to page 1/2, got %q", back)
	}

	reply := f.run(t, "loner", "n")
	if !strings.Contains(reply, "no active list") {
		t.Fatalf("paging without a session should say so, got %q", reply)
	}
}

func TestVerifyRejectsBadCodes(t *testing.T) {
	f := newFixture(t, 5)

	reply := f.run(t, "Pilot", "verify", "WRONG")
	if !strings.Contains(reply, "invalid") {
		t.Fatalf("unknown code should be rejected, got %q", reply)
	}

	if err := f.state.CreateVerification(context.Background(), &models.Verification{
		Code:      "ABCDE",
		DiscordID: "999",
		GameName:  "SomeoneElse",
	}); err != nil {
		t.Fatalf("seeding verification: %v", err)
	}
	reply = f.run(t, "Pilot", "verify", "ABCDE")
	if !strings.Contains(reply, "different player") {
		t.Fatalf("name mismatch should invalidate the code, got %q", reply)
	}
	// The claim burned the code even though it failed.
	reply = f.run(t, "SomeoneElse", "verify", "ABCDE")
	if !strings.Contains(reply, "invalid") {
		t.Fatalf("a mismatched claim must burn the code, got %q", reply)
	}

	if err := f.state.CreateVerification(context.Background(), &models.Verification{
		Code:      "FGHIJ",
		DiscordID: "999",
		GameName:  "Pilot",
		CreatedAt: time.Now().Add(-config.VerificationTTL - time.Minute),
	}); err != nil {
		t.Fatalf("seeding stale verification: %v", err)
	}
	reply = f.run(t, "Pilot", "verify", "FGHIJ")
	if !strings.Contains(reply, "expired") {
		t.Fatalf("stale code should be rejected, got %q", reply)
	}
}

func TestMarketSellAndBrowse(t *testing.T) {
	f := newFixture(t, 6)
	f.run(t, "trader", "bal")
	if err := f.accounts.CreditItem(context.Background(), "trader", "iron_ingot", 10); err != nil {
		t.Fatalf("crediting ingots: %v", err)
	}

	reply := f.run(t, "trader", "market", "sell", "iron", "ingot", "5", "20")
	if !strings.Contains(reply, "Iron Ingot") || !strings.Contains(reply, "20") {
		t.Fatalf("sell should confirm the listing, got %q", reply)
	}

	reply = f.run(t, "trader", "market")
	if !strings.Contains(reply, "Iron Ingot x5") {
		t.Fatalf("browse should show the listing, got %q", reply)
	}
}

func TestClanLifecycleOverChat(t *testing.T) {
	f := newFixture(t, 7)
	f.run(t, "chief", "bal")

	reply := f.run(t, "chief", "clan", "create", "Night", "Shift")
	if !strings.Contains(reply, "Night Shift") {
		t.Fatalf("create should confirm the clan, got %q", reply)
	}

	reply = f.run(t, "chief", "clan", "info")
	if !strings.Contains(reply, "chief (owner)") {
		t.Fatalf("info should list the owner, got %q", reply)
	}

	f.run(t, "scout", "bal")
	reply = f.run(t, "scout", "clan", "join", "Night Shift")
	if !strings.Contains(reply, "joined") {
		t.Fatalf("open clans should admit directly, got %q", reply)
	}
}

func TestInfoResolvesItemsAndTraits(t *testing.T) {
	f := newFixture(t, 8)
	f.run(t, "scholar", "bal")

	reply := f.run(t, "scholar", "info", "wealth")
	if !strings.Contains(reply, "Wealth") || !strings.Contains(reply, "5%") {
		t.Fatalf("trait info should include the description, got %q", reply)
	}

	reply = f.run(t, "scholar", "info", "basic", "pickaxe")
	if !strings.Contains(reply, "Recipe:") {
		t.Fatalf("craftable item info should include the recipe, got %q", reply)
	}
}

func TestUnknownCommand(t *testing.T) {
	f := newFixture(t, 9)
	f.run(t, "wanderer", "bal")

	reply := f.run(t, "wanderer", "warble")
	if !strings.Contains(reply, "Unknown command") {
		t.Fatalf("unknown commands should be explained, got %q", reply)
	}
}
