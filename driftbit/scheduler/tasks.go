package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/game"
)

// maxGridWorkers caps concurrent per-account grid settlements.
const maxGridWorkers = 5

// Presence reports whether an account's player is currently connected. The
// grid production tick only pays accounts that are online.
type Presence func(accountID string) bool

// Notifier delivers an out-of-band message to a player, used for smelting
// completion pings. Delivery is best effort.
type Notifier func(accountID, message string)

// Announcer broadcasts a server-wide message, used when a global event
// starts. Delivery is best effort.
type Announcer func(message string)

// Tasks bundles every periodic job with its dependencies. It also owns the
// global event singleton that the rest of the engine reads through Event.
type Tasks struct {
	accounts repositories.AccountRepository
	clans    repositories.ClanRepository
	state    repositories.StateRepository
	market   *market.Manager
	rewards  *reward.Engine
	online   Presence
	notify   Notifier
	announce Announcer

	mu    sync.RWMutex
	event *game.ActiveEvent
}

func NewTasks(
	accounts repositories.AccountRepository,
	clans repositories.ClanRepository,
	state repositories.StateRepository,
	marketMgr *market.Manager,
	rewards *reward.Engine,
	online Presence,
	notify Notifier,
) *Tasks {
	if online == nil {
		online = func(string) bool { return true }
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Tasks{
		accounts: accounts,
		clans:    clans,
		state:    state,
		market:   marketMgr,
		rewards:  rewards,
		online:   online,
		notify:   notify,
		announce: func(string) {},
	}
}

// SetAnnouncer installs the broadcast hook. Before the Discord client is up
// announcements are dropped.
func (t *Tasks) SetAnnouncer(announce Announcer) {
	if announce != nil {
		t.announce = announce
	}
}

// Register wires every task into the manager at its configured interval.
func (t *Tasks) Register(m *Manager) {
	m.StartTicker("zeal-decay", "Resets stale zeal stacks", config.ZealDecayTickInterval, t.ZealDecay)
	m.StartTicker("vendor-restock", "Posts vendor listings onto the market", config.VendorTickInterval, t.VendorRestock)
	m.StartTicker("lootbox-rotation", "Rotates the crate shop stock", config.LootboxTickInterval, t.LootboxRotation)
	m.StartTicker("smelting-sweep", "Delivers finished smelting batches", config.SmeltingSweepInterval, t.SmeltingSweep)
	m.StartTicker("event-lifecycle", "Starts and expires global events", config.EventTickInterval, t.EventTick)
	m.StartTicker("clan-war", "Settles and restarts clan wars", config.ClanWarTickInterval, t.ClanWarTick)
	m.StartTicker("grid-production", "Settles power grid output", config.GridTickInterval, t.GridProduction)
	m.StartTicker("price-correction", "Removes out-of-policy listings", config.PriceCorrectionInterval, t.PriceCorrection)
	m.StartTicker("verification-prune", "Expires stale verification codes", config.VerificationTTL, t.VerificationPrune)
}

// Event returns a snapshot of the active global event, or nil.
func (t *Tasks) Event() *game.ActiveEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.event == nil || time.Now().After(t.event.ExpiresAt) {
		return nil
	}
	snapshot := *t.event
	return &snapshot
}

// ZealDecay zeroes zeal stacks that have gone stale. The resolver already
// ignores stale stacks, so this sweep only keeps stored state tidy.
func (t *Tasks) ZealDecay(ctx context.Context) error {
	ids, err := t.accounts.AllIDs(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, id := range ids {
		account, err := t.accounts.GetByID(ctx, id)
		if err != nil {
			continue
		}
		if account.Zeal.Stacks == 0 || now.Sub(account.Zeal.LastAction) <= config.ZealDecayWindow {
			continue
		}
		if err := t.accounts.SetZeal(ctx, id, models.Zeal{}); err != nil {
			slog.Error("Zeal decay write failed",
				slog.String("type", "db"),
				slog.String("account_id", id),
				slog.Any("error", err))
		}
	}
	return nil
}

// VendorRestock picks one vendor per tick and gives it its chance to post a
// single listing, capped per vendor. Prices come from the player market's
// trimmed mean with a markup, or a static range when the market has no signal.
func (t *Tasks) VendorRestock(ctx context.Context) error {
	vendor := game.Vendors[t.rewards.Between(0, int64(len(game.Vendors)-1))]
	open, err := t.market.VendorListings(ctx, vendor.ID)
	if err != nil {
		return err
	}
	if len(open) >= config.VendorListingCap {
		return nil
	}
	if !t.rewards.Chance(vendor.Chance * 100) {
		return nil
	}
	line := vendor.Stock[t.rewards.Between(0, int64(len(vendor.Stock)-1))]
	price := line.Price
	if price == 0 {
		price = t.vendorPrice(ctx, line.ItemID)
	}
	if _, err := t.market.ListVendor(ctx, vendor.ID, vendor.Name, line.ItemID, line.Quantity, price); err != nil {
		slog.Error("Vendor restock failed",
			slog.String("type", "db"),
			slog.String("vendor", vendor.ID),
			slog.Any("error", err))
	}
	return nil
}

func (t *Tasks) vendorPrice(ctx context.Context, itemID string) int64 {
	avg, ok, err := t.market.AveragePrice(ctx, itemID)
	if err == nil && ok {
		return int64(math.Round(float64(avg) * config.VendorPriceMarkup))
	}
	r, found := game.FallbackPrices[itemID]
	if !found {
		r = game.DefaultFallbackPrice
	}
	return t.rewards.Between(r.Min, r.Max)
}

// LootboxRotation churns the crate shop one move per tick: sometimes a crate
// sells out and is pulled, otherwise one missing crate goes up for sale.
func (t *Tasks) LootboxRotation(ctx context.Context) error {
	stock, err := t.market.LootboxStock(ctx)
	if err != nil {
		return err
	}
	if len(stock) > 0 && t.rewards.Chance(config.LootboxClearChance*100) {
		drop := t.rewards.Between(0, int64(len(stock)-1))
		stock = append(stock[:drop], stock[drop+1:]...)
		return t.market.ReplaceStock(ctx, stock)
	}
	if len(stock) >= config.LootboxListingCap {
		return nil
	}
	stocked := make(map[string]bool, len(stock))
	for _, l := range stock {
		stocked[l.LootboxID] = true
	}
	var missing []string
	for _, id := range game.LootboxOrder {
		if !stocked[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	id := missing[t.rewards.Between(0, int64(len(missing)-1))]
	stock = append(stock, &models.LootboxListing{
		LootboxID: id,
		Quantity:  t.rewards.Between(1, 5),
		UnitPrice: game.Lootboxes[id].Price,
	})
	return t.market.ReplaceStock(ctx, stock)
}

// SmeltingSweep delivers every finished batch: credit the output, clear the
// job, ping the owner.
func (t *Tasks) SmeltingSweep(ctx context.Context) error {
	due, err := t.accounts.SmeltingDue(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, account := range due {
		job := account.SmeltJob
		if job == nil {
			continue
		}
		if err := t.accounts.CreditItem(ctx, account.ID, job.ResultItemID, job.Quantity); err != nil {
			slog.Error("Smelt delivery failed",
				slog.String("type", "db"),
				slog.String("account_id", account.ID),
				slog.Any("error", err))
			continue
		}
		if err := t.accounts.SetSmeltJob(ctx, account.ID, nil); err != nil {
			slog.Error("Smelt job clear failed",
				slog.String("type", "db"),
				slog.String("account_id", account.ID),
				slog.Any("error", err))
			continue
		}
		name := game.Items[job.ResultItemID].Name
		t.notify(account.ID, fmt.Sprintf("Your smelter finished: %d x %s is ready.", job.Quantity, name))
	}
	return nil
}

// EventTick expires the running event and occasionally starts a new one. At
// most one event runs at a time.
func (t *Tasks) EventTick(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if t.event != nil {
		if now.Before(t.event.ExpiresAt) {
			return nil
		}
		slog.Info("Global event ended", slog.String("event", t.event.ID))
		t.event = nil
	}
	if !t.rewards.Chance(config.EventStartChance * 100) {
		return nil
	}
	def := t.rewards.PickEvent()
	t.event = &game.ActiveEvent{
		EventDef:  def,
		StartedAt: now,
		ExpiresAt: now.Add(def.Duration),
	}
	slog.Info("Global event started",
		slog.String("event", def.ID),
		slog.Duration("duration", def.Duration))
	t.announce(fmt.Sprintf("🎪 **%s** has started! %s", def.Name, def.Description))
	return nil
}

// ClanWarTick starts the first war, and when a war crosses its end: pays the
// podium, resets the scores, and opens the next one.
func (t *Tasks) ClanWarTick(ctx context.Context) error {
	now := time.Now()
	state, err := t.state.WarState(ctx)
	if errors.Is(err, economy.ErrNotFound) {
		return t.state.SetWarEnd(ctx, now.Add(config.ClanWarDuration))
	}
	if err != nil {
		return err
	}
	if state.Active(now) {
		return nil
	}
	if err := t.settleWar(ctx); err != nil {
		return err
	}
	return t.state.SetWarEnd(ctx, now.Add(config.ClanWarDuration))
}

// settleWar distributes podium rewards to every member of the top clans and
// zeroes the scoreboard.
func (t *Tasks) settleWar(ctx context.Context) error {
	podium, err := t.clans.TopByWarPoints(ctx, config.ClanWarPodiumSize)
	if err != nil {
		return err
	}
	for rank, clanRec := range podium {
		rewards := game.ClanWarRewards[rank+1]
		if len(rewards) == 0 {
			continue
		}
		members, err := t.accounts.ByClan(ctx, clanRec.ID)
		if err != nil {
			slog.Error("War payout roster load failed",
				slog.String("type", "db"),
				slog.Int64("clan_id", clanRec.ID),
				slog.Any("error", err))
			continue
		}
		for _, member := range members {
			for _, r := range rewards {
				if err := t.accounts.CreditItem(ctx, member.ID, r.ItemID, r.Quantity); err != nil {
					slog.Error("War payout failed",
						slog.String("type", "db"),
						slog.String("account_id", member.ID),
						slog.Any("error", err))
				}
			}
		}
		slog.Info("Clan war podium paid",
			slog.Int("rank", rank+1),
			slog.String("clan", clanRec.Name),
			slog.Int64("points", clanRec.WarPoints),
			slog.Int("members", len(members)))
	}
	return t.clans.ResetWarPoints(ctx)
}

// GridProduction settles every populated grid concurrently: online accounts
// with a powered grid earn its bits output; every grid gets its tick stamp
// advanced so downtime never accrues back pay.
func (t *Tasks) GridProduction(ctx context.Context) error {
	accounts, err := t.accounts.WithGrids(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	sem := semaphore.NewWeighted(maxGridWorkers)
	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		account := account
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			gen, use, bits := game.GridPower(account.PowerGrid.Slots)
			if bits > 0 && gen >= use && t.online(account.ID) {
				if err := t.accounts.CreditBalance(gctx, account.ID, bits); err != nil {
					slog.Error("Grid payout failed",
						slog.String("type", "db"),
						slog.String("account_id", account.ID),
						slog.Any("error", err))
				}
			}
			grid := account.PowerGrid
			grid.LastTick = now
			return t.accounts.SetPowerGrid(gctx, account.ID, grid)
		})
	}
	return g.Wait()
}

// PriceCorrection claims and refunds listings outside market policy.
func (t *Tasks) PriceCorrection(ctx context.Context) error {
	corrections, err := t.market.CorrectionSweep(ctx)
	if err != nil {
		return err
	}
	for _, c := range corrections {
		slog.Info("Listing corrected",
			slog.Int64("listing_id", c.Listing.ListingID),
			slog.String("seller", c.Listing.SellerID),
			slog.String("reason", c.Reason))
		if strings.HasPrefix(c.Listing.SellerID, game.NPCPrefix) {
			continue
		}
		itemName := c.Listing.ItemID
		if item, ok := game.Items[c.Listing.ItemID]; ok {
			itemName = item.Name
		}
		t.notify(c.Listing.SellerID, fmt.Sprintf(
			"Your market listing #%d (%d x %s) was removed: %s. The items are back in your inventory.",
			c.Listing.ListingID, c.Listing.Quantity, itemName, c.Reason))
	}
	return nil
}

// VerificationPrune drops link codes past their TTL.
func (t *Tasks) VerificationPrune(ctx context.Context) error {
	pruned, err := t.state.PruneVerifications(ctx, time.Now().Add(-config.VerificationTTL))
	if err != nil {
		return err
	}
	if pruned > 0 {
		slog.Debug("Pruned stale verifications", slog.Int64("count", pruned))
	}
	return nil
}
