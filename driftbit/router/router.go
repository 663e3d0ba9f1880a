// Package router dispatches the in-game chat command surface. Commands
// arrive over the keyed HTTP endpoint as plain words, are resolved against
// the same action layer the Discord commands use, and reply with plain text
// the game bridge can print in chat.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/junovette/driftbit/driftbit/api"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/paginate"
	"github.com/junovette/driftbit/driftbit/utils"
)

// Notifier pushes a message to a linked Discord user, best effort.
type Notifier func(discordID, message string)

type Router struct {
	engine   *engine.Engine
	accounts repositories.AccountRepository
	state    repositories.StateRepository
	clans    repositories.ClanRepository
	actions  *actions.Service
	market   *market.Manager
	clanMgr  *clan.Manager
	pagers   *paginate.Store
	event    actions.EventSource
	notify   Notifier
}

func New(
	eng *engine.Engine,
	accounts repositories.AccountRepository,
	state repositories.StateRepository,
	clans repositories.ClanRepository,
	svc *actions.Service,
	mkt *market.Manager,
	clanMgr *clan.Manager,
	pagers *paginate.Store,
	event actions.EventSource,
	notify Notifier,
) *Router {
	if event == nil {
		event = func() *game.ActiveEvent { return nil }
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Router{
		engine:   eng,
		accounts: accounts,
		state:    state,
		clans:    clans,
		actions:  svc,
		market:   mkt,
		clanMgr:  clanMgr,
		pagers:   pagers,
		event:    event,
		notify:   notify,
	}
}

// Run implements api.Runner. Gameplay refusals come back as replies, not
// errors; only infrastructure faults surface as errors.
func (r *Router) Run(ctx context.Context, cmd api.Command) (string, error) {
	name := strings.ToLower(strings.TrimSpace(cmd.Name))
	userKey := strings.ToLower(cmd.UserName)

	// These two run before account provisioning: verify binds identities and
	// paging only touches the session cache.
	switch name {
	case "verify":
		return r.verify(ctx, cmd.UserName, cmd.Args)
	case "n", "next":
		return r.turnPage(userKey, 1)
	case "p", "prev", "previous":
		return r.turnPage(userKey, -1)
	}

	account, created, err := r.engine.GetOrCreateGame(ctx, cmd.UserName)
	if err != nil {
		return "", err
	}
	if created {
		return fmt.Sprintf("Welcome! Your new economy account %q was created with %s and two random traits. Link Discord with /link for the full experience.",
			cmd.UserName, utils.FormatBits(config.StartingBalance)), nil
	}

	reply, err := r.dispatch(ctx, account, name, cmd.Args)
	if err != nil {
		if msg, ok := refusal(err); ok {
			return msg, nil
		}
		return "", err
	}
	return reply, nil
}

func (r *Router) dispatch(ctx context.Context, account *models.Account, name string, args []string) (string, error) {
	switch name {
	case "work":
		return r.work(ctx, account)
	case "gather":
		return r.gather(ctx, account)
	case "daily":
		res, err := r.actions.Daily(ctx, account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You collected %s. Daily streak: %d.", utils.FormatBits(res.Amount), res.Streak), nil
	case "hourly":
		res, err := r.actions.Hourly(ctx, account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You collected %s. Hourly streak: %d.", utils.FormatBits(res.Amount), res.Streak), nil
	case "bal", "balance":
		return fmt.Sprintf("%s has %s.", account.Name(), utils.FormatBits(account.Balance)), nil
	case "flip":
		return r.flip(ctx, account, args)
	case "slots":
		return r.slots(ctx, account, args)
	case "pay":
		return r.pay(ctx, account, args)
	case "inv", "inventory":
		return r.inventory(ctx, account, args)
	case "timers":
		return r.timers(ctx, account)
	case "lb", "leaderboard":
		return r.leaderboard(ctx, account)
	case "craft":
		return r.craft(ctx, account, args)
	case "eat":
		return r.eat(ctx, account, args)
	case "open":
		return r.open(ctx, account, args)
	case "smelt":
		return r.smelt(ctx, account, args)
	case "traits":
		return r.traits(ctx, account, args)
	case "grid":
		return r.grid(ctx, account, args)
	case "market":
		return r.marketCmd(ctx, account, args)
	case "shop", "crateshop":
		return r.shop(ctx, account, args)
	case "recipes":
		return r.recipes(account)
	case "info":
		return r.info(args)
	case "event":
		return r.eventInfo()
	case "clan":
		return r.clanCmd(ctx, account, args)
	default:
		return fmt.Sprintf("Unknown command %q. Try work, gather, bal, craft, market or clan.", name), nil
	}
}

// refusal translates gameplay errors into chat replies. Anything it does not
// recognize is an infrastructure fault and stays an error.
func refusal(err error) (string, bool) {
	var cd *actions.CooldownError
	if errors.As(err, &cd) {
		return fmt.Sprintf("You can %s again in %s.", cd.Action, utils.FormatDuration(cd.Remaining)), true
	}
	var conflict *economy.MergeConflictError
	if errors.As(err, &conflict) {
		return "Couldn't link accounts: " + conflict.Reason + ".", true
	}
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return "You don't have enough " + config.CurrencyName + " for that.", true
	case errors.Is(err, economy.ErrInsufficientItems):
		return "You don't have the required items.", true
	case errors.Is(err, economy.ErrNotFound):
		return "Couldn't find that. Check the name and try again.", true
	case errors.Is(err, economy.ErrConflict):
		return "Someone got there first. Try again.", true
	case errors.Is(err, economy.ErrCorruptBalance):
		return "Your balance looks corrupt. Contact an admin before using this account.", true
	case errors.Is(err, economy.ErrOnCooldown):
		return "That action is still on cooldown.", true
	}
	return "", false
}

func (r *Router) verify(ctx context.Context, username string, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: verify <code>", nil
	}
	code := strings.ToUpper(strings.TrimSpace(args[0]))
	verification, err := r.state.ClaimVerification(ctx, code)
	if errors.Is(err, economy.ErrNotFound) {
		return "That verification code is invalid, expired, or has already been used.", nil
	}
	if err != nil {
		return "", err
	}
	if time.Since(verification.CreatedAt) > config.VerificationTTL {
		return "That verification code has expired.", nil
	}
	if !strings.EqualFold(verification.GameName, username) {
		return "This verification code is for a different player and has now been invalidated.", nil
	}

	gameAccount, _, err := r.engine.GetOrCreateGame(ctx, username)
	if err != nil {
		return "", err
	}
	if err := r.engine.MergeAccounts(ctx, gameAccount.ID, strings.ToLower(verification.DiscordID)); err != nil {
		if msg, ok := refusal(err); ok {
			return msg, nil
		}
		return "", err
	}

	message := fmt.Sprintf("Success! Your accounts are linked and your progress was combined under %q.", username)
	r.notify(verification.DiscordID, message)
	return message, nil
}

func (r *Router) turnPage(userKey string, delta int) (string, error) {
	session := r.pagers.Turn(userKey, delta)
	if session == nil {
		return "You have no active list to navigate.", nil
	}
	return session.Render(), nil
}

func (r *Router) work(ctx context.Context, account *models.Account) (string, error) {
	res, err := r.actions.Work(ctx, account)
	if err != nil {
		return "", err
	}
	parts := []string{fmt.Sprintf("You worked and earned %s.", utils.FormatBits(res.Payout))}
	if res.Momentum {
		parts = append(parts, "Momentum! No cooldown this time.")
	}
	if res.CoinFlipped {
		if res.CoinWon {
			parts = append(parts, "Double or nothing paid off!")
		} else {
			parts = append(parts, "Double or nothing... nothing.")
		}
	}
	if res.Surged {
		parts = append(parts, "Your tower surged and doubled the haul.")
	}
	if res.BonusItemID != "" {
		parts = append(parts, fmt.Sprintf("You scavenged a bonus %s.", game.Items[res.BonusItemID].Name))
	}
	return strings.Join(parts, " "), nil
}

func (r *Router) gather(ctx context.Context, account *models.Account) (string, error) {
	res, err := r.actions.Gather(ctx, account)
	if err != nil {
		return "", err
	}
	if len(res.Finds) == 0 {
		return "You came back empty-handed this time.", nil
	}
	finds := make([]string, 0, len(res.Finds))
	for _, find := range res.Finds {
		finds = append(finds, fmt.Sprintf("%d x %s", find.Quantity, game.Items[find.ItemID].Name))
	}
	reply := "You gathered: " + strings.Join(finds, ", ") + "."
	if res.Doubled {
		reply += " Surveyor's eye doubled the whole haul!"
	}
	if res.Surged {
		reply += " Tower surge doubled everything again!"
	}
	return reply, nil
}

func (r *Router) flip(ctx context.Context, account *models.Account, args []string) (string, error) {
	bet, err := intArg(args, 0, "Usage: flip <bet>")
	if err != nil {
		return "", err
	}
	res, err := r.actions.Flip(ctx, account, bet)
	if err != nil {
		return "", err
	}
	if res.Won {
		return fmt.Sprintf("Heads! You won %s. Balance: %s.", utils.FormatBits(res.Bet), utils.FormatBits(account.Balance)), nil
	}
	reply := fmt.Sprintf("Tails... you lost %s. Balance: %s.", utils.FormatBits(res.Bet), utils.FormatBits(account.Balance))
	if res.Rushed {
		reply += " The Rush takes hold: your next work hits harder."
	}
	return reply, nil
}

func (r *Router) slots(ctx context.Context, account *models.Account, args []string) (string, error) {
	bet, err := intArg(args, 0, "Usage: slots <bet>")
	if err != nil {
		return "", err
	}
	res, err := r.actions.Slots(ctx, account, bet)
	if err != nil {
		return "", err
	}
	reels := "[ " + strings.Join(res.Reels[:], " | ") + " ]"
	if res.Winnings > 0 {
		return fmt.Sprintf("%s You won %s (x%.1f)! Balance: %s.",
			reels, utils.FormatBits(res.Winnings), res.Multiplier, utils.FormatBits(account.Balance)), nil
	}
	reply := fmt.Sprintf("%s No luck. You lost %s. Balance: %s.",
		reels, utils.FormatBits(res.Bet), utils.FormatBits(account.Balance))
	if res.Rushed {
		reply += " The Rush takes hold: your next work hits harder."
	}
	return reply, nil
}

func (r *Router) pay(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: pay <player> <amount>")
	}
	amount, err := strconv.ParseInt(args[len(args)-1], 10, 64)
	if err != nil {
		return "", fmt.Errorf("%q is not an amount", args[len(args)-1])
	}
	targetName := strings.Join(args[:len(args)-1], " ")
	target, err := r.actions.Pay(ctx, account, targetName, amount)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("You sent %s to %s. Your balance: %s.",
		utils.FormatBits(amount), target.Name(), utils.FormatBits(account.Balance)), nil
}

func (r *Router) inventory(ctx context.Context, account *models.Account, args []string) (string, error) {
	items, err := r.accounts.Items(ctx, account.ID)
	if err != nil {
		return "", err
	}
	filter := strings.ToLower(strings.Join(args, " "))
	lines := make([]string, 0, len(items))
	for _, item := range items {
		def, ok := game.Items[item.ItemID]
		itemName := item.ItemID
		if ok {
			itemName = def.Name
		}
		if filter != "" && !strings.Contains(strings.ToLower(itemName), filter) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s x%d", itemName, item.Quantity))
	}
	if len(lines) == 0 {
		return "Your bags are empty. Try gather.", nil
	}
	sort.Strings(lines)
	return r.pagers.Open(strings.ToLower(account.ID), "Inventory", lines).Render(), nil
}

func (r *Router) timers(ctx context.Context, account *models.Account) (string, error) {
	timers, err := r.actions.Timers(ctx, account)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(timers))
	for _, timer := range timers {
		status := "ready"
		if !timer.Ready {
			status = utils.FormatDuration(timer.Remaining)
		}
		parts = append(parts, fmt.Sprintf("%s: %s", timer.Action, status))
	}
	return strings.Join(parts, " | "), nil
}

func (r *Router) leaderboard(ctx context.Context, account *models.Account) (string, error) {
	top, err := r.actions.Leaderboard(ctx)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return "Nobody has earned anything yet.", nil
	}
	lines := make([]string, 0, len(top))
	for i, entry := range top {
		lines = append(lines, fmt.Sprintf("%d. %s - %s", i+1, entry.Name(), utils.FormatBits(entry.Balance)))
	}
	return r.pagers.Open(strings.ToLower(account.ID), "Leaderboard", lines).Render(), nil
}

func (r *Router) craft(ctx context.Context, account *models.Account, args []string) (string, error) {
	itemName, quantity := nameAndQuantity(args)
	if itemName == "" {
		return "", fmt.Errorf("usage: craft <item> [quantity]")
	}
	itemID, ok := game.ItemIDByName(itemName)
	if !ok {
		return fmt.Sprintf("No item matches %q.", itemName), nil
	}
	res, err := r.actions.Craft(ctx, account, itemID, quantity)
	if err != nil {
		return "", err
	}
	reply := fmt.Sprintf("You crafted %d x %s.", res.Quantity, game.Items[res.ItemID].Name)
	if res.FirstCraftBonus > 0 {
		reply += fmt.Sprintf(" First craft bonus: %s!", utils.FormatBits(res.FirstCraftBonus))
	}
	return reply, nil
}

func (r *Router) eat(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: eat <food>")
	}
	itemID, ok := game.ItemIDByName(strings.Join(args, " "))
	if !ok {
		return "No item matches that name.", nil
	}
	res, err := r.actions.Eat(ctx, account, itemID)
	if err != nil {
		return "", err
	}
	item := game.Items[res.ItemID]
	reply := fmt.Sprintf("You ate a %s.", item.Name)
	if item.Buff != nil {
		reply += fmt.Sprintf(" The buff lasts %s.", utils.FormatDuration(item.Buff.Duration))
	}
	return reply, nil
}

func (r *Router) open(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: open <crate>")
	}
	lootboxID, ok := game.LootboxIDByName(strings.Join(args, " "))
	if !ok {
		return "No crate matches that name.", nil
	}
	res, err := r.actions.OpenLootbox(ctx, account, lootboxID)
	if err != nil {
		return "", err
	}
	box := game.Lootboxes[res.LootboxID]
	if res.Kind == game.LootboxRewardBits {
		return fmt.Sprintf("You opened a %s and found %s!", box.Name, utils.FormatBits(res.Quantity)), nil
	}
	return fmt.Sprintf("You opened a %s and found %d x %s!", box.Name, res.Quantity, game.Items[res.ItemID].Name), nil
}

func (r *Router) smelt(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) == 0 {
		if account.SmeltJob == nil {
			return "The smelter is cold. Usage: smelt <input> [quantity]", nil
		}
		job := account.SmeltJob
		remaining := time.Until(job.FinishesAt)
		if remaining <= 0 {
			return fmt.Sprintf("%d x %s is done and will be delivered shortly.", job.Quantity, game.Items[job.ResultItemID].Name), nil
		}
		return fmt.Sprintf("Smelting %d x %s, ready in %s.", job.Quantity, game.Items[job.ResultItemID].Name, utils.FormatDuration(remaining)), nil
	}
	inputName, quantity := nameAndQuantity(args)
	inputID, ok := game.ItemIDByName(inputName)
	if !ok {
		return fmt.Sprintf("No item matches %q.", inputName), nil
	}
	res, err := r.actions.Smelt(ctx, account, inputID, quantity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Your smelter is working on %d x %s, ready in %s.",
		res.Job.Quantity, game.Items[res.Job.ResultItemID].Name,
		utils.FormatDuration(time.Until(res.Job.FinishesAt))), nil
}

func (r *Router) traits(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "reroll") {
		res, err := r.actions.RerollTraits(ctx, account)
		if err != nil {
			return "", err
		}
		parts := make([]string, 0, len(res.Rolled))
		for _, slot := range res.Rolled {
			parts = append(parts, fmt.Sprintf("%s (Lv. %d)", game.Traits[slot.TraitID].Name, slot.Level))
		}
		return "The reforger hums and your nature shifts: " + strings.Join(parts, ", ") + ".", nil
	}
	if len(account.TraitSlots) == 0 {
		return "You have no traits yet. Find a Trait Reforger and use: traits reroll", nil
	}
	parts := make([]string, 0, len(account.TraitSlots))
	for _, slot := range account.TraitSlots {
		trait, ok := game.Traits[slot.TraitID]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s (Lv. %d)", trait.Name, trait.Rarity, slot.Level))
	}
	return "Your traits: " + strings.Join(parts, ", ") + ".", nil
}

func (r *Router) grid(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) >= 2 && strings.EqualFold(args[0], "place") {
		slot, err := strconv.Atoi(args[1])
		if err != nil || len(args) < 3 {
			return "", fmt.Errorf("usage: grid place <slot> <building>")
		}
		status, err := r.actions.PlaceBuilding(ctx, account, mustBuildingID(args[2:]), slot-1)
		if err != nil {
			return "", err
		}
		return renderGrid(status), nil
	}
	if len(args) >= 2 && strings.EqualFold(args[0], "remove") {
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			return "", fmt.Errorf("usage: grid remove <slot>")
		}
		status, err := r.actions.RemoveBuilding(ctx, account, slot-1)
		if err != nil {
			return "", err
		}
		return renderGrid(status), nil
	}
	return renderGrid(r.actions.Grid(account)), nil
}

func mustBuildingID(args []string) string {
	id, ok := game.ItemIDByName(strings.Join(args, " "))
	if !ok {
		return strings.Join(args, " ")
	}
	return id
}

func renderGrid(status *actions.GridStatus) string {
	parts := make([]string, 0, len(status.Slots)+1)
	for i, id := range status.Slots {
		slotName := "(empty)"
		if id != "" {
			slotName = game.Items[id].Name
		}
		parts = append(parts, fmt.Sprintf("Slot %d: %s", i+1, slotName))
	}
	state := "online"
	if !status.Online {
		state = "OFFLINE - not enough power"
	}
	parts = append(parts, fmt.Sprintf("Power %d/%d (%s), %s/hour",
		status.Generation, status.Consumption, state, utils.FormatBits(status.BitsPerTick)))
	return strings.Join(parts, " | ")
}

func (r *Router) marketCmd(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) == 0 {
		return r.marketView(ctx, account, "")
	}
	switch strings.ToLower(args[0]) {
	case "sell":
		if len(args) < 4 {
			return "", fmt.Errorf("usage: market sell <item> <quantity> <price>")
		}
		quantity, err := strconv.ParseInt(args[len(args)-2], 10, 64)
		if err != nil {
			return "", fmt.Errorf("%q is not a quantity", args[len(args)-2])
		}
		price, err := strconv.ParseInt(args[len(args)-1], 10, 64)
		if err != nil {
			return "", fmt.Errorf("%q is not a price", args[len(args)-1])
		}
		itemID, ok := game.ItemIDByName(strings.Join(args[1:len(args)-2], " "))
		if !ok {
			return "No item matches that name.", nil
		}
		listing, err := r.market.List(ctx, account, itemID, quantity, price)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Listed #%d: %d x %s at %s each.",
			listing.ListingID, listing.Quantity, game.Items[listing.ItemID].Name, utils.FormatBits(listing.UnitPrice)), nil
	case "buy":
		listingID, err := intArg(args, 1, "usage: market buy <listing-id>")
		if err != nil {
			return "", err
		}
		res, err := r.market.Buy(ctx, account, listingID, r.event())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You bought %d x %s for %s.",
			res.Listing.Quantity, game.Items[res.Listing.ItemID].Name, utils.FormatBits(res.TotalPaid)), nil
	case "cancel":
		listingID, err := intArg(args, 1, "usage: market cancel <listing-id>")
		if err != nil {
			return "", err
		}
		listing, err := r.market.Cancel(ctx, account, listingID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Listing #%d taken down, %d x %s returned to you.",
			listing.ListingID, listing.Quantity, game.Items[listing.ItemID].Name), nil
	default:
		return r.marketView(ctx, account, strings.Join(args, " "))
	}
}

func (r *Router) marketView(ctx context.Context, account *models.Account, filter string) (string, error) {
	listings, err := r.market.Listings(ctx)
	if err != nil {
		return "", err
	}
	if filter != "" {
		itemID, ok := game.ItemIDByName(filter)
		if !ok {
			return "No item matches that name.", nil
		}
		kept := listings[:0]
		for _, l := range listings {
			if l.ItemID == itemID {
				kept = append(kept, l)
			}
		}
		listings = kept
	}
	if len(listings) == 0 {
		return "Nothing for sale right now.", nil
	}
	lines := make([]string, 0, len(listings))
	for _, l := range listings {
		itemName := l.ItemID
		if def, ok := game.Items[l.ItemID]; ok {
			itemName = def.Name
		}
		lines = append(lines, fmt.Sprintf("#%d %s x%d @ %d each (%s)",
			l.ListingID, itemName, l.Quantity, l.UnitPrice, l.SellerName))
	}
	return r.pagers.Open(strings.ToLower(account.ID), "Market", lines).Render(), nil
}

func (r *Router) shop(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) > 0 && strings.EqualFold(args[0], "buy") {
		if len(args) < 2 {
			return "", fmt.Errorf("usage: shop buy <crate> [quantity]")
		}
		crateName, quantity := nameAndQuantity(args[1:])
		lootboxID, ok := game.LootboxIDByName(crateName)
		if !ok {
			return "No crate matches that name.", nil
		}
		res, err := r.actions.BuyLootbox(ctx, account, lootboxID, quantity)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You bought %d x %s for %s. Open them with: open %s",
			res.Quantity, game.Lootboxes[res.LootboxID].Name, utils.FormatBits(res.TotalPaid),
			strings.ToLower(game.Lootboxes[res.LootboxID].Name)), nil
	}

	stock, err := r.market.LootboxStock(ctx)
	if err != nil {
		return "", err
	}
	if len(stock) == 0 {
		return "The crate shop is sold out. Stock rotates every few minutes.", nil
	}
	parts := make([]string, 0, len(stock))
	for _, l := range stock {
		box, ok := game.Lootboxes[l.LootboxID]
		if !ok {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s each (%d left)", box.Name, utils.FormatBits(l.UnitPrice), l.Quantity))
	}
	return "Crate shop: " + strings.Join(parts, " | "), nil
}

func (r *Router) recipes(account *models.Account) (string, error) {
	ids := make([]string, 0, len(game.Items))
	for id, item := range game.Items {
		if item.Craftable() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		item := game.Items[id]
		ingredients := make([]string, 0, len(item.Recipe))
		for ingredient, qty := range item.Recipe {
			ingredients = append(ingredients, fmt.Sprintf("%d %s", qty, game.Items[ingredient].Name))
		}
		sort.Strings(ingredients)
		lines = append(lines, fmt.Sprintf("%s = %s", item.Name, strings.Join(ingredients, " + ")))
	}
	return r.pagers.Open(strings.ToLower(account.ID), "Recipes", lines).Render(), nil
}

func (r *Router) info(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: info <item or trait>")
	}
	query := strings.Join(args, " ")
	if traitID, ok := game.TraitIDByName(query); ok {
		trait := game.Traits[traitID]
		return fmt.Sprintf("%s (%s, max Lv. %d): %s", trait.Name, trait.Rarity, trait.MaxLevel, trait.Description), nil
	}
	if itemID, ok := game.ItemIDByName(query); ok {
		item := game.Items[itemID]
		reply := fmt.Sprintf("%s (%s)", item.Name, item.Type)
		if item.Description != "" {
			reply += ": " + item.Description
		}
		if item.Craftable() {
			ingredients := make([]string, 0, len(item.Recipe))
			for ingredient, qty := range item.Recipe {
				ingredients = append(ingredients, fmt.Sprintf("%d %s", qty, game.Items[ingredient].Name))
			}
			sort.Strings(ingredients)
			reply += " Recipe: " + strings.Join(ingredients, " + ") + "."
		}
		return reply, nil
	}
	return fmt.Sprintf("Could not find an item or trait named %q.", query), nil
}

func (r *Router) eventInfo() (string, error) {
	active := r.event()
	if active == nil {
		return "Nothing special is happening right now.", nil
	}
	return fmt.Sprintf("%s: %s Ends in %s.",
		active.Name, active.Description, utils.FormatDuration(time.Until(active.ExpiresAt))), nil
}

func (r *Router) clanCmd(ctx context.Context, account *models.Account, args []string) (string, error) {
	if len(args) == 0 {
		return r.clanInfo(ctx, account, "")
	}
	sub := strings.ToLower(args[0])
	rest := args[1:]
	switch sub {
	case "create":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan create <name>")
		}
		created, err := r.clanMgr.Create(ctx, account, strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s stands! Invite code: %s.", created.Name, created.Code), nil
	case "join":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan join <name or code>")
		}
		result, joined, err := r.clanMgr.Join(ctx, account, strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		if result == clan.Applied {
			return fmt.Sprintf("%s is invite-only; your application was sent.", joined.Name), nil
		}
		return fmt.Sprintf("You joined %s.", joined.Name), nil
	case "leave":
		left, err := r.clanMgr.Leave(ctx, account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("You left %s. You can join another clan in %s.",
			left.Name, utils.FormatDuration(config.ClanJoinCooldown)), nil
	case "invite":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan invite <player>")
		}
		invited, err := r.clanMgr.Invite(ctx, account, strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Invited. They can now: clan join %s", invited.Code), nil
	case "accept":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan accept <player>")
		}
		member, err := r.clanMgr.Accept(ctx, account, strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now a member.", member.Name()), nil
	case "kick":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan kick <player>")
		}
		kicked, err := r.clanMgr.Kick(ctx, account, strings.Join(rest, " "))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s was removed from the clan.", kicked.Name()), nil
	case "disband":
		disbanded, err := r.clanMgr.Disband(ctx, account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is no more.", disbanded.Name), nil
	case "recruit", "recruitment":
		if len(rest) == 0 {
			return "", fmt.Errorf("usage: clan recruit <open|closed>")
		}
		mode := models.Recruitment(strings.ToLower(rest[0]))
		if mode != models.RecruitmentOpen && mode != models.RecruitmentClosed {
			return "", fmt.Errorf("recruitment is either open or closed")
		}
		updated, err := r.clanMgr.SetRecruitment(ctx, account, mode)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s is now %s.", updated.Name, updated.Recruitment), nil
	case "donate":
		amount, err := intArg(rest, 0, "usage: clan donate <amount>")
		if err != nil {
			return "", err
		}
		donated, err := r.clanMgr.Donate(ctx, account, amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("The vault of %s now holds %s.", donated.Name, utils.FormatBits(donated.VaultBalance)), nil
	case "upgrade":
		upgraded, err := r.clanMgr.Upgrade(ctx, account)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s reached level %d!", upgraded.Name, upgraded.Level), nil
	case "war":
		return r.clanWar(ctx)
	case "info":
		return r.clanInfo(ctx, account, strings.Join(rest, " "))
	default:
		return "Clan subcommands: create, info, join, leave, invite, accept, kick, disband, recruit, donate, upgrade, war.", nil
	}
}

func (r *Router) clanInfo(ctx context.Context, account *models.Account, ref string) (string, error) {
	var (
		target *models.Clan
		err    error
	)
	if ref != "" {
		target, err = r.clanMgr.Resolve(ctx, ref)
	} else if account.ClanID != 0 {
		target, err = r.clans.GetByID(ctx, account.ClanID)
	} else {
		return "You're not in a clan. Use: clan join <name or code>", nil
	}
	if err != nil {
		return "", err
	}
	members, err := r.accounts.ByClan(ctx, target.ID)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		memberName := m.Name()
		if m.ID == target.OwnerID {
			memberName += " (owner)"
		}
		names = append(names, memberName)
	}
	return fmt.Sprintf("%s [%s] Lv.%d | vault %s | war points %d | members (%d/%d): %s",
		target.Name, target.Code, target.Level, utils.FormatBits(target.VaultBalance),
		target.WarPoints, len(members), config.ClanMemberLimit, strings.Join(names, ", ")), nil
}

func (r *Router) clanWar(ctx context.Context) (string, error) {
	state, err := r.state.WarState(ctx)
	if errors.Is(err, economy.ErrNotFound) {
		return "No war is running yet. One starts shortly.", nil
	}
	if err != nil {
		return "", err
	}
	top, err := r.clans.TopByWarPoints(ctx, config.ClanWarPodiumSize)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(top)+1)
	if remaining := time.Until(state.WarEndsAt); remaining > 0 {
		parts = append(parts, fmt.Sprintf("The war ends in %s.", utils.FormatDuration(remaining)))
	} else {
		parts = append(parts, "The war is being settled.")
	}
	for i, c := range top {
		parts = append(parts, fmt.Sprintf("%d. %s (%d points)", i+1, c.Name, c.WarPoints))
	}
	if len(top) == 0 {
		parts = append(parts, "No clan has scored yet.")
	}
	return strings.Join(parts, " "), nil
}

// nameAndQuantity splits trailing-number arguments like "iron ingot 5" into
// the name and quantity, defaulting the quantity to one.
func nameAndQuantity(args []string) (string, int64) {
	if len(args) == 0 {
		return "", 1
	}
	if qty, err := strconv.ParseInt(args[len(args)-1], 10, 64); err == nil && len(args) > 1 {
		return strings.Join(args[:len(args)-1], " "), qty
	}
	return strings.Join(args, " "), 1
}

func intArg(args []string, index int, usage string) (int64, error) {
	if len(args) <= index {
		return 0, errors.New(usage)
	}
	value, err := strconv.ParseInt(args[index], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", args[index])
	}
	return value, nil
}
