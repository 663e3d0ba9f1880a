// Package commands defines the Discord slash command surface. Every handler
// resolves the caller's ledger account, runs one action, and renders the
// outcome as an embed; gameplay refusals come back as warnings, not errors.
package commands

import (
	"context"
	"errors"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/handlers"
	"github.com/junovette/driftbit/driftbit/utils"
)

// Commands is the full slash command registry synced to Discord.
var Commands = []discord.ApplicationCommandCreate{
	Balance,
	Leaderboard,
	Timers,
	Work,
	Gather,
	Daily,
	Hourly,
	Flip,
	Slots,
	Pay,
	Inventory,
	Craft,
	Eat,
	Open,
	Traits,
	Smelt,
	Grid,
	Market,
	Shop,
	ClanCmd,
	Event,
	Link,
	Name,
}

// Register wires every handler into the mux with logging.
func Register(b *driftbit.Bot, h *handler.Mux) {
	h.Command("/balance", handlers.WrapWithLogging("balance", BalanceHandler(b)))
	h.Command("/leaderboard", handlers.WrapWithLogging("leaderboard", LeaderboardHandler(b)))
	h.Command("/timers", handlers.WrapWithLogging("timers", TimersHandler(b)))
	h.Command("/work", handlers.WrapWithLogging("work", WorkHandler(b)))
	h.Command("/gather", handlers.WrapWithLogging("gather", GatherHandler(b)))
	h.Command("/daily", handlers.WrapWithLogging("daily", DailyHandler(b)))
	h.Command("/hourly", handlers.WrapWithLogging("hourly", HourlyHandler(b)))
	h.Command("/flip", handlers.WrapWithLogging("flip", FlipHandler(b)))
	h.Command("/slots", handlers.WrapWithLogging("slots", SlotsHandler(b)))
	h.Command("/pay", handlers.WrapWithLogging("pay", PayHandler(b)))
	h.Command("/inventory", handlers.WrapWithLogging("inventory", InventoryHandler(b)))
	h.Command("/craft", handlers.WrapWithLogging("craft", CraftHandler(b)))
	h.Command("/eat", handlers.WrapWithLogging("eat", EatHandler(b)))
	h.Command("/open", handlers.WrapWithLogging("open", OpenHandler(b)))
	h.Command("/traits", handlers.WrapWithLogging("traits", TraitsHandler(b)))
	h.Command("/smelt", handlers.WrapWithLogging("smelt", SmeltHandler(b)))
	h.Command("/grid", handlers.WrapWithLogging("grid", GridHandler(b)))
	h.Command("/market", handlers.WrapWithLogging("market", MarketHandler(b)))
	h.Command("/shop", handlers.WrapWithLogging("shop", ShopHandler(b)))
	h.Command("/clan", handlers.WrapWithLogging("clan", ClanHandler(b)))
	h.Command("/event", handlers.WrapWithLogging("event", EventHandler(b)))
	h.Command("/link", handlers.WrapWithLogging("link", LinkHandler(b)))
	h.Command("/name", handlers.WrapWithLogging("name", NameHandler(b)))
}

func intPtr(v int) *int { return &v }

// commandContext bounds one command's database work.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// loadCaller provisions or loads the Discord-born account for the calling
// user.
func loadCaller(ctx context.Context, b *driftbit.Bot, e *handler.CommandEvent) (*models.Account, error) {
	id := e.User().ID.String()
	return b.Engine.GetOrCreate(ctx, id, e.User().Username, id)
}

// replyOutcome renders an action error as a player-facing warning when it is
// a gameplay refusal, and as a generic error otherwise.
func replyOutcome(e *handler.CommandEvent, err error) error {
	var cd *actions.CooldownError
	if errors.As(err, &cd) {
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "Not so fast",
				Description: "You can **" + string(cd.Action) + "** again in " + utils.FormatDuration(cd.Remaining) + ".",
				Color:       utils.WarnColor,
			}},
		})
	}
	switch {
	case errors.Is(err, economy.ErrInsufficientFunds):
		return e.CreateMessage(utils.ErrorMessage("You don't have enough " + config.CurrencyName + " for that."))
	case errors.Is(err, economy.ErrInsufficientItems):
		return e.CreateMessage(utils.ErrorMessage("You don't have the required items."))
	case errors.Is(err, economy.ErrNotFound):
		return e.CreateMessage(utils.ErrorMessage("Couldn't find that. Check the name and try again."))
	case errors.Is(err, economy.ErrConflict):
		return e.CreateMessage(utils.ErrorMessage("Someone got there first. Try again."))
	default:
		return e.CreateMessage(utils.ErrorMessage(err.Error()))
	}
}
