package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Work = discord.SlashCommandCreate{
	Name:        "work",
	Description: "⚒️ Put in a shift and earn Bits",
}

func WorkHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Work(ctx, account)
		if err != nil {
			return replyOutcome(e, err)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "You earned **%s**.\n", utils.FormatBits(res.Payout))
		if res.Momentum {
			sb.WriteString("⚡ Momentum! Your clan let you skip the cooldown.\n")
		}
		if res.CoinFlipped {
			if res.CoinWon {
				sb.WriteString("🌶️ Double or nothing paid off: payout doubled!\n")
			} else {
				sb.WriteString("🌶️ Double or nothing... nothing. Better luck next shift.\n")
			}
		}
		if res.Surged {
			sb.WriteString("🗼 Your tower surged and doubled the haul.\n")
		}
		if res.BonusItemID != "" {
			fmt.Fprintf(&sb, "🔍 Scavenged a bonus **%s**.\n", game.Items[res.BonusItemID].Name)
		}
		return e.CreateMessage(utils.SuccessMessage("⚒️ Work", sb.String()))
	}
}

var Gather = discord.SlashCommandCreate{
	Name:        "gather",
	Description: "🌲 Forage the wilds for resources",
}

func GatherHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Gather(ctx, account)
		if err != nil {
			return replyOutcome(e, err)
		}

		if len(res.Finds) == 0 {
			return e.CreateMessage(utils.InfoMessage("🌲 Gather", "You came back empty-handed this time."))
		}
		var sb strings.Builder
		for _, find := range res.Finds {
			fmt.Fprintf(&sb, "• %d x **%s**\n", find.Quantity, game.Items[find.ItemID].Name)
		}
		if res.BasketBonus > 0 {
			fmt.Fprintf(&sb, "🧺 Your baskets tucked in %d extra.\n", res.BasketBonus)
		}
		if res.Doubled {
			sb.WriteString("🗺️ Surveyor's eye: the whole haul was doubled!\n")
		}
		if res.Surged {
			sb.WriteString("🗼 Tower surge doubled everything again.\n")
		}
		return e.CreateMessage(utils.SuccessMessage("🌲 Gather", sb.String()))
	}
}

var Daily = discord.SlashCommandCreate{
	Name:        "daily",
	Description: "📅 Collect your daily stipend",
}

func DailyHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Daily(ctx, account)
		if err != nil {
			return replyOutcome(e, err)
		}
		return e.CreateMessage(utils.SuccessMessage("📅 Daily",
			fmt.Sprintf("You collected **%s**. Streak: **%d**.", utils.FormatBits(res.Amount), res.Streak)))
	}
}

var Hourly = discord.SlashCommandCreate{
	Name:        "hourly",
	Description: "🕐 Collect your hourly trickle",
}

func HourlyHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Hourly(ctx, account)
		if err != nil {
			return replyOutcome(e, err)
		}
		return e.CreateMessage(utils.SuccessMessage("🕐 Hourly",
			fmt.Sprintf("You collected **%s**. Streak: **%d**.", utils.FormatBits(res.Amount), res.Streak)))
	}
}
