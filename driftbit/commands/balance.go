package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Balance = discord.SlashCommandCreate{
	Name:        "balance",
	Description: "💰 View your current balance",
}

func BalanceHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		description := fmt.Sprintf("```ansi\n\x1b[1;36mBalance:\x1b[0m %s\n```", utils.FormatBits(account.Balance))
		now := time.Now()
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "💰 Balance",
				Description: description,
				Color:       utils.SuccessColor,
				Footer: &discord.EmbedFooter{
					Text: fmt.Sprintf("Requested by %s", e.User().Username),
				},
				Timestamp: &now,
			}},
		})
	}
}

var Leaderboard = discord.SlashCommandCreate{
	Name:        "leaderboard",
	Description: "🏆 The richest players on the server",
}

func LeaderboardHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		top, err := b.Actions.Leaderboard(ctx)
		if err != nil {
			return replyOutcome(e, err)
		}
		if len(top) == 0 {
			return e.CreateMessage(utils.InfoMessage("🏆 Leaderboard", "Nobody has earned anything yet."))
		}

		var sb strings.Builder
		for i, account := range top {
			if i >= 10 {
				break
			}
			fmt.Fprintf(&sb, "**%d.** %s — %s\n", i+1, account.Name(), utils.FormatBits(account.Balance))
		}
		return e.CreateMessage(utils.InfoMessage("🏆 Leaderboard", sb.String()))
	}
}

var Timers = discord.SlashCommandCreate{
	Name:        "timers",
	Description: "⏱️ When your actions come off cooldown",
}

func TimersHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		timers, err := b.Actions.Timers(ctx, account)
		if err != nil {
			return replyOutcome(e, err)
		}

		var sb strings.Builder
		for _, timer := range timers {
			status := "✅ ready"
			if !timer.Ready {
				status = "⏳ " + utils.FormatDuration(timer.Remaining)
			}
			fmt.Fprintf(&sb, "**%s** — %s\n", timer.Action, status)
		}
		return e.CreateMessage(utils.InfoMessage("⏱️ Timers", sb.String()))
	}
}
