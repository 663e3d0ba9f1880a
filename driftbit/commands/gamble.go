package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Flip = discord.SlashCommandCreate{
	Name:        "flip",
	Description: "🪙 Flip a coin, double your bet or lose it",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "How many Bits to stake",
			Required:    true,
			MinValue:    intPtr(config.FlipMinBet),
			MaxValue:    intPtr(config.FlipMaxBet),
		},
	},
}

func FlipHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		bet := int64(e.SlashCommandInteractionData().Int("bet"))
		res, err := b.Actions.Flip(ctx, account, bet)
		if err != nil {
			return replyOutcome(e, err)
		}

		if res.Won {
			return e.CreateMessage(utils.SuccessMessage("🪙 Heads!",
				fmt.Sprintf("You won **%s**. Balance: %s.", utils.FormatBits(res.Bet), utils.FormatBits(account.Balance))))
		}
		body := fmt.Sprintf("You lost **%s**. Balance: %s.", utils.FormatBits(res.Bet), utils.FormatBits(account.Balance))
		if res.Rushed {
			body += "\n🔥 The Rush takes hold: your next work hits harder."
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🪙 Tails...",
				Description: body,
				Color:       utils.ErrorColor,
			}},
		})
	}
}

var Slots = discord.SlashCommandCreate{
	Name:        "slots",
	Description: "🎰 Spin the reels",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionInt{
			Name:        "bet",
			Description: "How many Bits to stake",
			Required:    true,
			MinValue:    intPtr(config.SlotsMinBet),
		},
	},
}

func SlotsHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		bet := int64(e.SlashCommandInteractionData().Int("bet"))
		res, err := b.Actions.Slots(ctx, account, bet)
		if err != nil {
			return replyOutcome(e, err)
		}

		reels := strings.Join(res.Reels[:], " | ")
		if res.Winnings > 0 {
			return e.CreateMessage(utils.SuccessMessage("🎰 Slots",
				fmt.Sprintf("`[ %s ]`\nYou won **%s** (x%.1f)! Balance: %s.",
					reels, utils.FormatBits(res.Winnings), res.Multiplier, utils.FormatBits(account.Balance))))
		}
		body := fmt.Sprintf("`[ %s ]`\nNo luck. You lost **%s**. Balance: %s.",
			reels, utils.FormatBits(res.Bet), utils.FormatBits(account.Balance))
		if res.Rushed {
			body += "\n🔥 The Rush takes hold: your next work hits harder."
		}
		return e.CreateMessage(discord.MessageCreate{
			Embeds: []discord.Embed{{
				Title:       "🎰 Slots",
				Description: body,
				Color:       utils.ErrorColor,
			}},
		})
	}
}
