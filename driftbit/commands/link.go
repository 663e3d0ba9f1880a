package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Link = discord.SlashCommandCreate{
	Name:        "link",
	Description: "🔗 Link this Discord account to your in-game account",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "game_name",
			Description: "Your exact in-game name",
			Required:    true,
		},
	},
}

func LinkHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		caller, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		if caller.GameName != "" {
			return e.CreateMessage(utils.InfoMessage("🔗 Already linked",
				fmt.Sprintf("This Discord account is already linked to **%s**.", caller.GameName)))
		}

		gameName := strings.TrimSpace(e.SlashCommandInteractionData().String("game_name"))
		if target, err := b.Engine.LoadByName(ctx, gameName); err == nil && target.DiscordID != "" && target.GameName != "" {
			return e.CreateMessage(utils.ErrorMessage(
				fmt.Sprintf("The in-game account **%s** is already linked to another Discord user.", gameName)))
		}

		code := b.Rewards.Token(5)
		verification := &models.Verification{
			Code:      code,
			DiscordID: e.User().ID.String(),
			GameName:  gameName,
		}
		if err := b.State.CreateVerification(ctx, verification); err != nil {
			return replyOutcome(e, err)
		}

		body := fmt.Sprintf(
			"Type this in the in-game chat as **%s**:\n```\nverify %s\n```\nThe code expires in %s.",
			gameName, code, utils.FormatDuration(config.VerificationTTL))
		if caller.Balance != config.StartingBalance || len(caller.Inventory) > 0 {
			body += "\n\nYour Discord progress will be merged into the in-game account."
		}
		return e.CreateMessage(utils.InfoMessage("🔗 Verification started", body))
	}
}
