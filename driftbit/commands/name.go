package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Name = discord.SlashCommandCreate{
	Name:        "name",
	Description: "📛 Pick the display name shown on the leaderboard",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "new_name",
			Description: "The name to use (3-16 characters)",
			Required:    true,
		},
	},
}

func NameHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		if account.GameName != "" {
			return e.CreateMessage(utils.InfoMessage("📛 Name",
				fmt.Sprintf("Your account is linked to **%s**; that name is used everywhere.", account.GameName)))
		}

		newName := strings.TrimSpace(e.SlashCommandInteractionData().String("new_name"))
		if len(newName) < 3 || len(newName) > 16 {
			return e.CreateMessage(utils.ErrorMessage("Your name must be between 3 and 16 characters long."))
		}
		if _, err := b.Accounts.GetByName(ctx, newName); err == nil {
			return e.CreateMessage(utils.ErrorMessage("That name is already in use. Pick another."))
		} else if !errors.Is(err, economy.ErrNotFound) {
			return replyOutcome(e, err)
		}

		wasBumped := account.WasBumped
		account.DisplayName = newName
		account.WasBumped = false
		if err := b.Accounts.Update(ctx, account); err != nil {
			return replyOutcome(e, err)
		}

		body := fmt.Sprintf("Your display name is now **%s**.", newName)
		if wasBumped {
			body = "An in-game player registered the name you were using, so it was reset.\n" + body
		}
		return e.CreateMessage(utils.SuccessMessage("📛 Name", body))
	}
}
