package commands

import (
	"fmt"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Pay = discord.SlashCommandCreate{
	Name:        "pay",
	Description: "💸 Send Bits to another player",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionUser{
			Name:        "user",
			Description: "Who to pay",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "amount",
			Description: "How many Bits to send",
			Required:    true,
			MinValue:    intPtr(1),
		},
	},
}

func PayHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		targetUser := data.User("user")
		amount := int64(data.Int("amount"))
		if targetUser.ID == e.User().ID {
			return e.CreateMessage(utils.ErrorMessage("You can't pay yourself."))
		}

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		targetID := targetUser.ID.String()
		target, err := b.Engine.GetOrCreate(ctx, targetID, targetUser.Username, targetID)
		if err != nil {
			return replyOutcome(e, err)
		}
		if err := b.Engine.TransferBalance(ctx, account.ID, target.ID, amount); err != nil {
			return replyOutcome(e, err)
		}
		account.Balance -= amount

		return e.CreateMessage(utils.SuccessMessage("💸 Payment sent",
			fmt.Sprintf("You sent **%s** to **%s**. Your balance: %s.",
				utils.FormatBits(amount), target.Name(), utils.FormatBits(account.Balance))))
	}
}
