package commands

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Smelt = discord.SlashCommandCreate{
	Name:        "smelt",
	Description: "🔥 Smelt ores or cook food in your smelter",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "start",
			Description: "Start a smelting batch",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "input",
					Description: "The ore or raw food to process",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "How many to process",
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "status",
			Description: "Check the running batch",
		},
	},
}

func SmeltHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		if *data.SubCommandName == "status" {
			job := account.SmeltJob
			if job == nil {
				return e.CreateMessage(utils.InfoMessage("🔥 Smelter", "The smelter is cold. Start a batch with `/smelt start`."))
			}
			remaining := time.Until(job.FinishesAt)
			if remaining <= 0 {
				return e.CreateMessage(utils.InfoMessage("🔥 Smelter",
					fmt.Sprintf("**%d x %s** is done and will be delivered shortly.", job.Quantity, game.Items[job.ResultItemID].Name)))
			}
			return e.CreateMessage(utils.InfoMessage("🔥 Smelter",
				fmt.Sprintf("Smelting **%d x %s**, ready in %s.", job.Quantity, game.Items[job.ResultItemID].Name, utils.FormatDuration(remaining))))
		}

		inputID, ok := game.ItemIDByName(data.String("input"))
		if !ok {
			return e.CreateMessage(utils.ErrorMessage("No item matches that name."))
		}
		quantity := int64(1)
		if q, ok := data.OptInt("quantity"); ok {
			quantity = int64(q)
		}

		res, err := b.Actions.Smelt(ctx, account, inputID, quantity)
		if err != nil {
			return replyOutcome(e, err)
		}
		return e.CreateMessage(utils.SuccessMessage("🔥 Smelter lit",
			fmt.Sprintf("Your smelter is working on **%d x %s**, ready in %s. You'll be pinged when it's done.",
				res.Job.Quantity, game.Items[res.Job.ResultItemID].Name,
				utils.FormatDuration(time.Until(res.Job.FinishesAt)))))
	}
}
