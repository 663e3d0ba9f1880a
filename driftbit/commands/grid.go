package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Grid = discord.SlashCommandCreate{
	Name:        "grid",
	Description: "⚡ Manage your power grid",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "Show your grid layout and power budget",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "place",
			Description: "Install a building into a grid slot",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "building",
					Description: "The building to place",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "slot",
					Description: "Which slot to use",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(game.GridSlots),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "remove",
			Description: "Return a placed building to your inventory",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "slot",
					Description: "Which slot to clear",
					Required:    true,
					MinValue:    intPtr(1),
					MaxValue:    intPtr(game.GridSlots),
				},
			},
		},
	},
}

func GridHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "place":
			buildingID, ok := game.ItemIDByName(data.String("building"))
			if !ok {
				return e.CreateMessage(utils.ErrorMessage("No building matches that name."))
			}
			status, err := b.Actions.PlaceBuilding(ctx, account, buildingID, data.Int("slot")-1)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("⚡ Building placed", renderGrid(status)))
		case "remove":
			status, err := b.Actions.RemoveBuilding(ctx, account, data.Int("slot")-1)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("⚡ Building removed", renderGrid(status)))
		default:
			return e.CreateMessage(utils.InfoMessage("⚡ Power Grid", renderGrid(b.Actions.Grid(account))))
		}
	}
}

func renderGrid(status *actions.GridStatus) string {
	var sb strings.Builder
	for i, id := range status.Slots {
		name := "*(empty)*"
		if id != "" {
			name = "**" + game.Items[id].Name + "**"
		}
		fmt.Fprintf(&sb, "Slot %d: %s\n", i+1, name)
	}
	state := "🟢 online"
	if !status.Online {
		state = "🔴 offline (not enough power)"
	}
	fmt.Fprintf(&sb, "\nGeneration: **%d** • Consumption: **%d** • %s\n", status.Generation, status.Consumption, state)
	if status.BitsPerTick > 0 {
		fmt.Fprintf(&sb, "Passive income: **%s**/hour while online.\n", utils.FormatBits(status.BitsPerTick))
	}
	return sb.String()
}
