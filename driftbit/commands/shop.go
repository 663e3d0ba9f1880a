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

var Shop = discord.SlashCommandCreate{
	Name:        "shop",
	Description: "🛒 The rotating crate shop",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "See what's in stock",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "buy",
			Description: "Buy crates from stock",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "crate",
					Description: "Which crate to buy",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "How many to buy",
					MinValue:    intPtr(1),
				},
			},
		},
	},
}

func ShopHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		if *data.SubCommandName == "buy" {
			lootboxID, ok := game.LootboxIDByName(data.String("crate"))
			if !ok {
				return e.CreateMessage(utils.ErrorMessage("No crate matches that name."))
			}
			quantity := int64(1)
			if q, ok := data.OptInt("quantity"); ok {
				quantity = int64(q)
			}
			res, err := b.Actions.BuyLootbox(ctx, account, lootboxID, quantity)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🛒 Purchase",
				fmt.Sprintf("You bought **%d x %s** for **%s**. Open them with `/open`.",
					res.Quantity, game.Lootboxes[res.LootboxID].Name, utils.FormatBits(res.TotalPaid))))
		}

		stock, err := b.MarketMgr.LootboxStock(ctx)
		if err != nil {
			return replyOutcome(e, err)
		}
		if len(stock) == 0 {
			return e.CreateMessage(utils.InfoMessage("🛒 Crate Shop", "Sold out. Stock rotates every few minutes."))
		}

		var sb strings.Builder
		for _, l := range stock {
			box, ok := game.Lootboxes[l.LootboxID]
			if !ok {
				continue
			}
			fmt.Fprintf(&sb, "**%s** — %s each (%d in stock)\n", box.Name, utils.FormatBits(l.UnitPrice), l.Quantity)
		}
		return e.CreateMessage(utils.InfoMessage("🛒 Crate Shop", sb.String()))
	}
}
