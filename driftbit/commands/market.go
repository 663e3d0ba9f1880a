package commands

import (
	"fmt"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Market = discord.SlashCommandCreate{
	Name:        "market",
	Description: "🏪 The player market",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "browse",
			Description: "Browse open listings",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "Only show listings for this item",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "sell",
			Description: "List items for sale",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "item",
					Description: "What to sell",
					Required:    true,
				},
				discord.ApplicationCommandOptionInt{
					Name:        "quantity",
					Description: "How many to sell",
					Required:    true,
					MinValue:    intPtr(1),
				},
				discord.ApplicationCommandOptionInt{
					Name:        "price",
					Description: "Price per unit in Bits",
					Required:    true,
					MinValue:    intPtr(config.MarketMinPrice),
					MaxValue:    intPtr(config.MarketMaxPrice),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "buy",
			Description: "Buy a listing out",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "listing",
					Description: "The listing id",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "cancel",
			Description: "Take one of your listings down",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "listing",
					Description: "The listing id",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
	},
}

func MarketHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "sell":
			itemID, ok := game.ItemIDByName(data.String("item"))
			if !ok {
				return e.CreateMessage(utils.ErrorMessage("No item matches that name."))
			}
			listing, err := b.MarketMgr.List(ctx, account, itemID, int64(data.Int("quantity")), int64(data.Int("price")))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏪 Listed",
				fmt.Sprintf("Listing **#%d**: %d x **%s** at %s each.",
					listing.ListingID, listing.Quantity, game.Items[listing.ItemID].Name, utils.FormatBits(listing.UnitPrice))))

		case "buy":
			res, err := b.MarketMgr.Buy(ctx, account, int64(data.Int("listing")), b.Tasks.Event())
			if err != nil {
				return replyOutcome(e, err)
			}
			body := fmt.Sprintf("You bought %d x **%s** for **%s**.",
				res.Listing.Quantity, game.Items[res.Listing.ItemID].Name, utils.FormatBits(res.TotalPaid))
			if res.TaxRate == 0 {
				body += "\n🎉 Market Madness: the seller paid no tax."
			}
			return e.CreateMessage(utils.SuccessMessage("🏪 Purchase", body))

		case "cancel":
			listing, err := b.MarketMgr.Cancel(ctx, account, int64(data.Int("listing")))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏪 Cancelled",
				fmt.Sprintf("Listing **#%d** taken down. %d x **%s** returned to your inventory.",
					listing.ListingID, listing.Quantity, game.Items[listing.ItemID].Name)))

		default:
			listings, err := b.MarketMgr.Listings(ctx)
			if err != nil {
				return replyOutcome(e, err)
			}
			if filter, ok := data.OptString("item"); ok {
				itemID, found := game.ItemIDByName(filter)
				if !found {
					return e.CreateMessage(utils.ErrorMessage("No item matches that name."))
				}
				kept := listings[:0]
				for _, l := range listings {
					if l.ItemID == itemID {
						kept = append(kept, l)
					}
				}
				listings = kept
			}
			if len(listings) == 0 {
				return e.CreateMessage(utils.InfoMessage("🏪 Market", "Nothing for sale right now."))
			}

			lines := make([]string, 0, len(listings))
			for _, l := range listings {
				name := l.ItemID
				if def, ok := game.Items[l.ItemID]; ok {
					name = def.Name
				}
				lines = append(lines, fmt.Sprintf("#%-4d \x1b[32m%s\x1b[0m x%d @ %d each \x1b[33m(%s)\x1b[0m",
					l.ListingID, name, l.Quantity, l.UnitPrice, l.SellerName))
			}

			totalPages := (len(lines) + itemsPerPage - 1) / itemsPerPage
			return b.Paginator.Create(e.Respond, paginator.Pages{
				ID:      e.ID().String(),
				Creator: e.User().ID,
				PageFunc: func(page int, embed *discord.EmbedBuilder) {
					start := page * itemsPerPage
					end := min(start+itemsPerPage, len(lines))

					var description strings.Builder
					description.WriteString("```ansi\n")
					for _, line := range lines[start:end] {
						description.WriteString(line)
						description.WriteByte('\n')
					}
					description.WriteString("```")

					embed.
						SetTitle("🏪 Market").
						SetDescription(description.String()).
						SetColor(utils.InfoColor).
						SetFooter(fmt.Sprintf("Page %d/%d • %d listings • buy with /market buy", page+1, totalPages, len(lines)), "")
				},
				Pages:      totalPages,
				ExpireMode: paginator.ExpireModeAfterLastUsage,
			}, false)
		}
	}
}
