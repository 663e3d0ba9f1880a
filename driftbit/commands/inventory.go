package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/paginator"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

const itemsPerPage = 10

var Inventory = discord.SlashCommandCreate{
	Name:        "inventory",
	Description: "🎒 Everything you own",
}

func InventoryHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		items, err := b.Accounts.Items(ctx, account.ID)
		if err != nil {
			return replyOutcome(e, err)
		}
		if len(items) == 0 {
			return e.CreateMessage(utils.InfoMessage("🎒 Inventory", "Your bags are empty. Try `/gather`."))
		}

		lines := make([]string, 0, len(items))
		for _, item := range items {
			def, ok := game.Items[item.ItemID]
			name := item.ItemID
			if ok {
				name = def.Name
			}
			lines = append(lines, fmt.Sprintf("\x1b[32m%s\x1b[0m x%d", name, item.Quantity))
		}
		sort.Strings(lines)

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
					SetTitle("🎒 " + utils.Possessive(account.Name()) + " Inventory").
					SetDescription(description.String()).
					SetColor(utils.InfoColor).
					SetFooter(fmt.Sprintf("Page %d/%d • %d item kinds", page+1, totalPages, len(lines)), "")
			},
			Pages:      totalPages,
			ExpireMode: paginator.ExpireModeAfterLastUsage,
		}, false)
	}
}

var Craft = discord.SlashCommandCreate{
	Name:        "craft",
	Description: "🔨 Craft an item from its recipe",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "item",
			Description: "What to craft",
			Required:    true,
		},
		discord.ApplicationCommandOptionInt{
			Name:        "quantity",
			Description: "How many to craft",
			MinValue:    intPtr(1),
		},
	},
}

func CraftHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		data := e.SlashCommandInteractionData()
		itemID, ok := game.ItemIDByName(data.String("item"))
		if !ok {
			return e.CreateMessage(utils.ErrorMessage("No item matches that name."))
		}
		quantity := int64(1)
		if q, ok := data.OptInt("quantity"); ok {
			quantity = int64(q)
		}

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Craft(ctx, account, itemID, quantity)
		if err != nil {
			return replyOutcome(e, err)
		}

		body := fmt.Sprintf("You crafted **%d x %s**.", res.Quantity, game.Items[res.ItemID].Name)
		if res.FirstCraftBonus > 0 {
			body += fmt.Sprintf("\n✨ First craft! Bonus: **%s**.", utils.FormatBits(res.FirstCraftBonus))
		}
		return e.CreateMessage(utils.SuccessMessage("🔨 Craft", body))
	}
}

var Eat = discord.SlashCommandCreate{
	Name:        "eat",
	Description: "🍖 Eat a food item for a temporary buff",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "food",
			Description: "What to eat",
			Required:    true,
		},
	},
}

func EatHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		itemID, ok := game.ItemIDByName(e.SlashCommandInteractionData().String("food"))
		if !ok {
			return e.CreateMessage(utils.ErrorMessage("No item matches that name."))
		}

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.Eat(ctx, account, itemID)
		if err != nil {
			return replyOutcome(e, err)
		}

		item := game.Items[res.ItemID]
		body := fmt.Sprintf("You ate a **%s**.", item.Name)
		if item.Buff != nil {
			body += fmt.Sprintf(" The buff lasts %s.", utils.FormatDuration(item.Buff.Duration))
		}
		return e.CreateMessage(utils.SuccessMessage("🍖 Eat", body))
	}
}

var Open = discord.SlashCommandCreate{
	Name:        "open",
	Description: "📦 Open a crate from your inventory",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionString{
			Name:        "crate",
			Description: "Which crate to open",
			Required:    true,
		},
	},
}

func OpenHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		lootboxID, ok := game.LootboxIDByName(e.SlashCommandInteractionData().String("crate"))
		if !ok {
			return e.CreateMessage(utils.ErrorMessage("No crate matches that name."))
		}

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}
		res, err := b.Actions.OpenLootbox(ctx, account, lootboxID)
		if err != nil {
			return replyOutcome(e, err)
		}

		var reward string
		switch res.Kind {
		case game.LootboxRewardBits:
			reward = fmt.Sprintf("**%s**", utils.FormatBits(res.Quantity))
		default:
			reward = fmt.Sprintf("**%d x %s**", res.Quantity, game.Items[res.ItemID].Name)
		}
		return e.CreateMessage(utils.SuccessMessage("📦 "+game.Lootboxes[res.LootboxID].Name,
			"Inside you found "+reward+"!"))
	}
}

var Traits = discord.SlashCommandCreate{
	Name:        "traits",
	Description: "🧬 View or reroll your innate traits",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "view",
			Description: "Show your current trait set",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "reroll",
			Description: "Spend a Trait Reforger on a fresh set",
		},
	},
}

func TraitsHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "reroll":
			res, err := b.Actions.RerollTraits(ctx, account)
			if err != nil {
				return replyOutcome(e, err)
			}
			var sb strings.Builder
			sb.WriteString("The reforger hums and your nature shifts:\n")
			writeTraitLines(&sb, res.Rolled)
			return e.CreateMessage(utils.SuccessMessage("🧬 Reforged", sb.String()))
		default:
			if len(account.TraitSlots) == 0 {
				return e.CreateMessage(utils.InfoMessage("🧬 Traits",
					"You have no traits yet. Find a Trait Reforger and `/traits reroll`."))
			}
			var sb strings.Builder
			writeTraitLines(&sb, account.TraitSlots)
			return e.CreateMessage(utils.InfoMessage("🧬 "+utils.Possessive(account.Name())+" Traits", sb.String()))
		}
	}
}

func writeTraitLines(sb *strings.Builder, slots []models.TraitSlot) {
	for _, slot := range slots {
		trait, ok := game.Traits[slot.TraitID]
		if !ok {
			continue
		}
		fmt.Fprintf(sb, "**%s** %s (Lv. %d)\n*%s*\n", trait.Name, trait.Rarity, slot.Level, trait.Description)
	}
}
