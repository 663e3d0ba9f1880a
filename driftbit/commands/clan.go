package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database/models"
	"github.com/junovette/driftbit/driftbit/economy"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/game"
	"github.com/junovette/driftbit/driftbit/utils"
)

var ClanCmd = discord.SlashCommandCreate{
	Name:        "clan",
	Description: "🏰 Clans: band together, pool Bits, fight wars",
	Options: []discord.ApplicationCommandOption{
		discord.ApplicationCommandOptionSubCommand{
			Name:        "create",
			Description: "Found a new clan",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "name",
					Description: "The clan name",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "info",
			Description: "Show a clan's roster and vault",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "clan",
					Description: "Clan name or code (defaults to yours)",
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "join",
			Description: "Join or apply to a clan",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "clan",
					Description: "Clan name or code",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "leave",
			Description: "Leave your clan",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "invite",
			Description: "Invite a player to your clan",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "player",
					Description: "The player's name",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "accept",
			Description: "Accept an applicant into your clan",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "player",
					Description: "The applicant's name",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "kick",
			Description: "Remove a member from your clan",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "player",
					Description: "The member's name",
					Required:    true,
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "disband",
			Description: "Dissolve your clan for good",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "recruitment",
			Description: "Open or close your clan to new members",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionString{
					Name:        "mode",
					Description: "Who may join",
					Required:    true,
					Choices: []discord.ApplicationCommandOptionChoiceString{
						{Name: "open", Value: string(models.RecruitmentOpen)},
						{Name: "closed", Value: string(models.RecruitmentClosed)},
					},
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "donate",
			Description: "Donate Bits to the clan vault",
			Options: []discord.ApplicationCommandOption{
				discord.ApplicationCommandOptionInt{
					Name:        "amount",
					Description: "How many Bits",
					Required:    true,
					MinValue:    intPtr(1),
				},
			},
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "upgrade",
			Description: "Spend the vault to level the clan up",
		},
		discord.ApplicationCommandOptionSubCommand{
			Name:        "war",
			Description: "The current clan war standings",
		},
	},
}

func ClanHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		ctx, cancel := commandContext()
		defer cancel()

		account, err := loadCaller(ctx, b, e)
		if err != nil {
			return replyOutcome(e, err)
		}

		data := e.SlashCommandInteractionData()
		switch *data.SubCommandName {
		case "create":
			created, err := b.ClanMgr.Create(ctx, account, data.String("name"))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Clan founded",
				fmt.Sprintf("**%s** stands! Invite code: `%s`.", created.Name, created.Code)))

		case "join":
			result, joined, err := b.ClanMgr.Join(ctx, account, data.String("clan"))
			if err != nil {
				return replyOutcome(e, err)
			}
			if result == clan.Applied {
				return e.CreateMessage(utils.InfoMessage("🏰 Application sent",
					fmt.Sprintf("**%s** is invite-only. The owner can `/clan accept` you.", joined.Name)))
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Welcome",
				fmt.Sprintf("You joined **%s**.", joined.Name)))

		case "leave":
			left, err := b.ClanMgr.Leave(ctx, account)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.InfoMessage("🏰 Departed",
				fmt.Sprintf("You left **%s**. You can join another clan in %s.",
					left.Name, utils.FormatDuration(config.ClanJoinCooldown))))

		case "invite":
			invited, err := b.ClanMgr.Invite(ctx, account, data.String("player"))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Invited",
				fmt.Sprintf("They can now `/clan join %s`.", invited.Code)))

		case "accept":
			member, err := b.ClanMgr.Accept(ctx, account, data.String("player"))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Accepted",
				fmt.Sprintf("**%s** is now a member.", member.Name())))

		case "kick":
			kicked, err := b.ClanMgr.Kick(ctx, account, data.String("player"))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.InfoMessage("🏰 Kicked",
				fmt.Sprintf("**%s** was removed from the clan.", kicked.Name())))

		case "disband":
			disbanded, err := b.ClanMgr.Disband(ctx, account)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.InfoMessage("🏰 Disbanded",
				fmt.Sprintf("**%s** is no more.", disbanded.Name)))

		case "recruitment":
			mode := models.Recruitment(data.String("mode"))
			updated, err := b.ClanMgr.SetRecruitment(ctx, account, mode)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Recruitment",
				fmt.Sprintf("**%s** is now **%s**.", updated.Name, updated.Recruitment)))

		case "donate":
			donated, err := b.ClanMgr.Donate(ctx, account, int64(data.Int("amount")))
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Donation",
				fmt.Sprintf("Vault of **%s** now holds **%s**.", donated.Name, utils.FormatBits(donated.VaultBalance))))

		case "upgrade":
			upgraded, err := b.ClanMgr.Upgrade(ctx, account)
			if err != nil {
				return replyOutcome(e, err)
			}
			return e.CreateMessage(utils.SuccessMessage("🏰 Level up",
				fmt.Sprintf("**%s** reached level **%d**!", upgraded.Name, upgraded.Level)))

		case "war":
			return clanWar(ctx, b, e)

		default:
			return clanInfo(ctx, b, e, account, data.String("clan"))
		}
	}
}

func clanInfo(ctx context.Context, b *driftbit.Bot, e *handler.CommandEvent, account *models.Account, ref string) error {
	var (
		target *models.Clan
		err    error
	)
	if ref != "" {
		target, err = b.ClanMgr.Resolve(ctx, ref)
	} else if account.ClanID != 0 {
		target, err = b.Clans.GetByID(ctx, account.ClanID)
	} else {
		return e.CreateMessage(utils.InfoMessage("🏰 Clan", "You're not in a clan. `/clan join` one or `/clan create` your own."))
	}
	if err != nil {
		if errors.Is(err, economy.ErrNotFound) {
			return e.CreateMessage(utils.ErrorMessage("No clan matches that name or code."))
		}
		return replyOutcome(e, err)
	}

	members, err := b.Accounts.ByClan(ctx, target.ID)
	if err != nil {
		return replyOutcome(e, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Code: `%s` • Level **%d** • Recruitment **%s**\n", target.Code, target.Level, target.Recruitment)
	fmt.Fprintf(&sb, "Vault: **%s** • War points: **%d**\n\n", utils.FormatBits(target.VaultBalance), target.WarPoints)
	fmt.Fprintf(&sb, "Members (%d/%d):\n", len(members), config.ClanMemberLimit)
	for _, m := range members {
		crown := ""
		if m.ID == target.OwnerID {
			crown = " 👑"
		}
		fmt.Fprintf(&sb, "• %s%s\n", m.Name(), crown)
	}
	if next, ok := game.ClanLevelAt(target.Level + 1); ok {
		fmt.Fprintf(&sb, "\nNext level costs **%s** from the vault and grants: %s.\n",
			utils.FormatBits(next.Cost), next.Perks)
	}
	return e.CreateMessage(utils.InfoMessage("🏰 "+target.Name, sb.String()))
}

func clanWar(ctx context.Context, b *driftbit.Bot, e *handler.CommandEvent) error {
	state, err := b.State.WarState(ctx)
	if err != nil {
		if errors.Is(err, economy.ErrNotFound) {
			return e.CreateMessage(utils.InfoMessage("⚔️ Clan War", "No war is running yet. One starts shortly."))
		}
		return replyOutcome(e, err)
	}

	top, err := b.Clans.TopByWarPoints(ctx, config.ClanWarPodiumSize)
	if err != nil {
		return replyOutcome(e, err)
	}

	var sb strings.Builder
	remaining := time.Until(state.WarEndsAt)
	if remaining > 0 {
		fmt.Fprintf(&sb, "The war ends in **%s**.\n\n", utils.FormatDuration(remaining))
	} else {
		sb.WriteString("The war is being settled.\n\n")
	}
	medals := []string{"🥇", "🥈", "🥉"}
	for i, c := range top {
		medal := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			medal = medals[i]
		}
		fmt.Fprintf(&sb, "%s **%s** — %d points\n", medal, c.Name, c.WarPoints)
	}
	if len(top) == 0 {
		sb.WriteString("No clan has scored yet. Work and gather to earn points!\n")
	}
	return e.CreateMessage(utils.InfoMessage("⚔️ Clan War", sb.String()))
}
