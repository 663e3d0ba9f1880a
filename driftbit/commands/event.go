package commands

import (
	"fmt"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/utils"
)

var Event = discord.SlashCommandCreate{
	Name:        "event",
	Description: "🎪 What's happening on the server right now",
}

func EventHandler(b *driftbit.Bot) handler.CommandHandler {
	return func(e *handler.CommandEvent) error {
		active := b.Tasks.Event()
		if active == nil {
			return e.CreateMessage(utils.InfoMessage("🎪 Server Event",
				"Nothing special is happening right now. Events roll in every few minutes."))
		}
		return e.CreateMessage(utils.InfoMessage("🎪 "+active.Name,
			fmt.Sprintf("%s\n\nEnds in **%s**.", active.Description, utils.FormatDuration(time.Until(active.ExpiresAt)))))
	}
}
