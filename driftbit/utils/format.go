// Package utils holds shared presentation helpers for the command surface.
package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/disgoorg/disgo/discord"

	"github.com/junovette/driftbit/driftbit/config"
)

const (
	SuccessColor = 0x57F287
	ErrorColor   = 0xED4245
	InfoColor    = 0x5865F2
	WarnColor    = 0xFEE75E
)

// FormatBits renders a currency amount with its unit.
func FormatBits(amount int64) string {
	return fmt.Sprintf("%d %s", amount, config.CurrencyName)
}

// FormatDuration renders a duration in the largest sensible unit, for
// cooldown and timer displays.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "ready"
	}
	switch {
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()+0.999))
	}
}

// Possessive appends the genitive suffix to a display name.
func Possessive(name string) string {
	if strings.HasSuffix(name, "s") {
		return name + "'"
	}
	return name + "'s"
}

// ErrorMessage builds a uniform error reply.
func ErrorMessage(description string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       "Error",
			Description: description,
			Color:       ErrorColor,
		}},
	}
}

// SuccessMessage builds a uniform success reply.
func SuccessMessage(title, description string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: description,
			Color:       SuccessColor,
		}},
	}
}

// InfoMessage builds a neutral informational reply.
func InfoMessage(title, description string) discord.MessageCreate {
	return discord.MessageCreate{
		Embeds: []discord.Embed{{
			Title:       title,
			Description: description,
			Color:       InfoColor,
		}},
	}
}
