package driftbit

import (
	"context"
	"log/slog"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/paginator"

	"github.com/junovette/driftbit/driftbit/database"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/paginate"
	"github.com/junovette/driftbit/driftbit/scheduler"
)

func New(cfg Config, version string, commit string) *Bot {
	return &Bot{
		Cfg:       cfg,
		Paginator: paginator.New(),
		Pagers:    paginate.NewStore(),
		Version:   version,
		Commit:    commit,
	}
}

// Bot wires every subsystem behind the Discord surface.
type Bot struct {
	Cfg       Config
	Client    bot.Client
	Paginator *paginator.Manager
	Pagers    *paginate.Store
	Version   string
	Commit    string

	DB         *database.DB
	Accounts   repositories.AccountRepository
	Market     repositories.MarketRepository
	Clans      repositories.ClanRepository
	State      repositories.StateRepository
	Rewards    *reward.Engine
	Engine     *engine.Engine
	MarketMgr  *market.Manager
	ClanMgr    *clan.Manager
	Actions    *actions.Service
	Schedulers *scheduler.Manager
	Tasks      *scheduler.Tasks
}

func (b *Bot) SetupBot(listeners ...bot.EventListener) error {
	client, err := disgo.New(b.Cfg.Bot.Token,
		bot.WithGatewayConfigOpts(gateway.WithIntents(gateway.IntentGuilds, gateway.IntentGuildMessages, gateway.IntentMessageContent)),
		bot.WithCacheConfigOpts(cache.WithCaches(cache.FlagGuilds)),
		bot.WithEventListeners(b.Paginator),
		bot.WithEventListeners(listeners...),
	)
	if err != nil {
		return err
	}

	b.Client = client
	return nil
}

func (b *Bot) OnReady(_ *events.Ready) {
	slog.Info("Driftbit is now ready",
		slog.String("version", b.Version),
		slog.String("commit", b.Commit))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := b.Client.SetPresence(ctx,
		gateway.WithWatchingActivity("the bit economy"),
		gateway.WithOnlineStatus(discord.OnlineStatusOnline)); err != nil {
		slog.Error("Failed to set presence", slog.Any("error", err))
	}
}
