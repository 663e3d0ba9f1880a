package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/handler"
	"github.com/disgoorg/snowflake/v2"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/api"
	"github.com/junovette/driftbit/driftbit/commands"
	"github.com/junovette/driftbit/driftbit/config"
	"github.com/junovette/driftbit/driftbit/database"
	"github.com/junovette/driftbit/driftbit/database/repositories"
	"github.com/junovette/driftbit/driftbit/economy/actions"
	"github.com/junovette/driftbit/driftbit/economy/clan"
	"github.com/junovette/driftbit/driftbit/economy/engine"
	"github.com/junovette/driftbit/driftbit/economy/market"
	"github.com/junovette/driftbit/driftbit/economy/reward"
	"github.com/junovette/driftbit/driftbit/logger"
	"github.com/junovette/driftbit/driftbit/router"
	"github.com/junovette/driftbit/driftbit/scheduler"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("DRIFTBIT")))

	slog.Info("Starting Driftbit",
		slog.String("version", version),
		slog.String("commit", commit))

	shouldSyncCommands := flag.Bool("sync-commands", false, "Whether to sync commands to discord")
	path := flag.String("config", "config.toml", "path to config")
	flag.Parse()

	cfg, err := driftbit.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	slog.Info("Configuration loaded successfully")

	slog.Info("Initializing database connection...")
	dbStartTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbConfig := database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	}

	db, err := database.New(ctx, dbConfig)
	if err != nil {
		slog.Error("Database connection failed",
			slog.String("error", err.Error()),
			slog.Duration("attempted_for", time.Since(dbStartTime)))
		os.Exit(-1)
	}

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema",
			slog.String("error", err.Error()))
		os.Exit(-1)
	}
	slog.Info("Database ready",
		slog.String("database", cfg.DB.Database),
		slog.Duration("took", time.Since(dbStartTime)))

	defer db.Close()

	b := driftbit.New(*cfg, version, commit)
	b.DB = db

	b.Accounts = repositories.NewAccountRepository(db.BunDB())
	b.Market = repositories.NewMarketRepository(db.BunDB())
	b.Clans = repositories.NewClanRepository(db.BunDB())
	b.State = repositories.NewStateRepository(db.BunDB())

	b.Rewards = reward.NewEngine(reward.NewCryptoSource())
	b.Engine = engine.New(b.Accounts, b.Rewards, engine.NewTxManager(db.BunDB()))
	b.MarketMgr = market.NewManager(b.Market, b.Accounts)
	b.ClanMgr = clan.NewManager(b.Clans, b.Accounts, b.State, b.Rewards)

	// Out-of-band delivery for finished smelting jobs. Players without a
	// linked Discord account only see the result on their next login.
	notifyAccount := func(accountID, message string) {
		if b.Client == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		account, err := b.Accounts.GetByID(ctx, accountID)
		if err != nil || account.DiscordID == "" {
			return
		}
		sendDM(b, account.DiscordID, message)
	}

	b.Tasks = scheduler.NewTasks(b.Accounts, b.Clans, b.State, b.MarketMgr, b.Rewards, nil, notifyAccount)
	b.Actions = actions.NewService(b.Engine, b.Accounts, b.Clans, b.MarketMgr, b.ClanMgr, b.Rewards, b.Tasks.Event)

	b.Tasks.SetAnnouncer(func(message string) {
		if b.Client == nil || cfg.Bot.EventChannelID == 0 {
			return
		}
		if _, err := b.Client.Rest().CreateMessage(cfg.Bot.EventChannelID,
			discord.NewMessageCreateBuilder().SetContent(message).Build()); err != nil {
			slog.Error("Failed to announce event", slog.Any("error", err))
		}
	})

	// The market opens clean: sweep out-of-policy listings once before the
	// recurring correction ticker takes over.
	if err := b.Tasks.PriceCorrection(ctx); err != nil {
		slog.Error("Startup price correction failed", slog.Any("error", err))
	}

	b.Schedulers = scheduler.NewManager()
	b.Tasks.Register(b.Schedulers)
	defer func() {
		if err := b.Schedulers.Shutdown(config.ShutdownTimeout); err != nil {
			slog.Error("Scheduler shutdown timed out", slog.Any("error", err))
		}
	}()

	rt := router.New(b.Engine, b.Accounts, b.State, b.Clans, b.Actions, b.MarketMgr, b.ClanMgr, b.Pagers, b.Tasks.Event,
		func(discordID, message string) { sendDM(b, discordID, message) })

	apiServer := api.NewServer(cfg.API.SharedKey, rt.Run)
	go func() {
		slog.Info("Command API listening", slog.String("addr", cfg.API.Addr))
		if err := apiServer.Listen(cfg.API.Addr); err != nil {
			slog.Error("Command API stopped", slog.Any("error", err))
		}
	}()
	defer func() {
		if err := apiServer.Shutdown(); err != nil {
			slog.Error("Command API shutdown failed", slog.Any("error", err))
		}
	}()

	h := handler.New()
	commands.Register(b, h)

	if err = b.SetupBot(h, bot.NewListenerFunc(b.OnReady)); err != nil {
		slog.Error("Failed to setup bot",
			slog.Any("error", err),
			slog.String("error_details", fmt.Sprintf("%+v", err)))
		os.Exit(-1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		b.Client.Close(ctx)
	}()

	if *shouldSyncCommands {
		slog.Info("Syncing commands", slog.Any("guild_ids", cfg.Bot.DevGuilds))
		if err = handler.SyncCommands(b.Client, commands.Commands, cfg.Bot.DevGuilds); err != nil {
			slog.Error("Failed to sync commands", slog.Any("error", err))
		}
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = b.Client.OpenGateway(ctx); err != nil {
		slog.Error("Failed to open gateway", slog.Any("error", err))
		os.Exit(-1)
	}

	slog.Info("Driftbit is running. Press CTRL-C to exit.")
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM)
	<-s
	slog.Info("Shutting down...")
}

func sendDM(b *driftbit.Bot, discordID, message string) {
	if b.Client == nil {
		return
	}
	id, err := snowflake.Parse(discordID)
	if err != nil {
		return
	}
	dmChannel, err := b.Client.Rest().CreateDMChannel(id)
	if err != nil {
		slog.Error("Failed to create DM channel",
			slog.String("user_id", discordID),
			slog.String("error", err.Error()))
		return
	}
	if _, err = b.Client.Rest().CreateMessage(dmChannel.ID(),
		discord.NewMessageCreateBuilder().SetContent(message).Build()); err != nil {
		slog.Debug("Failed to send DM (user may have DMs disabled)",
			slog.String("user_id", discordID),
			slog.String("error", err.Error()))
	}
}
