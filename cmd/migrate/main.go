// Command migrate imports the legacy MongoDB deployment into Postgres.
// It reads the same config file as the bot; the [mongo] section points at
// the old database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/junovette/driftbit/driftbit"
	"github.com/junovette/driftbit/driftbit/database"
	"github.com/junovette/driftbit/driftbit/logger"
	"github.com/junovette/driftbit/driftbit/migration"
)

func main() {
	slog.SetDefault(slog.New(logger.NewHandler("MIGRATE")))

	path := flag.String("config", "config.toml", "path to config")
	batchSize := flag.Int("batch-size", 0, "override insert batch size")
	flag.Parse()

	cfg, err := driftbit.LoadConfig(*path)
	if err != nil {
		slog.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(-1)
	}
	if cfg.Mongo.URI == "" || cfg.Mongo.Database == "" {
		slog.Error("Config is missing the [mongo] section")
		os.Exit(-1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.DBConfig{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Database,
		PoolSize: cfg.DB.PoolSize,
	})
	if err != nil {
		slog.Error("Database connection failed", slog.Any("error", err))
		os.Exit(-1)
	}
	defer db.Close()

	if err := db.InitializeSchema(ctx); err != nil {
		slog.Error("Failed to initialize database schema", slog.Any("error", err))
		os.Exit(-1)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		slog.Error("Failed to connect to legacy MongoDB", slog.Any("error", err))
		os.Exit(-1)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("Failed to disconnect from MongoDB", slog.Any("error", err))
		}
	}()

	migrator := migration.New(db.BunDB(), client, cfg.Mongo.Database)
	migrator.SetBatchSize(*batchSize)

	if err := migrator.MigrateAll(ctx); err != nil {
		slog.Error("Migration failed", slog.Any("error", err))
		os.Exit(-1)
	}
}
