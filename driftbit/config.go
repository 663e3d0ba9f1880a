package driftbit

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log   LogConfig   `toml:"log"`
	Bot   BotConfig   `toml:"bot"`
	DB    DBConfig    `toml:"db"`
	API   APIConfig   `toml:"api"`
	Mongo MongoConfig `toml:"mongo"`
}

type BotConfig struct {
	DevGuilds      []snowflake.ID `toml:"dev_guilds"`
	Token          string         `toml:"token"`
	EventChannelID snowflake.ID   `toml:"event_channel_id"`
	GameInviteLink string         `toml:"game_invite_link"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	PoolSize int    `toml:"pool_size"`
}

// APIConfig configures the in-game HTTP command surface.
type APIConfig struct {
	Addr      string `toml:"addr"`
	SharedKey string `toml:"shared_key"`
}

// MongoConfig points at the legacy deployment; only the migrate tool uses it.
type MongoConfig struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}
