package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/worldbreakers/worldbreakers-server-go/internal/game"
)

// Config is the server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Cards    CardsConfig    `mapstructure:"cards"`
	Replay   ReplayConfig   `mapstructure:"replay"`
	Rules    game.Rules     `mapstructure:"rules"`
}

type ServerConfig struct {
	GRPC            GRPCConfig      `mapstructure:"grpc"`
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	MaxGames        int             `mapstructure:"max_games"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatabaseConfig selects the game store. Driver is "postgres", "sqlite" or
// "memory".
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int    `mapstructure:"max_conns"`
}

type CardsConfig struct {
	CataloguePath string `mapstructure:"catalogue_path"`
}

type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

const envPrefix = "WORLDBREAKERS"

// Load reads the YAML file at path. Missing keys fall back to defaults and
// every key can be overridden by WORLDBREAKERS_<SECTION>_<KEY>. An empty path
// loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.path", "/ws")
	v.SetDefault("server.max_games", 1000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("cards.catalogue_path", "data/cards.yaml")

	v.SetDefault("replay.enabled", true)
	v.SetDefault("replay.dir", "replays")

	r := game.DefaultRules()
	v.SetDefault("rules.actions_per_round", r.ActionsPerRound)
	v.SetDefault("rules.rally_income", r.RallyIncome)
	v.SetDefault("rules.rally_draw", r.RallyDraw)
	v.SetDefault("rules.power_to_win", r.PowerToWin)
	v.SetDefault("rules.opening_hand_size", r.OpeningHandSize)
	v.SetDefault("rules.starting_mythium", r.StartingMythium)
	v.SetDefault("rules.draw_card_cost", r.DrawCardCost)
}

// Validate checks values Load cannot default.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}

	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Server.GRPC.Address == "" {
		return fmt.Errorf("server.grpc.address is required")
	}
	if c.Server.GRPC.MaxConcurrentStreams <= 0 {
		return fmt.Errorf("server.grpc.max_concurrent_streams must be positive")
	}
	if c.Rules.ActionsPerRound <= 0 || c.Rules.ActionsPerRound%2 != 0 {
		return fmt.Errorf("rules.actions_per_round must be a positive even number, got %d", c.Rules.ActionsPerRound)
	}
	if c.Rules.PowerToWin <= 0 {
		return fmt.Errorf("rules.power_to_win must be positive")
	}
	if c.Replay.Enabled && c.Replay.Dir == "" {
		return fmt.Errorf("replay.dir is required when replays are enabled")
	}
	return nil
}
