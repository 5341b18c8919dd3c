package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration, loaded from a YAML file with
// SGS_-prefixed environment overrides.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig covers the websocket gateway and session handling.
type ServerConfig struct {
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	LeasePeriod time.Duration   `mapstructure:"lease_period"`
	MaxSessions int             `mapstructure:"max_sessions"`
}

// WebSocketConfig configures the player transport.
type WebSocketConfig struct {
	Address      string        `mapstructure:"address"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// GameConfig covers per-room rules-engine settings.
type GameConfig struct {
	// AskTimeout bounds how long a room waits for a client answer before
	// resolving the request's default.
	AskTimeout time.Duration `mapstructure:"ask_timeout"`
	// MaxTurns caps runaway games; zero disables the cap.
	MaxTurns int `mapstructure:"max_turns"`
}

// DatabaseConfig configures the journal's connection pool. An empty URL
// runs the server with in-memory journals only.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// LoggingConfig selects log level and encoder.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads the config file at path, applies defaults and environment
// overrides (SGS_SERVER_WEBSOCKET_ADDRESS and friends), and validates the
// result. A missing file is not an error: defaults plus environment carry a
// development setup.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.read_timeout", 60*time.Second)
	v.SetDefault("server.websocket.write_timeout", 10*time.Second)
	v.SetDefault("server.websocket.ping_interval", 30*time.Second)
	v.SetDefault("server.lease_period", 5*time.Minute)
	v.SetDefault("server.max_sessions", 1024)

	v.SetDefault("game.ask_timeout", 30*time.Second)
	v.SetDefault("game.max_turns", 0)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 8)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.connect_timeout", 5*time.Second)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.WebSocket.Address == "" {
		return fmt.Errorf("server.websocket.address must not be empty")
	}
	if c.Game.AskTimeout < 0 {
		return fmt.Errorf("game.ask_timeout must not be negative")
	}
	if c.Server.LeasePeriod <= 0 {
		return fmt.Errorf("server.lease_period must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug/info/warn/error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not json or console", c.Logging.Format)
	}
	return nil
}
