package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Session  SessionConfig  `mapstructure:"session"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Users    UsersConfig    `mapstructure:"users"`
}

type ServerConfig struct {
	Address  string `mapstructure:"address"`
	HTTPPort string `mapstructure:"http_port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// DatabaseConfig is optional: an empty driver keeps the auth blob on disk
// and disables device snapshots.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type APIConfig struct {
	BaseURL   string          `mapstructure:"base_url"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig paces outgoing requests. RPS <= 0 disables pacing.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Secret string `mapstructure:"secret"`
}

type StorageConfig struct {
	Dir string `mapstructure:"dir"`
	Key string `mapstructure:"key"`
}

type UsersConfig struct {
	PageSize       int           `mapstructure:"page_size"`
	SearchDebounce time.Duration `mapstructure:"search_debounce"`
	RoleDebounce   time.Duration `mapstructure:"role_debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.http_port", "8090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")

	v.SetDefault("database.driver", "")
	v.SetDefault("database.dsn", "")

	v.SetDefault("api.base_url", "http://localhost:5000/api")
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.rate_limit.rps", 0)
	v.SetDefault("api.rate_limit.burst", 5)

	v.SetDefault("session.name", "fleetdash")
	v.SetDefault("session.secret", "dev-session-secret")

	v.SetDefault("storage.dir", defaultStorageDir())
	v.SetDefault("storage.key", "auth-storage")

	v.SetDefault("users.page_size", 10)
	v.SetDefault("users.search_debounce", 500*time.Millisecond)
	v.SetDefault("users.role_debounce", 300*time.Millisecond)
}

func defaultStorageDir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return d + string(os.PathSeparator) + "fleetdash"
	}
	return ".fleetdash"
}

// Load reads .env (if present), then the config file (if any), then
// FLEETDASH_* environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLEETDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("FLEETDASH_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url must be set")
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Driver != "" && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must be set for driver %s", c.Database.Driver)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key must be set")
	}
	return nil
}
