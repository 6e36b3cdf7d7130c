package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	StorageReindexer = "reindexer"
	StorageSQLite    = "sqlite"

	EventsLocal = "local"
	EventsRedis = "redis"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Events      EventsConfig      `mapstructure:"events"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Log         LogConfig         `mapstructure:"log"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host" validate:"required"`
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`

	// RateLimit is requests per minute across the whole API; 0 disables it.
	RateLimit int `mapstructure:"rate_limit" validate:"min=0"`
}

// StorageConfig selects and configures the catalog and report store.
type StorageConfig struct {
	Driver    string          `mapstructure:"driver" validate:"required,oneof=reindexer sqlite"`
	Reindexer ReindexerConfig `mapstructure:"reindexer"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`
}

// ReindexerConfig contains Reindexer database configuration
type ReindexerConfig struct {
	DSN            string `mapstructure:"dsn"`
	MaxConnections int    `mapstructure:"max_connections" validate:"min=1"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig contains cache configuration
type CacheConfig struct {
	Shards          int           `mapstructure:"shards" validate:"min=1"`
	TTL             time.Duration `mapstructure:"ttl" validate:"min=0"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"min=0"`
}

// EventsConfig selects where change notifications are published.
type EventsConfig struct {
	Driver string      `mapstructure:"driver" validate:"required,oneof=local redis"`
	Buffer int         `mapstructure:"buffer" validate:"min=1"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

// ConcurrencyConfig contains concurrency settings
type ConcurrencyConfig struct {
	MaxConcurrentOps int `mapstructure:"max_concurrent_ops" validate:"min=1"`
	ProcessorWorkers int `mapstructure:"processor_workers" validate:"min=1"`
	ProcessorQueue   int `mapstructure:"processor_queue" validate:"min=1"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

// Addr is the listen address of the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Get returns the configuration stored by the last successful Load.
// Before that it returns the defaults.
func Get() *Config {
	mu.RLock()
	cfg := instance
	mu.RUnlock()
	if cfg != nil {
		return cfg
	}

	cfg, err := Read("")
	if err != nil {
		// Defaults always validate.
		panic(err)
	}
	return cfg
}

// Load reads the configuration and makes it the one returned by Get.
func Load(configPath string) error {
	cfg, err := Read(configPath)
	if err != nil {
		return err
	}

	mu.Lock()
	instance = cfg
	mu.Unlock()
	return nil
}

// Reload re-reads the configuration. On error the previous one stays in place.
func Reload(configPath string) error {
	return Load(configPath)
}

// Read builds a configuration from defaults, the YAML file at configPath
// (skipped when empty) and APP_* environment variables, in rising priority.
func Read(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set default values
	setDefaults(v)

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Bind environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.rate_limit", 600)

	// Storage defaults
	// cproto: RPC/TCP порт 6534.
	v.SetDefault("storage.driver", StorageSQLite)
	v.SetDefault("storage.reindexer.dsn", "cproto://localhost:6534/catalogs")
	v.SetDefault("storage.reindexer.max_connections", 10)
	v.SetDefault("storage.sqlite.path", "catalogs.db")

	// Cache defaults
	v.SetDefault("cache.shards", 16)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.cleanup_interval", time.Minute)

	// Events defaults
	v.SetDefault("events.driver", EventsLocal)
	v.SetDefault("events.buffer", 64)
	v.SetDefault("events.redis.addr", "localhost:6379")
	v.SetDefault("events.redis.channel", "catalog-events")

	// Concurrency defaults
	v.SetDefault("concurrency.max_concurrent_ops", 100)
	v.SetDefault("concurrency.processor_workers", 8)
	v.SetDefault("concurrency.processor_queue", 100)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// bindEnvVars binds every known key to APP_<SECTION>_<KEY>, for example
// storage.sqlite.path to APP_STORAGE_SQLITE_PATH.
func bindEnvVars(v *viper.Viper) error {
	for _, key := range v.AllKeys() {
		env := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s: %w", env, err)
		}
	}
	return nil
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

// validate checks struct tags, then the settings each driver needs.
func validate(cfg *Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, len(verrs))
		for i, fe := range verrs {
			msgs[i] = fmt.Sprintf("%s: failed %s %s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	switch cfg.Storage.Driver {
	case StorageReindexer:
		if cfg.Storage.Reindexer.DSN == "" {
			return fmt.Errorf("storage.reindexer.dsn is required")
		}
	case StorageSQLite:
		if cfg.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path is required")
		}
	}

	if cfg.Events.Driver == EventsRedis {
		if cfg.Events.Redis.Addr == "" {
			return fmt.Errorf("events.redis.addr is required")
		}
		if cfg.Events.Redis.Channel == "" {
			return fmt.Errorf("events.redis.channel is required")
		}
	}

	return nil
}
