package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration. Values come from an optional YAML
// file (CONFIG_FILE) and are then overridden by the environment.
type Config struct {
	HTTPPort  string `yaml:"http_port"`
	GinMode   string `yaml:"gin_mode"`
	LogLevel  string `yaml:"log_level"`
	JWTSecret string `yaml:"jwt_secret"`

	DBDriver      string `yaml:"db_driver"`
	DatabaseURL   string `yaml:"database_url"`
	DBPoolSize    int    `yaml:"db_pool_size"`
	DBAutoMigrate bool   `yaml:"db_auto_migrate"`

	RedisURL      string `yaml:"redis_url"`
	RedisPoolSize int    `yaml:"redis_pool_size"`
	CacheTTL      int    `yaml:"cache_ttl_sec"` // seconds

	KafkaBrokers         []string `yaml:"kafka_brokers"`
	KafkaTopic           string   `yaml:"kafka_todo_topic"`
	KafkaPartitions      int      `yaml:"kafka_partitions"`
	EventConsumerEnabled bool     `yaml:"event_consumer_enabled"`

	// ListEmptyNotFound answers an empty list with 404 instead of 200 [].
	ListEmptyNotFound bool `yaml:"list_empty_not_found"`
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the process-wide config (loads once). A broken config file is
// fatal at startup, so Get panics on it.
func Get() *Config {
	cfgOnce.Do(func() {
		c, err := Load(os.Getenv("CONFIG_FILE"))
		if err != nil {
			panic(err)
		}
		cfg = c
	})
	return cfg
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and the environment, in that order of precedence.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	c.overrideFromEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the built-in defaults. Cache, events and auth are off.
func Default() *Config {
	return &Config{
		HTTPPort:          "8080",
		GinMode:           "release",
		LogLevel:          "info",
		DBDriver:          "postgres",
		DBPoolSize:        25,
		DBAutoMigrate:     true,
		RedisPoolSize:     50,
		CacheTTL:          300,
		KafkaTopic:        "todo-events",
		KafkaPartitions:   4,
		ListEmptyNotFound: true,
	}
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported GIN_MODE %q", c.GinMode)
	}
	if c.DBPoolSize <= 0 {
		return fmt.Errorf("DB_POOL_SIZE must be positive, got %d", c.DBPoolSize)
	}
	if c.EventConsumerEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("EVENT_CONSUMER_ENABLED requires KAFKA_BROKERS")
	}
	return nil
}

// CacheEnabled reports whether a Redis URL is configured.
func (c *Config) CacheEnabled() bool { return c.RedisURL != "" }

// EventsEnabled reports whether Kafka brokers are configured.
func (c *Config) EventsEnabled() bool { return len(c.KafkaBrokers) > 0 }

// AuthEnabled reports whether writes require a bearer token.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }

func (c *Config) overrideFromEnv() {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.GinMode = getEnv("GIN_MODE", c.GinMode)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)

	c.DBDriver = getEnv("DB_DRIVER", c.DBDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.DBPoolSize = getIntEnv("DB_POOL_SIZE", c.DBPoolSize)
	c.DBAutoMigrate = getBoolEnv("DB_AUTO_MIGRATE", c.DBAutoMigrate)

	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RedisPoolSize = getIntEnv("REDIS_POOL_SIZE", c.RedisPoolSize)
	c.CacheTTL = getIntEnv("CACHE_TTL_SEC", c.CacheTTL)

	c.KafkaBrokers = getSliceEnv("KAFKA_BROKERS", c.KafkaBrokers)
	c.KafkaTopic = getEnv("KAFKA_TODO_TOPIC", c.KafkaTopic)
	c.KafkaPartitions = getIntEnv("KAFKA_PARTITIONS", c.KafkaPartitions)
	c.EventConsumerEnabled = getBoolEnv("EVENT_CONSUMER_ENABLED", c.EventConsumerEnabled)

	c.ListEmptyNotFound = getBoolEnv("LIST_EMPTY_NOT_FOUND", c.ListEmptyNotFound)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getSliceEnv(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
