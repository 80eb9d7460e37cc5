package bridge

import (
	"os"
	"strconv"
)

// RedisConfig holds connection settings for the Redis pub/sub bridge.
type RedisConfig struct {
	Enabled    bool   // REDIS_ENABLED, default false
	Addr       string // Redis address, default "localhost:6379"
	Password   string // Redis password, default ""
	DB         int    // Redis database number, default 0
	Prefix     string // Channel prefix, default "orchestra:chat:"
	OutboxSize int    // Events buffered for publishing, default 256
}

// DefaultRedisConfig returns a RedisConfig with sensible defaults.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:       "localhost:6379",
		Prefix:     "orchestra:chat:",
		OutboxSize: 256,
	}
}

// RedisConfigFromEnv loads Redis configuration from environment variables.
// Falls back to defaults for any missing values.
func RedisConfigFromEnv() *RedisConfig {
	cfg := DefaultRedisConfig()

	if v := os.Getenv("REDIS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = enabled
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Password = pw
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			cfg.DB = db
		}
	}
	if prefix := os.Getenv("REDIS_WS_PREFIX"); prefix != "" {
		cfg.Prefix = prefix
	}
	if n := os.Getenv("REDIS_OUTBOX_SIZE"); n != "" {
		if size, err := strconv.Atoi(n); err == nil && size > 0 {
			cfg.OutboxSize = size
		}
	}
	return cfg
}

// EventsChannel is where room events are published.
func (c *RedisConfig) EventsChannel() string { return c.Prefix + "events" }

// AnnounceChannel is where operators publish announcements.
func (c *RedisConfig) AnnounceChannel() string { return c.Prefix + "announce" }
