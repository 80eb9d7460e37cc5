package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// FromEnv loads configuration from environment variables.
// Falls back to defaults for any missing or invalid values.
func FromEnv() *Config {
	cfg := DefaultConfig()

	if addr := os.Getenv("CHAT_ADDR"); addr != "" {
		cfg.HTTP.Addr = addr
	}
	cfg.HTTP.ShutdownTimeout = envDuration("CHAT_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout)

	cfg.Socket.MaxConnections = envInt("CHAT_MAX_CONNECTIONS", cfg.Socket.MaxConnections)
	cfg.Socket.PingInterval = envDuration("CHAT_PING_INTERVAL", cfg.Socket.PingInterval)
	cfg.Socket.WriteTimeout = envDuration("CHAT_WRITE_TIMEOUT", cfg.Socket.WriteTimeout)
	if origins := os.Getenv("CHAT_ALLOWED_ORIGINS"); origins != "" {
		cfg.Socket.AllowedOrigins = splitList(origins)
	}

	cfg.Room.SnapshotSize = envInt("CHAT_SNAPSHOT_SIZE", cfg.Room.SnapshotSize)
	cfg.Room.HistoryCap = envInt("CHAT_HISTORY_CAP", cfg.Room.HistoryCap)
	cfg.Room.HistoryTTL = envDuration("CHAT_HISTORY_TTL", cfg.Room.HistoryTTL)
	cfg.Room.MaxMuteSeconds = envInt("CHAT_MAX_MUTE_SECONDS", cfg.Room.MaxMuteSeconds)
	cfg.Room.RateLimit.Burst = envInt("CHAT_RATE_BURST", cfg.Room.RateLimit.Burst)
	cfg.Room.RateLimit.Window = envDuration("CHAT_RATE_WINDOW", cfg.Room.RateLimit.Window)
	if schedule := os.Getenv("CHAT_TICK_SCHEDULE"); schedule != "" {
		cfg.Room.TickSchedule = schedule
	}
	cfg.Room = cfg.Room.Normalize()

	switch AuthMode(strings.ToLower(os.Getenv("CHAT_AUTH_MODE"))) {
	case AuthModeEphemeral:
		cfg.Auth.Mode = AuthModeEphemeral
	case AuthModeToken:
		cfg.Auth.Mode = AuthModeToken
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	cfg.Auth.TokenTTL = envDuration("JWT_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.BcryptCost = envInt("CHAT_BCRYPT_COST", cfg.Auth.BcryptCost)
	if user := os.Getenv("CHAT_ADMIN_USER"); user != "" {
		cfg.Auth.AdminUsername = user
	}
	if pw := os.Getenv("CHAT_ADMIN_PASSWORD"); pw != "" {
		cfg.Auth.AdminPassword = pw
	}

	if path := os.Getenv("CHAT_DB_PATH"); path != "" {
		cfg.Store.DBPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Log.Format = format
	}
	return cfg
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// envDuration accepts Go durations ("15s") or a bare number of seconds.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
