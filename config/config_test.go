package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":3000", cfg.HTTP.Addr)
	assert.Equal(t, 1000, cfg.Socket.MaxConnections)
	assert.Equal(t, 50, cfg.Room.SnapshotSize)
	assert.Equal(t, 2000, cfg.Room.HistoryCap)
	assert.Equal(t, 6, cfg.Room.RateLimit.Burst)
	assert.Equal(t, 10*time.Second, cfg.Room.RateLimit.Window)
	assert.Equal(t, AuthModeToken, cfg.Auth.Mode)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("CHAT_ADDR", ":9000")
	t.Setenv("CHAT_MAX_CONNECTIONS", "12")
	t.Setenv("CHAT_PING_INTERVAL", "5s")
	t.Setenv("CHAT_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("CHAT_SNAPSHOT_SIZE", "20")
	t.Setenv("CHAT_HISTORY_CAP", "100")
	t.Setenv("CHAT_RATE_WINDOW", "30")
	t.Setenv("CHAT_AUTH_MODE", "Ephemeral")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("CHAT_ADMIN_PASSWORD", "pw")

	cfg := FromEnv()
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, 12, cfg.Socket.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.Socket.PingInterval)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.Socket.AllowedOrigins)
	assert.Equal(t, 20, cfg.Room.SnapshotSize)
	assert.Equal(t, 100, cfg.Room.HistoryCap)
	assert.Equal(t, 30*time.Second, cfg.Room.RateLimit.Window)
	assert.Equal(t, AuthModeEphemeral, cfg.Auth.Mode)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.False(t, cfg.Auth.UsesDefaultSecret())
	assert.Equal(t, "pw", cfg.Auth.AdminPassword)
}

func TestFromEnvInvalidValues(t *testing.T) {
	t.Setenv("CHAT_MAX_CONNECTIONS", "lots")
	t.Setenv("CHAT_RATE_WINDOW", "-3s")
	t.Setenv("CHAT_AUTH_MODE", "magic")
	t.Setenv("JWT_SECRET", "")

	cfg := FromEnv()
	assert.Equal(t, 1000, cfg.Socket.MaxConnections)
	assert.Equal(t, 10*time.Second, cfg.Room.RateLimit.Window)
	assert.Equal(t, AuthModeToken, cfg.Auth.Mode)
	assert.True(t, cfg.Auth.UsesDefaultSecret())
}

func TestRoomNormalize(t *testing.T) {
	cfg := RoomConfig{SnapshotSize: 500, HistoryCap: 100, HistoryTTL: -time.Second}.Normalize()
	assert.Equal(t, 100, cfg.SnapshotSize)
	assert.Equal(t, 100, cfg.HistoryCap)
	assert.Zero(t, cfg.HistoryTTL)
	assert.Equal(t, 1000, cfg.MaxTextLength)
	assert.Equal(t, "@every 30s", cfg.TickSchedule)
	assert.Equal(t, 30*24*60*60, cfg.MaxMuteSeconds)
}

func TestRoomNormalizeClampsMuteLimits(t *testing.T) {
	cfg := RoomConfig{MaxMuteSeconds: MuteSecondsLimit + 1, DefaultMuteSeconds: MuteSecondsLimit + 1}.Normalize()
	assert.Equal(t, MuteSecondsLimit, cfg.MaxMuteSeconds)
	assert.Equal(t, MuteSecondsLimit, cfg.DefaultMuteSeconds)

	cfg = RoomConfig{MaxMuteSeconds: 30, DefaultMuteSeconds: 600}.Normalize()
	assert.Equal(t, 30, cfg.DefaultMuteSeconds)
}
