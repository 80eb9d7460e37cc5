package config

import (
	"math"
	"time"
)

// MuteSecondsLimit is the largest mute duration accepted anywhere. It keeps
// the expiry representable as a time.Duration on every platform.
const MuteSecondsLimit = math.MaxInt32

// RateLimitConfig bounds how many messages one sender may have accepted
// within a sliding window.
type RateLimitConfig struct {
	Burst  int           `json:"burst"`
	Window time.Duration `json:"window"`
}

// RoomConfig holds the limits applied by the room engine.
type RoomConfig struct {
	SnapshotSize       int             `json:"snapshot_size"`
	HistoryCap         int             `json:"history_cap"`
	HistoryTTL         time.Duration   `json:"history_ttl"`
	MaxTextLength      int             `json:"max_text_length"`
	MaxNoticeLength    int             `json:"max_notice_length"`
	MaxNameLength      int             `json:"max_name_length"`
	DefaultMuteSeconds int             `json:"default_mute_seconds"`
	MaxMuteSeconds     int             `json:"max_mute_seconds"`
	RateLimit          RateLimitConfig `json:"rate_limit"`
	TickSchedule       string          `json:"tick_schedule"`
}

// DefaultRoomConfig returns the default room limits.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		SnapshotSize:       50,
		HistoryCap:         2000,
		MaxTextLength:      1000,
		MaxNoticeLength:    300,
		MaxNameLength:      30,
		DefaultMuteSeconds: 60,
		MaxMuteSeconds:     30 * 24 * 60 * 60,
		RateLimit: RateLimitConfig{
			Burst:  6,
			Window: 10 * time.Second,
		},
		TickSchedule: "@every 30s",
	}
}

// Normalize replaces non-positive limits with defaults and keeps the
// snapshot no larger than the retention cap.
func (c RoomConfig) Normalize() RoomConfig {
	def := DefaultRoomConfig()
	if c.SnapshotSize <= 0 {
		c.SnapshotSize = def.SnapshotSize
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = def.HistoryCap
	}
	if c.SnapshotSize > c.HistoryCap {
		c.SnapshotSize = c.HistoryCap
	}
	if c.HistoryTTL < 0 {
		c.HistoryTTL = 0
	}
	if c.MaxTextLength <= 0 {
		c.MaxTextLength = def.MaxTextLength
	}
	if c.MaxNoticeLength <= 0 {
		c.MaxNoticeLength = def.MaxNoticeLength
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = def.MaxNameLength
	}
	if c.DefaultMuteSeconds <= 0 {
		c.DefaultMuteSeconds = def.DefaultMuteSeconds
	}
	if c.MaxMuteSeconds <= 0 {
		c.MaxMuteSeconds = def.MaxMuteSeconds
	}
	if c.MaxMuteSeconds > MuteSecondsLimit {
		c.MaxMuteSeconds = MuteSecondsLimit
	}
	if c.DefaultMuteSeconds > c.MaxMuteSeconds {
		c.DefaultMuteSeconds = c.MaxMuteSeconds
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = def.RateLimit.Burst
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = def.RateLimit.Window
	}
	if c.TickSchedule == "" {
		c.TickSchedule = def.TickSchedule
	}
	return c
}
