// Package bridge mirrors room events to Redis and relays operator
// announcements from Redis into the room.
package bridge

import (
	"context"
	"errors"

	"github.com/orchestra-mcp/chat/src/types"
)

var (
	// ErrUnavailable is returned by Publish before Start or after Stop.
	ErrUnavailable = errors.New("bridge not available")
	// ErrOutboxFull is returned when an event is dropped because the
	// publisher is behind.
	ErrOutboxFull = errors.New("bridge outbox full")
)

// Bridge defines the interface for cross-instance event mirroring.
type Bridge interface {
	// Publish queues a room event for other instances. It never blocks.
	Publish(env types.Envelope) error

	// Start connects and begins relaying announcements.
	Start(ctx context.Context) error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// AnnounceTarget is implemented by the room engine to receive operator
// announcements.
type AnnounceTarget interface {
	Announce(ctx context.Context, text string) error
}
