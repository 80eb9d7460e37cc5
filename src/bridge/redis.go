package bridge

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const announceTimeout = 5 * time.Second

// redisEnvelope wraps a room event with the originating instance ID so
// consumers can tell instances apart.
type redisEnvelope struct {
	InstanceID string         `json:"instance_id"`
	Envelope   types.Envelope `json:"envelope"`
}

// announcement is the JSON form of an announce payload. Plain text is
// accepted too.
type announcement struct {
	InstanceID string `json:"instance_id"`
	Text       string `json:"text"`
}

// RedisBridge publishes room events to Redis pub/sub and relays
// announcements back into the room.
type RedisBridge struct {
	client     *redis.Client
	cfg        *RedisConfig
	instanceID string
	target     AnnounceTarget
	logger     zerolog.Logger

	outbox  chan []byte
	dropped atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	active bool
}

// NewRedisBridge creates a bridge. Nothing connects until Start.
func NewRedisBridge(cfg *RedisConfig, target AnnounceTarget, logger zerolog.Logger) *RedisBridge {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	size := cfg.OutboxSize
	if size <= 0 {
		size = DefaultRedisConfig().OutboxSize
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBridge{
		client:     client,
		cfg:        cfg,
		instanceID: uuid.New().String(),
		target:     target,
		logger:     logger.With().Str("component", "redis-bridge").Logger(),
		outbox:     make(chan []byte, size),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// InstanceID identifies this process in published events.
func (b *RedisBridge) InstanceID() string { return b.instanceID }

// Dropped returns how many events were dropped because the outbox was full.
func (b *RedisBridge) Dropped() int64 { return b.dropped.Load() }

// Start pings Redis, subscribes to the announce channel and starts the
// publisher.
func (b *RedisBridge) Start(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return err
	}

	channel := b.cfg.AnnounceChannel()
	sub := b.client.Subscribe(b.ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.wg.Add(2)
	go b.listen(sub)
	go b.publishLoop()

	b.logger.Info().
		Str("instance_id", b.instanceID).
		Str("announce", channel).
		Str("events", b.cfg.EventsChannel()).
		Msg("redis bridge started")
	return nil
}

// Publish queues env for publishing without blocking.
func (b *RedisBridge) Publish(env types.Envelope) error {
	if !b.Available() {
		return ErrUnavailable
	}
	data, err := json.Marshal(redisEnvelope{InstanceID: b.instanceID, Envelope: env})
	if err != nil {
		return err
	}
	select {
	case b.outbox <- data:
		return nil
	default:
		b.dropped.Add(1)
		return ErrOutboxFull
	}
}

// Stop unsubscribes and closes the Redis connection. Queued events that
// were not published yet are discarded.
func (b *RedisBridge) Stop() error {
	b.mu.Lock()
	b.active = false
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()
	return b.client.Close()
}

// Available reports whether the bridge is connected.
func (b *RedisBridge) Available() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

func (b *RedisBridge) publishLoop() {
	defer b.wg.Done()

	channel := b.cfg.EventsChannel()
	for {
		select {
		case data := <-b.outbox:
			if err := b.client.Publish(b.ctx, channel, data).Err(); err != nil && b.ctx.Err() == nil {
				b.logger.Error().Err(err).Msg("failed to publish room event")
			}
		case <-b.ctx.Done():
			return
		}
	}
}

// listen reads announcements from the subscription and forwards them to
// the room.
func (b *RedisBridge) listen(sub *redis.PubSub) {
	defer b.wg.Done()
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleAnnouncement(msg)
		case <-b.ctx.Done():
			return
		}
	}
}

// handleAnnouncement decodes an announce payload and forwards it unless it
// came from this instance.
func (b *RedisBridge) handleAnnouncement(msg *redis.Message) {
	a, ok := decodeAnnouncement(msg.Payload)
	if !ok {
		b.logger.Debug().Str("channel", msg.Channel).Msg("ignoring empty announcement")
		return
	}
	if a.InstanceID == b.instanceID {
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, announceTimeout)
	defer cancel()
	if err := b.target.Announce(ctx, a.Text); err != nil {
		b.logger.Error().Err(err).Msg("failed to relay announcement")
		return
	}
	b.logger.Info().Str("from_instance", a.InstanceID).Msg("relayed announcement")
}

func decodeAnnouncement(payload string) (announcement, bool) {
	payload = strings.TrimSpace(payload)
	var a announcement
	if strings.HasPrefix(payload, "{") {
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return announcement{}, false
		}
	} else {
		a.Text = payload
	}
	return a, strings.TrimSpace(a.Text) != ""
}
