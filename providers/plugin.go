// Package providers wires the chat room into an HTTP and WebSocket server.
package providers

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/accounts"
	"github.com/orchestra-mcp/chat/src/bridge"
	"github.com/orchestra-mcp/chat/src/identity"
	"github.com/orchestra-mcp/chat/src/room"
	"github.com/orchestra-mcp/chat/src/scheduler"
	"github.com/orchestra-mcp/chat/src/service"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ChatPlugin owns the room engine and everything attached to it.
type ChatPlugin struct {
	active    bool
	cfg       *config.Config
	db        *gorm.DB
	logger    zerolog.Logger
	issuer    *identity.Issuer
	engine    *room.Engine
	service   *service.Service
	scheduler *scheduler.Scheduler
	bridge    bridge.Bridge
	conns     atomic.Int64
}

// NewChatPlugin creates a chat plugin. Nothing runs until Activate.
func NewChatPlugin(cfg *config.Config, db *gorm.DB, logger zerolog.Logger) *ChatPlugin {
	return &ChatPlugin{cfg: cfg, db: db, logger: logger}
}

func (p *ChatPlugin) ID() string      { return "orchestra/chat" }
func (p *ChatPlugin) Name() string    { return "Chat" }
func (p *ChatPlugin) Version() string { return "0.1.0" }
func (p *ChatPlugin) IsActive() bool  { return p.active }

// Service exposes the chat service.
func (p *ChatPlugin) Service() *service.Service { return p.service }

// Activate builds the room, account store and scheduler and starts the
// event loop.
func (p *ChatPlugin) Activate(ctx context.Context) error {
	p.issuer = identity.NewIssuer(p.cfg.Auth.JWTSecret, p.cfg.Auth.TokenTTL, p.cfg.Auth.Issuer)

	engine, err := room.New(p.cfg.Room, p.issuer, p.cfg.Auth.Mode, p.logger)
	if err != nil {
		return err
	}
	p.engine = engine

	repo := accounts.NewRepository(p.db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	accts := accounts.NewService(
		repo,
		accounts.NewPasswordHasher(p.cfg.Auth.BcryptCost),
		p.issuer,
		engine,
		p.cfg.Auth.AdminUsername,
		p.logger,
	)
	p.service = service.New(engine, accts, p.logger)

	// The bridge must be attached before the engine starts.
	p.initBridge(ctx)
	go engine.Run()

	if err := accts.EnsureAdmin(ctx, p.cfg.Auth.AdminPassword); err != nil {
		p.shutdown()
		return err
	}

	sched, err := scheduler.New(p.cfg.Room.TickSchedule, engine, p.logger)
	if err != nil {
		p.shutdown()
		return err
	}
	p.scheduler = sched
	sched.Start()

	p.active = true
	p.logger.Info().
		Str("plugin", p.ID()).
		Str("auth_mode", string(p.cfg.Auth.Mode)).
		Msg("chat plugin activated")
	return nil
}

// initBridge tries to start the Redis pub/sub bridge.
// If Redis is disabled or not reachable, the room runs standalone.
func (p *ChatPlugin) initBridge(ctx context.Context) {
	cfg := bridge.RedisConfigFromEnv()
	if !cfg.Enabled {
		return
	}
	rb := bridge.NewRedisBridge(cfg, p.engine, p.logger)

	if err := rb.Start(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("redis bridge unavailable, running standalone")
		_ = rb.Stop()
		return
	}

	p.bridge = rb
	p.engine.SetPublisher(rb)
	p.logger.Info().Str("redis_addr", cfg.Addr).Msg("redis bridge connected")
}

// Deactivate stops the scheduler, the bridge and the room.
func (p *ChatPlugin) Deactivate() error {
	p.shutdown()
	p.active = false
	return nil
}

func (p *ChatPlugin) shutdown() {
	if p.scheduler != nil {
		p.scheduler.Stop()
		p.scheduler = nil
	}
	if p.engine != nil {
		p.engine.Stop()
		p.engine.Wait()
	}
	if p.bridge != nil {
		if err := p.bridge.Stop(); err != nil {
			p.logger.Error().Err(err).Msg("bridge stop error")
		}
		p.bridge = nil
	}
}
