// Package room implements the room engine: a single goroutine that owns the
// connection registry, history, moderation state and rate limits, and
// processes every room event to completion before starting the next.
package room

import (
	"context"
	"fmt"
	"sync"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/history"
	"github.com/orchestra-mcp/chat/src/hub"
	"github.com/orchestra-mcp/chat/src/identity"
	"github.com/orchestra-mcp/chat/src/moderation"
	"github.com/orchestra-mcp/chat/src/ratelimit"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/rs/zerolog"
)

// Publisher mirrors room-wide events to other consumers. Publish must not
// block.
type Publisher interface {
	Publish(env types.Envelope) error
}

// Stats is a point-in-time view of the room.
type Stats struct {
	Clients    int `json:"clients"`
	Present    int `json:"present"`
	History    int `json:"history"`
	HistoryCap int `json:"history_cap"`
	Banned     int `json:"banned"`
}

type connectReq struct {
	client *hub.Client
	cred   *types.Credential
}

type inboundReq struct {
	clientID string
	in       types.Inbound
}

// Engine is the room session engine.
type Engine struct {
	cfg        config.RoomConfig
	registry   *hub.Registry
	history    *history.Buffer
	moderation *moderation.Store
	limiter    *ratelimit.Limiter
	resolver   *identity.Resolver
	publisher  Publisher
	now        func() time.Time
	newID      func() string
	logger     zerolog.Logger

	lastCount int

	connect    chan connectReq
	disconnect chan *hub.Client
	incoming   chan inboundReq
	calls      chan func()
	done       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the message id generator.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// New creates an engine. Call Run in a goroutine before connecting clients.
func New(cfg config.RoomConfig, issuer *identity.Issuer, mode config.AuthMode, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	cfg = cfg.Normalize()
	gen, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("message id generator: %w", err)
	}
	store := moderation.NewStore()
	e := &Engine{
		cfg:        cfg,
		registry:   hub.NewRegistry(logger),
		history:    history.New(cfg.HistoryCap),
		moderation: store,
		limiter:    ratelimit.New(cfg.RateLimit.Burst, cfg.RateLimit.Window),
		resolver:   identity.NewResolver(issuer, mode, store, cfg.MaxNameLength),
		now:        time.Now,
		newID:      gen,
		logger:     logger.With().Str("component", "room").Logger(),
		connect:    make(chan connectReq),
		disconnect: make(chan *hub.Client, 64),
		incoming:   make(chan inboundReq, 256),
		calls:      make(chan func()),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// SetPublisher mirrors room-wide events to p. Call it before Run.
func (e *Engine) SetPublisher(p Publisher) {
	e.publisher = p
}

// Run processes room events until Stop is called. Every event runs to
// completion, including its broadcast, before the next one starts.
func (e *Engine) Run() {
	defer close(e.stopped)
	for {
		select {
		case req := <-e.connect:
			e.safely("connect", func() { e.handleConnect(req.client, req.cred) })
		case c := <-e.disconnect:
			e.safely("disconnect", func() { e.handleDisconnect(c) })
		case req := <-e.incoming:
			e.safely(req.in.Event, func() { e.handleInbound(req.clientID, req.in) })
		case fn := <-e.calls:
			e.safely("call", fn)
		case <-e.done:
			e.shutdownClients()
			return
		}
	}
}

// Stop halts the event loop and closes every client.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.done) })
}

// Wait blocks until Run has returned.
func (e *Engine) Wait() {
	<-e.stopped
}

func (e *Engine) safely(event string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Interface("panic", r).Str("event", event).Msg("event handler panicked")
		}
	}()
	fn()
}

// Connect registers a client. A non-nil credential authenticates it
// immediately.
func (e *Engine) Connect(c *hub.Client, cred *types.Credential) error {
	select {
	case e.connect <- connectReq{client: c, cred: cred}:
		return nil
	case <-e.done:
		return ErrStopped
	}
}

// Dispatch queues an inbound event from a client.
func (e *Engine) Dispatch(clientID string, in types.Inbound) {
	select {
	case e.incoming <- inboundReq{clientID: clientID, in: in}:
	case <-e.done:
	}
}

// Disconnect queues the removal of a client. Safe to call for clients that
// were already removed.
func (e *Engine) Disconnect(c *hub.Client) {
	select {
	case e.disconnect <- c:
	case <-e.done:
	}
}

// do runs fn inside the event loop and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	call := func() {
		defer close(ran)
		fn()
	}
	select {
	case e.calls <- call:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// query runs fn inside the event loop and hands its result back over a
// buffered channel. A caller whose ctx ends first gets the zero value.
func query[T any](ctx context.Context, e *Engine, fn func() T) (T, error) {
	result := make(chan T, 1)
	if err := e.do(ctx, func() { result <- fn() }); err != nil {
		var zero T
		return zero, err
	}
	return <-result, nil
}

// Stats returns counts of clients, present users and retained messages.
func (e *Engine) Stats(ctx context.Context) (Stats, error) {
	return query(ctx, e, func() Stats {
		return Stats{
			Clients:    e.registry.Count(),
			Present:    e.registry.CountActive(),
			History:    e.history.Len(),
			HistoryCap: e.history.Cap(),
			Banned:     len(e.moderation.Banned()),
		}
	})
}

// Users returns the principals currently present.
func (e *Engine) Users(ctx context.Context) ([]types.Principal, error) {
	return query(ctx, e, e.registry.Principals)
}

// Clients returns metadata for every connected client.
func (e *Engine) Clients(ctx context.Context) ([]types.ClientInfo, error) {
	return query(ctx, e, e.registry.Infos)
}

// IsBanned reports whether identityID is banned.
func (e *Engine) IsBanned(ctx context.Context, identityID string) (bool, error) {
	return query(ctx, e, func() bool { return e.moderation.IsBanned(identityID) })
}

// AdminNotice broadcasts an admin notice on behalf of an out-of-band caller.
func (e *Engine) AdminNotice(ctx context.Context, text string) error {
	noticeErr, err := query(ctx, e, func() error { return e.adminNotice(text) })
	if err != nil {
		return err
	}
	return noticeErr
}

// Announce broadcasts a system notice. Used by the cross-instance bridge.
func (e *Engine) Announce(ctx context.Context, text string) error {
	return e.do(ctx, func() {
		clean := sanitizeText(text, e.cfg.MaxNoticeLength)
		if clean == "" {
			return
		}
		e.broadcastRoom(types.NewNotice("[SYSTEM] " + clean))
	})
}

// Tick runs periodic housekeeping inside the event loop.
func (e *Engine) Tick(ctx context.Context) error {
	return e.do(ctx, e.tick)
}

func (e *Engine) shutdownClients() {
	e.registry.Broadcast(types.NewNotice("Server is shutting down."))
	clients := e.registry.FindAll(func(*hub.Client) bool { return true })
	for _, c := range clients {
		e.registry.Unregister(c.ID)
		c.Close()
	}
	e.logger.Info().Int("clients", len(clients)).Msg("room engine stopped")
}

// broadcastRoom sends env to every authenticated connection and mirrors it.
func (e *Engine) broadcastRoom(env types.Envelope) {
	e.registry.BroadcastBound(env, "")
	e.publish(env)
}

func (e *Engine) publish(env types.Envelope) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(env); err != nil {
		e.logger.Warn().Err(err).Str("event", env.Event).Msg("publish failed")
	}
}

func (e *Engine) broadcastCount() {
	n := e.registry.CountActive()
	e.lastCount = n
	e.broadcastRoom(types.Envelope{Event: types.EventUserCount, Data: types.UserCount{N: n}})
}

func (e *Engine) notify(clientID, text string) {
	e.registry.Send(clientID, types.NewNotice(text))
}
