// Package service is the high-level chat API used by the HTTP layer. It
// pairs the live room with the account store.
package service

import (
	"context"
	"errors"

	"github.com/orchestra-mcp/chat/src/accounts"
	"github.com/orchestra-mcp/chat/src/room"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/rs/zerolog"
)

// Service provides the high-level chat API.
type Service struct {
	room     *room.Engine
	accounts *accounts.Service
	logger   zerolog.Logger
}

// New creates a Service backed by the given room and account store.
func New(r *room.Engine, a *accounts.Service, logger zerolog.Logger) *Service {
	return &Service{room: r, accounts: a, logger: logger.With().Str("component", "service").Logger()}
}

// Room returns the underlying room engine.
func (s *Service) Room() *room.Engine { return s.room }

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, password string) (*accounts.User, error) {
	return s.accounts.Register(ctx, username, password)
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (*accounts.Session, error) {
	session, err := s.accounts.Login(ctx, username, password)
	if err != nil {
		if errors.Is(err, accounts.ErrBanned) {
			s.logger.Warn().Str("username", username).Msg("banned user tried to log in")
		}
		return nil, err
	}
	return session, nil
}

// Users lists registered accounts.
func (s *Service) Users(ctx context.Context) ([]accounts.View, error) {
	return s.accounts.List(ctx)
}

// DeleteUser removes an account. Its open connections stay in the room
// until they disconnect or are kicked.
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	return s.accounts.Delete(ctx, username)
}

// ConnectedClients returns metadata for every open connection.
func (s *Service) ConnectedClients(ctx context.Context) ([]types.ClientInfo, error) {
	return s.room.Clients(ctx)
}

// Stats returns the room counters.
func (s *Service) Stats(ctx context.Context) (room.Stats, error) {
	return s.room.Stats(ctx)
}

// Announce broadcasts an admin notice to the room.
func (s *Service) Announce(ctx context.Context, text string) error {
	if err := s.room.AdminNotice(ctx, text); err != nil {
		return err
	}
	s.logger.Info().Msg("admin announcement sent")
	return nil
}
