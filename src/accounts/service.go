package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/orchestra-mcp/chat/src/identity"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/rs/zerolog"
)

const (
	maxUsernameLength = 30
	maxPasswordLength = 72
)

var (
	// ErrInvalidInput is returned for a missing username or password.
	ErrInvalidInput = errors.New("username and password are required")
	// ErrInvalidCredentials is returned when the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrBanned is returned when the username is banned from the room.
	ErrBanned = errors.New("user is banned")
)

// BanLookup reports whether an identity is banned from the room.
type BanLookup interface {
	IsBanned(ctx context.Context, identityID string) (bool, error)
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  *User
}

// Service handles registration, login and user administration.
type Service struct {
	repo   *Repository
	hasher *PasswordHasher
	issuer *identity.Issuer
	bans   BanLookup
	admin  string
	logger zerolog.Logger
}

// NewService creates a Service. Registering adminUsername yields an admin
// account; bans may be nil.
func NewService(repo *Repository, hasher *PasswordHasher, issuer *identity.Issuer, bans BanLookup, adminUsername string, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		issuer: issuer,
		bans:   bans,
		admin:  adminUsername,
		logger: logger.With().Str("component", "accounts").Logger(),
	}
}

func normalizeCredentials(username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", ErrInvalidInput
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return "", fmt.Errorf("%w: username longer than %d characters", ErrInvalidInput, maxUsernameLength)
	}
	if len(password) > maxPasswordLength {
		return "", fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, maxPasswordLength)
	}
	return username, nil
}

func (s *Service) checkBan(ctx context.Context, username string) error {
	if s.bans == nil {
		return nil
	}
	banned, err := s.bans.IsBanned(ctx, username)
	if err != nil {
		return fmt.Errorf("ban lookup: %w", err)
	}
	if banned {
		return ErrBanned
	}
	return nil
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, password string) (*User, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if err := s.checkBan(ctx, username); err != nil {
		return nil, err
	}

	exists, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := types.RoleMember
	if username == s.admin {
		role = types.RoleAdmin
	}
	now := time.Now()
	user := &User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         string(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("username", username).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies the password and issues a token for the user.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	username, err := normalizeCredentials(username, password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if err := s.checkBan(ctx, user.Username); err != nil {
		return nil, err
	}

	p := user.Principal()
	token, err := s.issuer.Issue(p.IdentityID, p.DisplayName, p.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// List returns every registered user.
func (s *Service) List(ctx context.Context) ([]View, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(users))
	for i := range users {
		out = append(out, users[i].View())
	}
	return out, nil
}

// Delete removes an account. Live connections are not affected.
func (s *Service) Delete(ctx context.Context, username string) error {
	if err := s.repo.DeleteByUsername(ctx, username); err != nil {
		return err
	}
	s.logger.Info().Str("username", username).Msg("user deleted")
	return nil
}

// EnsureAdmin creates the admin account if it does not exist yet. An empty
// password skips seeding.
func (s *Service) EnsureAdmin(ctx context.Context, password string) error {
	if s.admin == "" || password == "" {
		s.logger.Warn().Msg("admin password not configured, skipping admin seed")
		return nil
	}
	exists, err := s.repo.UsernameExists(ctx, s.admin)
	if err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	}
	if exists {
		return nil
	}
	if _, err := s.Register(ctx, s.admin, password); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	return nil
}
