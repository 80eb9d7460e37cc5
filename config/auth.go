package config

import "time"

// AuthMode selects how connections obtain an identity.
type AuthMode string

const (
	// AuthModeToken requires a signed token issued by /login.
	AuthModeToken AuthMode = "token"
	// AuthModeEphemeral accepts a client-chosen display name. Tokens are
	// still honoured when presented.
	AuthModeEphemeral AuthMode = "ephemeral"
)

// DefaultJWTSecret is the development signing secret used when JWT_SECRET
// is unset.
const DefaultJWTSecret = "please_change_this_secret_now"

// AuthConfig holds token and account settings.
type AuthConfig struct {
	Mode          AuthMode      `json:"mode"`
	JWTSecret     string        `json:"-"`
	TokenTTL      time.Duration `json:"token_ttl"`
	Issuer        string        `json:"issuer"`
	BcryptCost    int           `json:"bcrypt_cost"`
	AdminUsername string        `json:"admin_username"`
	AdminPassword string        `json:"-"`
}

// DefaultAuthConfig returns the default auth configuration.
// The secret must be overridden with JWT_SECRET outside development.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Mode:          AuthModeToken,
		JWTSecret:     DefaultJWTSecret,
		TokenTTL:      7 * 24 * time.Hour,
		Issuer:        "orchestra-chat",
		BcryptCost:    10,
		AdminUsername: "admin",
	}
}

// UsesDefaultSecret reports whether tokens are signed with the built-in
// development secret.
func (c AuthConfig) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}
