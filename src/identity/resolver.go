// Package identity turns credentials into principals.
package identity

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/types"
)

var (
	// ErrInvalidCredential means the caller must authenticate again.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrBanned means the resolved identity is banned.
	ErrBanned = errors.New("identity is banned")
)

// BanLookup reports whether an identity is banned.
type BanLookup interface {
	IsBanned(identityID string) bool
}

// Resolver resolves credentials according to the deployment mode.
//
// In ephemeral mode the sanitized display name is the identity id, so two
// connections choosing the same name share mute, ban and rate state.
type Resolver struct {
	issuer  *Issuer
	mode    config.AuthMode
	bans    BanLookup
	maxName int
	intn    func(int) int
}

// NewResolver creates a Resolver.
func NewResolver(issuer *Issuer, mode config.AuthMode, bans BanLookup, maxName int) *Resolver {
	if maxName <= 0 {
		maxName = 30
	}
	return &Resolver{issuer: issuer, mode: mode, bans: bans, maxName: maxName, intn: rand.IntN}
}

// Mode returns the deployment mode.
func (r *Resolver) Mode() config.AuthMode { return r.mode }

// Resolve returns the principal for a credential.
func (r *Resolver) Resolve(cred types.Credential) (types.Principal, error) {
	var p types.Principal
	switch {
	case cred.HasToken():
		claims, err := r.issuer.Verify(cred.Token)
		if err != nil {
			return types.Principal{}, err
		}
		p = claims.Principal()
		p.DisplayName = r.SanitizeName(p.DisplayName)
	case r.mode == config.AuthModeEphemeral:
		name := r.SanitizeName(cred.Name)
		p = types.Principal{IdentityID: name, DisplayName: name, Role: types.RoleGuest}
	default:
		return types.Principal{}, fmt.Errorf("%w: token required", ErrInvalidCredential)
	}

	if r.bans != nil && r.bans.IsBanned(p.IdentityID) {
		return types.Principal{}, ErrBanned
	}
	return p, nil
}

// SanitizeName strips control characters, trims, and clips to the maximum
// length. An empty result is replaced by an Anon-#### placeholder.
func (r *Resolver) SanitizeName(name string) string {
	clean := strings.TrimSpace(strings.Map(func(c rune) rune {
		if unicode.IsControl(c) {
			return -1
		}
		return c
	}, name))
	if runes := []rune(clean); len(runes) > r.maxName {
		clean = strings.TrimSpace(string(runes[:r.maxName]))
	}
	if clean == "" {
		clean = fmt.Sprintf("Anon-%04d", r.intn(10000))
	}
	return clean
}
