package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/orchestra-mcp/chat/src/types"
)

// Claims are the custom claims carried by chat tokens. The subject is the
// identity id.
type Claims struct {
	Name string     `json:"name"`
	Role types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 chat tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	issuer string
}

// NewIssuer creates an Issuer. ttl is the lifetime of issued tokens.
func NewIssuer(secret string, ttl time.Duration, issuer string) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, issuer: issuer}
}

// Issue signs a token for the given identity.
func (i *Issuer) Issue(identityID, name string, role types.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: name,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   identityID,
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Verify checks signature and expiry and returns the claims.
// Every failure is reported as ErrInvalidCredential.
func (i *Issuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", ErrInvalidCredential)
		}
		return nil, ErrInvalidCredential
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

// Principal converts verified claims into a principal.
func (c *Claims) Principal() types.Principal {
	return types.Principal{
		IdentityID:  c.Subject,
		DisplayName: c.Name,
		Role:        types.ParseRole(string(c.Role)),
	}
}
