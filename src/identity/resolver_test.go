package identity

import (
	"testing"
	"time"

	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type banSet map[string]bool

func (b banSet) IsBanned(id string) bool { return b[id] }

func newTestIssuer() *Issuer {
	return NewIssuer("test-secret", time.Hour, "test")
}

func TestIssueAndVerify(t *testing.T) {
	iss := newTestIssuer()
	token, err := iss.Issue("alice", "Alice", types.RoleAdmin)
	require.NoError(t, err)

	claims, err := iss.Verify(token)
	require.NoError(t, err)
	p := claims.Principal()
	assert.Equal(t, "alice", p.IdentityID)
	assert.Equal(t, "Alice", p.DisplayName)
	assert.True(t, p.IsAdmin())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour, "test").Issue("alice", "Alice", types.RoleMember)
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour, "test").Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsExpired(t *testing.T) {
	iss := NewIssuer("test-secret", -time.Minute, "test")
	token, err := iss.Issue("alice", "Alice", types.RoleMember)
	require.NoError(t, err)

	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	for _, tok := range []string{"", "not.a.token", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid"} {
		_, err := newTestIssuer().Verify(tok)
		assert.ErrorIs(t, err, ErrInvalidCredential, tok)
	}
}

func TestResolveToken(t *testing.T) {
	iss := newTestIssuer()
	r := NewResolver(iss, config.AuthModeToken, banSet{}, 30)
	token, err := iss.Issue("bob", "Bob\nthe builder", types.RoleMember)
	require.NoError(t, err)

	p, err := r.Resolve(types.Credential{Token: token})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.IdentityID)
	assert.Equal(t, "Bobthe builder", p.DisplayName)
	assert.Equal(t, types.RoleMember, p.Role)
}

func TestResolveTokenModeRejectsNames(t *testing.T) {
	r := NewResolver(newTestIssuer(), config.AuthModeToken, nil, 30)
	_, err := r.Resolve(types.Credential{Name: "mallory"})
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestResolveBanned(t *testing.T) {
	iss := newTestIssuer()
	r := NewResolver(iss, config.AuthModeEphemeral, banSet{"bob": true}, 30)

	token, err := iss.Issue("bob", "Bob", types.RoleMember)
	require.NoError(t, err)
	_, err = r.Resolve(types.Credential{Token: token})
	assert.ErrorIs(t, err, ErrBanned)

	_, err = r.Resolve(types.Credential{Name: "bob"})
	assert.ErrorIs(t, err, ErrBanned)
}

func TestResolveEphemeral(t *testing.T) {
	r := NewResolver(newTestIssuer(), config.AuthModeEphemeral, banSet{}, 30)
	r.intn = func(int) int { return 42 }

	p, err := r.Resolve(types.Credential{Name: "  carol  "})
	require.NoError(t, err)
	assert.Equal(t, "carol", p.IdentityID)
	assert.Equal(t, types.RoleGuest, p.Role)

	p, err = r.Resolve(types.Credential{Name: "\n\t"})
	require.NoError(t, err)
	assert.Equal(t, "Anon-0042", p.DisplayName)
}

func TestSanitizeNameClips(t *testing.T) {
	r := NewResolver(newTestIssuer(), config.AuthModeEphemeral, nil, 5)
	assert.Equal(t, "ñandú", r.SanitizeName("ñandúes"))
	assert.Equal(t, "ab", r.SanitizeName("a\r\nb"))
}
