package room

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated rejects events that need a bound principal.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrPermission rejects moderation commands from non-admins.
	ErrPermission = errors.New("permission denied")
	// ErrMuted rejects sends from a muted identity.
	ErrMuted = errors.New("muted")
	// ErrRateLimited rejects sends over the sliding window limit.
	ErrRateLimited = errors.New("rate limited")
	// ErrValidation marks malformed or empty payloads. These are dropped
	// unless wrapped in a rejection.
	ErrValidation = errors.New("invalid payload")
	// ErrStopped is returned by mailbox calls after Stop.
	ErrStopped = errors.New("room engine stopped")
)

// rejection is an error the caller sees as a notice.
type rejection struct {
	kind error
	text string
}

func (r *rejection) Error() string { return fmt.Sprintf("%v: %s", r.kind, r.text) }
func (r *rejection) Unwrap() error { return r.kind }

func reject(kind error, format string, args ...any) error {
	return &rejection{kind: kind, text: fmt.Sprintf(format, args...)}
}
