package types

import (
	"encoding/json"
	"time"
)

// Role is the privilege level of a principal.
type Role string

const (
	RoleGuest  Role = "guest"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// ParseRole maps stored role names onto a Role. Unknown names are members.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleGuest:
		return RoleGuest
	default:
		return RoleMember
	}
}

// Principal is the resolved identity bound to a connection.
type Principal struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// IsAdmin reports whether the principal may run moderation commands.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Message is one accepted chat message.
type Message struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	TS        int64  `json:"ts"`
	ReplyToID string `json:"replyToId,omitempty"`
}

// Time returns the message timestamp.
func (m Message) Time() time.Time { return time.UnixMilli(m.TS) }

// Envelope is an outbound event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Inbound is an event read from a client. Data is decoded per event by the
// Decode* helpers in payload.go.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ClientInfo holds metadata about a connected client.
type ClientInfo struct {
	ID          string     `json:"id"`
	ConnectedAt time.Time  `json:"connected_at"`
	Principal   *Principal `json:"principal,omitempty"`
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	WriteJSON(v any) error
	ReadJSON(v any) error
	Ping() error
	Close() error
}
