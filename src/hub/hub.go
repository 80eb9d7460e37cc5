// Package hub holds the connection registry and the per-connection pumps.
package hub

import (
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/rs/zerolog"
)

// Dispatcher receives events read from clients. The room engine implements it.
type Dispatcher interface {
	Dispatch(clientID string, in types.Inbound)
	Disconnect(c *Client)
}

// Registry is the live set of connected clients. It is not safe for
// concurrent use; the room engine owns it and calls it from one goroutine.
type Registry struct {
	clients map[string]*Client
	order   []string
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		logger:  logger.With().Str("component", "registry").Logger(),
	}
}

// Register adds a client. Registering an id twice is a no-op.
func (r *Registry) Register(c *Client) bool {
	if _, ok := r.clients[c.ID]; ok {
		return false
	}
	r.clients[c.ID] = c
	r.order = append(r.order, c.ID)
	r.logger.Info().Str("client_id", c.ID).Int("clients", len(r.clients)).Msg("client registered")
	return true
}

// Bind attaches a principal to a registered client.
func (r *Registry) Bind(clientID string, p types.Principal) bool {
	c, ok := r.clients[clientID]
	if !ok {
		return false
	}
	c.principal = &p
	return true
}

// Unregister removes a client. It is idempotent: removing an unknown id
// returns false and does nothing.
func (r *Registry) Unregister(clientID string) (*Client, bool) {
	c, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	delete(r.clients, clientID)
	for i, id := range r.order {
		if id == clientID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.logger.Info().Str("client_id", clientID).Int("clients", len(r.clients)).Msg("client unregistered")
	return c, true
}

// Get returns a registered client.
func (r *Registry) Get(clientID string) (*Client, bool) {
	c, ok := r.clients[clientID]
	return c, ok
}
