package hub

import "github.com/orchestra-mcp/chat/src/types"

// Broadcast delivers env to every registered client.
func (r *Registry) Broadcast(env types.Envelope) {
	for _, id := range r.order {
		r.deliver(r.clients[id], env)
	}
}

// BroadcastBound delivers env to every client bound to a principal, except
// the one with exceptID (pass "" to exclude nobody).
func (r *Registry) BroadcastBound(env types.Envelope, exceptID string) {
	for _, id := range r.order {
		c := r.clients[id]
		if id == exceptID || c.principal == nil {
			continue
		}
		r.deliver(c, env)
	}
}

// Send delivers env to one client.
func (r *Registry) Send(clientID string, env types.Envelope) bool {
	c, ok := r.clients[clientID]
	if !ok {
		return false
	}
	return r.deliver(c, env)
}

// deliver never blocks: a full outbox drops env for that client only.
func (r *Registry) deliver(c *Client, env types.Envelope) bool {
	if c.Deliver(env) {
		return true
	}
	r.logger.Warn().Str("client_id", c.ID).Str("event", env.Event).Msg("send buffer full, dropping")
	return false
}
