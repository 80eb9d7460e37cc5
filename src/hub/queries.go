package hub

import "github.com/orchestra-mcp/chat/src/types"

// Count returns the number of registered clients, bound or not.
func (r *Registry) Count() int {
	return len(r.clients)
}

// CountActive returns the number of clients bound to a principal.
func (r *Registry) CountActive() int {
	n := 0
	for _, c := range r.clients {
		if c.principal != nil {
			n++
		}
	}
	return n
}

// Find returns the first client, in registration order, matching pred.
func (r *Registry) Find(pred func(*Client) bool) (*Client, bool) {
	for _, id := range r.order {
		if c := r.clients[id]; pred(c) {
			return c, true
		}
	}
	return nil, false
}

// FindAll returns every client matching pred in registration order.
func (r *Registry) FindAll(pred func(*Client) bool) []*Client {
	var out []*Client
	for _, id := range r.order {
		if c := r.clients[id]; pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// BoundTo matches clients whose principal has the given identity id or
// display name.
func BoundTo(identity string) func(*Client) bool {
	return func(c *Client) bool {
		p := c.principal
		return p != nil && (p.IdentityID == identity || p.DisplayName == identity)
	}
}

// Principals returns the bound principals in registration order.
func (r *Registry) Principals() []types.Principal {
	out := make([]types.Principal, 0, len(r.clients))
	for _, id := range r.order {
		if p := r.clients[id].principal; p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// Infos returns metadata for every registered client.
func (r *Registry) Infos() []types.ClientInfo {
	out := make([]types.ClientInfo, 0, len(r.clients))
	for _, id := range r.order {
		out = append(out, r.clients[id].Info())
	}
	return out
}
