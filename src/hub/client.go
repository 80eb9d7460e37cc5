package hub

import (
	"sync"
	"time"

	"github.com/orchestra-mcp/chat/src/types"
	"github.com/rs/zerolog"
)

// Client wraps a WebSocket connection and manages message flow.
type Client struct {
	ID          string
	conn        types.Conn
	dispatcher  Dispatcher
	Send        chan types.Envelope
	connectedAt time.Time
	// principal is only touched by the registry owner.
	principal *types.Principal
	logger    zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// NewClient creates a client with an outbox of sendBuf envelopes.
func NewClient(id string, conn types.Conn, d Dispatcher, sendBuf int, logger zerolog.Logger) *Client {
	if sendBuf <= 0 {
		sendBuf = 256
	}
	return &Client{
		ID:          id,
		conn:        conn,
		dispatcher:  d,
		Send:        make(chan types.Envelope, sendBuf),
		connectedAt: time.Now(),
		logger:      logger.With().Str("client_id", id).Logger(),
	}
}

// Principal returns the bound principal, or nil before authentication.
func (c *Client) Principal() *types.Principal { return c.principal }

// Info returns metadata about this client.
func (c *Client) Info() types.ClientInfo {
	info := types.ClientInfo{ID: c.ID, ConnectedAt: c.connectedAt}
	if c.principal != nil {
		p := *c.principal
		info.Principal = &p
	}
	return info
}

// Deliver queues env without blocking. It returns false when the outbox
// is full or the client is closed.
func (c *Client) Deliver(env types.Envelope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- env:
		return true
	default:
		return false
	}
}

// ReadPump reads inbound events and hands them to the dispatcher until the
// connection fails, then reports the disconnect.
func (c *Client) ReadPump() {
	defer func() {
		c.dispatcher.Disconnect(c)
		c.conn.Close()
	}()

	for {
		var in types.Inbound
		if err := c.conn.ReadJSON(&in); err != nil {
			c.logger.Debug().Err(err).Msg("read loop ended")
			return
		}
		if in.Event == "" {
			continue
		}
		c.dispatcher.Dispatch(c.ID, in)
	}
}

// WritePump writes queued envelopes to the connection and pings every
// pingInterval. When the outbox is closed it flushes what is queued and
// closes the connection.
func (c *Client) WritePump(pingInterval time.Duration) {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug().Err(err).Str("event", env.Event).Msg("write failed")
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(); err != nil {
				c.logger.Debug().Err(err).Msg("ping failed")
				return
			}
		}
	}
}

// Close stops further deliveries and closes the outbox. The write pump
// drains queued envelopes before closing the connection. Safe to call more
// than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
