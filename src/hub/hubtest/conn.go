// Package hubtest provides an in-memory types.Conn for tests.
package hubtest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/orchestra-mcp/chat/src/types"
)

// ErrClosed is returned by reads and writes after Close.
var ErrClosed = errors.New("connection closed")

// Conn implements types.Conn without a real WebSocket. Frames pushed with
// Push are returned by ReadJSON; envelopes written by the server are kept
// for inspection.
type Conn struct {
	mu       sync.Mutex
	written  []types.Envelope
	pings    int
	readCh   chan []byte
	closed   bool
	closedCh chan struct{}
	writeErr error
}

// NewConn creates an open mock connection.
func NewConn() *Conn {
	return &Conn{
		readCh:   make(chan []byte, 16),
		closedCh: make(chan struct{}),
	}
}

// Push queues an inbound frame.
func (m *Conn) Push(in types.Inbound) {
	b, _ := json.Marshal(in)
	m.readCh <- b
}

// FailWrites makes every subsequent write return err.
func (m *Conn) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

func (m *Conn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.writeErr != nil {
		return m.writeErr
	}
	env, ok := v.(types.Envelope)
	if !ok {
		return errors.New("unexpected frame type")
	}
	m.written = append(m.written, env)
	return nil
}

func (m *Conn) ReadJSON(v any) error {
	select {
	case b := <-m.readCh:
		return json.Unmarshal(b, v)
	case <-m.closedCh:
		return ErrClosed
	}
}

func (m *Conn) Ping() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.pings++
	return nil
}

func (m *Conn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

// Written returns a copy of the envelopes written so far.
func (m *Conn) Written() []types.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]types.Envelope, len(m.written))
	copy(cp, m.written)
	return cp
}

// Pings returns how many pings were sent.
func (m *Conn) Pings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pings
}

// IsClosed reports whether Close was called.
func (m *Conn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
