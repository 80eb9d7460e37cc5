// Package history keeps the bounded, ordered log of accepted messages.
package history

import (
	"time"

	"github.com/orchestra-mcp/chat/src/types"
)

// Buffer is an insertion-ordered message log with a hard retention cap.
// It is not safe for concurrent use; the room engine owns it.
type Buffer struct {
	cap      int
	messages []types.Message
	index    map[string]struct{}
}

// New creates a buffer holding at most capacity messages.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer{
		cap:   capacity,
		index: make(map[string]struct{}),
	}
}

// Append adds msg, evicting from the head so that Len() <= Cap() holds
// when Append returns. Returns the number of evicted messages.
func (b *Buffer) Append(msg types.Message) int {
	evicted := 0
	if over := len(b.messages) + 1 - b.cap; over > 0 {
		for _, m := range b.messages[:over] {
			delete(b.index, m.ID)
		}
		b.messages = append(b.messages[:0], b.messages[over:]...)
		evicted = over
	}
	b.messages = append(b.messages, msg)
	b.index[msg.ID] = struct{}{}
	return evicted
}

// Recent returns a copy of the last n messages in insertion order.
func (b *Buffer) Recent(n int) []types.Message {
	if n <= 0 {
		return []types.Message{}
	}
	if n > len(b.messages) {
		n = len(b.messages)
	}
	out := make([]types.Message, n)
	copy(out, b.messages[len(b.messages)-n:])
	return out
}

// Contains reports whether a message with id is retained.
func (b *Buffer) Contains(id string) bool {
	_, ok := b.index[id]
	return ok
}

// Delete removes the message with id. Returns false if it was not present.
func (b *Buffer) Delete(id string) bool {
	if _, ok := b.index[id]; !ok {
		return false
	}
	for i, m := range b.messages {
		if m.ID == id {
			b.messages = append(b.messages[:i], b.messages[i+1:]...)
			break
		}
	}
	delete(b.index, id)
	return true
}

// Clear removes every message.
func (b *Buffer) Clear() {
	b.messages = nil
	b.index = make(map[string]struct{})
}

// EvictBefore removes messages stamped before cutoff and returns how many
// were removed. Messages are time-ordered, so eviction stops at the first
// newer message.
func (b *Buffer) EvictBefore(cutoff time.Time) int {
	n := 0
	for n < len(b.messages) && b.messages[n].Time().Before(cutoff) {
		delete(b.index, b.messages[n].ID)
		n++
	}
	if n > 0 {
		b.messages = append(b.messages[:0], b.messages[n:]...)
	}
	return n
}

// Len returns the number of retained messages.
func (b *Buffer) Len() int { return len(b.messages) }

// Cap returns the retention cap.
func (b *Buffer) Cap() int { return b.cap }
