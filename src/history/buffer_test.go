package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/orchestra-mcp/chat/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msg(i int) types.Message {
	return types.Message{ID: fmt.Sprintf("m%d", i), Name: "a", Text: "t", TS: int64(1000 + i)}
}

func ids(msgs []types.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestAppendEvictsOldest(t *testing.T) {
	b := New(3)
	for i := 0; i < 5; i++ {
		b.Append(msg(i))
		assert.LessOrEqual(t, b.Len(), b.Cap())
	}
	assert.Equal(t, []string{"m2", "m3", "m4"}, ids(b.Recent(10)))
	assert.False(t, b.Contains("m0"))
	assert.True(t, b.Contains("m4"))
}

func TestRecent(t *testing.T) {
	b := New(10)
	assert.Empty(t, b.Recent(5))
	for i := 0; i < 4; i++ {
		b.Append(msg(i))
	}
	assert.Equal(t, []string{"m2", "m3"}, ids(b.Recent(2)))
	assert.Equal(t, []string{"m0", "m1", "m2", "m3"}, ids(b.Recent(50)))
	assert.Empty(t, b.Recent(0))
}

func TestRecentIsSnapshot(t *testing.T) {
	b := New(10)
	b.Append(msg(1))
	snap := b.Recent(10)
	b.Append(msg(2))
	b.Delete("m1")
	require.Len(t, snap, 1)
	assert.Equal(t, "m1", snap[0].ID)
}

func TestDelete(t *testing.T) {
	b := New(10)
	for i := 0; i < 3; i++ {
		b.Append(msg(i))
	}
	assert.True(t, b.Delete("m1"))
	assert.False(t, b.Delete("m1"))
	assert.False(t, b.Delete("missing"))
	assert.Equal(t, []string{"m0", "m2"}, ids(b.Recent(10)))
}

func TestClear(t *testing.T) {
	b := New(10)
	b.Append(msg(1))
	b.Clear()
	assert.Zero(t, b.Len())
	assert.Empty(t, b.Recent(50))
	assert.False(t, b.Contains("m1"))
}

func TestEvictBefore(t *testing.T) {
	b := New(10)
	for i := 0; i < 5; i++ {
		b.Append(msg(i))
	}
	removed := b.EvictBefore(time.UnixMilli(1003))
	assert.Equal(t, 3, removed)
	assert.Equal(t, []string{"m3", "m4"}, ids(b.Recent(10)))
	assert.Zero(t, b.EvictBefore(time.UnixMilli(0)))
}
