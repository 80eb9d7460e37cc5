package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSendVariants(t *testing.T) {
	p, err := DecodeSend(json.RawMessage(`"hello"`))
	require.NoError(t, err)
	assert.Equal(t, "hello", p.Text)
	assert.False(t, p.HasReply())

	p, err = DecodeSend(json.RawMessage(`{"text":"hi","replyToId":"m1"}`))
	require.NoError(t, err)
	assert.Equal(t, "hi", p.Text)
	assert.Equal(t, "m1", p.ReplyToID)
	assert.True(t, p.HasReply())

	_, err = DecodeSend(json.RawMessage(`42`))
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeSend(nil)
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestDecodeField(t *testing.T) {
	id, err := DecodeField(json.RawMessage(`"abc"`), "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	id, err = DecodeField(json.RawMessage(`{"id":"xyz"}`), "id")
	require.NoError(t, err)
	assert.Equal(t, "xyz", id)

	_, err = DecodeField(json.RawMessage(`{"other":"xyz"}`), "id")
	assert.ErrorIs(t, err, ErrBadPayload)

	_, err = DecodeField(json.RawMessage(`{"id":7}`), "id")
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestDecodeMute(t *testing.T) {
	p, err := DecodeMute(json.RawMessage(`{"name":"alice","seconds":5}`))
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Identity)
	assert.Equal(t, 5, p.Seconds)

	p, err = DecodeMute(json.RawMessage(`{"identity":"bob","seconds":"30"}`))
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Identity)
	assert.Equal(t, 30, p.Seconds)

	p, err = DecodeMute(json.RawMessage(`{"identity":"carol"}`))
	require.NoError(t, err)
	assert.Zero(t, p.Seconds)
}

func TestDecodeMuteRejectsOutOfRangeSeconds(t *testing.T) {
	for _, raw := range []string{
		`{"identity":"alice","seconds":10000000000}`,
		`{"identity":"alice","seconds":-10000000000}`,
		`{"identity":"alice","seconds":1e400}`,
		`{"identity":"alice","seconds":"10000000000"}`,
		`{"identity":"alice","seconds":"1e400"}`,
		`{"identity":"alice","seconds":"NaN"}`,
		`{"identity":"alice","seconds":"Inf"}`,
	} {
		_, err := DecodeMute(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrDurationRange, raw)
		assert.ErrorIs(t, err, ErrBadPayload, raw)
	}

	p, err := DecodeMute(json.RawMessage(`{"identity":"alice","seconds":2147483647}`))
	require.NoError(t, err)
	assert.Equal(t, MaxSeconds, p.Seconds)
}

func TestDecodeCredential(t *testing.T) {
	c, err := DecodeCredential(json.RawMessage(`{"token":"t"}`))
	require.NoError(t, err)
	assert.True(t, c.HasToken())

	c, err = DecodeCredential(json.RawMessage(`{"name":"guesty"}`))
	require.NoError(t, err)
	assert.False(t, c.HasToken())
	assert.Equal(t, "guesty", c.Name)

	c, err = DecodeCredential(json.RawMessage(`"raw-token"`))
	require.NoError(t, err)
	assert.Equal(t, "raw-token", c.Token)
}

func TestEnvelopeEncoding(t *testing.T) {
	b, err := json.Marshal(Envelope{Event: EventNewMessage, Data: Message{ID: "m1", Name: "a", Text: "t", TS: 5}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"new_message","data":{"id":"m1","name":"a","text":"t","ts":5}}`, string(b))

	b, err = json.Marshal(Envelope{Event: EventHistoryCleared})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"history_cleared"}`, string(b))
}
