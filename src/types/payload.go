package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrBadPayload is returned when an inbound payload has the wrong shape.
	ErrBadPayload = errors.New("malformed payload")
	// ErrDurationRange is returned for mute durations that are not finite
	// or do not fit in MaxSeconds.
	ErrDurationRange = fmt.Errorf("%w: duration out of range", ErrBadPayload)
)

// MaxSeconds bounds any duration in seconds a client may send.
const MaxSeconds = math.MaxInt32

// Credential is what a connection presents to authenticate: either a signed
// token or, in ephemeral mode, a display name.
type Credential struct {
	Token string `json:"token,omitempty"`
	Name  string `json:"name,omitempty"`
}

// HasToken reports whether the credential carries a token.
func (c Credential) HasToken() bool { return c.Token != "" }

// SendPayload is the body of send_message. Clients send either a bare
// string or {text, replyToId}; ReplyToID is empty for the bare form.
type SendPayload struct {
	Text      string
	ReplyToID string
}

// HasReply reports whether the message replies to another one.
func (p SendPayload) HasReply() bool { return p.ReplyToID != "" }

// UnmarshalJSON accepts "text" or {"text": "...", "replyToId": "..."}.
func (p *SendPayload) UnmarshalJSON(b []byte) error {
	if s, ok := decodeString(b); ok {
		*p = SendPayload{Text: s}
		return nil
	}
	var obj struct {
		Text      string `json:"text"`
		ReplyToID string `json:"replyToId"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return ErrBadPayload
	}
	*p = SendPayload{Text: obj.Text, ReplyToID: obj.ReplyToID}
	return nil
}

// MutePayload is the body of mute_user.
type MutePayload struct {
	Identity string
	Seconds  int
}

// UnmarshalJSON accepts {identity|name, seconds}; seconds may be a number
// or a numeric string.
func (p *MutePayload) UnmarshalJSON(b []byte) error {
	var obj struct {
		Identity string          `json:"identity"`
		Name     string          `json:"name"`
		Seconds  json.RawMessage `json:"seconds"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return ErrBadPayload
	}
	p.Identity = obj.Identity
	if p.Identity == "" {
		p.Identity = obj.Name
	}
	p.Seconds = 0
	if len(obj.Seconds) == 0 {
		return nil
	}
	var n float64
	if err := json.Unmarshal(obj.Seconds, &n); err != nil {
		s, ok := decodeString(obj.Seconds)
		if !ok {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) && strings.HasPrefix(typeErr.Value, "number") {
				return ErrDurationRange
			}
			return nil
		}
		if n, err = strconv.ParseFloat(s, 64); err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return ErrDurationRange
			}
			return nil
		}
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || math.Abs(n) > MaxSeconds {
		return ErrDurationRange
	}
	p.Seconds = int(n)
	return nil
}

// DecodeCredential decodes an authenticate payload.
func DecodeCredential(raw json.RawMessage) (Credential, error) {
	var c Credential
	if len(raw) == 0 {
		return c, ErrBadPayload
	}
	if s, ok := decodeString(raw); ok {
		return Credential{Token: s}, nil
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, ErrBadPayload
	}
	return c, nil
}

// DecodeSend decodes a send_message payload.
func DecodeSend(raw json.RawMessage) (SendPayload, error) {
	var p SendPayload
	if len(raw) == 0 {
		return p, ErrBadPayload
	}
	err := json.Unmarshal(raw, &p)
	return p, err
}

// DecodeMute decodes a mute_user payload.
func DecodeMute(raw json.RawMessage) (MutePayload, error) {
	var p MutePayload
	if len(raw) == 0 {
		return p, ErrBadPayload
	}
	err := json.Unmarshal(raw, &p)
	return p, err
}

// DecodeField decodes payloads that are either a bare string or an object
// carrying that string under key, e.g. "abc" or {"id": "abc"}.
func DecodeField(raw json.RawMessage, key string) (string, error) {
	if len(raw) == 0 {
		return "", ErrBadPayload
	}
	if s, ok := decodeString(raw); ok {
		return s, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", ErrBadPayload
	}
	v, ok := obj[key]
	if !ok {
		return "", ErrBadPayload
	}
	s, ok := decodeString(v)
	if !ok {
		return "", ErrBadPayload
	}
	return s, nil
}

func decodeString(b []byte) (string, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return "", false
	}
	return s, true
}
