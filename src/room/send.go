package room

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/orchestra-mcp/chat/src/hub"
	"github.com/orchestra-mcp/chat/src/types"
)

const maxReplyIDLength = 64

// handleSend accepts one chat message. The append and the broadcast happen
// in the same event so history order is broadcast order.
func (e *Engine) handleSend(c *hub.Client, raw json.RawMessage) error {
	p := c.Principal()
	if p == nil {
		return reject(ErrNotAuthenticated, "Please sign in before sending messages.")
	}
	now := e.now()

	if e.moderation.IsMuted(p.IdentityID, now) {
		left := e.moderation.MutedUntil(p.IdentityID).Sub(now).Seconds()
		return reject(ErrMuted, "You are muted for %d more seconds.", int(math.Ceil(left)))
	}

	key := e.rateKey(c.ID, *p)
	if !e.limiter.TryConsume(key, now) {
		wait := e.limiter.RetryAfter(key, now).Seconds()
		return reject(ErrRateLimited, "You are sending messages too fast. Try again in %d seconds.", int(math.Ceil(wait)))
	}

	payload, err := types.DecodeSend(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	text := sanitizeText(payload.Text, e.cfg.MaxTextLength)
	if text == "" {
		return fmt.Errorf("%w: empty message", ErrValidation)
	}

	msg := types.Message{
		ID:   e.newID(),
		Name: p.DisplayName,
		Text: text,
		TS:   now.UnixMilli(),
	}
	if payload.HasReply() {
		msg.ReplyToID = sanitizeText(payload.ReplyToID, maxReplyIDLength)
	}

	if evicted := e.history.Append(msg); evicted > 0 {
		e.logger.Debug().Int("count", evicted).Msg("history evicted")
	}
	e.broadcastRoom(types.Envelope{Event: types.EventNewMessage, Data: msg})
	return nil
}
