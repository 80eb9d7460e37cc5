package room

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/hub"
	"github.com/orchestra-mcp/chat/src/identity"
	"github.com/orchestra-mcp/chat/src/types"
)

func (e *Engine) handleConnect(c *hub.Client, cred *types.Credential) {
	if !e.registry.Register(c) {
		return
	}
	if cred != nil {
		e.authenticate(c, *cred)
	}
}

func (e *Engine) handleInbound(clientID string, in types.Inbound) {
	c, ok := e.registry.Get(clientID)
	if !ok {
		return
	}
	var err error
	switch in.Event {
	case types.EventAuthenticate:
		err = e.handleAuthenticate(c, in.Data)
	case types.EventSendMessage:
		err = e.handleSend(c, in.Data)
	case types.EventDeleteMessage:
		err = e.handleDelete(c, in.Data)
	case types.EventKickUser:
		err = e.handleKick(c, in.Data)
	case types.EventMuteUser:
		err = e.handleMute(c, in.Data)
	case types.EventBanUser:
		err = e.handleBan(c, in.Data)
	case types.EventUnbanUser:
		err = e.handleUnban(c, in.Data)
	case types.EventClearHistory:
		err = e.handleClear(c)
	case types.EventAdminNotice:
		err = e.handleAdminNotice(c, in.Data)
	case types.EventRequestUserList:
		err = e.handleUserList(c)
	default:
		err = fmt.Errorf("%w: unknown event %q", ErrValidation, in.Event)
	}
	if err != nil {
		e.reply(c, in.Event, err)
	}
}

// reply turns a handler error into what the caller sees.
func (e *Engine) reply(c *hub.Client, event string, err error) {
	log := e.logger.With().Str("client_id", c.ID).Str("event", event).Logger()
	var rej *rejection
	switch {
	case errors.As(err, &rej):
		log.Debug().Err(err).Msg("event rejected")
		e.notify(c.ID, rej.text)
	case errors.Is(err, ErrValidation):
		log.Debug().Err(err).Msg("event dropped")
	default:
		log.Error().Err(err).Msg("event failed")
	}
}

func (e *Engine) handleAuthenticate(c *hub.Client, raw json.RawMessage) error {
	if c.Principal() != nil {
		return reject(ErrValidation, "You are already signed in.")
	}
	cred, err := types.DecodeCredential(raw)
	if err != nil {
		e.registry.Send(c.ID, types.Envelope{Event: types.EventAuthFailed, Data: types.Notice{Text: "Malformed credential."}})
		return nil
	}
	e.authenticate(c, cred)
	return nil
}

func (e *Engine) authenticate(c *hub.Client, cred types.Credential) {
	p, err := e.resolver.Resolve(cred)
	switch {
	case errors.Is(err, identity.ErrBanned):
		e.logger.Warn().Str("client_id", c.ID).Msg("banned identity tried to authenticate")
		e.registry.Send(c.ID, types.Envelope{Event: types.EventAuthBanned, Data: types.Notice{Text: "You are banned from this room."}})
		e.closeClient(c)
		return
	case err != nil:
		e.logger.Warn().Err(err).Str("client_id", c.ID).Msg("authentication failed")
		e.registry.Send(c.ID, types.Envelope{Event: types.EventAuthFailed, Data: types.Notice{Text: "Authentication failed. Please sign in again."}})
		return
	}

	e.registry.Bind(c.ID, p)
	e.logger.Info().
		Str("client_id", c.ID).
		Str("identity", p.IdentityID).
		Str("role", string(p.Role)).
		Msg("client authenticated")

	e.registry.Send(c.ID, types.Envelope{Event: types.EventAuthOK, Data: types.AuthOK{DisplayName: p.DisplayName, Role: p.Role}})
	e.registry.Send(c.ID, types.Envelope{Event: types.EventHistory, Data: e.history.Recent(e.cfg.SnapshotSize)})
	e.registry.BroadcastBound(types.NewNotice(p.DisplayName+" joined the chat."), c.ID)
	e.broadcastCount()
}

func (e *Engine) handleDisconnect(c *hub.Client) {
	e.closeClient(c)
}

// closeClient unregisters c and closes its outbox. Queued envelopes are
// still flushed by the write pump. Calling it for a removed client is a
// no-op.
func (e *Engine) closeClient(c *hub.Client) {
	if _, ok := e.registry.Unregister(c.ID); !ok {
		return
	}
	c.Close()
	p := c.Principal()
	if p == nil {
		return
	}
	if e.resolver.Mode() == config.AuthModeEphemeral {
		e.limiter.Forget(e.rateKey(c.ID, *p))
	}
	e.registry.BroadcastBound(types.NewNotice(p.DisplayName+" left the chat."), "")
	e.broadcastCount()
}

// rateKey is the identity in token mode and the connection in ephemeral
// mode, where names are not trustworthy enough to share a window.
func (e *Engine) rateKey(clientID string, p types.Principal) string {
	if e.resolver.Mode() == config.AuthModeEphemeral {
		return clientID
	}
	return p.IdentityID
}
