package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/orchestra-mcp/chat/src/hub"
	"github.com/orchestra-mcp/chat/src/types"
)

const adminNoticePrefix = "[ADMIN] "

func (e *Engine) requireAdmin(c *hub.Client) (types.Principal, error) {
	p := c.Principal()
	if p == nil {
		return types.Principal{}, reject(ErrNotAuthenticated, "Please sign in first.")
	}
	if !p.IsAdmin() {
		e.logger.Info().Str("client_id", c.ID).Str("identity", p.IdentityID).Msg("moderation attempt without admin role")
		return types.Principal{}, reject(ErrPermission, "You do not have permission to do that.")
	}
	return *p, nil
}

// decodeTarget reads the identity a moderation command names. Clients send
// a bare string, {identity} or {name}.
func decodeTarget(raw json.RawMessage) (string, error) {
	target, err := types.DecodeField(raw, "identity")
	if err != nil {
		target, err = types.DecodeField(raw, "name")
	}
	if err != nil || target == "" {
		return "", fmt.Errorf("%w: missing target", ErrValidation)
	}
	return target, nil
}

// resolveTarget maps a display name to the identity of a connected client
// bound to it. Unknown names are taken as identities.
func (e *Engine) resolveTarget(target string) string {
	if c, ok := e.registry.Find(hub.BoundTo(target)); ok {
		return c.Principal().IdentityID
	}
	return target
}

// disconnectTarget force-closes every connection bound to identity and
// returns how many there were.
func (e *Engine) disconnectTarget(identity, notice string) int {
	targets := e.registry.FindAll(hub.BoundTo(identity))
	for _, t := range targets {
		e.registry.Send(t.ID, types.NewNotice(notice))
		e.closeClient(t)
	}
	return len(targets)
}

func (e *Engine) handleDelete(c *hub.Client, raw json.RawMessage) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	id, err := types.DecodeField(raw, "id")
	if err != nil || id == "" {
		return fmt.Errorf("%w: missing message id", ErrValidation)
	}
	if !e.history.Delete(id) {
		return nil
	}
	e.logger.Info().Str("identity", admin.IdentityID).Str("message_id", id).Msg("message deleted")
	e.broadcastRoom(types.Envelope{Event: types.EventMessageDeleted, Data: types.MessageDeleted{ID: id}})
	return nil
}

func (e *Engine) handleKick(c *hub.Client, raw json.RawMessage) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	target, err := decodeTarget(raw)
	if err != nil {
		return err
	}
	if e.disconnectTarget(target, "You have been kicked by an admin.") == 0 {
		return nil
	}
	e.logger.Info().Str("identity", admin.IdentityID).Str("target", target).Msg("user kicked")
	e.broadcastRoom(types.NewNotice(fmt.Sprintf("%s was kicked by %s.", target, admin.DisplayName)))
	return nil
}

func (e *Engine) handleMute(c *hub.Client, raw json.RawMessage) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	payload, err := types.DecodeMute(raw)
	if errors.Is(err, types.ErrDurationRange) {
		return reject(ErrValidation, "Mute duration must be at most %d seconds.", e.cfg.MaxMuteSeconds)
	}
	if err != nil || payload.Identity == "" {
		return fmt.Errorf("%w: missing mute target", ErrValidation)
	}
	seconds := payload.Seconds
	if seconds <= 0 {
		seconds = e.cfg.DefaultMuteSeconds
	}
	seconds = min(seconds, e.cfg.MaxMuteSeconds)
	identity := e.resolveTarget(payload.Identity)
	e.moderation.Mute(identity, e.now().Add(time.Duration(seconds)*time.Second))

	e.logger.Info().
		Str("identity", admin.IdentityID).
		Str("target", identity).
		Int("seconds", seconds).
		Msg("user muted")
	e.broadcastRoom(types.NewNotice(fmt.Sprintf("%s has been muted for %d seconds.", payload.Identity, seconds)))
	return nil
}

func (e *Engine) handleBan(c *hub.Client, raw json.RawMessage) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	target, err := decodeTarget(raw)
	if err != nil {
		return err
	}
	identity := e.resolveTarget(target)
	e.moderation.Ban(identity)
	n := e.disconnectTarget(identity, "You have been banned by an admin.")

	e.logger.Info().
		Str("identity", admin.IdentityID).
		Str("target", identity).
		Int("count", n).
		Msg("user banned")
	e.broadcastRoom(types.NewNotice(fmt.Sprintf("%s has been banned.", target)))
	return nil
}

func (e *Engine) handleUnban(c *hub.Client, raw json.RawMessage) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	target, err := decodeTarget(raw)
	if err != nil {
		return err
	}
	if !e.moderation.Unban(target) {
		e.notify(c.ID, target+" is not banned.")
		return nil
	}
	e.logger.Info().Str("identity", admin.IdentityID).Str("target", target).Msg("user unbanned")
	e.notify(c.ID, target+" has been unbanned.")
	return nil
}

func (e *Engine) handleClear(c *hub.Client) error {
	admin, err := e.requireAdmin(c)
	if err != nil {
		return err
	}
	n := e.history.Len()
	e.history.Clear()
	e.logger.Info().Str("identity", admin.IdentityID).Int("count", n).Msg("history cleared")
	e.broadcastRoom(types.Envelope{Event: types.EventHistoryCleared})
	e.broadcastRoom(types.NewNotice("Chat history was cleared by an admin."))
	return nil
}

func (e *Engine) handleAdminNotice(c *hub.Client, raw json.RawMessage) error {
	if _, err := e.requireAdmin(c); err != nil {
		return err
	}
	text, err := types.DecodeField(raw, "text")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return e.adminNotice(text)
}

func (e *Engine) adminNotice(text string) error {
	text = sanitizeText(text, e.cfg.MaxNoticeLength)
	if text == "" {
		return fmt.Errorf("%w: empty notice", ErrValidation)
	}
	e.broadcastRoom(types.NewNotice(adminNoticePrefix + text))
	return nil
}

func (e *Engine) handleUserList(c *hub.Client) error {
	if c.Principal() == nil {
		return reject(ErrNotAuthenticated, "Please sign in first.")
	}
	principals := e.registry.Principals()
	names := make([]string, 0, len(principals))
	for _, p := range principals {
		names = append(names, p.DisplayName)
	}
	e.registry.Send(c.ID, types.Envelope{Event: types.EventUserList, Data: names})
	return nil
}
