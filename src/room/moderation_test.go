package room

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/orchestra-mcp/chat/config"
	"github.com/orchestra-mcp/chat/src/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationRequiresAdmin(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	member := joinWithToken(t, e, "c1", "u-1", "Ann", types.RoleMember)
	emit(e, member, types.EventSendMessage, "keep me")
	drain(member)

	commands := []struct {
		event string
		data  any
	}{
		{types.EventDeleteMessage, "m1"},
		{types.EventKickUser, "Ann"},
		{types.EventMuteUser, map[string]any{"identity": "u-1", "seconds": 30}},
		{types.EventBanUser, "u-1"},
		{types.EventUnbanUser, "u-1"},
		{types.EventClearHistory, nil},
		{types.EventAdminNotice, "hello"},
	}
	for _, cmd := range commands {
		emit(e, member, cmd.event, cmd.data)
		assert.Equal(t, []string{"You do not have permission to do that."}, noticeTexts(drain(member)), cmd.event)
	}

	assert.Equal(t, 1, e.history.Len())
	assert.False(t, e.moderation.IsBanned("u-1"))
	assert.False(t, member.Closed())
	assert.Equal(t, 0, e.moderation.Len())
}

func TestDeleteMessageIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	emit(e, admin, types.EventSendMessage, "oops")
	drain(admin)

	emit(e, admin, types.EventDeleteMessage, map[string]string{"id": "m1"})
	emit(e, admin, types.EventDeleteMessage, "m1")
	emit(e, admin, types.EventDeleteMessage, "missing")

	deleted := only(drain(admin), types.EventMessageDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, types.MessageDeleted{ID: "m1"}, deleted[0].Data)
	assert.Equal(t, 0, e.history.Len())
}

func TestKick(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	bob := joinWithToken(t, e, "c2", "u-bob", "Bob", types.RoleMember)
	drain(admin)
	drain(bob)

	emit(e, admin, types.EventKickUser, map[string]string{"name": "Bob"})

	assert.True(t, bob.Closed())
	assert.Equal(t, []string{"You have been kicked by an admin."}, noticeTexts(drain(bob)))

	envs := drain(admin)
	assert.Contains(t, noticeTexts(envs), "Bob left the chat.")
	assert.Contains(t, noticeTexts(envs), "Bob was kicked by Root.")
	assert.Equal(t, 1, lastCount(t, envs))

	// Kicking is not banning.
	joinWithToken(t, e, "c3", "u-bob", "Bob", types.RoleMember)
}

func TestKickWithoutTargetIsSilent(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	drain(admin)
	emit(e, admin, types.EventKickUser, "nobody")
	emit(e, admin, types.EventKickUser, map[string]int{"identity": 3})

	assert.Empty(t, drain(admin))
}

func TestMute(t *testing.T) {
	e, clock := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	alice := joinWithToken(t, e, "c2", "u-alice", "alice", types.RoleMember)
	drain(admin)

	emit(e, admin, types.EventMuteUser, map[string]any{"name": "alice", "seconds": "5"})
	assert.Contains(t, noticeTexts(drain(admin)), "alice has been muted for 5 seconds.")
	assert.True(t, e.moderation.IsMuted("u-alice", clock.Now()))
	drain(alice)

	clock.Advance(4 * time.Second)
	emit(e, alice, types.EventSendMessage, "let me talk")
	assert.Equal(t, []string{"You are muted for 1 more seconds."}, noticeTexts(drain(alice)))
	assert.Equal(t, 0, e.history.Len())

	clock.Advance(time.Second)
	emit(e, alice, types.EventSendMessage, "thanks")
	assert.Len(t, messageIDs(drain(alice)), 1)
	assert.Equal(t, 1, e.history.Len())
}

func TestMuteDefaultsDuration(t *testing.T) {
	e, clock := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	drain(admin)
	emit(e, admin, types.EventMuteUser, map[string]any{"identity": "u-x"})

	assert.Contains(t, noticeTexts(drain(admin)), "u-x has been muted for 60 seconds.")
	assert.Equal(t, clock.Now().Add(60*time.Second), e.moderation.MutedUntil("u-x"))
}

func TestMuteClampsLongDurations(t *testing.T) {
	e, clock := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	alice := joinWithToken(t, e, "c2", "alice", "alice", types.RoleMember)
	drain(admin)
	drain(alice)

	emit(e, admin, types.EventMuteUser, map[string]any{"identity": "alice", "seconds": 100_000_000})
	limit := e.cfg.MaxMuteSeconds
	assert.Contains(t, noticeTexts(drain(admin)), fmt.Sprintf("alice has been muted for %d seconds.", limit))
	assert.Equal(t, clock.Now().Add(time.Duration(limit)*time.Second), e.moderation.MutedUntil("alice"))
	drain(alice)

	emit(e, alice, types.EventSendMessage, "hello")
	assert.Empty(t, messageIDs(drain(alice)))
	assert.Equal(t, 0, e.history.Len())
}

func TestMuteRejectsOverflowingDuration(t *testing.T) {
	e, clock := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	alice := joinWithToken(t, e, "c2", "alice", "alice", types.RoleMember)
	drain(admin)
	drain(alice)

	emit(e, admin, types.EventMuteUser, map[string]any{"identity": "alice", "seconds": 10_000_000_000})
	assert.Equal(t,
		[]string{fmt.Sprintf("Mute duration must be at most %d seconds.", e.cfg.MaxMuteSeconds)},
		noticeTexts(drain(admin)))
	assert.Empty(t, drain(alice))
	assert.False(t, e.moderation.IsMuted("alice", clock.Now()))
}

func TestBan(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	bob := joinWithToken(t, e, "c2", "bob", "Bob", types.RoleMember)
	bob2 := joinWithToken(t, e, "c3", "bob", "Bob", types.RoleMember)
	drain(admin)
	drain(bob)

	emit(e, admin, types.EventBanUser, "bob")

	assert.True(t, bob.Closed())
	assert.True(t, bob2.Closed())
	assert.Contains(t, noticeTexts(drain(bob)), "You have been banned by an admin.")
	envs := drain(admin)
	assert.Contains(t, noticeTexts(envs), "bob has been banned.")
	assert.Equal(t, 1, lastCount(t, envs))

	token, err := testIssuer.Issue("bob", "Bob", types.RoleMember)
	require.NoError(t, err)
	again := connect(e, "c4")
	emit(e, again, types.EventAuthenticate, map[string]string{"token": token})

	replies := drain(again)
	require.Len(t, replies, 1)
	assert.Equal(t, types.EventAuthBanned, replies[0].Event)
	assert.True(t, again.Closed())
	assert.Nil(t, again.Principal())

	emit(e, admin, types.EventUnbanUser, "bob")
	assert.Equal(t, []string{"bob has been unbanned."}, noticeTexts(drain(admin)))
	emit(e, admin, types.EventUnbanUser, "bob")
	assert.Equal(t, []string{"bob is not banned."}, noticeTexts(drain(admin)))

	joinWithToken(t, e, "c5", "bob", "Bob", types.RoleMember)
}

func TestBanOfflineIdentity(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeEphemeral)

	admin := connect(e, "c1")
	e.registry.Bind(admin.ID, types.Principal{IdentityID: "root", DisplayName: "root", Role: types.RoleAdmin})

	emit(e, admin, types.EventBanUser, map[string]string{"identity": "ghost"})
	assert.Contains(t, noticeTexts(drain(admin)), "ghost has been banned.")

	ghost := joinAs(e, "c2", "ghost")
	assert.Equal(t, types.EventAuthBanned, drain(ghost)[0].Event)
}

func TestClearHistoryRoundTrip(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	emit(e, admin, types.EventSendMessage, "one")
	emit(e, admin, types.EventSendMessage, "two")
	drain(admin)

	emit(e, admin, types.EventClearHistory, nil)
	envs := drain(admin)
	require.Len(t, envs, 2)
	assert.Equal(t, types.EventHistoryCleared, envs[0].Event)
	assert.Equal(t, []string{"Chat history was cleared by an admin."}, noticeTexts(envs))

	late := joinWithToken(t, e, "c2", "u-late", "Late", types.RoleMember)
	snaps := only(drain(late), types.EventHistory)
	require.Len(t, snaps, 1)
	assert.Empty(t, snaps[0].Data)
}

func TestAdminNoticeIsTaggedAndCapped(t *testing.T) {
	e, _ := newTestEngine(t, config.AuthModeToken)

	admin := joinWithToken(t, e, "c1", "u-admin", "Root", types.RoleAdmin)
	member := joinWithToken(t, e, "c2", "u-ann", "Ann", types.RoleMember)
	drain(admin)
	drain(member)

	emit(e, admin, types.EventAdminNotice, map[string]string{"text": strings.Repeat("a", 400)})
	notices := noticeTexts(drain(member))
	require.Len(t, notices, 1)
	assert.Equal(t, "[ADMIN] "+strings.Repeat("a", 300), notices[0])
	assert.Equal(t, 0, e.history.Len())

	emit(e, admin, types.EventAdminNotice, "   ")
	assert.Empty(t, drain(member))
}
