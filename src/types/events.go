package types

// Inbound event names.
const (
	EventAuthenticate    = "authenticate"
	EventSendMessage     = "send_message"
	EventDeleteMessage   = "delete_message"
	EventKickUser        = "kick_user"
	EventMuteUser        = "mute_user"
	EventBanUser         = "ban_user"
	EventUnbanUser       = "unban_user"
	EventClearHistory    = "clear_history"
	EventAdminNotice     = "admin_notice"
	EventRequestUserList = "request_user_list"
)

// Outbound event names.
const (
	EventAuthOK         = "auth_ok"
	EventAuthFailed     = "auth_failed"
	EventAuthBanned     = "auth_banned"
	EventHistory        = "history"
	EventNewMessage     = "new_message"
	EventMessageDeleted = "message_deleted"
	EventHistoryCleared = "history_cleared"
	EventUserCount      = "user_count"
	EventNotice         = "notice"
	EventUserList       = "user_list"
)

// AuthOK is the payload of auth_ok.
type AuthOK struct {
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// MessageDeleted is the payload of message_deleted.
type MessageDeleted struct {
	ID string `json:"id"`
}

// UserCount is the payload of user_count.
type UserCount struct {
	N int `json:"n"`
}

// Notice is the payload of notice.
type Notice struct {
	Text string `json:"text"`
}

// NewNotice builds a notice envelope.
func NewNotice(text string) Envelope {
	return Envelope{Event: EventNotice, Data: Notice{Text: text}}
}
