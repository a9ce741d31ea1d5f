package chat

import "encoding/json"

// Client-initiated event types.
const (
	EventJoinChannel  = "join-channel"
	EventLeaveChannel = "leave-channel"
	EventChatMessage  = "chat-message"
	EventEditMessage  = "edit-message"
	EventTyping       = "typing"
	EventChangeStatus = "change-status"
)

// Server-initiated event types. EventChatMessage is reused for the
// room fan-out of a persisted message.
const (
	EventMessageUpdated    = "message-updated"
	EventUserTyping        = "user-typing"
	EventUserStatusChanged = "user-status-changed"
	EventError             = "error"
)

// Presence states. Anything else is rejected, never stored.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusIdle    = "idle"
	StatusDnd     = "dnd"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusOnline, StatusOffline, StatusIdle, StatusDnd:
		return true
	}
	return false
}

// Event is the outbound wire envelope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Envelope is the inbound wire envelope; Data stays raw until the
// dispatch table picks the payload type.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Identity is derived once per connection from the verified token and
// is immutable for the connection's lifetime.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type JoinChannelPayload struct {
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
}

type LeaveChannelPayload struct {
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
}

type ChatMessagePayload struct {
	ServerID    string  `json:"serverId"`
	ChannelID   string  `json:"channelId"`
	Content     string  `json:"content"`
	RepliedToID *string `json:"replied_to_id,omitempty"`
}

type EditMessagePayload struct {
	ServerID   string `json:"serverId"`
	ChannelID  string `json:"channelId"`
	MessageID  string `json:"messageId"`
	NewContent string `json:"newContent"`
}

type TypingPayload struct {
	ServerID  string `json:"serverId"`
	ChannelID string `json:"channelId"`
}

type ChangeStatusPayload struct {
	NewStatus string `json:"newStatus"`
}

type UserTypingPayload struct {
	Username string `json:"username"`
}

type StatusChangedPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomKey builds the composite key a room is indexed by.
func RoomKey(serverID, channelID string) string {
	return serverID + ":" + channelID
}
