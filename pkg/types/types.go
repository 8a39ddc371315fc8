package types

import (
	"encoding/json"
	"time"
)

// Inbound event names carried on the wire envelope.
const (
	EventConnect     = "connect"
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventGetChatLogs = "get_chat_logs"
)

// Outbound event names.
const (
	EventJoinedRoom      = "joined_room"
	EventLeftRoom        = "left_room"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventUserReconnected = "user_reconnected"
	EventReceiveMessage  = "receive_message"
	EventChatLogs        = "chat_logs"
	EventSystemNotice    = "system_notice"
	EventError           = "error"
)

// SystemUserID is the reserved author identity for server-generated messages
// such as dice results. No real user may register with it.
const SystemUserID = "system"

// Session binds a live connection to an authenticated identity and an
// optional current room. Sessions live only in memory; the registry is the
// single source of truth for room membership.
type Session struct {
	ConnectionID string    `json:"connectionId"`
	UserID       string    `json:"userId"`
	DisplayName  string    `json:"displayName"`
	CurrentRoom  string    `json:"currentRoom,omitempty"` // empty = not in a room
	ConnectedAt  time.Time `json:"connectedAt"`
}

// InRoom reports whether the session is subscribed to the given room.
func (s Session) InRoom(roomCode string) bool {
	return s.CurrentRoom != "" && s.CurrentRoom == roomCode
}

// ChatMessage is a persisted chat message as returned by the message store.
// Immutable once stored; the server assigns ID and CreatedAt.
type ChatMessage struct {
	ID         string    `json:"id"`
	RoomCode   string    `json:"roomCode"`
	AuthorID   string    `json:"senderId"`
	AuthorName string    `json:"nickname"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"timestamp"`
}

// DiceResult is the outcome of evaluating a dice command.
type DiceResult struct {
	Rolls  []int  `json:"rolls"`
	Total  int    `json:"total"`
	Detail string `json:"detail"`
}

// Envelope is the inbound wire frame. Data is decoded per event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Frame is the outbound wire frame.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Handshake is the payload of the connect event.
type Handshake struct {
	UserID      string `json:"userId" validate:"required"`
	DisplayName string `json:"displayName" validate:"required,max=50"`
}

// JoinRoomPayload subscribes the connection to a room.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode" validate:"required,alphanum,min=4,max=20"`
}

// SendMessagePayload posts a chat message to a room.
type SendMessagePayload struct {
	RoomCode string `json:"roomCode" validate:"required,alphanum,min=4,max=20"`
	Message  string `json:"message" validate:"required"`
}

// GetChatLogsPayload requests recent history for a room.
type GetChatLogsPayload struct {
	RoomCode string `json:"roomCode" validate:"required,alphanum,min=4,max=20"`
	Limit    int    `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

// RoomPayload acknowledges a join/leave to the acting connection.
type RoomPayload struct {
	RoomCode string `json:"roomCode"`
}

// PresencePayload is the peer-facing notice for join/leave/reconnect events.
type PresencePayload struct {
	Nickname string `json:"nickname"`
}

// NoticePayload carries a human-readable system notice.
type NoticePayload struct {
	Message string `json:"message"`
}

// ErrorPayload is the unicast failure notice. Code is stable and
// machine-readable; Reason is for humans.
type ErrorPayload struct {
	Code              string `json:"code"`
	Reason            string `json:"reason"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}
