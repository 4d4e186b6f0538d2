package realtime

import "encoding/json"

// Client-to-server event names.
const (
	EventJoinChat    = "join_chat"
	EventLeaveChat   = "leave_chat"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventMarkAsRead  = "mark_as_read"
)

// Server-to-client event names.
const (
	EventReceiveMessage  = "receive_message"
	EventChatUpdated     = "chat_updated"
	EventUserTyping      = "user_typing"
	EventNewNotification = "new_notification"
	EventError           = "error"
	EventAck             = "ack"
)

// Event is the outbound wire envelope.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// NewEvent builds an outbound event.
func NewEvent(name string, data any) Event {
	return Event{Name: name, Data: data}
}

// ErrorData is the payload for error events delivered to a single session.
type ErrorData struct {
	Message string `json:"message"`
	AckID   string `json:"ack_id,omitempty"`
}

// AckData answers a client event that requested acknowledgement.
type AckData struct {
	AckID string `json:"ack_id"`
	Data  any    `json:"data,omitempty"`
}

// InboundEvent is the parsed client-to-server envelope. AckID is optional and
// echoed back on the matching ack or error event.
type InboundEvent struct {
	Name  string          `json:"event"`
	AckID string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}
