package chat

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
)

// SocketHandler translates websocket events into chat operations and fans the
// results back out through the hub. Failures go to the offending session only.
type SocketHandler struct {
	hub     *realtime.Hub
	service Service
	logg    *logger.Logger
}

// NewSocketHandler builds the websocket event handler.
func NewSocketHandler(hub *realtime.Hub, service Service, logg *logger.Logger) *SocketHandler {
	return &SocketHandler{hub: hub, service: service, logg: logg}
}

type chatRefData struct {
	ChatID uuid.UUID `json:"chat_id"`
}

type sendMessageData struct {
	ChatID  uuid.UUID         `json:"chat_id"`
	Content string            `json:"content"`
	Type    enums.MessageType `json:"type"`
}

type typingData struct {
	ChatID   uuid.UUID `json:"chat_id"`
	IsTyping bool      `json:"is_typing"`
}

type userTypingData struct {
	ChatID   uuid.UUID `json:"chat_id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	IsTyping bool      `json:"is_typing"`
}

type markReadData struct {
	ChatID uuid.UUID `json:"chat_id"`
	Count  int       `json:"count,omitempty"`
}

// HandleEvent implements realtime.EventHandler.
func (h *SocketHandler) HandleEvent(ctx context.Context, sess *realtime.Session, evt realtime.InboundEvent) {
	switch evt.Name {
	case realtime.EventJoinChat:
		h.handleJoin(ctx, sess, evt)
	case realtime.EventLeaveChat:
		h.handleLeave(sess, evt)
	case realtime.EventSendMessage:
		h.handleSend(ctx, sess, evt)
	case realtime.EventTyping:
		h.handleTyping(ctx, sess, evt)
	case realtime.EventMarkAsRead:
		h.handleMarkRead(ctx, sess, evt)
	default:
		sess.SendError(evt.AckID, "unknown event")
	}
}

func (h *SocketHandler) handleJoin(ctx context.Context, sess *realtime.Session, evt realtime.InboundEvent) {
	var data chatRefData
	if !h.decode(sess, evt, &data) {
		return
	}
	if err := h.service.EnsureParticipant(ctx, data.ChatID, sess.UserID); err != nil {
		h.reject(sess, evt.AckID, err)
		return
	}
	h.hub.Join(realtime.ChatRoom(data.ChatID), sess)
	sess.SendAck(evt.AckID, data)
}

func (h *SocketHandler) handleLeave(sess *realtime.Session, evt realtime.InboundEvent) {
	var data chatRefData
	if !h.decode(sess, evt, &data) {
		return
	}
	h.hub.Leave(realtime.ChatRoom(data.ChatID), sess)
	sess.SendAck(evt.AckID, data)
}

func (h *SocketHandler) handleSend(ctx context.Context, sess *realtime.Session, evt realtime.InboundEvent) {
	var data sendMessageData
	if !h.decode(sess, evt, &data) {
		return
	}

	result, err := h.service.SendMessage(ctx, sess.UserID, sess.Name, SendInput{
		ChatID:  data.ChatID,
		Content: data.Content,
		Type:    data.Type,
	})
	if err != nil {
		h.reject(sess, evt.AckID, err)
		return
	}

	room := realtime.ChatRoom(data.ChatID)
	h.hub.Broadcast(room, realtime.NewEvent(realtime.EventReceiveMessage, result.Message))
	for _, participant := range result.Chat.Participants {
		h.hub.ToUser(participant, realtime.NewEvent(realtime.EventChatUpdated, result.Chat))
	}
	sess.SendAck(evt.AckID, result.Message)
}

func (h *SocketHandler) handleTyping(ctx context.Context, sess *realtime.Session, evt realtime.InboundEvent) {
	var data typingData
	if !h.decode(sess, evt, &data) {
		return
	}
	// typing is transient: membership gate only, nothing persisted
	if err := h.service.EnsureParticipant(ctx, data.ChatID, sess.UserID); err != nil {
		h.reject(sess, evt.AckID, err)
		return
	}
	h.hub.BroadcastExcept(realtime.ChatRoom(data.ChatID), sess, realtime.NewEvent(realtime.EventUserTyping, userTypingData{
		ChatID:   data.ChatID,
		UserID:   sess.UserID,
		Name:     sess.Name,
		IsTyping: data.IsTyping,
	}))
}

func (h *SocketHandler) handleMarkRead(ctx context.Context, sess *realtime.Session, evt realtime.InboundEvent) {
	var data markReadData
	if !h.decode(sess, evt, &data) {
		return
	}
	count, err := h.service.MarkRead(ctx, data.ChatID, sess.UserID)
	if err != nil {
		h.reject(sess, evt.AckID, err)
		return
	}

	chat, err := h.service.GetChat(ctx, data.ChatID, sess.UserID)
	if err != nil {
		h.reject(sess, evt.AckID, err)
		return
	}
	for _, participant := range chat.Participants {
		h.hub.ToUser(participant, realtime.NewEvent(realtime.EventChatUpdated, chat))
	}
	sess.SendAck(evt.AckID, markReadData{ChatID: data.ChatID, Count: count})
}

func (h *SocketHandler) decode(sess *realtime.Session, evt realtime.InboundEvent, target any) bool {
	if len(evt.Data) == 0 {
		sess.SendError(evt.AckID, "event data is required")
		return false
	}
	if err := json.Unmarshal(evt.Data, target); err != nil {
		sess.SendError(evt.AckID, "malformed event data")
		return false
	}
	return true
}

func (h *SocketHandler) reject(sess *realtime.Session, ackID string, err error) {
	if typed := pkgerrors.As(err); typed != nil {
		sess.SendError(ackID, typed.Message())
		return
	}
	sess.SendError(ackID, "internal error")
}
