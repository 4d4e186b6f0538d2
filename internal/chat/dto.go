package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// ChatDTO is the public conversation shape for list and detail views.
type ChatDTO struct {
	ID            uuid.UUID                   `json:"id"`
	Participants  []uuid.UUID                 `json:"participants"`
	LastMessage   *models.LastMessageSnapshot `json:"last_message,omitempty"`
	LastMessageAt *time.Time                  `json:"last_message_at,omitempty"`
	UnreadCount   int64                       `json:"unread_count"`
	CreatedAt     time.Time                   `json:"created_at"`
}

// MessageDTO is one chat entry with its read receipts.
type MessageDTO struct {
	ID          uuid.UUID         `json:"id"`
	ChatID      uuid.UUID         `json:"chat_id"`
	SenderID    uuid.UUID         `json:"sender_id"`
	Content     string            `json:"content"`
	Type        enums.MessageType `json:"type"`
	DeliveredAt time.Time         `json:"delivered_at"`
	ReadBy      []uuid.UUID       `json:"read_by"`
	CreatedAt   time.Time         `json:"created_at"`
}

// MessagesPageDTO is one message history page, oldest first within the page.
type MessagesPageDTO struct {
	Messages   []MessageDTO `json:"messages"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// SendInput carries a new message.
type SendInput struct {
	ChatID  uuid.UUID
	Content string
	Type    enums.MessageType
}

func toChatDTO(chat *models.Chat, unread int64) ChatDTO {
	return ChatDTO{
		ID:            chat.ID,
		Participants:  chat.Participants,
		LastMessage:   chat.LastMessage,
		LastMessageAt: chat.LastMessageAt,
		UnreadCount:   unread,
		CreatedAt:     chat.CreatedAt,
	}
}

func toMessageDTO(message *models.Message) MessageDTO {
	readBy := make([]uuid.UUID, 0, len(message.Receipts))
	for _, receipt := range message.Receipts {
		readBy = append(readBy, receipt.ReaderID)
	}
	return MessageDTO{
		ID:          message.ID,
		ChatID:      message.ChatID,
		SenderID:    message.SenderID,
		Content:     message.Content,
		Type:        message.Type,
		DeliveredAt: message.DeliveredAt,
		ReadBy:      readBy,
		CreatedAt:   message.CreatedAt,
	}
}
