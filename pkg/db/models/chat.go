package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/localmarkethq/localmarket-backend/pkg/db/types"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

// Chat groups a participant set with its message stream. LastMessage is a
// denormalized projection kept current on every send for list views.
type Chat struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Participants  dbtypes.UUIDArray    `gorm:"column:participants;type:uuid[];not null"`
	LastMessage   *LastMessageSnapshot `gorm:"column:last_message;type:jsonb;serializer:json"`
	LastMessageAt *time.Time           `gorm:"column:last_message_at;index"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// HasParticipant reports whether the user belongs to the chat.
func (c Chat) HasParticipant(userID uuid.UUID) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the first participant that is not the given user.
// Chats are pairwise today; with more participants only the first match is
// returned.
func (c Chat) OtherParticipant(userID uuid.UUID) (uuid.UUID, bool) {
	for _, id := range c.Participants {
		if id != userID {
			return id, true
		}
	}
	return uuid.Nil, false
}

// LastMessageSnapshot mirrors the newest message for chat list rendering.
type LastMessageSnapshot struct {
	MessageID uuid.UUID         `json:"message_id"`
	SenderID  uuid.UUID         `json:"sender_id"`
	Content   string            `json:"content"`
	Type      enums.MessageType `json:"type"`
	SentAt    time.Time         `json:"sent_at"`
}

// Message is one append-only entry in a chat.
type Message struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ChatID      uuid.UUID         `gorm:"column:chat_id;type:uuid;not null;index"`
	SenderID    uuid.UUID         `gorm:"column:sender_id;type:uuid;not null"`
	Content     string            `gorm:"column:content;not null"`
	Type        enums.MessageType `gorm:"column:type;type:text;not null;default:'text'"`
	DeliveredAt time.Time         `gorm:"column:delivered_at;not null"`
	Receipts    []MessageReceipt  `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

// MessageReceipt records that a reader has seen a message. The unique index
// keeps receipt insertion idempotent per (message, reader).
type MessageReceipt struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MessageID uuid.UUID `gorm:"column:message_id;type:uuid;not null;uniqueIndex:idx_receipt_message_reader"`
	ReaderID  uuid.UUID `gorm:"column:reader_id;type:uuid;not null;uniqueIndex:idx_receipt_message_reader"`
	ReadAt    time.Time `gorm:"column:read_at;not null"`
}
