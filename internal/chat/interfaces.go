package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
)

// Repository is the persistence surface for conversations. The gorm
// implementation relies on Postgres array operators, so the service depends
// on this interface to stay testable.
type Repository interface {
	CreateChat(ctx context.Context, chat *models.Chat) error
	FindChatByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	FindChatByParticipants(ctx context.Context, a, b uuid.UUID) (*models.Chat, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	DeleteChat(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, message *models.Message, snapshot *models.LastMessageSnapshot) error
	ListMessages(ctx context.Context, chatID uuid.UUID, cursor string, limit int) ([]models.Message, string, error)
	UnreadMessageIDs(ctx context.Context, chatID, readerID uuid.UUID) ([]uuid.UUID, error)
	InsertReceipts(ctx context.Context, messageIDs []uuid.UUID, readerID uuid.UUID, at time.Time) error
	CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error)
}
