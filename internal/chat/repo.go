package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/pagination"
)

type gormRepository struct {
	db *gorm.DB
}

// NewRepository constructs the Postgres-backed chat repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat.ID == uuid.Nil {
		chat.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(chat).Error
}

func (r *gormRepository) FindChatByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// FindChatByParticipants matches the exact pair regardless of order.
func (r *gormRepository) FindChatByParticipants(ctx context.Context, a, b uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Where("participants @> ARRAY[?::uuid, ?::uuid] AND array_length(participants, 1) = 2", a, b).
		First(&chat).
		Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *gormRepository) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.WithContext(ctx).
		Where("participants @> ARRAY[?::uuid]", userID).
		Order("last_message_at DESC NULLS LAST").
		Order("created_at DESC").
		Find(&chats).
		Error
	return chats, err
}

func (r *gormRepository) DeleteChat(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Chat{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateMessage persists the message and the chat's last-message projection in
// one transaction.
func (r *gormRepository) CreateMessage(ctx context.Context, message *models.Message, snapshot *models.LastMessageSnapshot) error {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return err
		}
		return tx.Model(&models.Chat{}).
			Where("id = ?", message.ChatID).
			Updates(map[string]any{
				"last_message":    snapshot,
				"last_message_at": message.DeliveredAt,
			}).Error
	})
}

// ListMessages pages backwards from newest; callers reverse for display.
func (r *gormRepository) ListMessages(ctx context.Context, chatID uuid.UUID, cursor string, limit int) ([]models.Message, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Preload("Receipts").
		Where("chat_id = ?", chatID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}

	var rows []models.Message
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).
		Error
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}

func (r *gormRepository) UnreadMessageIDs(ctx context.Context, chatID, readerID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ?", chatID, readerID).
		Where("NOT EXISTS (SELECT 1 FROM message_receipts mr WHERE mr.message_id = messages.id AND mr.reader_id = ?)", readerID).
		Pluck("id", &ids).
		Error
	return ids, err
}

// InsertReceipts is idempotent per (message, reader).
func (r *gormRepository) InsertReceipts(ctx context.Context, messageIDs []uuid.UUID, readerID uuid.UUID, at time.Time) error {
	for _, messageID := range messageIDs {
		err := r.db.WithContext(ctx).
			Exec(`INSERT INTO message_receipts (id, message_id, reader_id, read_at) VALUES (?, ?, ?, ?)
			      ON CONFLICT (message_id, reader_id) DO NOTHING`,
				uuid.New(), messageID, readerID, at).
			Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *gormRepository) CountUnread(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("chat_id = ? AND sender_id <> ?", chatID, readerID).
		Where("NOT EXISTS (SELECT 1 FROM message_receipts mr WHERE mr.message_id = messages.id AND mr.reader_id = ?)", readerID).
		Count(&count).
		Error
	return count, err
}
