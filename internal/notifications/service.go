package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
)

// DTO is the public notification shape.
type DTO struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Payload   map[string]any         `json:"payload,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// PageDTO is one feed page.
type PageDTO struct {
	Notifications []DTO  `json:"notifications"`
	UnreadCount   int64  `json:"unread_count"`
	NextCursor    string `json:"next_cursor,omitempty"`
}

// CreateInput describes a new feed entry.
type CreateInput struct {
	UserID  uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Payload map[string]any
}

// Service manages the per-user notification feed. Creation also pushes a
// new_notification event to the owner's personal room; a disconnected owner
// just sees the entry on next fetch.
type Service interface {
	Create(ctx context.Context, input CreateInput) (DTO, error)
	NotifyOrderUpdate(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) error
	NotifyChatMessage(ctx context.Context, userID, chatID uuid.UUID, senderName, preview string) error
	List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, userID, notificationID uuid.UUID) error
}

type service struct {
	repo        *Repository
	broadcaster realtime.Broadcaster
	logg        *logger.Logger
	now         func() time.Time
}

// NewService builds the notification service. The broadcaster may be nil in
// contexts without a socket layer (migrations, tests).
func NewService(repo *Repository, broadcaster realtime.Broadcaster, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "notifications repo is required")
	}
	return &service{repo: repo, broadcaster: broadcaster, logg: logg, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (DTO, error) {
	if input.UserID == uuid.Nil {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if !input.Type.IsValid() {
		return DTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}

	notification := &models.Notification{
		UserID:  input.UserID,
		Type:    input.Type,
		Title:   input.Title,
		Message: input.Message,
		Payload: input.Payload,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return DTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}

	dto := toDTO(notification)
	if s.broadcaster != nil {
		s.broadcaster.ToUser(input.UserID, realtime.NewEvent(realtime.EventNewNotification, dto))
	}
	return dto, nil
}

// NotifyOrderUpdate records an order status change in the buyer's feed.
func (s *service) NotifyOrderUpdate(ctx context.Context, userID, orderID uuid.UUID, status enums.OrderStatus) error {
	_, err := s.Create(ctx, CreateInput{
		UserID:  userID,
		Type:    enums.NotificationTypeOrderUpdate,
		Title:   "Order update",
		Message: fmt.Sprintf("Your order is now %s", status),
		Payload: map[string]any{"order_id": orderID.String(), "status": string(status)},
	})
	return err
}

// NotifyChatMessage records an incoming chat message for a participant.
func (s *service) NotifyChatMessage(ctx context.Context, userID, chatID uuid.UUID, senderName, preview string) error {
	const previewLimit = 80
	// truncate on rune boundaries so multi-byte text stays valid UTF-8
	if runes := []rune(preview); len(runes) > previewLimit {
		preview = string(runes[:previewLimit]) + "..."
	}
	_, err := s.Create(ctx, CreateInput{
		UserID:  userID,
		Type:    enums.NotificationTypeChatMessage,
		Title:   fmt.Sprintf("New message from %s", senderName),
		Message: preview,
		Payload: map[string]any{"chat_id": chatID.String()},
	})
	return err
}

func (s *service) List(ctx context.Context, userID uuid.UUID, cursor string, limit int) (PageDTO, error) {
	if userID == uuid.Nil {
		return PageDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, next, err := s.repo.List(ctx, userID, cursor, limit)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	unread, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return PageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}

	page := PageDTO{
		Notifications: make([]DTO, 0, len(rows)),
		UnreadCount:   unread,
		NextCursor:    next,
	}
	for i := range rows {
		page.Notifications = append(page.Notifications, toDTO(&rows[i]))
	}
	return page, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread")
	}
	return count, nil
}

// MarkRead is idempotent: marking an already-read entry succeeds without
// touching its timestamp.
func (s *service) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	updated, err := s.repo.MarkRead(ctx, userID, notificationID, s.now())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !updated {
		exists, err := s.repo.Exists(ctx, userID, notificationID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load notification")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	count, err := s.repo.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark all read")
	}
	return count, nil
}

func (s *service) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete notification")
	}
	return nil
}

func toDTO(notification *models.Notification) DTO {
	return DTO{
		ID:        notification.ID,
		Type:      notification.Type,
		Title:     notification.Title,
		Message:   notification.Message,
		Payload:   notification.Payload,
		ReadAt:    notification.ReadAt,
		CreatedAt: notification.CreatedAt,
	}
}
