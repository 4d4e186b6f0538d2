package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/db/models"
	dbtypes "github.com/localmarkethq/localmarket-backend/pkg/db/types"
	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

const maxMessageLength = 4000

// userChecker verifies that a chat partner exists and can receive messages.
type userChecker interface {
	Exists(ctx context.Context, userID uuid.UUID) (string, bool, error)
}

// chatNotifier records an incoming message in a participant's feed.
type chatNotifier interface {
	NotifyChatMessage(ctx context.Context, userID, chatID uuid.UUID, senderName, preview string) error
}

// SendResult carries everything the socket layer broadcasts after a send.
type SendResult struct {
	Message MessageDTO
	Chat    ChatDTO
}

// Service owns the conversation workflow. All operations are scoped to
// participants; non-participants get a forbidden error, never partial data.
type Service interface {
	CreateChat(ctx context.Context, creatorID, partnerID uuid.UUID) (ChatDTO, error)
	ListMyChats(ctx context.Context, userID uuid.UUID) ([]ChatDTO, error)
	GetChat(ctx context.Context, chatID, userID uuid.UUID) (ChatDTO, error)
	DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error
	GetMessages(ctx context.Context, chatID, userID uuid.UUID, cursor string, limit int) (MessagesPageDTO, error)
	SendMessage(ctx context.Context, senderID uuid.UUID, senderName string, input SendInput) (SendResult, error)
	MarkRead(ctx context.Context, chatID, readerID uuid.UUID) (int, error)
	EnsureParticipant(ctx context.Context, chatID, userID uuid.UUID) error
}

type service struct {
	repo     Repository
	users    userChecker
	notifier chatNotifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the chat service. The notifier may be nil in tests.
func NewService(repo Repository, users userChecker, notifier chatNotifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat repo is required")
	}
	if users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user checker is required")
	}
	return &service{repo: repo, users: users, notifier: notifier, logg: logg, now: time.Now}, nil
}

// CreateChat starts a conversation with another user, or returns the existing
// one for the same pair.
func (s *service) CreateChat(ctx context.Context, creatorID, partnerID uuid.UUID) (ChatDTO, error) {
	if creatorID == uuid.Nil || partnerID == uuid.Nil {
		return ChatDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "both participants are required")
	}
	if creatorID == partnerID {
		return ChatDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "cannot start a chat with yourself")
	}
	if _, ok, err := s.users.Exists(ctx, partnerID); err != nil {
		return ChatDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner")
	} else if !ok {
		return ChatDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}

	existing, err := s.repo.FindChatByParticipants(ctx, creatorID, partnerID)
	if err == nil {
		return s.withUnread(ctx, existing, creatorID), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ChatDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up chat")
	}

	chat := &models.Chat{Participants: dbtypes.UUIDArray{creatorID, partnerID}}
	if err := s.repo.CreateChat(ctx, chat); err != nil {
		return ChatDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create chat")
	}
	return toChatDTO(chat, 0), nil
}

func (s *service) ListMyChats(ctx context.Context, userID uuid.UUID) ([]ChatDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	chats, err := s.repo.ListChatsForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list chats")
	}
	out := make([]ChatDTO, 0, len(chats))
	for i := range chats {
		out = append(out, s.withUnread(ctx, &chats[i], userID))
	}
	return out, nil
}

func (s *service) GetChat(ctx context.Context, chatID, userID uuid.UUID) (ChatDTO, error) {
	chat, err := s.loadChatForParticipant(ctx, chatID, userID)
	if err != nil {
		return ChatDTO{}, err
	}
	return s.withUnread(ctx, chat, userID), nil
}

// DeleteChat removes the conversation and its messages for both participants.
func (s *service) DeleteChat(ctx context.Context, chatID, userID uuid.UUID) error {
	if _, err := s.loadChatForParticipant(ctx, chatID, userID); err != nil {
		return err
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete chat")
	}
	return nil
}

func (s *service) GetMessages(ctx context.Context, chatID, userID uuid.UUID, cursor string, limit int) (MessagesPageDTO, error) {
	if _, err := s.loadChatForParticipant(ctx, chatID, userID); err != nil {
		return MessagesPageDTO{}, err
	}
	rows, next, err := s.repo.ListMessages(ctx, chatID, cursor, limit)
	if err != nil {
		return MessagesPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list messages")
	}

	// repo pages newest-first; flip for display order
	page := MessagesPageDTO{Messages: make([]MessageDTO, 0, len(rows)), NextCursor: next}
	for i := len(rows) - 1; i >= 0; i-- {
		page.Messages = append(page.Messages, toMessageDTO(&rows[i]))
	}
	return page, nil
}

// SendMessage persists the message, refreshes the chat projection, and files a
// notification for the recipient. Broadcasting is the socket layer's job.
func (s *service) SendMessage(ctx context.Context, senderID uuid.UUID, senderName string, input SendInput) (SendResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "message content is required")
	}
	if len(content) > maxMessageLength {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "message too long")
	}
	messageType := input.Type
	if messageType == "" {
		messageType = enums.MessageTypeText
	}
	if !messageType.IsValid() {
		return SendResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid message type")
	}

	chat, err := s.loadChatForParticipant(ctx, input.ChatID, senderID)
	if err != nil {
		return SendResult{}, err
	}

	deliveredAt := s.now()
	message := &models.Message{
		ChatID:      chat.ID,
		SenderID:    senderID,
		Content:     content,
		Type:        messageType,
		DeliveredAt: deliveredAt,
	}
	snapshot := &models.LastMessageSnapshot{
		SenderID: senderID,
		Content:  content,
		Type:     messageType,
		SentAt:   deliveredAt,
	}
	if err := s.repo.CreateMessage(ctx, message, snapshot); err != nil {
		return SendResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store message")
	}
	snapshot.MessageID = message.ID

	// pairwise chats today: notify the first non-sender participant
	if recipient, ok := chat.OtherParticipant(senderID); ok && s.notifier != nil {
		if err := s.notifier.NotifyChatMessage(ctx, recipient, chat.ID, senderName, content); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithChatID(ctx, chat.ID.String()), "chat.notification_failed")
		}
	}

	chat.LastMessage = snapshot
	chat.LastMessageAt = &deliveredAt
	return SendResult{
		Message: toMessageDTO(message),
		Chat:    toChatDTO(chat, 0),
	}, nil
}

// MarkRead inserts receipts for every message in the chat the reader has not
// authored. Re-running is a no-op; the receipt index keeps it idempotent.
func (s *service) MarkRead(ctx context.Context, chatID, readerID uuid.UUID) (int, error) {
	if _, err := s.loadChatForParticipant(ctx, chatID, readerID); err != nil {
		return 0, err
	}
	ids, err := s.repo.UnreadMessageIDs(ctx, chatID, readerID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find unread messages")
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.InsertReceipts(ctx, ids, readerID, s.now()); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store receipts")
	}
	return len(ids), nil
}

// EnsureParticipant is the membership check the socket layer runs on join.
func (s *service) EnsureParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := s.loadChatForParticipant(ctx, chatID, userID)
	return err
}

func (s *service) loadChatForParticipant(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	if chatID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id is required")
	}
	chat, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load chat")
	}
	if !chat.HasParticipant(userID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not a chat participant")
	}
	return chat, nil
}

func (s *service) withUnread(ctx context.Context, chat *models.Chat, userID uuid.UUID) ChatDTO {
	unread, err := s.repo.CountUnread(ctx, chat.ID, userID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithChatID(ctx, chat.ID.String()), "chat.unread_count_failed")
		}
		unread = 0
	}
	return toChatDTO(chat, unread)
}
