package notifications

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/realtime"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  payload TEXT,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

type recordingBroadcaster struct {
	toUser []realtime.Event
}

func (r *recordingBroadcaster) Broadcast(string, realtime.Event)                          {}
func (r *recordingBroadcaster) BroadcastExcept(string, *realtime.Session, realtime.Event) {}
func (r *recordingBroadcaster) ToUser(_ uuid.UUID, event realtime.Event) {
	r.toUser = append(r.toUser, event)
}

func newNotificationsService(t *testing.T, db *gorm.DB, b realtime.Broadcaster) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), b, nil)
	require.NoError(t, err)
	return svc
}

func TestCreatePushesToOwner(t *testing.T) {
	db := setupNotificationsTestDB(t)
	broadcaster := &recordingBroadcaster{}
	svc := newNotificationsService(t, db, broadcaster)

	userID := uuid.New()
	dto, err := svc.Create(context.Background(), CreateInput{
		UserID:  userID,
		Type:    enums.NotificationTypeSystem,
		Title:   "Welcome",
		Message: "Thanks for joining",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, dto.ID)

	require.Len(t, broadcaster.toUser, 1)
	assert.Equal(t, realtime.EventNewNotification, broadcaster.toUser[0].Name)
}

func TestListAndUnreadLifecycle(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, db, nil)

	userID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, svc.NotifyOrderUpdate(context.Background(), userID, uuid.New(), enums.OrderStatusConfirmed))
	require.NoError(t, svc.NotifyChatMessage(context.Background(), userID, uuid.New(), "Pat", "hello there"))
	require.NoError(t, svc.NotifyOrderUpdate(context.Background(), otherID, uuid.New(), enums.OrderStatusShipped))

	page, err := svc.List(context.Background(), userID, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Notifications, 2)
	assert.Equal(t, int64(2), page.UnreadCount)

	target := page.Notifications[0].ID
	require.NoError(t, svc.MarkRead(context.Background(), userID, target))
	// idempotent
	require.NoError(t, svc.MarkRead(context.Background(), userID, target))

	unread, err := svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	marked, err := svc.MarkAllRead(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	unread, err = svc.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)
}

func TestChatPreviewTruncatesOnRuneBoundary(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, db, nil)

	userID := uuid.New()
	long := strings.Repeat("héllo wörld ", 20)
	require.NoError(t, svc.NotifyChatMessage(context.Background(), userID, uuid.New(), "Pat", long))

	short := "héllo"
	require.NoError(t, svc.NotifyChatMessage(context.Background(), userID, uuid.New(), "Pat", short))

	page, err := svc.List(context.Background(), userID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)

	var truncated string
	for _, n := range page.Notifications {
		if n.Message == short {
			continue
		}
		truncated = n.Message
	}
	require.NotEmpty(t, truncated)
	assert.True(t, utf8.ValidString(truncated))
	assert.True(t, strings.HasSuffix(truncated, "..."))
	assert.Equal(t, 83, utf8.RuneCountInString(truncated))
}

func TestOwnerScoping(t *testing.T) {
	db := setupNotificationsTestDB(t)
	svc := newNotificationsService(t, db, nil)

	owner := uuid.New()
	stranger := uuid.New()
	dto, err := svc.Create(context.Background(), CreateInput{
		UserID:  owner,
		Type:    enums.NotificationTypeSystem,
		Title:   "Private",
		Message: "owner only",
	})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), stranger, dto.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), stranger, dto.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	require.NoError(t, svc.Delete(context.Background(), owner, dto.ID))
}
