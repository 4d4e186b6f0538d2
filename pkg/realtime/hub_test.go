package realtime

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
)

func newTestSession(hub *Hub) *Session {
	return NewSession(hub, nil, nil, nil, uuid.New(), "Tester", enums.UserRoleBuyer)
}

func drainOne(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case payload := <-s.send:
		var evt Event
		require.NoError(t, json.Unmarshal(payload, &evt))
		return evt
	default:
		t.Fatal("expected a queued event")
		return Event{}
	}
}

func TestBroadcastReachesRoomMembers(t *testing.T) {
	hub := NewHub(nil)
	chatID := uuid.New()
	room := ChatRoom(chatID)

	alice := newTestSession(hub)
	bob := newTestSession(hub)
	hub.Join(room, alice)
	hub.Join(room, bob)
	assert.Equal(t, 2, hub.RoomSize(room))

	hub.Broadcast(room, NewEvent(EventReceiveMessage, map[string]string{"text": "hi"}))

	assert.Equal(t, EventReceiveMessage, drainOne(t, alice).Name)
	assert.Equal(t, EventReceiveMessage, drainOne(t, bob).Name)
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	hub := NewHub(nil)
	room := ChatRoom(uuid.New())

	sender := newTestSession(hub)
	receiver := newTestSession(hub)
	hub.Join(room, sender)
	hub.Join(room, receiver)

	hub.BroadcastExcept(room, sender, NewEvent(EventUserTyping, nil))

	assert.Equal(t, EventUserTyping, drainOne(t, receiver).Name)
	assert.Empty(t, sender.send)
}

func TestToUserTargetsPersonalRoom(t *testing.T) {
	hub := NewHub(nil)

	session := newTestSession(hub)
	hub.Join(UserRoom(session.UserID), session)

	other := newTestSession(hub)
	hub.Join(UserRoom(other.UserID), other)

	hub.ToUser(session.UserID, NewEvent(EventNewNotification, nil))

	assert.Equal(t, EventNewNotification, drainOne(t, session).Name)
	assert.Empty(t, other.send)
}

func TestSendAfterShutdownDropsEvent(t *testing.T) {
	hub := NewHub(nil)
	room := ChatRoom(uuid.New())

	session := newTestSession(hub)
	hub.Join(room, session)

	// a broadcaster can snapshot the room before the session detaches and
	// only call Send afterwards
	hub.Detach(session)
	session.shutdown()

	require.NotPanics(t, func() {
		assert.False(t, session.Send(NewEvent(EventReceiveMessage, nil)))
	})
	assert.Empty(t, session.send)

	// shutdown is idempotent
	require.NotPanics(t, session.shutdown)

	select {
	case <-session.done:
	default:
		t.Fatal("expected done to be signalled")
	}
}

func TestLeaveAndDetach(t *testing.T) {
	hub := NewHub(nil)
	roomA := ChatRoom(uuid.New())
	roomB := ChatRoom(uuid.New())

	session := newTestSession(hub)
	hub.Join(roomA, session)
	hub.Join(roomB, session)

	hub.Leave(roomA, session)
	assert.Equal(t, 0, hub.RoomSize(roomA))
	assert.Equal(t, 1, hub.RoomSize(roomB))
	assert.False(t, session.InRoom(roomA))
	assert.True(t, session.InRoom(roomB))

	hub.Detach(session)
	assert.Equal(t, 0, hub.RoomSize(roomB))
	assert.False(t, session.InRoom(roomB))

	// events after detach go nowhere
	hub.Broadcast(roomB, NewEvent(EventReceiveMessage, nil))
	assert.Empty(t, session.send)
}
