package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

// UserRoom is the private room every session auto-joins for out-of-band
// delivery (notifications, chat list updates).
func UserRoom(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// ChatRoom is the per-conversation room sessions join while viewing a chat.
func ChatRoom(chatID uuid.UUID) string {
	return "chat:" + chatID.String()
}

// Broadcaster is the surface services use to push events to connected clients.
// The in-process hub is the only implementation; a disconnected recipient
// simply misses the event and catches up on next fetch.
type Broadcaster interface {
	Broadcast(room string, event Event)
	BroadcastExcept(room string, exclude *Session, event Event)
	ToUser(userID uuid.UUID, event Event)
}

// Hub tracks room membership for all live sessions in this process.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Session]struct{}
	logg  *logger.Logger
}

// NewHub builds an empty hub.
func NewHub(logg *logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Session]struct{}),
		logg:  logg,
	}
}

// Join subscribes a session to a room.
func (h *Hub) Join(room string, s *Session) {
	if room == "" || s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.trackRoom(room)
}

// Leave removes a session from a room.
func (h *Hub) Leave(room string, s *Session) {
	if room == "" || s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(room, s)
	s.untrackRoom(room)
}

// Detach removes a session from every room it joined. Called on disconnect.
func (h *Hub) Detach(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range s.joinedRooms() {
		h.removeLocked(room, s)
	}
	s.clearRooms()
}

func (h *Hub) removeLocked(room string, s *Session) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, s)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast delivers the event to every session in the room.
func (h *Hub) Broadcast(room string, event Event) {
	h.BroadcastExcept(room, nil, event)
}

// BroadcastExcept delivers the event to every session in the room except one.
func (h *Hub) BroadcastExcept(room string, exclude *Session, event Event) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		if s != exclude {
			members = append(members, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range members {
		if !s.Send(event) && h.logg != nil {
			ctx := h.logg.WithFields(context.Background(), map[string]any{
				"room":    room,
				"user_id": s.UserID.String(),
				"event":   event.Name,
			})
			h.logg.Warn(ctx, "realtime.send_buffer_full")
		}
	}
}

// ToUser delivers the event to every session in the user's personal room.
func (h *Hub) ToUser(userID uuid.UUID, event Event) {
	h.Broadcast(UserRoom(userID), event)
}

// RoomSize returns the number of live sessions in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
