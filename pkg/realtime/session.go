package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/localmarkethq/localmarket-backend/pkg/enums"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBufferSize = 64
)

// EventHandler receives parsed client events. Implementations must treat the
// session as the full connection state; no other per-connection state exists.
type EventHandler interface {
	HandleEvent(ctx context.Context, sess *Session, evt InboundEvent)
}

// Session is the explicit per-connection state: the authenticated identity and
// the set of rooms the connection joined.
type Session struct {
	UserID uuid.UUID
	Name   string
	Role   enums.UserRole

	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	logg    *logger.Logger
	handler EventHandler

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

// NewSession binds an upgraded connection to its authenticated identity.
func NewSession(hub *Hub, conn *websocket.Conn, handler EventHandler, logg *logger.Logger, userID uuid.UUID, name string, role enums.UserRole) *Session {
	return &Session{
		UserID:  userID,
		Name:    name,
		Role:    role,
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		done:    make(chan struct{}),
		logg:    logg,
		handler: handler,
		rooms:   make(map[string]struct{}),
	}
}

// Run services the connection until it closes: the session auto-joins its
// personal room, then pumps reads and writes. Blocks until the read side ends.
func (s *Session) Run(ctx context.Context) {
	s.hub.Join(UserRoom(s.UserID), s)
	defer func() {
		s.hub.Detach(s)
		s.shutdown()
	}()

	go s.writePump()
	s.readPump(ctx)
}

// shutdown marks the session closed and signals writePump. The send channel is
// never closed: a broadcaster that snapshotted room membership before Detach
// may still call Send, which must drop the event rather than panic.
func (s *Session) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

// Send queues an event for delivery. Returns false when the session's buffer
// is full; the event is dropped rather than blocking the broadcaster.
func (s *Session) Send(event Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		return false
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

// SendError delivers an error event only to this session.
func (s *Session) SendError(ackID, message string) {
	s.Send(NewEvent(EventError, ErrorData{Message: message, AckID: ackID}))
}

// SendAck answers a client event that carried an ack id.
func (s *Session) SendAck(ackID string, data any) {
	if ackID == "" {
		return
	}
	s.Send(NewEvent(EventAck, AckData{AckID: ackID, Data: data}))
}

func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && s.logg != nil {
				s.logg.Warn(s.logg.WithUserID(ctx, s.UserID.String()), "realtime.read_error")
			}
			return
		}

		var evt InboundEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			s.SendError("", "malformed event")
			continue
		}
		if evt.Name == "" {
			s.SendError(evt.AckID, "event name required")
			continue
		}
		if s.handler != nil {
			s.handler.HandleEvent(ctx, s, evt)
		}
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case payload := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Session) trackRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room] = struct{}{}
}

func (s *Session) untrackRoom(room string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room)
}

func (s *Session) joinedRooms() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rooms := make([]string, 0, len(s.rooms))
	for room := range s.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (s *Session) clearRooms() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = make(map[string]struct{})
}

// InRoom reports whether the session currently belongs to the room.
func (s *Session) InRoom(room string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[room]
	return ok
}
