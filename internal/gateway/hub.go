package gateway

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/notification"
)

// Hub tracks live sessions grouped into per-user rooms. The room key is the
// user identity, not the connection id, so every open session of one user
// shares delivery.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int64]map[*Session]struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[int64]map[*Session]struct{}),
	}
}

func (h *Hub) add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[s.userID]
	if !ok {
		room = make(map[*Session]struct{})
		h.rooms[s.userID] = room
	}
	room[s] = struct{}{}
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[s.userID]
	if !ok {
		return
	}
	delete(room, s)
	if len(room) == 0 {
		delete(h.rooms, s.userID)
	}
}

func (h *Hub) sessions(userID int64) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[userID]
	sessions := make([]*Session, 0, len(room))
	for s := range room {
		sessions = append(sessions, s)
	}
	return sessions
}

// ConnectionCount reports the number of live sessions across all rooms.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, room := range h.rooms {
		count += len(room)
	}
	return count
}

// PushNotification emits a created record to every session in the user's
// room. It implements the pusher seam the event subscriber delivers through.
func (h *Hub) PushNotification(userID int64, n *notification.Notification) {
	frame := &eventFrame{
		Event: eventNotification,
		Data:  n,
	}
	for _, s := range h.sessions(userID) {
		s.sendFrame(frame)
	}
}

// PushUnreadCount broadcasts the refreshed unread count to the whole room,
// keeping every device of the user in sync.
func (h *Hub) PushUnreadCount(userID int64, count int64) {
	frame := &eventFrame{
		Event: eventUnreadCount,
		Data:  count,
	}
	for _, s := range h.sessions(userID) {
		s.sendFrame(frame)
	}
}

// CloseAll tears down every live session, used during shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	sessions := make([]*Session, 0)
	for _, room := range h.rooms {
		for s := range room {
			sessions = append(sessions, s)
		}
	}
	h.rooms = make(map[int64]map[*Session]struct{})
	h.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
	log.Info().Int("sessions", len(sessions)).Msg("closed all gateway sessions")
}
