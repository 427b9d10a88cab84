package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/auth"
	"github.com/snowguard/notifications-service/internal/notification"
)

const (
	eventNotification = "notification"
	eventUnreadCount  = "unread-count"

	actionGetUnreadCount = "get:unread-count"
	actionMarkRead       = "mark:read"
	actionMarkAllRead    = "mark-all:read"
	actionDelete         = "delete:notification"

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// eventFrame is a server-originated push, independent of any pending command.
type eventFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// commandFrame is a client-issued mutation or query, answered by an ackFrame
// correlated on ID.
type commandFrame struct {
	ID             int64  `json:"id"`
	Action         string `json:"action"`
	NotificationID int64  `json:"notificationId,omitempty"`
}

type ackFrame struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Count   *int64 `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Session is one authenticated websocket connection inside a user room.
type Session struct {
	id        uuid.UUID
	userID    int64
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	hub       *Hub
	svc       notification.Manager
	closeOnce sync.Once
}

// Handler upgrades authenticated connections into hub sessions.
type Handler struct {
	hub      *Hub
	svc      notification.Manager
	verifier *auth.Verifier
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, svc notification.Manager, verifier *auth.Verifier) *Handler {
	return &Handler{
		hub:      hub,
		svc:      svc,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin policy is owned by the surrounding infrastructure
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Serve validates the handshake credential before any room join. A missing or
// invalid token rejects the connection outright with no retry offered here.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tokenString, err := auth.FromRequest(r)
	if err == nil {
		var claims *auth.Claims
		claims, err = h.verifier.Verify(tokenString)
		if err == nil {
			h.accept(w, r, claims.UserID)
			return
		}
	}
	log.Info().Err(err).Msg("websocket handshake rejected")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error": "unauthorized"}`))
}

func (h *Handler) accept(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("websocket upgrade failed")
		return
	}
	s := &Session{
		id:     uuid.New(),
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		hub:    h.hub,
		svc:    h.svc,
	}
	h.hub.add(s)
	log.Info().Str("session_id", s.id.String()).Int64("user_id", userID).Msg("client connected")

	go s.writePump()
	go s.readPump()

	// sync the freshly connected client without requiring a command,
	// addressed to this session only
	go func() {
		count, errCount := s.svc.UnreadCount(context.Background(), s.userID)
		if errCount != nil {
			log.Err(errCount).Int64("user_id", s.userID).Msg("could not send initial unread count")
			return
		}
		s.sendFrame(&eventFrame{Event: eventUnreadCount, Data: count})
	}()
}

func (s *Session) sendFrame(frame interface{}) {
	b, err := json.Marshal(frame)
	if err != nil {
		log.Err(err).Str("session_id", s.id.String()).Msg("could not marshal frame")
		return
	}
	select {
	case <-s.done:
	case s.send <- b:
	default:
		// the client stopped draining, drop it rather than block the room
		s.close()
	}
}

func (s *Session) readPump() {
	defer func() {
		s.hub.remove(s)
		s.close()
		log.Info().Str("session_id", s.id.String()).Int64("user_id", s.userID).Msg("client disconnected")
	}()
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Err(err).Str("session_id", s.id.String()).Msg("websocket read failed")
			}
			return
		}
		cmd := commandFrame{}
		if errUnmarshal := json.Unmarshal(payload, &cmd); errUnmarshal != nil {
			log.Err(errUnmarshal).Str("session_id", s.id.String()).Msg("dropping malformed command")
			continue
		}
		s.handleCommand(context.Background(), &cmd)
	}
}

func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.close()
	}()
	for {
		select {
		case <-s.done:
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case b := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
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

// handleCommand runs one request/acknowledge exchange. Data-layer failures are
// caught, logged and returned as a structured failure; they never terminate
// the connection.
func (s *Session) handleCommand(ctx context.Context, cmd *commandFrame) {
	switch cmd.Action {
	case actionGetUnreadCount:
		count, err := s.svc.UnreadCount(ctx, s.userID)
		if err != nil {
			s.ackError(cmd.ID, "failed to fetch unread count", err)
			return
		}
		s.sendFrame(&ackFrame{ID: cmd.ID, Success: true, Count: &count})
	case actionMarkRead:
		if err := s.svc.MarkAsRead(ctx, cmd.NotificationID, s.userID); err != nil {
			s.ackError(cmd.ID, ackMessage(err, "failed to mark as read"), err)
			return
		}
		s.broadcastUnreadCount(ctx)
		s.sendFrame(&ackFrame{ID: cmd.ID, Success: true})
	case actionMarkAllRead:
		if err := s.svc.MarkAllAsRead(ctx, s.userID); err != nil {
			s.ackError(cmd.ID, "failed to mark all as read", err)
			return
		}
		s.hub.PushUnreadCount(s.userID, 0)
		s.sendFrame(&ackFrame{ID: cmd.ID, Success: true})
	case actionDelete:
		if err := s.svc.Delete(ctx, cmd.NotificationID, s.userID); err != nil {
			s.ackError(cmd.ID, ackMessage(err, "failed to delete notification"), err)
			return
		}
		s.broadcastUnreadCount(ctx)
		s.sendFrame(&ackFrame{ID: cmd.ID, Success: true})
	default:
		s.sendFrame(&ackFrame{ID: cmd.ID, Success: false, Error: "unknown action"})
	}
}

func (s *Session) broadcastUnreadCount(ctx context.Context) {
	count, err := s.svc.UnreadCount(ctx, s.userID)
	if err != nil {
		log.Err(err).Int64("user_id", s.userID).Msg("could not refresh unread count for room")
		return
	}
	s.hub.PushUnreadCount(s.userID, count)
}

func (s *Session) ackError(id int64, msg string, err error) {
	if !errors.Is(err, notification.ErrNotFound) {
		log.Err(err).Str("session_id", s.id.String()).Int64("user_id", s.userID).Msg(msg)
	}
	s.sendFrame(&ackFrame{ID: id, Success: false, Error: msg})
}

func ackMessage(err error, fallback string) string {
	if errors.Is(err, notification.ErrNotFound) {
		return "notification not found"
	}
	return fallback
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s)
		close(s.done)
		_ = s.conn.Close()
	})
}
