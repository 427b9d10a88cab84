package notification

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/auth"
)

type Endpoint struct {
	svc Manager
}

func NewEndpoint(svc Manager) *Endpoint {
	return &Endpoint{
		svc: svc,
	}
}

// Register mounts the REST mirror of the notification operations. Every route
// sits behind the bearer-credential middleware; rate limiting is owned by the
// surrounding infrastructure.
func (e *Endpoint) Register(router *httprouter.Router, verifier *auth.Verifier) {
	router.GET("/api/notifications", verifier.Middleware(e.ListNotifications))
	router.GET("/api/notifications/unread-count", verifier.Middleware(e.UnreadCount))
	router.PUT("/api/notifications/:id/read", verifier.Middleware(e.MarkAsRead))
	router.POST("/api/notifications/mark-all-read", verifier.Middleware(e.MarkAllAsRead))
	router.DELETE("/api/notifications/:id", verifier.Middleware(e.DeleteNotification))
	router.GET("/api/preferences", verifier.Middleware(e.GetPreferences))
	router.PUT("/api/preferences", verifier.Middleware(e.UpdatePreferences))
}

type listResponse struct {
	Notifications []*Notification `json:"notifications"`
	Count         int             `json:"count"`
}

func (e *Endpoint) ListNotifications(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := auth.UserID(r)
	opts := ListOptions{}
	q := r.URL.Query()
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil {
		opts.Offset = offset
	}
	opts.UnreadOnly = q.Get("unreadOnly") == "true"

	notifications, err := e.svc.List(r.Context(), userID, opts)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error while listing notifications")
		writeError(w, http.StatusInternalServerError, "failed to fetch notifications")
		return
	}
	writeJSON(w, http.StatusOK, &listResponse{
		Notifications: notifications,
		Count:         len(notifications),
	})
}

func (e *Endpoint) UnreadCount(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := auth.UserID(r)
	count, err := e.svc.UnreadCount(r.Context(), userID)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error while fetching unread count")
		writeError(w, http.StatusInternalServerError, "failed to fetch unread count")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (e *Endpoint) MarkAsRead(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := auth.UserID(r)
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	err = e.svc.MarkAsRead(r.Context(), id, userID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		log.Err(err).Int64("user_id", userID).Int64("id", id).Msg("error while marking notification read")
		writeError(w, http.StatusInternalServerError, "failed to mark as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification marked as read"})
}

func (e *Endpoint) MarkAllAsRead(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := auth.UserID(r)
	if err := e.svc.MarkAllAsRead(r.Context(), userID); err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error while marking all notifications read")
		writeError(w, http.StatusInternalServerError, "failed to mark all as read")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "all notifications marked as read"})
}

func (e *Endpoint) DeleteNotification(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := auth.UserID(r)
	id, err := strconv.ParseInt(ps.ByName("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	err = e.svc.Delete(r.Context(), id, userID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "notification not found")
		return
	}
	if err != nil {
		log.Err(err).Int64("user_id", userID).Int64("id", id).Msg("error while deleting notification")
		writeError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification deleted"})
}

func (e *Endpoint) GetPreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := auth.UserID(r)
	prefs, err := e.svc.Preferences(r.Context(), userID)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error while fetching preferences")
		writeError(w, http.StatusInternalServerError, "failed to fetch preferences")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (e *Endpoint) UpdatePreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID := auth.UserID(r)
	prefs := &Preferences{}
	if err := json.NewDecoder(r.Body).Decode(prefs); err != nil {
		log.Err(err).Msg("error while unmarshalling preferences")
		writeError(w, http.StatusBadRequest, "invalid preferences payload")
		return
	}
	updated, err := e.svc.UpdatePreferences(r.Context(), userID, prefs)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("error while updating preferences")
		writeError(w, http.StatusInternalServerError, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("error while writing response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
