package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/notification"
)

const (
	ChannelHazardAlerts = "hazard:alerts"
	ChannelRouteUpdates = "route:updates"
	ChannelAIResponses  = "ai:responses"
	ChannelUserUpdates  = "user:updates"
)

var (
	ErrMissingUser    = fmt.Errorf("event carries no user id")
	ErrMissingMessage = fmt.Errorf("event carries no message")
)

// Pusher forwards a created notification to the user's live sessions. The
// connection gateway implements it; the subscriber never talks to sockets
// directly.
type Pusher interface {
	PushNotification(userID int64, n *notification.Notification)
}

// Subscriber consumes the fixed set of domain channels and turns each inbound
// event into at most one notification-creation attempt. Malformed payloads are
// logged and dropped, never fatal.
type Subscriber struct {
	svc    notification.Manager
	pusher Pusher
	bus    Bus
}

func NewSubscriber(svc notification.Manager, pusher Pusher, bus Bus) *Subscriber {
	return &Subscriber{
		svc:    svc,
		pusher: pusher,
		bus:    bus,
	}
}

func (s *Subscriber) Start(ctx context.Context) error {
	err := s.bus.Subscribe(ctx, s.handleMessage,
		ChannelHazardAlerts, ChannelRouteUpdates, ChannelAIResponses, ChannelUserUpdates)
	if err != nil {
		return err
	}
	log.Info().Msg("subscribed to 4 channels")
	return nil
}

func (s *Subscriber) handleMessage(ctx context.Context, channel string, payload []byte) {
	req, err := mapEvent(channel, payload)
	if err != nil {
		log.Err(err).Str("channel", channel).Msg("dropping malformed event")
		return
	}
	created, outcome, err := s.svc.Create(ctx, req)
	if err != nil {
		log.Err(err).Str("channel", channel).Int64("user_id", req.UserID).
			Msg("could not create notification from event")
		return
	}
	if outcome != notification.OutcomeCreated {
		return
	}
	s.pusher.PushNotification(created.UserID, created)
	log.Info().Int64("user_id", created.UserID).Str("type", string(created.Type)).
		Msg("notification pushed")
}

type hazardAlertEvent struct {
	UserID     int64           `json:"userId"`
	HazardType string          `json:"hazardType"`
	Severity   int             `json:"severity"`
	Location   json.RawMessage `json:"location,omitempty"`
}

type routeUpdateEvent struct {
	UserID    int64           `json:"userId"`
	RouteID   json.RawMessage `json:"routeId,omitempty"`
	RiskScore int             `json:"riskScore"`
}

type aiResponseEvent struct {
	UserID  int64           `json:"userId"`
	ChatID  json.RawMessage `json:"chatId,omitempty"`
	Message string          `json:"message"`
}

type userUpdateEvent struct {
	UserID  int64           `json:"userId"`
	Title   string          `json:"title"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// mapEvent deterministically maps a channel payload to a creation request.
func mapEvent(channel string, payload []byte) (*notification.CreateRequest, error) {
	switch channel {
	case ChannelHazardAlerts:
		return mapHazardAlert(payload)
	case ChannelRouteUpdates:
		return mapRouteUpdate(payload)
	case ChannelAIResponses:
		return mapAIResponse(payload)
	case ChannelUserUpdates:
		return mapUserUpdate(payload)
	default:
		return nil, fmt.Errorf("unknown channel %q", channel)
	}
}

func mapHazardAlert(payload []byte) (*notification.CreateRequest, error) {
	event := hazardAlertEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if event.UserID == 0 {
		return nil, ErrMissingUser
	}
	severity := notification.SeverityInfo
	title := "⚠️ Hazard Alert"
	switch {
	case event.Severity > 80:
		severity = notification.SeverityDanger
		title = "🚨 SEVERE Hazard Alert"
	case event.Severity > 60:
		severity = notification.SeverityWarning
	}
	data, err := json.Marshal(map[string]interface{}{
		"hazardType": event.HazardType,
		"severity":   event.Severity,
		"location":   event.Location,
	})
	if err != nil {
		return nil, err
	}
	return &notification.CreateRequest{
		UserID:   event.UserID,
		Type:     notification.TypeHazardAlert,
		Title:    title,
		Message:  fmt.Sprintf("%s detected with severity %d", event.HazardType, event.Severity),
		Severity: severity,
		Data:     data,
	}, nil
}

func mapRouteUpdate(payload []byte) (*notification.CreateRequest, error) {
	event := routeUpdateEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if event.UserID == 0 {
		return nil, ErrMissingUser
	}
	severity := notification.SeverityInfo
	if event.RiskScore > 70 {
		severity = notification.SeverityWarning
	}
	data, err := json.Marshal(map[string]interface{}{
		"routeId":   event.RouteID,
		"riskScore": event.RiskScore,
	})
	if err != nil {
		return nil, err
	}
	return &notification.CreateRequest{
		UserID:   event.UserID,
		Type:     notification.TypeRouteUpdate,
		Title:    "🚗 Route Conditions Changed",
		Message:  fmt.Sprintf("Your route risk score is now %d", event.RiskScore),
		Severity: severity,
		Data:     data,
	}, nil
}

func mapAIResponse(payload []byte) (*notification.CreateRequest, error) {
	event := aiResponseEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if event.UserID == 0 {
		return nil, ErrMissingUser
	}
	message := event.Message
	if message == "" {
		message = "Your safety analysis is complete"
	}
	data, err := json.Marshal(map[string]interface{}{
		"chatId": event.ChatID,
	})
	if err != nil {
		return nil, err
	}
	return &notification.CreateRequest{
		UserID:   event.UserID,
		Type:     notification.TypeAIResponse,
		Title:    "💬 AI Response Ready",
		Message:  message,
		Severity: notification.SeverityInfo,
		Data:     data,
	}, nil
}

func mapUserUpdate(payload []byte) (*notification.CreateRequest, error) {
	event := userUpdateEvent{}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	if event.UserID == 0 {
		return nil, ErrMissingUser
	}
	if event.Message == "" {
		return nil, ErrMissingMessage
	}
	title := event.Title
	if title == "" {
		title = "✅ Update"
	}
	return &notification.CreateRequest{
		UserID:   event.UserID,
		Type:     notification.TypeSystem,
		Title:    title,
		Message:  event.Message,
		Severity: notification.SeverityInfo,
		Data:     event.Data,
	}, nil
}
