package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/rs/zerolog/log"
	"github.com/snowguard/notifications-service/internal/cache"
	"github.com/snowguard/notifications-service/internal/storage"
)

// Manager is the notification service consumed by the HTTP surface, the
// connection gateway and the event subscriber.
type Manager interface {
	Create(ctx context.Context, req *CreateRequest) (*Notification, CreateOutcome, error)
	List(ctx context.Context, userID int64, opts ListOptions) ([]*Notification, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Preferences(ctx context.Context, userID int64) (*Preferences, error)
	UpdatePreferences(ctx context.Context, userID int64, p *Preferences) (*Preferences, error)
}

type Service struct {
	persistence storage.Persistence
	counter     cache.Counter
	lifetime    time.Duration
	counterTTL  time.Duration
}

func NewService(persistence storage.Persistence, counter cache.Counter, lifetime, counterTTL time.Duration) *Service {
	return &Service{
		persistence: persistence,
		counter:     counter,
		lifetime:    lifetime,
		counterTTL:  counterTTL,
	}
}

// Create runs admission control against the user's preferences before
// persisting anything. A disabled category yields OutcomeSuppressed with no
// row and no counter movement.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Notification, CreateOutcome, error) {
	prefs, err := s.loadPreferences(ctx, req.UserID)
	if err != nil {
		return nil, OutcomeSuppressed, fmt.Errorf("loading preferences for user %d: %w", req.UserID, err)
	}
	if !prefs.enabledFor(req.Type) {
		log.Info().Int64("user_id", req.UserID).Str("type", string(req.Type)).
			Msg("notification suppressed by user preference")
		return nil, OutcomeSuppressed, nil
	}
	row := &storage.Notification{
		UserID:   req.UserID,
		Type:     string(req.Type),
		Title:    req.Title,
		Message:  req.Message,
		Severity: string(severityOrDefault(req.Severity)),
		ExpiresAt: pgtype.Timestamp{
			Time:   time.Now().UTC().Add(s.lifetime),
			Status: pgtype.Present,
		},
	}
	if err = row.Data.Set(rawOrNil(req.Data)); err != nil {
		return nil, OutcomeSuppressed, err
	}
	inserted, err := s.persistence.Insert(ctx, row)
	if err != nil {
		return nil, OutcomeSuppressed, err
	}
	if errIncr := s.counter.Increment(ctx, req.UserID); errIncr != nil {
		log.Err(errIncr).Int64("user_id", req.UserID).Msg("could not increment unread counter")
	}
	return toDomain(inserted), OutcomeCreated, nil
}

func (s *Service) List(ctx context.Context, userID int64, opts ListOptions) ([]*Notification, error) {
	if opts.Limit <= 0 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	rows, err := s.persistence.List(ctx, userID, opts.Limit, opts.Offset, opts.UnreadOnly)
	if err != nil {
		return nil, err
	}
	notifications := make([]*Notification, 0, len(rows))
	for _, row := range rows {
		notifications = append(notifications, toDomain(row))
	}
	return notifications, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	affected, err := s.persistence.MarkRead(ctx, id, userID, time.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	if errDecr := s.counter.Decrement(ctx, userID); errDecr != nil {
		log.Err(errDecr).Int64("user_id", userID).Msg("could not decrement unread counter")
	}
	return nil
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	if _, err := s.persistence.MarkAllRead(ctx, userID, time.Now()); err != nil {
		return err
	}
	if errReset := s.counter.Reset(ctx, userID); errReset != nil {
		log.Err(errReset).Int64("user_id", userID).Msg("could not reset unread counter")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	deleted, wasUnread, err := s.persistence.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	if wasUnread {
		if errDecr := s.counter.Decrement(ctx, userID); errDecr != nil {
			log.Err(errDecr).Int64("user_id", userID).Msg("could not decrement unread counter")
		}
	}
	return nil
}

// UnreadCount is cache-aside: a cached value is served as-is, a miss recomputes
// from the store and writes through with a TTL. The recompute is what heals any
// drift left by the best-effort increment/decrement path.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	cached, ok, err := s.counter.Get(ctx, userID)
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("unread counter read failed, falling back to store")
	} else if ok {
		return cached, nil
	}
	count, err := s.persistence.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if errSet := s.counter.Set(ctx, userID, count, s.counterTTL); errSet != nil {
		log.Err(errSet).Int64("user_id", userID).Msg("could not cache unread count")
	}
	return count, nil
}

func (s *Service) Preferences(ctx context.Context, userID int64) (*Preferences, error) {
	return s.loadPreferences(ctx, userID)
}

func (s *Service) UpdatePreferences(ctx context.Context, userID int64, p *Preferences) (*Preferences, error) {
	row, err := s.persistence.UpsertPreferences(ctx, userID, &storage.Preferences{
		UserID:              userID,
		HazardAlerts:        p.HazardAlerts,
		RouteUpdates:        p.RouteUpdates,
		AIResponses:         p.AIResponses,
		SystemNotifications: p.SystemNotifications,
		SoundEnabled:        p.SoundEnabled,
	})
	if err != nil {
		return nil, err
	}
	return preferencesToDomain(row), nil
}

// loadPreferences lazily creates the all-true default row on first access.
func (s *Service) loadPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	row, found, err := s.persistence.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		row, err = s.persistence.InsertDefaultPreferences(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return preferencesToDomain(row), nil
}

func severityOrDefault(s Severity) Severity {
	if s == "" {
		return SeverityInfo
	}
	return s
}

func rawOrNil(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
