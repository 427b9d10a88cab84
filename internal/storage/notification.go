package storage

import (
	"time"

	"github.com/jackc/pgtype"
)

// Notification is a row in the notifications table. Nullable columns are
// carried as pgtype values so a missing read_at/expires_at round-trips as NULL.
type Notification struct {
	ID        int64
	UserID    int64
	Type      string
	Title     string
	Message   string
	Severity  string
	Data      pgtype.JSONB
	Read      bool
	ReadAt    pgtype.Timestamp
	CreatedAt time.Time
	ExpiresAt pgtype.Timestamp
}

// Preferences is a row in the notification_preferences table, one per user.
type Preferences struct {
	UserID              int64
	HazardAlerts        bool
	RouteUpdates        bool
	AIResponses         bool
	SystemNotifications bool
	SoundEnabled        bool
	UpdatedAt           time.Time
}
