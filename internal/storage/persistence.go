package storage

import (
	"context"
	"time"
)

// Persistence is the durable store behind the notification service. Every
// mutation is a single conditional statement scoped by (id, user_id), so
// ownership is enforced by the query itself and concurrent attempts on the
// same row are serialized by the database.
type Persistence interface {
	Insert(ctx context.Context, n *Notification) (*Notification, error)
	List(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id, userID int64, at time.Time) (int64, error)
	MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error)
	// Delete removes an owned row and reports whether a row was removed and
	// whether it was still unread at that point.
	Delete(ctx context.Context, id, userID int64) (deleted bool, wasUnread bool, err error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	GetPreferences(ctx context.Context, userID int64) (*Preferences, bool, error)
	InsertDefaultPreferences(ctx context.Context, userID int64) (*Preferences, error)
	UpsertPreferences(ctx context.Context, userID int64, p *Preferences) (*Preferences, error)
}
