package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type PGPersistence struct {
	connPool *pgxpool.Pool
}

func NewPGPersistence(pool *pgxpool.Pool) *PGPersistence {
	return &PGPersistence{
		connPool: pool,
	}
}

func (pgp *PGPersistence) GetPool() *pgxpool.Pool {
	return pgp.connPool
}

const notificationColumns = "id, user_id, type, title, message, severity, data, read, read_at, created_at, expires_at"

func (pgp *PGPersistence) Insert(ctx context.Context, n *Notification) (*Notification, error) {
	r := pgp.connPool.QueryRow(ctx,
		"INSERT INTO notifications (user_id, type, title, message, severity, data, expires_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7) "+
			"RETURNING "+notificationColumns,
		n.UserID,
		n.Type,
		n.Title,
		n.Message,
		n.Severity,
		n.Data,
		n.ExpiresAt,
	)
	return scanNotification(r)
}

func (pgp *PGPersistence) List(ctx context.Context, userID int64, limit, offset int, unreadOnly bool) ([]*Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE user_id = $1"
	if unreadOnly {
		query += " AND read = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT $2 OFFSET $3"
	rows, err := pgp.connPool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	notifications := make([]*Notification, 0)
	for rows.Next() {
		n, errScan := scanNotification(rows)
		if errScan != nil {
			return nil, errScan
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (pgp *PGPersistence) MarkRead(ctx context.Context, id, userID int64, at time.Time) (int64, error) {
	v, errExec := pgp.connPool.Exec(ctx,
		"UPDATE notifications SET read = TRUE, read_at = $3 "+
			"WHERE id = $1 AND user_id = $2",
		id,
		userID,
		at.UTC(),
	)
	if errExec != nil {
		return 0, errExec
	}
	return v.RowsAffected(), nil
}

func (pgp *PGPersistence) MarkAllRead(ctx context.Context, userID int64, at time.Time) (int64, error) {
	v, errExec := pgp.connPool.Exec(ctx,
		"UPDATE notifications SET read = TRUE, read_at = $2 "+
			"WHERE user_id = $1 AND read = FALSE",
		userID,
		at.UTC(),
	)
	if errExec != nil {
		return 0, errExec
	}
	return v.RowsAffected(), nil
}

func (pgp *PGPersistence) Delete(ctx context.Context, id, userID int64) (bool, bool, error) {
	var read bool
	r := pgp.connPool.QueryRow(ctx,
		"DELETE FROM notifications WHERE id = $1 AND user_id = $2 RETURNING read",
		id,
		userID,
	)
	errScan := r.Scan(&read)
	if errScan == pgx.ErrNoRows {
		return false, false, nil
	}
	if errScan != nil {
		return false, false, errScan
	}
	return true, !read, nil
}

func (pgp *PGPersistence) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	r := pgp.connPool.QueryRow(ctx,
		"SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE",
		userID,
	)
	errScan := r.Scan(&count)
	if errScan != nil {
		return 0, errScan
	}
	return count, nil
}

const preferenceColumns = "user_id, hazard_alerts, route_updates, ai_responses, system_notifications, sound_enabled, updated_at"

func (pgp *PGPersistence) GetPreferences(ctx context.Context, userID int64) (*Preferences, bool, error) {
	r := pgp.connPool.QueryRow(ctx,
		"SELECT "+preferenceColumns+" FROM notification_preferences WHERE user_id = $1",
		userID,
	)
	p, errScan := scanPreferences(r)
	if errScan == pgx.ErrNoRows {
		return nil, false, nil
	}
	if errScan != nil {
		return nil, false, errScan
	}
	return p, true, nil
}

func (pgp *PGPersistence) InsertDefaultPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	r := pgp.connPool.QueryRow(ctx,
		"INSERT INTO notification_preferences (user_id) VALUES ($1) "+
			"ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id "+
			"RETURNING "+preferenceColumns,
		userID,
	)
	return scanPreferences(r)
}

func (pgp *PGPersistence) UpsertPreferences(ctx context.Context, userID int64, p *Preferences) (*Preferences, error) {
	r := pgp.connPool.QueryRow(ctx,
		"INSERT INTO notification_preferences "+
			"(user_id, hazard_alerts, route_updates, ai_responses, system_notifications, sound_enabled, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, NOW()) "+
			"ON CONFLICT (user_id) DO UPDATE SET "+
			"hazard_alerts = $2, route_updates = $3, ai_responses = $4, "+
			"system_notifications = $5, sound_enabled = $6, updated_at = NOW() "+
			"RETURNING "+preferenceColumns,
		userID,
		p.HazardAlerts,
		p.RouteUpdates,
		p.AIResponses,
		p.SystemNotifications,
		p.SoundEnabled,
	)
	return scanPreferences(r)
}

func scanNotification(r pgx.Row) (*Notification, error) {
	n := &Notification{}
	errScan := r.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Severity,
		&n.Data, &n.Read, &n.ReadAt, &n.CreatedAt, &n.ExpiresAt)
	if errScan != nil {
		return nil, fmt.Errorf("scanning notification row: %w", errScan)
	}
	return n, nil
}

func scanPreferences(r pgx.Row) (*Preferences, error) {
	p := &Preferences{}
	errScan := r.Scan(&p.UserID, &p.HazardAlerts, &p.RouteUpdates, &p.AIResponses,
		&p.SystemNotifications, &p.SoundEnabled, &p.UpdatedAt)
	if errScan != nil {
		return nil, errScan
	}
	return p, nil
}
