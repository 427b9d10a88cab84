package notification

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/snowguard/notifications-service/internal/storage"
)

type Type string

const (
	TypeHazardAlert Type = "HAZARD_ALERT"
	TypeRouteUpdate Type = "ROUTE_UPDATE"
	TypeAIResponse  Type = "AI_RESPONSE"
	TypeSystem      Type = "SYSTEM"
)

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityDanger  Severity = "DANGER"
)

var ErrNotFound = fmt.Errorf("notification not found")

// CreateOutcome distinguishes a persisted notification from a deliberate drop
// by admission control. A suppressed create is not an error.
type CreateOutcome int

const (
	OutcomeCreated CreateOutcome = iota
	OutcomeSuppressed
)

// Notification is the user-facing record. Read state is monotonic: ReadAt is
// set exactly when Read is true and there is no way back to unread.
type Notification struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      Type            `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Severity  Severity        `json:"severity"`
	Data      json.RawMessage `json:"data,omitempty"`
	Read      bool            `json:"read"`
	ReadAt    *time.Time      `json:"read_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
}

type CreateRequest struct {
	UserID   int64           `json:"user_id"`
	Type     Type            `json:"type"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Severity Severity        `json:"severity"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type ListOptions struct {
	Limit      int
	Offset     int
	UnreadOnly bool
}

type Preferences struct {
	HazardAlerts        bool      `json:"hazard_alerts"`
	RouteUpdates        bool      `json:"route_updates"`
	AIResponses         bool      `json:"ai_responses"`
	SystemNotifications bool      `json:"system_notifications"`
	SoundEnabled        bool      `json:"sound_enabled"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// enabledFor resolves the preference flag gating a notification type. Unknown
// types fall back to the system flag.
func (p *Preferences) enabledFor(t Type) bool {
	switch t {
	case TypeHazardAlert:
		return p.HazardAlerts
	case TypeRouteUpdate:
		return p.RouteUpdates
	case TypeAIResponse:
		return p.AIResponses
	default:
		return p.SystemNotifications
	}
}

func toDomain(n *storage.Notification) *Notification {
	out := &Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      Type(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Severity:  Severity(n.Severity),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	if n.Data.Status == pgtype.Present {
		out.Data = json.RawMessage(n.Data.Bytes)
	}
	if n.ReadAt.Status == pgtype.Present {
		t := n.ReadAt.Time
		out.ReadAt = &t
	}
	if n.ExpiresAt.Status == pgtype.Present {
		t := n.ExpiresAt.Time
		out.ExpiresAt = &t
	}
	return out
}

func preferencesToDomain(p *storage.Preferences) *Preferences {
	return &Preferences{
		HazardAlerts:        p.HazardAlerts,
		RouteUpdates:        p.RouteUpdates,
		AIResponses:         p.AIResponses,
		SystemNotifications: p.SystemNotifications,
		SoundEnabled:        p.SoundEnabled,
		UpdatedAt:           p.UpdatedAt,
	}
}
