package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	TypeAssignmentStarted   NotificationType = "ASSIGNMENT_STARTED"
	TypeAssignmentCompleted NotificationType = "ASSIGNMENT_COMPLETED"
	TypeAssignmentUpdated   NotificationType = "ASSIGNMENT_UPDATED"
	TypeDocumentUploaded    NotificationType = "DOCUMENT_UPLOADED"
	TypeDocumentDeleted     NotificationType = "DOCUMENT_DELETED"
	TypeInvoiceApproved     NotificationType = "INVOICE_APPROVED"
	TypeLocationUpdate      NotificationType = "LOCATION_UPDATE"
	TypeStatusChange        NotificationType = "STATUS_CHANGE"
	TypeDeadlineWarning     NotificationType = "DEADLINE_WARNING"
)

// AllTypes is the closed set of notification types. Preference rows are
// seeded one per entry.
var AllTypes = []NotificationType{
	TypeAssignmentStarted,
	TypeAssignmentCompleted,
	TypeAssignmentUpdated,
	TypeDocumentUploaded,
	TypeDocumentDeleted,
	TypeInvoiceApproved,
	TypeLocationUpdate,
	TypeStatusChange,
	TypeDeadlineWarning,
}

func (t NotificationType) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Rank orders priorities for tie-breaking: URGENT > HIGH > MEDIUM > LOW.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Payload is the free-form structured data attached to a notification,
// stored as JSONB.
type Payload map[string]interface{}

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Payload) Scan(src interface{}) error {
	if src == nil {
		*p = Payload{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("payload: cannot scan %T", src)
	}
	return json.Unmarshal(b, p)
}

// Refs carries the optional cross-references from a notification back to the
// business entities that triggered it.
type Refs struct {
	LoadID       *uuid.UUID `json:"load_id,omitempty"`
	AssignmentID *uuid.UUID `json:"assignment_id,omitempty"`
	RouteLegID   *uuid.UUID `json:"route_leg_id,omitempty"`
	InvoiceID    *uuid.UUID `json:"invoice_id,omitempty"`
}

type Notification struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	CarrierID    uuid.UUID        `json:"carrier_id" db:"carrier_id"`
	UserID       *uuid.UUID       `json:"user_id,omitempty" db:"user_id"`
	DriverID     *uuid.UUID       `json:"driver_id,omitempty" db:"driver_id"`
	Type         NotificationType `json:"type" db:"type"`
	Priority     Priority         `json:"priority" db:"priority"`
	Title        string           `json:"title" db:"title"`
	Message      string           `json:"message" db:"message"`
	Data         Payload          `json:"data" db:"data"`
	IsRead       bool             `json:"is_read" db:"is_read"`
	ReadAt       *time.Time       `json:"read_at,omitempty" db:"read_at"`
	ExpiresAt    *time.Time       `json:"expires_at,omitempty" db:"expires_at"`
	LoadID       *uuid.UUID       `json:"load_id,omitempty" db:"load_id"`
	AssignmentID *uuid.UUID       `json:"assignment_id,omitempty" db:"assignment_id"`
	RouteLegID   *uuid.UUID       `json:"route_leg_id,omitempty" db:"route_leg_id"`
	InvoiceID    *uuid.UUID       `json:"invoice_id,omitempty" db:"invoice_id"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// ForDriver reports whether this row is a driver-facing copy. Driver rows are
// never shown in the company feed and never preference-gated.
func (n *Notification) ForDriver() bool {
	v, _ := n.Data["forDriver"].(bool)
	return v
}

// Expired reports whether the row has passed its expiry. Rows without an
// expiry never expire.
func (n *Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidNotification  = errors.New("invalid notification")
)
