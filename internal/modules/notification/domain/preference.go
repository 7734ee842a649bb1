package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Preference holds the per-user, per-carrier channel flags for one
// notification type. The (user, carrier, type) triple is unique.
type Preference struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	UserID       uuid.UUID        `json:"user_id" db:"user_id"`
	CarrierID    uuid.UUID        `json:"carrier_id" db:"carrier_id"`
	Type         NotificationType `json:"type" db:"type"`
	Enabled      bool             `json:"enabled" db:"enabled"`
	EmailEnabled bool             `json:"email_enabled" db:"email_enabled"`
	SMSEnabled   bool             `json:"sms_enabled" db:"sms_enabled"`
	PushEnabled  bool             `json:"push_enabled" db:"push_enabled"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// AnyChannel reports whether at least one delivery channel is switched on.
func (p Preference) AnyChannel() bool {
	return p.Enabled || p.EmailEnabled || p.SMSEnabled || p.PushEnabled
}

var ErrPreferenceNotFound = errors.New("notification preference not found")
