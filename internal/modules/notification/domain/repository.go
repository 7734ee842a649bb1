package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter scopes a company-feed query. When UserID is set the feed
// includes rows targeted at that exact user plus broadcast rows
// (user_id IS NULL). Driver-facing rows are always excluded. A zero
// CarrierID means no carrier scoping (admin log listing only).
type ListFilter struct {
	CarrierID  uuid.UUID
	UserID     *uuid.UUID
	UnreadOnly bool
	Types      []NotificationType
	Since      *time.Time
	Limit      int
	Offset     int
}

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	// List returns one page plus the total row count for the filter.
	// Expired rows are never returned. Ordering is created_at DESC with
	// priority rank breaking ties.
	List(ctx context.Context, f ListFilter) ([]Notification, int, error)
	// MarkRead flips is_read on the given ids scoped to (carrier, user or
	// broadcast). Already-read rows are skipped, so repeated calls are
	// no-ops. Returns the number of rows actually updated.
	MarkRead(ctx context.Context, ids []uuid.UUID, userID, carrierID uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, userID, carrierID uuid.UUID) (int64, error)
	// CountUnreadByType groups unread, non-expired rows by type so the
	// badge aggregator can apply the preference gate with a single
	// preference query instead of one lookup per row.
	CountUnreadByType(ctx context.Context, userID, carrierID uuid.UUID) (map[NotificationType]int, error)
	// RecentByKey returns the newest rows matching the dedup key
	// (type, assignment, user), newest first.
	RecentByKey(ctx context.Context, t NotificationType, assignmentID *uuid.UUID, userID uuid.UUID, limit int) ([]Notification, error)
	// PollSince returns unread company-feed rows created after since,
	// newest first, for a streaming session's poll tick.
	PollSince(ctx context.Context, carrierID, userID uuid.UUID, since time.Time, limit int) ([]Notification, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	// Count returns the number of rows created at or after since; a nil
	// since counts everything.
	Count(ctx context.Context, since *time.Time) (int64, error)
}

type PreferenceRepository interface {
	GetByTriple(ctx context.Context, userID, carrierID uuid.UUID, t NotificationType) (*Preference, error)
	ListByUser(ctx context.Context, userID, carrierID uuid.UUID) ([]Preference, error)
	BulkCreate(ctx context.Context, prefs []Preference) error
	Upsert(ctx context.Context, p *Preference) error
	// EnabledMap returns the stored in-app flag per type for one user.
	// Types with no row are absent from the map.
	EnabledMap(ctx context.Context, userID, carrierID uuid.UUID) (map[NotificationType]bool, error)
	// DisabledFraction is the share of preference rows with the in-app
	// channel off, across all tenants. Used as a crude error-rate proxy
	// by admin stats.
	DisabledFraction(ctx context.Context) (float64, error)
}

type DeliveryRepository interface {
	Record(ctx context.Context, d *Delivery) error
}

// UserDirectory resolves the recipient set for company-wide fan-out. The
// auth module's user repository satisfies this.
type UserDirectory interface {
	ListUserIDsByCarrier(ctx context.Context, carrierID uuid.UUID) ([]uuid.UUID, error)
}
