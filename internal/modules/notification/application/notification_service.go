package application

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// NotificationService is the read/write facade over the notification store
// for the feed, badge and admin APIs. The streaming session reads through
// the repository's PollSince directly.
type NotificationService struct {
	repo  domain.NotificationRepository
	prefs *PreferenceService
	log   *logrus.Logger
}

func NewNotificationService(repo domain.NotificationRepository, prefs *PreferenceService, log *logrus.Logger) *NotificationService {
	return &NotificationService{repo: repo, prefs: prefs, log: log}
}

// CreateInput is a direct creation request (admin tooling and tests); the
// dispatcher path is the normal producer.
type CreateInput struct {
	CarrierID uuid.UUID
	UserID    *uuid.UUID
	DriverID  *uuid.UUID
	Type      domain.NotificationType
	Title     string
	Message   string
	Data      domain.Payload
	ExpiresAt *time.Time
	Refs      domain.Refs
}

func (s *NotificationService) Create(ctx context.Context, in CreateInput) (*domain.Notification, error) {
	if in.CarrierID == uuid.Nil || !in.Type.Valid() || in.Title == "" || in.Message == "" {
		return nil, domain.ErrInvalidNotification
	}
	now := time.Now()
	n := &domain.Notification{
		ID:           uuid.New(),
		CarrierID:    in.CarrierID,
		UserID:       in.UserID,
		DriverID:     in.DriverID,
		Type:         in.Type,
		Priority:     PriorityFor(in.Type),
		Title:        in.Title,
		Message:      in.Message,
		Data:         in.Data,
		ExpiresAt:    in.ExpiresAt,
		LoadID:       in.Refs.LoadID,
		AssignmentID: in.Refs.AssignmentID,
		RouteLegID:   in.Refs.RouteLegID,
		InvoiceID:    in.Refs.InvoiceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	notificationsCreated.WithLabelValues(string(n.Type)).Inc()
	return n, nil
}

// ListResult is one page of the company feed plus the post-gate unread count.
type ListResult struct {
	Items       []domain.Notification
	Total       int
	UnreadCount int
}

func (s *NotificationService) List(ctx context.Context, f domain.ListFilter) (*ListResult, error) {
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}

	unread := 0
	if f.UserID != nil {
		unread, err = s.UnreadCount(ctx, *f.UserID, f.CarrierID)
		if err != nil {
			// The badge is advisory; the page itself is still good.
			s.log.WithError(err).Warn("unread count failed during list")
			unread = 0
		}
	}
	return &ListResult{Items: items, Total: total, UnreadCount: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, ids []uuid.UUID, userID, carrierID uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.MarkRead(ctx, ids, userID, carrierID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID, carrierID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, carrierID)
}

// UnreadCount is the badge aggregator: unread non-expired rows grouped by
// type on the store side, gated by one batched preference lookup instead of
// a query per row. A type with no stored preference row counts (fail-open).
func (s *NotificationService) UnreadCount(ctx context.Context, userID, carrierID uuid.UUID) (int, error) {
	byType, err := s.repo.CountUnreadByType(ctx, userID, carrierID)
	if err != nil {
		return 0, err
	}
	enabled, err := s.prefs.EnabledMap(ctx, userID, carrierID)
	if err != nil {
		s.log.WithError(err).Warn("preference map lookup failed, failing open")
		enabled = nil
	}

	total := 0
	for t, count := range byType {
		if on, ok := enabled[t]; ok && !on {
			continue
		}
		total += count
	}
	return total, nil
}

func (s *NotificationService) DeleteExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, time.Now())
}

// StartJanitor deletes expired rows on a fixed interval until stop is
// called. Expired rows are already invisible to every read path; the janitor
// only reclaims storage.
func (s *NotificationService) StartJanitor(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				deleted, err := s.repo.DeleteExpired(ctx, time.Now())
				cancel()
				if err != nil && !errors.Is(err, context.Canceled) {
					s.log.WithError(err).Warn("expired notification sweep failed")
				} else if deleted > 0 {
					s.log.WithField("deleted", deleted).Info("expired notifications removed")
				}
			case <-done:
				return
			}
		}
	}()
	var once sync.Once
	return func() { once.Do(func() { close(done) }) }
}
