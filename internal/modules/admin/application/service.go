package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	notifdomain "github.com/dkarpov/fleetwire/internal/modules/notification/domain"
	"github.com/dkarpov/fleetwire/internal/modules/stream/tracker"
)

const (
	// Connections with heartbeat age under activeWindow are "active",
	// between activeWindow and staleWindow "stale", and past staleWindow
	// they are evicted by the tracker and never reported.
	activeWindow = 3 * time.Minute
	staleWindow  = 5 * time.Minute
)

type ConnectionReport struct {
	Total       int                  `json:"total"`
	Active      int                  `json:"active"`
	Stale       int                  `json:"stale"`
	Connections []tracker.Connection `json:"connections"`
}

type Stats struct {
	NotificationsToday int64   `json:"notifications_today"`
	NotificationsTotal int64   `json:"notifications_total"`
	ActiveConnections  int     `json:"active_connections"`
	ErrorRate          float64 `json:"error_rate"`
	Health             string  `json:"health"`
}

type AdminService struct {
	notifications notifdomain.NotificationRepository
	preferences   notifdomain.PreferenceRepository
	tracker       tracker.Tracker
	log           *logrus.Logger
}

func NewAdminService(
	notifications notifdomain.NotificationRepository,
	preferences notifdomain.PreferenceRepository,
	tr tracker.Tracker,
	log *logrus.Logger,
) *AdminService {
	return &AdminService{
		notifications: notifications,
		preferences:   preferences,
		tracker:       tr,
		log:           log,
	}
}

// Connections reports every live streaming connection bucketed by
// heartbeat freshness.
func (s *AdminService) Connections(ctx context.Context) (*ConnectionReport, error) {
	conns, err := s.tracker.ListActive(staleWindow)
	if err != nil {
		return nil, err
	}

	report := &ConnectionReport{
		Total:       len(conns),
		Connections: conns,
	}
	activeCutoff := time.Now().Add(-activeWindow)
	for _, c := range conns {
		if c.LastHeartbeat.Before(activeCutoff) {
			report.Stale++
		} else {
			report.Active++
		}
	}
	return report, nil
}

// Stats aggregates delivery volume and a coarse health verdict. The error
// rate is approximated by the fraction of preference rows with the in-app
// channel disabled; a high fraction means most generated notifications are
// being suppressed rather than delivered.
func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	// Truncate would round to a UTC day; "today" means the server's local day.
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today, err := s.notifications.Count(ctx, &midnight)
	if err != nil {
		return nil, err
	}
	total, err := s.notifications.Count(ctx, nil)
	if err != nil {
		return nil, err
	}
	active, err := s.tracker.Count()
	if err != nil {
		return nil, err
	}

	errorRate, err := s.preferences.DisabledFraction(ctx)
	if err != nil {
		// Stats stay useful without the rate; report it as zero.
		s.log.WithError(err).Warn("admin stats: disabled fraction unavailable")
		errorRate = 0
	}

	return &Stats{
		NotificationsToday: today,
		NotificationsTotal: total,
		ActiveConnections:  active,
		ErrorRate:          errorRate,
		Health:             healthVerdict(errorRate),
	}, nil
}

func healthVerdict(errorRate float64) string {
	switch {
	case errorRate < 0.25:
		return "healthy"
	case errorRate < 0.5:
		return "degraded"
	default:
		return "unhealthy"
	}
}

// Log lists raw notification rows across all tenants, unfiltered by
// preferences or audience. Pagination only.
func (s *AdminService) Log(ctx context.Context, limit, offset int) ([]notifdomain.Notification, int, error) {
	return s.notifications.List(ctx, notifdomain.ListFilter{
		Limit:  limit,
		Offset: offset,
	})
}

// Purge deletes notifications whose expiry has passed. Expired rows are
// already invisible to every read path; this reclaims the storage.
func (s *AdminService) Purge(ctx context.Context) (int64, error) {
	deleted, err := s.notifications.DeleteExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.log.WithField("deleted", deleted).Info("expired notifications purged")
	}
	return deleted, nil
}
