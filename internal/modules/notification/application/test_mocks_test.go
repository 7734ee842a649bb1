package application

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *mockNotificationRepo) List(ctx context.Context, f domain.ListFilter) ([]domain.Notification, int, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Notification), args.Int(1), args.Error(2)
}
func (m *mockNotificationRepo) MarkRead(ctx context.Context, ids []uuid.UUID, userID, carrierID uuid.UUID) (int64, error) {
	args := m.Called(ctx, ids, userID, carrierID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID, carrierID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, carrierID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockNotificationRepo) CountUnreadByType(ctx context.Context, userID, carrierID uuid.UUID) (map[domain.NotificationType]int, error) {
	args := m.Called(ctx, userID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.NotificationType]int), args.Error(1)
}
func (m *mockNotificationRepo) RecentByKey(ctx context.Context, t domain.NotificationType, assignmentID *uuid.UUID, userID uuid.UUID, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, t, assignmentID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationRepo) PollSince(ctx context.Context, carrierID, userID uuid.UUID, since time.Time, limit int) ([]domain.Notification, error) {
	args := m.Called(ctx, carrierID, userID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *mockNotificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}
func (m *mockNotificationRepo) Count(ctx context.Context, since *time.Time) (int64, error) {
	args := m.Called(ctx, since)
	return args.Get(0).(int64), args.Error(1)
}

type mockPreferenceRepo struct{ mock.Mock }

func (m *mockPreferenceRepo) GetByTriple(ctx context.Context, userID, carrierID uuid.UUID, t domain.NotificationType) (*domain.Preference, error) {
	args := m.Called(ctx, userID, carrierID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Preference), args.Error(1)
}
func (m *mockPreferenceRepo) ListByUser(ctx context.Context, userID, carrierID uuid.UUID) ([]domain.Preference, error) {
	args := m.Called(ctx, userID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Preference), args.Error(1)
}
func (m *mockPreferenceRepo) BulkCreate(ctx context.Context, prefs []domain.Preference) error {
	args := m.Called(ctx, prefs)
	return args.Error(0)
}
func (m *mockPreferenceRepo) Upsert(ctx context.Context, p *domain.Preference) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *mockPreferenceRepo) EnabledMap(ctx context.Context, userID, carrierID uuid.UUID) (map[domain.NotificationType]bool, error) {
	args := m.Called(ctx, userID, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.NotificationType]bool), args.Error(1)
}
func (m *mockPreferenceRepo) DisabledFraction(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

type mockDeliveryRepo struct{ mock.Mock }

func (m *mockDeliveryRepo) Record(ctx context.Context, d *domain.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

type mockDirectory struct{ mock.Mock }

func (m *mockDirectory) ListUserIDsByCarrier(ctx context.Context, carrierID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, carrierID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}
