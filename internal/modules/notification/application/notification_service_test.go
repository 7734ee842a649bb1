package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

func newTestService(t *testing.T) (*NotificationService, *mockNotificationRepo, *mockPreferenceRepo) {
	t.Helper()
	repo := new(mockNotificationRepo)
	prefRepo := new(mockPreferenceRepo)
	log := quietLogger()
	return NewNotificationService(repo, NewPreferenceService(prefRepo, log), log), repo, prefRepo
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _ := newTestService(t)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing carrier", CreateInput{Type: domain.TypeStatusChange, Title: "t", Message: "m"}},
		{"unknown type", CreateInput{CarrierID: uuid.New(), Type: "NOPE", Title: "t", Message: "m"}},
		{"empty title", CreateInput{CarrierID: uuid.New(), Type: domain.TypeStatusChange, Message: "m"}},
		{"empty message", CreateInput{CarrierID: uuid.New(), Type: domain.TypeStatusChange, Title: "t"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, domain.ErrInvalidNotification)
		})
	}
	repo.AssertNotCalled(t, "Create")
}

func TestCreate_AssignsFixedPriority(t *testing.T) {
	svc, repo, _ := newTestService(t)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	n, err := svc.Create(context.Background(), CreateInput{
		CarrierID: uuid.New(),
		Type:      domain.TypeDeadlineWarning,
		Title:     "Deadline Approaching",
		Message:   "Load #9 is approaching its deadline",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, n.Priority)
	assert.NotEqual(t, uuid.Nil, n.ID)
}

func TestMarkRead_EmptyIDsIsNoOp(t *testing.T) {
	svc, repo, _ := newTestService(t)

	count, err := svc.MarkRead(context.Background(), nil, uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, count)
	repo.AssertNotCalled(t, "MarkRead")
}

func TestUnreadCount_GatedByPreferenceMap(t *testing.T) {
	svc, repo, prefRepo := newTestService(t)

	userID, carrierID := uuid.New(), uuid.New()
	repo.On("CountUnreadByType", mock.Anything, userID, carrierID).Return(map[domain.NotificationType]int{
		domain.TypeStatusChange:        3,
		domain.TypeLocationUpdate:      5,
		domain.TypeAssignmentCompleted: 2,
	}, nil)
	prefRepo.On("EnabledMap", mock.Anything, userID, carrierID).Return(map[domain.NotificationType]bool{
		domain.TypeLocationUpdate: false, // muted
		domain.TypeStatusChange:   true,
		// no row for ASSIGNMENT_COMPLETED: counts via fail-open
	}, nil)

	count, err := svc.UnreadCount(context.Background(), userID, carrierID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestUnreadCount_PreferenceErrorFailsOpen(t *testing.T) {
	svc, repo, prefRepo := newTestService(t)

	userID, carrierID := uuid.New(), uuid.New()
	repo.On("CountUnreadByType", mock.Anything, userID, carrierID).
		Return(map[domain.NotificationType]int{domain.TypeStatusChange: 4}, nil)
	prefRepo.On("EnabledMap", mock.Anything, userID, carrierID).
		Return(nil, errors.New("down"))

	count, err := svc.UnreadCount(context.Background(), userID, carrierID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestList_IncludesUnreadBadge(t *testing.T) {
	svc, repo, prefRepo := newTestService(t)

	userID, carrierID := uuid.New(), uuid.New()
	filter := domain.ListFilter{CarrierID: carrierID, UserID: &userID, Limit: 20}

	repo.On("List", mock.Anything, filter).
		Return([]domain.Notification{{Type: domain.TypeStatusChange}}, 41, nil)
	repo.On("CountUnreadByType", mock.Anything, userID, carrierID).
		Return(map[domain.NotificationType]int{domain.TypeStatusChange: 7}, nil)
	prefRepo.On("EnabledMap", mock.Anything, userID, carrierID).
		Return(map[domain.NotificationType]bool{}, nil)

	result, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, 41, result.Total)
	assert.Equal(t, 7, result.UnreadCount)
}

func TestList_BadgeFailureDoesNotFailPage(t *testing.T) {
	svc, repo, prefRepo := newTestService(t)

	userID, carrierID := uuid.New(), uuid.New()
	filter := domain.ListFilter{CarrierID: carrierID, UserID: &userID}

	repo.On("List", mock.Anything, filter).Return([]domain.Notification{}, 0, nil)
	repo.On("CountUnreadByType", mock.Anything, userID, carrierID).
		Return(nil, errors.New("timeout"))
	_ = prefRepo

	result, err := svc.List(context.Background(), filter)
	require.NoError(t, err)
	assert.Zero(t, result.UnreadCount)
}
