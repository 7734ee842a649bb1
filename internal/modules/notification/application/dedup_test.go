package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

func TestIsDuplicate_MatchingPayloadSuppressed(t *testing.T) {
	repo := new(mockNotificationRepo)
	policy := NewDedupPolicy(repo, quietLogger())

	userID := uuid.New()
	assignmentID := uuid.New()
	payload := domain.Payload{"loadNum": "42", "driverName": "Ana"}

	repo.On("RecentByKey", mock.Anything, domain.TypeAssignmentCompleted, &assignmentID, userID, 3).
		Return([]domain.Notification{{Data: payload}}, nil)

	dup := policy.IsDuplicate(context.Background(), domain.TypeAssignmentCompleted, &assignmentID, userID, payload)
	assert.True(t, dup)
}

func TestIsDuplicate_DifferentPayloadAllowed(t *testing.T) {
	repo := new(mockNotificationRepo)
	policy := NewDedupPolicy(repo, quietLogger())

	userID := uuid.New()
	assignmentID := uuid.New()

	repo.On("RecentByKey", mock.Anything, domain.TypeDocumentUploaded, &assignmentID, userID, 3).
		Return([]domain.Notification{{Data: domain.Payload{"documentName": "bol.pdf"}}}, nil)

	dup := policy.IsDuplicate(context.Background(), domain.TypeDocumentUploaded, &assignmentID, userID,
		domain.Payload{"documentName": "pod.pdf"})
	assert.False(t, dup)
}

func TestIsDuplicate_NumericTypesNormalized(t *testing.T) {
	repo := new(mockNotificationRepo)
	policy := NewDedupPolicy(repo, quietLogger())

	userID := uuid.New()

	// Stored payloads come back from JSONB with float64 numbers; a fresh
	// event built in Go carries an int. They must still compare equal.
	repo.On("RecentByKey", mock.Anything, domain.TypeDeadlineWarning, (*uuid.UUID)(nil), userID, 3).
		Return([]domain.Notification{{Data: domain.Payload{"hoursLeft": float64(4)}}}, nil)

	dup := policy.IsDuplicate(context.Background(), domain.TypeDeadlineWarning, nil, userID,
		domain.Payload{"hoursLeft": 4})
	assert.True(t, dup)
}

func TestIsDuplicate_StatusChangeExempt(t *testing.T) {
	repo := new(mockNotificationRepo)
	policy := NewDedupPolicy(repo, quietLogger())

	// Rapid identical transitions must all come through; the repo is never
	// even consulted.
	dup := policy.IsDuplicate(context.Background(), domain.TypeStatusChange, nil, uuid.New(),
		domain.Payload{"toStatus": "DELIVERED"})
	assert.False(t, dup)
	repo.AssertNotCalled(t, "RecentByKey")
}

func TestIsDuplicate_LookupErrorFailsOpen(t *testing.T) {
	repo := new(mockNotificationRepo)
	policy := NewDedupPolicy(repo, quietLogger())

	userID := uuid.New()
	repo.On("RecentByKey", mock.Anything, domain.TypeInvoiceApproved, (*uuid.UUID)(nil), userID, 3).
		Return(nil, errors.New("connection reset"))

	dup := policy.IsDuplicate(context.Background(), domain.TypeInvoiceApproved, nil, userID, domain.Payload{})
	assert.False(t, dup)
}

func TestPayloadEqual_KeyOrderIrrelevant(t *testing.T) {
	a := domain.Payload{"x": "1", "y": map[string]interface{}{"z": 2}}
	b := domain.Payload{"y": map[string]interface{}{"z": 2}, "x": "1"}
	assert.True(t, payloadEqual(a, b))
	assert.False(t, payloadEqual(a, domain.Payload{"x": "1"}))
}
