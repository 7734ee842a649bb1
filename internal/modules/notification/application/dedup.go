package application

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// dedupWindow is how many recent same-key notifications are checked for a
// payload match before creating a new one.
const dedupWindow = 3

// DedupPolicy suppresses accidental repeats, e.g. a retried form post that
// fires the same domain event twice.
type DedupPolicy struct {
	repo domain.NotificationRepository
	log  *logrus.Logger
}

func NewDedupPolicy(repo domain.NotificationRepository, log *logrus.Logger) *DedupPolicy {
	return &DedupPolicy{repo: repo, log: log}
}

// IsDuplicate reports whether a candidate payload matches any of the most
// recent notifications with the same (type, assignment, user) key.
// STATUS_CHANGE is never deduplicated: every legitimate status transition
// must produce a notification, however rapid. A store error is treated as
// "not a duplicate" so a lookup failure never blocks delivery.
func (d *DedupPolicy) IsDuplicate(ctx context.Context, t domain.NotificationType, assignmentID *uuid.UUID, userID uuid.UUID, payload domain.Payload) bool {
	if t == domain.TypeStatusChange {
		return false
	}

	recent, err := d.repo.RecentByKey(ctx, t, assignmentID, userID, dedupWindow)
	if err != nil {
		d.log.WithError(err).Warn("dedup lookup failed, treating as novel")
		return false
	}

	for i := range recent {
		if payloadEqual(recent[i].Data, payload) {
			return true
		}
	}
	return false
}

// payloadEqual compares two payloads structurally. Both sides are normalized
// through JSON first so that a freshly built map (with Go ints, nested
// structs) compares equal to the same payload read back from the store
// (where every number is a float64). Key order never matters.
func payloadEqual(a, b domain.Payload) bool {
	na, err := normalize(a)
	if err != nil {
		return false
	}
	nb, err := normalize(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func normalize(p domain.Payload) (interface{}, error) {
	if p == nil {
		p = domain.Payload{}
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
