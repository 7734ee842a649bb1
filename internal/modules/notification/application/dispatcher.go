package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// locationUpdateTTL keeps location pings out of feeds once they are stale.
const locationUpdateTTL = time.Hour

// RecipientOutcome records what happened for one recipient during a company
// fan-out. The public contract only needs the created notifications; the
// outcome batch exists for logging and tests.
type RecipientOutcome struct {
	UserID       uuid.UUID
	Skipped      bool
	SkipReason   string
	Err          error
	Notification *domain.Notification
}

// Dispatcher turns domain events into persisted notifications. Delivery is
// best-effort: a failure for one recipient never aborts the others, and the
// caller's business transaction must never depend on the outcome.
type Dispatcher struct {
	store      domain.NotificationRepository
	deliveries domain.DeliveryRepository
	directory  domain.UserDirectory
	gate       *PreferenceService
	dedup      *DedupPolicy
	log        *logrus.Logger
}

func NewDispatcher(
	store domain.NotificationRepository,
	deliveries domain.DeliveryRepository,
	directory domain.UserDirectory,
	gate *PreferenceService,
	dedup *DedupPolicy,
	log *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:      store,
		deliveries: deliveries,
		directory:  directory,
		gate:       gate,
		dedup:      dedup,
		log:        log,
	}
}

// NotifyCompany fans one event out to every enabled user in the carrier.
// Disabled and duplicate recipients are skipped silently; per-recipient
// failures are logged and swallowed. Returns only the notifications actually
// created.
func (d *Dispatcher) NotifyCompany(ctx context.Context, t domain.NotificationType, carrierID uuid.UUID, refs domain.Refs, data map[string]interface{}) ([]domain.Notification, error) {
	userIDs, err := d.directory.ListUserIDsByCarrier(ctx, carrierID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]RecipientOutcome, 0, len(userIDs))
	created := make([]domain.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		outcome := d.notifyOne(ctx, t, carrierID, userID, refs, data)
		outcomes = append(outcomes, outcome)
		if outcome.Notification != nil {
			created = append(created, *outcome.Notification)
		}
	}

	for _, o := range outcomes {
		if o.Err != nil {
			d.log.WithError(o.Err).WithFields(logrus.Fields{
				"type": t, "user_id": o.UserID, "carrier_id": carrierID,
			}).Warn("notification create failed for recipient")
		}
	}
	return created, nil
}

func (d *Dispatcher) notifyOne(ctx context.Context, t domain.NotificationType, carrierID, userID uuid.UUID, refs domain.Refs, data map[string]interface{}) RecipientOutcome {
	outcome := RecipientOutcome{UserID: userID}

	if !d.gate.IsEnabled(ctx, userID, carrierID, t) {
		outcome.Skipped = true
		outcome.SkipReason = "preference_disabled"
		notificationsSuppressed.WithLabelValues(string(t), "preference").Inc()
		return outcome
	}

	payload := domain.Payload(data)
	if d.dedup.IsDuplicate(ctx, t, refs.AssignmentID, userID, payload) {
		outcome.Skipped = true
		outcome.SkipReason = "duplicate"
		notificationsSuppressed.WithLabelValues(string(t), "duplicate").Inc()
		return outcome
	}

	content := Render(t, data, AudienceCompany)
	n := d.build(t, carrierID, refs, payload, content)
	n.UserID = &userID

	if err := d.persist(ctx, n); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Notification = n
	return outcome
}

// NotifyDriver always creates: driver notifications are never preference-
// gated and skip the dedup check. The row is flagged forDriver so company
// feeds exclude it.
func (d *Dispatcher) NotifyDriver(ctx context.Context, t domain.NotificationType, carrierID, driverID uuid.UUID, refs domain.Refs, data map[string]interface{}) (*domain.Notification, error) {
	payload := domain.Payload{}
	for k, v := range data {
		payload[k] = v
	}
	payload["forDriver"] = true

	content := Render(t, data, AudienceDriver)
	n := d.build(t, carrierID, refs, payload, content)
	n.DriverID = &driverID

	if err := d.persist(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (d *Dispatcher) build(t domain.NotificationType, carrierID uuid.UUID, refs domain.Refs, payload domain.Payload, content Content) *domain.Notification {
	now := time.Now()
	n := &domain.Notification{
		ID:           uuid.New(),
		CarrierID:    carrierID,
		Type:         t,
		Priority:     content.Priority,
		Title:        content.Title,
		Message:      content.Message,
		Data:         payload,
		LoadID:       refs.LoadID,
		AssignmentID: refs.AssignmentID,
		RouteLegID:   refs.RouteLegID,
		InvoiceID:    refs.InvoiceID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if t == domain.TypeLocationUpdate {
		expires := now.Add(locationUpdateTTL)
		n.ExpiresAt = &expires
	}
	return n
}

func (d *Dispatcher) persist(ctx context.Context, n *domain.Notification) error {
	if err := d.store.Create(ctx, n); err != nil {
		return err
	}
	notificationsCreated.WithLabelValues(string(n.Type)).Inc()

	// Satellite record; in_app is considered delivered once the row exists.
	delivery := &domain.Delivery{
		ID:             uuid.New(),
		NotificationID: n.ID,
		Channel:        domain.ChannelInApp,
		Status:         domain.DeliveryDelivered,
		CreatedAt:      time.Now(),
	}
	if err := d.deliveries.Record(ctx, delivery); err != nil {
		d.log.WithError(err).Warn("delivery record write failed")
	}
	return nil
}
