package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

// EventKind names a domain event from the dispatch system.
type EventKind string

const (
	EventAssignmentStarted   EventKind = "assignment.started"
	EventAssignmentCompleted EventKind = "assignment.completed"
	EventAssignmentUpdated   EventKind = "assignment.updated"
	EventDocumentUploaded    EventKind = "document.uploaded"
	EventDocumentDeleted     EventKind = "document.deleted"
	EventStatusChanged       EventKind = "status.changed"
	EventLocationUpdated     EventKind = "location.updated"
	EventInvoiceApproved     EventKind = "invoice.approved"
	EventDeadlineWarning     EventKind = "deadline.warning"
)

// DomainEvent is the generic envelope a business action hands to the
// dispatcher after its own transaction has committed.
type DomainEvent struct {
	Kind      EventKind              `json:"kind"`
	CarrierID uuid.UUID              `json:"carrier_id"`
	DriverID  *uuid.UUID             `json:"driver_id,omitempty"`
	Refs      domain.Refs            `json:"refs"`
	Data      map[string]interface{} `json:"data"`
}

type eventSpec struct {
	ntype        domain.NotificationType
	notifyDriver bool
}

// eventTable is the mechanical mapping from domain events to notification
// types. Adding an event means adding a row here, not another hand-written
// helper.
var eventTable = map[EventKind]eventSpec{
	EventAssignmentStarted:   {domain.TypeAssignmentStarted, true},
	EventAssignmentCompleted: {domain.TypeAssignmentCompleted, true},
	EventAssignmentUpdated:   {domain.TypeAssignmentUpdated, true},
	EventDocumentUploaded:    {domain.TypeDocumentUploaded, false},
	EventDocumentDeleted:     {domain.TypeDocumentDeleted, false},
	EventStatusChanged:       {domain.TypeStatusChange, true},
	EventLocationUpdated:     {domain.TypeLocationUpdate, false},
	EventInvoiceApproved:     {domain.TypeInvoiceApproved, false},
	EventDeadlineWarning:     {domain.TypeDeadlineWarning, true},
}

// Dispatch routes one domain event through the table: a company fan-out
// always happens, and a driver copy is added when the event carries a driver
// and the table says drivers care. Driver-copy failures are best-effort like
// everything else on this path.
func (d *Dispatcher) Dispatch(ctx context.Context, ev DomainEvent) ([]domain.Notification, error) {
	spec, ok := eventTable[ev.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown event kind %q", domain.ErrInvalidNotification, ev.Kind)
	}
	if ev.CarrierID == uuid.Nil {
		return nil, fmt.Errorf("%w: carrier id is required", domain.ErrInvalidNotification)
	}

	created, err := d.NotifyCompany(ctx, spec.ntype, ev.CarrierID, ev.Refs, ev.Data)
	if err != nil {
		return nil, err
	}

	if spec.notifyDriver && ev.DriverID != nil {
		n, err := d.NotifyDriver(ctx, spec.ntype, ev.CarrierID, *ev.DriverID, ev.Refs, ev.Data)
		if err != nil {
			d.log.WithError(err).WithField("kind", ev.Kind).Warn("driver notification failed")
		} else {
			created = append(created, *n)
		}
	}
	return created, nil
}
