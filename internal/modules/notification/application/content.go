package application

import (
	"fmt"

	"github.com/dkarpov/fleetwire/internal/modules/notification/domain"
)

type Audience string

const (
	AudienceCompany Audience = "company"
	AudienceDriver  Audience = "driver"
)

// Content is the rendered copy for one notification.
type Content struct {
	Title    string
	Message  string
	Priority domain.Priority
}

// typePriorities is the fixed priority per type. URGENT is reserved and not
// assigned by any type today.
var typePriorities = map[domain.NotificationType]domain.Priority{
	domain.TypeAssignmentStarted:   domain.PriorityHigh,
	domain.TypeAssignmentCompleted: domain.PriorityHigh,
	domain.TypeAssignmentUpdated:   domain.PriorityMedium,
	domain.TypeDocumentUploaded:    domain.PriorityMedium,
	domain.TypeDocumentDeleted:     domain.PriorityLow,
	domain.TypeInvoiceApproved:     domain.PriorityMedium,
	domain.TypeLocationUpdate:      domain.PriorityLow,
	domain.TypeStatusChange:        domain.PriorityMedium,
	domain.TypeDeadlineWarning:     domain.PriorityHigh,
}

// PriorityFor returns the fixed priority for a type, MEDIUM for unknown ones.
func PriorityFor(t domain.NotificationType) domain.Priority {
	if p, ok := typePriorities[t]; ok {
		return p
	}
	return domain.PriorityMedium
}

// Render maps (type, context, audience) to human-readable copy. It is pure
// and deterministic: the same inputs always produce the same strings. Any
// missing context field falls back to a generic placeholder instead of
// producing malformed text.
func Render(t domain.NotificationType, ctx map[string]interface{}, audience Audience) Content {
	driver := stringField(ctx, "driverName", "Driver")
	ref := stringField(ctx, "loadNum", stringField(ctx, "orderNumber", "Unknown"))
	doc := stringField(ctx, "documentName", "document")
	from := stringField(ctx, "fromStatus", "Unknown")
	to := stringField(ctx, "toStatus", "Unknown")
	invoice := stringField(ctx, "invoiceNumber", "Unknown")
	amount := stringField(ctx, "amount", "")

	c := Content{Priority: PriorityFor(t)}

	switch t {
	case domain.TypeAssignmentStarted:
		c.Title = "Assignment Started"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("You started load #%s. Drive safe!", ref)
		} else {
			c.Message = fmt.Sprintf("%s started load #%s", driver, ref)
		}
	case domain.TypeAssignmentCompleted:
		c.Title = "Assignment Completed"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("Great work! You completed load #%s.", ref)
		} else {
			c.Message = fmt.Sprintf("%s completed load #%s", driver, ref)
		}
	case domain.TypeAssignmentUpdated:
		c.Title = "Assignment Updated"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("Your assignment for load #%s was updated. Check the details.", ref)
		} else {
			c.Message = fmt.Sprintf("Assignment for load #%s was updated", ref)
		}
	case domain.TypeDocumentUploaded:
		c.Title = "Document Uploaded"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("Your %s for load #%s was received.", doc, ref)
		} else {
			c.Message = fmt.Sprintf("%s uploaded %s for load #%s", driver, doc, ref)
		}
	case domain.TypeDocumentDeleted:
		c.Title = "Document Deleted"
		c.Message = fmt.Sprintf("%s for load #%s was deleted", doc, ref)
	case domain.TypeInvoiceApproved:
		c.Title = "Invoice Approved"
		if amount != "" {
			c.Message = fmt.Sprintf("Invoice %s for %s was approved", invoice, amount)
		} else {
			c.Message = fmt.Sprintf("Invoice %s was approved", invoice)
		}
	case domain.TypeLocationUpdate:
		c.Title = "Location Update"
		c.Message = fmt.Sprintf("%s reported a new location on load #%s", driver, ref)
	case domain.TypeStatusChange:
		c.Title = "Status Changed"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("Load #%s moved from %s to %s. Keep it up!", ref, from, to)
		} else {
			c.Message = fmt.Sprintf("Load #%s changed status from %s to %s", ref, from, to)
		}
	case domain.TypeDeadlineWarning:
		c.Title = "Deadline Approaching"
		if audience == AudienceDriver {
			c.Message = fmt.Sprintf("Heads up: load #%s is due soon.", ref)
		} else {
			c.Message = fmt.Sprintf("Load #%s is approaching its deadline", ref)
		}
	default:
		c.Title = "Notification"
		c.Message = fmt.Sprintf("Update on load #%s", ref)
	}

	return c
}

func stringField(ctx map[string]interface{}, key, fallback string) string {
	if ctx == nil {
		return fallback
	}
	switch v := ctx[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	case float64:
		return fmt.Sprintf("%v", v)
	case int:
		return fmt.Sprintf("%d", v)
	}
	return fallback
}
