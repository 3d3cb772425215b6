package audit

import (
	"time"

	id "bidrag/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance for the case
	// file. They must be persisted before the operation is reported as done.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine access that is useful for debugging
	// and can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	CaseID    id.CaseID     `json:"case_id"`
	// Subject is the role the action concerns, usually a søknadsbarn.
	Subject string `json:"subject,omitempty"`
	Action  string `json:"action"`
	// Decision carries the new value, Reason the value it replaced.
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	// ActorID is the caseworker (saksbehandler) ident.
	ActorID string `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	EventCessationDateSet     AuditEvent = "cessation_date_set"
	EventCessationDateCleared AuditEvent = "cessation_date_cleared"
	EventCaseViewed           AuditEvent = "case_viewed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventCessationDateSet:     CategoryCompliance,
	EventCessationDateCleared: CategoryCompliance,
	EventCaseViewed:           CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
