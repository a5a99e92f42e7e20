package models

import "time"

// EventKind names a receipt change worth notifying people about.
type EventKind string

const (
	EventItemAdded           EventKind = "item_added"
	EventReceiptClosed       EventKind = "receipt_closed"
	EventParticipationClosed EventKind = "participation_closed"
	EventDeletionRequested   EventKind = "deletion_requested"
	EventDeletionResolved    EventKind = "deletion_resolved"
)

// Event describes a change. Delivery and formatting happen elsewhere.
type Event struct {
	// ID is assigned when the event is written to the outbox.
	ID int64 `json:"id,omitempty"`

	Kind      EventKind `json:"kind"`
	ReceiptID string    `json:"receipt_id"`
	ActorID   string    `json:"actor_id"`

	// ParticipantIDs are the participants affected by the change.
	ParticipantIDs []string `json:"participant_ids"`

	// Detail is a short free-form note, e.g. the item description or
	// the resolution of a deletion request.
	Detail string `json:"detail,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
