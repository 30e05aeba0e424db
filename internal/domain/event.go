package domain

import "time"

// EngagementEventType enumerates the facts recorded in the event ledger.
type EngagementEventType string

const (
	EventSent         EngagementEventType = "sent"
	EventDelivered    EngagementEventType = "delivered"
	EventOpened       EngagementEventType = "opened"
	EventClicked      EngagementEventType = "clicked"
	EventBounced      EngagementEventType = "bounced"
	EventComplained   EngagementEventType = "complained"
	EventUnsubscribed EngagementEventType = "unsubscribed"
)

// ValidEngagementEventType reports whether t is a known event type.
func ValidEngagementEventType(t EngagementEventType) bool {
	switch t {
	case EventSent, EventDelivered, EventOpened, EventClicked, EventBounced, EventComplained, EventUnsubscribed:
		return true
	}
	return false
}

// Terminal reports whether the event forces the enrollment into the
// unsubscribed terminal state.
func (t EngagementEventType) Terminal() bool {
	return t == EventComplained || t == EventUnsubscribed
}

// EngagementEvent is an immutable fact in the append-only ledger. Events are
// never updated or deleted; every derived metric (open rate, days since last
// open) is computed by querying this ledger.
type EngagementEvent struct {
	ID           string              `json:"id" db:"id"`
	EnrollmentID string              `json:"enrollment_id" db:"enrollment_id"`
	ContactID    string              `json:"contact_id" db:"contact_id"`
	StepNumber   int                 `json:"step_number" db:"step_number"`
	EventType    EngagementEventType `json:"event_type" db:"event_type"`
	OccurredAt   time.Time           `json:"occurred_at" db:"occurred_at"`
	ClickedURL   string              `json:"clicked_url,omitempty" db:"clicked_url"`
	Metadata     string              `json:"metadata,omitempty" db:"metadata"`
}
