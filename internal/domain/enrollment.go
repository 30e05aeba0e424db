package domain

import "time"

// EnrollmentStatus enumerates the states of the sequence state machine.
// Completed and unsubscribed are terminal.
type EnrollmentStatus string

const (
	EnrollmentActive       EnrollmentStatus = "active"
	EnrollmentPaused       EnrollmentStatus = "paused"
	EnrollmentCompleted    EnrollmentStatus = "completed"
	EnrollmentUnsubscribed EnrollmentStatus = "unsubscribed"
)

// StepTimestamps holds the per-step engagement timestamps for one enrollment.
// OpenedAt/ClickedAt capture the first occurrence only; later duplicates live
// in the event ledger but never overwrite these.
type StepTimestamps struct {
	StepNumber int        `json:"step_number"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
	ClickedAt  *time.Time `json:"clicked_at,omitempty"`
}

// Enrollment is one contact's progress through one campaign sequence.
//
// Invariants:
//   - 0 <= CurrentStep <= total steps of the campaign
//   - CurrentStep never decreases
//   - Status == completed implies CurrentStep == total steps and CompletedAt set
//   - Status == unsubscribed is terminal and halts all further sends
type Enrollment struct {
	ID           string           `json:"id" db:"id"`
	ContactID    string           `json:"contact_id" db:"contact_id"`
	CampaignID   string           `json:"campaign_id" db:"campaign_id"`
	CampaignName string           `json:"campaign_name" db:"campaign_name"`
	CurrentStep  int              `json:"current_step" db:"current_step"`
	Status       EnrollmentStatus `json:"status" db:"status"`
	Steps        []StepTimestamps `json:"steps"`
	NextSendAt   *time.Time       `json:"next_send_at,omitempty" db:"next_send_at"`
	EnrolledAt   time.Time        `json:"enrolled_at" db:"enrolled_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// IsTerminal reports whether the enrollment can never be advanced again.
func (e *Enrollment) IsTerminal() bool {
	return e.Status == EnrollmentCompleted || e.Status == EnrollmentUnsubscribed
}

// StepState returns the timestamp record for the given 1-indexed step,
// creating nothing; ok is false if the step has no record yet.
func (e *Enrollment) StepState(n int) (StepTimestamps, bool) {
	for _, s := range e.Steps {
		if s.StepNumber == n {
			return s, true
		}
	}
	return StepTimestamps{}, false
}
