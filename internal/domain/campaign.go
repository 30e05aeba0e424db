package domain

import (
	"fmt"
	"time"
)

// CampaignType enumerates the supported outreach motions.
type CampaignType string

const (
	CampaignColdOutreach CampaignType = "cold_outreach"
	CampaignNurture      CampaignType = "nurture"
	CampaignConversion   CampaignType = "conversion"
	CampaignReactivation CampaignType = "reactivation"
	CampaignUpsell       CampaignType = "upsell"
)

// ValidCampaignType reports whether t is a known campaign type.
func ValidCampaignType(t CampaignType) bool {
	switch t {
	case CampaignColdOutreach, CampaignNurture, CampaignConversion, CampaignReactivation, CampaignUpsell:
		return true
	}
	return false
}

// CampaignPriority orders campaigns for scheduling decisions.
type CampaignPriority string

const (
	PriorityLow    CampaignPriority = "low"
	PriorityMedium CampaignPriority = "medium"
	PriorityHigh   CampaignPriority = "high"
)

// SequenceStep is one ordered stage of a campaign. Steps are 1-indexed and
// contiguous; DelayHours is the wait before this step becomes due, measured
// from the previous step's send (0 for step 1 means send immediately).
type SequenceStep struct {
	Number     int    `json:"number" db:"step_number"`
	Subject    string `json:"subject" db:"subject"`
	Template   string `json:"template" db:"template"`
	DelayHours int    `json:"delay_hours" db:"delay_hours"`
}

// Campaign is a named outreach effort with an ordered email sequence.
type Campaign struct {
	ID             string           `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Type           CampaignType     `json:"type" db:"type"`
	Industry       string           `json:"industry,omitempty" db:"industry"`
	ExpectedVolume int              `json:"expected_volume" db:"expected_volume"`
	Priority       CampaignPriority `json:"priority" db:"priority"`
	Steps          []SequenceStep   `json:"steps" db:"steps"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// TotalSteps returns the length of the campaign's sequence.
func (c *Campaign) TotalSteps() int { return len(c.Steps) }

// Step returns the step with the given 1-indexed number.
func (c *Campaign) Step(n int) (SequenceStep, bool) {
	if n < 1 || n > len(c.Steps) {
		return SequenceStep{}, false
	}
	return c.Steps[n-1], true
}

// ValidateSteps enforces contiguous 1-indexed step ordering with no gaps.
func (c *Campaign) ValidateSteps() error {
	for i, s := range c.Steps {
		if s.Number != i+1 {
			return fmt.Errorf("step %d has number %d, want %d (steps must be contiguous from 1)", i, s.Number, i+1)
		}
		if s.DelayHours < 0 {
			return fmt.Errorf("step %d has negative delay", s.Number)
		}
	}
	return nil
}

// CampaignCharacteristics is the scoring view of a campaign: the fields the
// agent recommender needs, decoupled from the persisted Campaign record so
// callers can score hypothetical campaigns before creating them.
type CampaignCharacteristics struct {
	Type           CampaignType     `json:"type"`
	Industry       string           `json:"industry,omitempty"`
	ExpectedVolume int              `json:"expected_volume"`
	Priority       CampaignPriority `json:"priority"`
}
