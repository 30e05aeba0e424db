package domain

import "time"

// AgentType enumerates the fixed set of agent specializations.
type AgentType string

const (
	AgentProspector  AgentType = "prospector"   // cold outreach and list activation
	AgentNurturer    AgentType = "nurturer"     // drip education and relationship building
	AgentCloser      AgentType = "closer"       // conversion-focused sequences
	AgentReactivator AgentType = "reactivator"  // win-back of disengaged contacts
	AgentExpander    AgentType = "expander"     // upsell and account growth
)

// AllAgentTypes returns every known specialization, in a stable order.
func AllAgentTypes() []AgentType {
	return []AgentType{AgentProspector, AgentNurturer, AgentCloser, AgentReactivator, AgentExpander}
}

// AgentStatus enumerates the lifecycle states of an automated agent.
// Transitions are externally driven; the scorer only reads them.
type AgentStatus string

const (
	AgentActive AgentStatus = "active"
	AgentIdle   AgentStatus = "idle"
	AgentPaused AgentStatus = "paused"
	AgentError  AgentStatus = "error"
)

// Agent is an automated persona capable of running campaigns. Lifetime
// metrics are updated whenever a campaign execution reports outcomes.
// Agents referenced by enrollment history are soft-disabled, never deleted.
type Agent struct {
	ID     string      `json:"id" db:"id"`
	Name   string      `json:"name" db:"name"`
	Type   AgentType   `json:"type" db:"type"`
	Status AgentStatus `json:"status" db:"status"`

	// Lifetime performance metrics. Rates are percentages (20 = 20%).
	ConversionRate       float64 `json:"conversion_rate" db:"conversion_rate"`
	ROI                  float64 `json:"roi" db:"roi"`
	OpenRate             float64 `json:"open_rate" db:"open_rate"`
	EmailsSentThisPeriod int     `json:"emails_sent_this_period" db:"emails_sent_this_period"`

	Disabled  bool      `json:"disabled" db:"disabled"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Eligible reports whether the agent can be recommended for new work.
func (a *Agent) Eligible() bool {
	return a.Status == AgentActive && !a.Disabled
}
