package churn

import "context"

// Trend is a categorical direction of an engagement rate over time, derived
// by comparing the most recent sub-window against the prior one.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendStable     Trend = "stable"
	TrendDeclining  Trend = "declining"
)

// MaxGapDays is the sentinel gap used when a contact has never produced an
// event of a given type. It exceeds every scoring threshold so the contact
// is scored as fully disengaged rather than favorably.
const MaxGapDays = 9999

// ContactEngagementSnapshot is the aggregated view of one contact's event
// ledger that the scorer consumes. It is produced by a SnapshotSource, never
// by the scorer itself; the scorer stays a pure function over this struct.
type ContactEngagementSnapshot struct {
	ContactID string `json:"contact_id"`

	// Recency gaps in whole days, computed as now minus the most recent
	// event of each type. MaxGapDays when no such event exists.
	DaysSinceLastOpen  int `json:"days_since_last_open"`
	DaysSinceLastClick int `json:"days_since_last_click"`
	DaysSinceLastReply int `json:"days_since_last_reply"`

	// Trends over the trailing window split into two sub-windows.
	OpenRateTrend  Trend `json:"open_rate_trend"`
	ClickRateTrend Trend `json:"click_rate_trend"`

	// Lifetime ratios over all sent events for the contact, as percentages.
	LifetimeOpenRate  float64 `json:"lifetime_open_rate"`
	LifetimeClickRate float64 `json:"lifetime_click_rate"`
	LifetimeReplyRate float64 `json:"lifetime_reply_rate"`

	TotalSent int `json:"total_sent"`
}

// SnapshotSource aggregates the engagement event ledger into a snapshot for
// one contact. Implementations live in the repository layer; tests use
// hand-built snapshots directly.
type SnapshotSource interface {
	EngagementSnapshot(ctx context.Context, contactID string) (*ContactEngagementSnapshot, error)
}
