// Package churn scores how disengaged a contact has become based on their
// aggregated engagement history. The scorer is a pure function over a
// ContactEngagementSnapshot: higher scores mean higher risk of the contact
// going permanently dark.
package churn

import "fmt"

// RiskTier buckets a risk score for routing decisions.
type RiskTier string

const (
	TierLow      RiskTier = "low"
	TierMedium   RiskTier = "medium"
	TierHigh     RiskTier = "high"
	TierCritical RiskTier = "critical"
)

// Component caps. The four components sum to at most 100.
const (
	maxOpenRecencyPoints  = 40
	maxClickRecencyPoints = 25
	maxTrendPoints        = 20
	maxLifetimePoints     = 15
)

// RiskBreakdown exposes how each component contributed to the total.
type RiskBreakdown struct {
	OpenRecency  int `json:"open_recency"`
	ClickRecency int `json:"click_recency"`
	Trend        int `json:"trend"`
	Lifetime     int `json:"lifetime"`
}

// RiskAssessment is the scorer's full output for one contact.
type RiskAssessment struct {
	ContactID           string        `json:"contact_id"`
	Score               int           `json:"score"`
	Tier                RiskTier      `json:"tier"`
	Breakdown           RiskBreakdown `json:"breakdown"`
	PrimaryReason       string        `json:"primary_reason"`
	ContributingFactors []string      `json:"contributing_factors"`
	RecommendedActions  []string      `json:"recommended_actions"`
}

// ShouldTriggerReactivation reports whether the contact belongs in a
// reactivation sequence. Only high and critical tiers qualify; medium risk
// is handled by normal cadence adjustments.
func (a *RiskAssessment) ShouldTriggerReactivation() bool {
	return a.Tier == TierHigh || a.Tier == TierCritical
}

// Score evaluates one snapshot. It never returns an error: a contact with
// no history scores as maximally stale (recency gaps of MaxGapDays), which
// is the conservative reading for an unknown contact.
func Score(snap *ContactEngagementSnapshot) *RiskAssessment {
	b := RiskBreakdown{
		OpenRecency:  openRecencyPoints(snap.DaysSinceLastOpen),
		ClickRecency: clickRecencyPoints(snap.DaysSinceLastClick),
		Trend:        trendPoints(snap),
		Lifetime:     lifetimePoints(snap),
	}

	total := b.OpenRecency + b.ClickRecency + b.Trend + b.Lifetime
	tier := tierFor(total)

	return &RiskAssessment{
		ContactID:           snap.ContactID,
		Score:               total,
		Tier:                tier,
		Breakdown:           b,
		PrimaryReason:       primaryReason(snap, b),
		ContributingFactors: contributingFactors(snap, b),
		RecommendedActions:  recommendedActions(tier, snap),
	}
}

func openRecencyPoints(days int) int {
	switch {
	case days >= 60:
		return maxOpenRecencyPoints
	case days >= 45:
		return 30
	case days >= 30:
		return 20
	case days >= 15:
		return 10
	default:
		return 0
	}
}

func clickRecencyPoints(days int) int {
	switch {
	case days >= 90:
		return maxClickRecencyPoints
	case days >= 60:
		return 20
	case days >= 45:
		return 15
	case days >= 30:
		return 10
	default:
		return 0
	}
}

func trendPoints(snap *ContactEngagementSnapshot) int {
	points := 0
	if snap.OpenRateTrend == TrendDeclining {
		points += 10
	}
	if snap.ClickRateTrend == TrendDeclining {
		points += 10
	}
	return points
}

func lifetimePoints(snap *ContactEngagementSnapshot) int {
	points := 0
	switch {
	case snap.LifetimeOpenRate < 10:
		points += 10
	case snap.LifetimeOpenRate < 20:
		points += 5
	}
	if snap.LifetimeClickRate < 5 {
		points += 5
	}
	if points > maxLifetimePoints {
		points = maxLifetimePoints
	}
	return points
}

func tierFor(score int) RiskTier {
	switch {
	case score >= 75:
		return TierCritical
	case score >= 50:
		return TierHigh
	case score >= 25:
		return TierMedium
	default:
		return TierLow
	}
}

// primaryReason picks the single loudest signal, in fixed priority order:
// open recency, click recency, declining trend, weak lifetime engagement.
func primaryReason(snap *ContactEngagementSnapshot, b RiskBreakdown) string {
	switch {
	case b.OpenRecency >= 30:
		if snap.DaysSinceLastOpen >= MaxGapDays {
			return "has never opened an email"
		}
		return fmt.Sprintf("no opens in %d days", snap.DaysSinceLastOpen)
	case b.ClickRecency >= 20:
		if snap.DaysSinceLastClick >= MaxGapDays {
			return "has never clicked a link"
		}
		return fmt.Sprintf("no clicks in %d days", snap.DaysSinceLastClick)
	case b.Trend >= 10:
		return "engagement rates are declining"
	case b.Lifetime >= 5:
		return "lifetime engagement is weak"
	default:
		return "contact is engaging normally"
	}
}

func contributingFactors(snap *ContactEngagementSnapshot, b RiskBreakdown) []string {
	var factors []string

	if b.OpenRecency > 0 {
		if snap.DaysSinceLastOpen >= MaxGapDays {
			factors = append(factors, "never opened")
		} else {
			factors = append(factors, fmt.Sprintf("last open %d days ago", snap.DaysSinceLastOpen))
		}
	}
	if b.ClickRecency > 0 {
		if snap.DaysSinceLastClick >= MaxGapDays {
			factors = append(factors, "never clicked")
		} else {
			factors = append(factors, fmt.Sprintf("last click %d days ago", snap.DaysSinceLastClick))
		}
	}
	if snap.OpenRateTrend == TrendDeclining {
		factors = append(factors, "open rate trending down")
	}
	if snap.ClickRateTrend == TrendDeclining {
		factors = append(factors, "click rate trending down")
	}
	if snap.LifetimeOpenRate < 20 {
		factors = append(factors, fmt.Sprintf("lifetime open rate %.1f%%", snap.LifetimeOpenRate))
	}
	if snap.LifetimeClickRate < 5 {
		factors = append(factors, fmt.Sprintf("lifetime click rate %.1f%%", snap.LifetimeClickRate))
	}
	return factors
}

func recommendedActions(tier RiskTier, snap *ContactEngagementSnapshot) []string {
	var actions []string
	switch tier {
	case TierCritical:
		actions = append(actions,
			"enroll in reactivation sequence",
			"pause all other active sequences",
			"flag for list hygiene review if reactivation fails")
	case TierHigh:
		actions = append(actions,
			"enroll in reactivation sequence",
			"reduce send frequency until engagement recovers")
	case TierMedium:
		actions = append(actions,
			"switch to lighter-touch content",
			"retest send time and subject style")
	default:
		actions = append(actions, "no action needed")
	}
	if tier != TierLow && snap.DaysSinceLastOpen >= MaxGapDays {
		actions = append(actions, "verify the email address is deliverable")
	}
	return actions
}
