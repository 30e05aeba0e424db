package churn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreCriticallyDisengagedContact(t *testing.T) {
	snap := &ContactEngagementSnapshot{
		ContactID:          "contact-1",
		DaysSinceLastOpen:  65,
		DaysSinceLastClick: 90,
		DaysSinceLastReply: MaxGapDays,
		OpenRateTrend:      TrendDeclining,
		ClickRateTrend:     TrendDeclining,
		LifetimeOpenRate:   13.3,
		LifetimeClickRate:  6.0,
		TotalSent:          120,
	}

	a := Score(snap)

	assert.Equal(t, 90, a.Score)
	assert.Equal(t, TierCritical, a.Tier)
	assert.Equal(t, 40, a.Breakdown.OpenRecency)
	assert.Equal(t, 25, a.Breakdown.ClickRecency)
	assert.Equal(t, 20, a.Breakdown.Trend)
	assert.Equal(t, 5, a.Breakdown.Lifetime)
	assert.True(t, a.ShouldTriggerReactivation())
	assert.Equal(t, "no opens in 65 days", a.PrimaryReason)
	assert.Contains(t, a.ContributingFactors, "open rate trending down")
	assert.Contains(t, a.RecommendedActions, "enroll in reactivation sequence")
}

func TestScoreHealthyContact(t *testing.T) {
	snap := &ContactEngagementSnapshot{
		ContactID:          "contact-2",
		DaysSinceLastOpen:  2,
		DaysSinceLastClick: 5,
		DaysSinceLastReply: 12,
		OpenRateTrend:      TrendStable,
		ClickRateTrend:     TrendIncreasing,
		LifetimeOpenRate:   42.0,
		LifetimeClickRate:  9.5,
		TotalSent:          200,
	}

	a := Score(snap)

	assert.Equal(t, 0, a.Score)
	assert.Equal(t, TierLow, a.Tier)
	assert.False(t, a.ShouldTriggerReactivation())
	assert.Equal(t, "contact is engaging normally", a.PrimaryReason)
	assert.Empty(t, a.ContributingFactors)
	assert.Equal(t, []string{"no action needed"}, a.RecommendedActions)
}

func TestScoreNeverSeenContact(t *testing.T) {
	// A contact with no events at all carries sentinel recency gaps from
	// the aggregation layer and should score as fully stale.
	snap := &ContactEngagementSnapshot{
		ContactID:          "contact-3",
		DaysSinceLastOpen:  MaxGapDays,
		DaysSinceLastClick: MaxGapDays,
		DaysSinceLastReply: MaxGapDays,
		OpenRateTrend:      TrendStable,
		ClickRateTrend:     TrendStable,
		LifetimeOpenRate:   0,
		LifetimeClickRate:  0,
		TotalSent:          8,
	}

	a := Score(snap)

	assert.Equal(t, 80, a.Score) // 40 + 25 + 0 + 15
	assert.Equal(t, TierCritical, a.Tier)
	assert.Equal(t, "has never opened an email", a.PrimaryReason)
	assert.Contains(t, a.ContributingFactors, "never opened")
	assert.Contains(t, a.ContributingFactors, "never clicked")
	assert.Contains(t, a.RecommendedActions, "verify the email address is deliverable")
}

func TestScoreRecencyBrackets(t *testing.T) {
	cases := []struct {
		name       string
		open       int
		click      int
		wantOpen   int
		wantClick  int
		wantTier   RiskTier
		wantReact  bool
	}{
		{"fresh", 3, 10, 0, 0, TierLow, false},
		{"two weeks stale", 16, 25, 10, 0, TierLow, false},
		{"month stale", 35, 50, 20, 15, TierMedium, false},
		{"six weeks stale", 46, 65, 30, 20, TierHigh, true},
		{"deeply stale", 70, 95, 40, 25, TierHigh, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Score(&ContactEngagementSnapshot{
				ContactID:          "contact-4",
				DaysSinceLastOpen:  tc.open,
				DaysSinceLastClick: tc.click,
				OpenRateTrend:      TrendStable,
				ClickRateTrend:     TrendStable,
				LifetimeOpenRate:   30,
				LifetimeClickRate:  8,
			})
			assert.Equal(t, tc.wantOpen, a.Breakdown.OpenRecency)
			assert.Equal(t, tc.wantClick, a.Breakdown.ClickRecency)
			assert.Equal(t, tc.wantTier, a.Tier)
			assert.Equal(t, tc.wantReact, a.ShouldTriggerReactivation())
		})
	}
}

func TestScoreLifetimeComponentCap(t *testing.T) {
	// Very weak lifetime rates trip both lifetime penalties but the
	// component stays within its cap.
	a := Score(&ContactEngagementSnapshot{
		ContactID:         "contact-5",
		LifetimeOpenRate:  4.0,
		LifetimeClickRate: 1.0,
	})
	assert.Equal(t, 15, a.Breakdown.Lifetime)
	require.LessOrEqual(t, a.Score, 100)
}

func TestScoreTierBoundaries(t *testing.T) {
	assert.Equal(t, TierLow, tierFor(24))
	assert.Equal(t, TierMedium, tierFor(25))
	assert.Equal(t, TierMedium, tierFor(49))
	assert.Equal(t, TierHigh, tierFor(50))
	assert.Equal(t, TierHigh, tierFor(74))
	assert.Equal(t, TierCritical, tierFor(75))
}

func TestScorePrimaryReasonPriority(t *testing.T) {
	// Declining trends alone, without recency staleness, surface the
	// trend as the primary reason.
	a := Score(&ContactEngagementSnapshot{
		ContactID:          "contact-6",
		DaysSinceLastOpen:  3,
		DaysSinceLastClick: 6,
		OpenRateTrend:      TrendDeclining,
		ClickRateTrend:     TrendDeclining,
		LifetimeOpenRate:   25,
		LifetimeClickRate:  6,
	})
	assert.Equal(t, "engagement rates are declining", a.PrimaryReason)
	assert.Equal(t, TierLow, a.Tier)
}
