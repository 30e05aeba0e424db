package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

func activeAgent(id string, t domain.AgentType) domain.Agent {
	return domain.Agent{
		ID:     id,
		Name:   "Agent " + id,
		Type:   t,
		Status: domain.AgentActive,
	}
}

func TestRecommendColdOutreachProspector(t *testing.T) {
	// A prospector with ceiling-level metrics and zero load:
	// specialization 95, performance 100, no penalty -> 95*0.5 + 100*0.4 = 87.5.
	a := activeAgent("a1", domain.AgentProspector)
	a.ConversionRate = 20
	a.ROI = 1000
	a.OpenRate = 50
	a.EmailsSentThisPeriod = 0

	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignColdOutreach}, []domain.Agent{a})

	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, 88, rec.Score)
	assert.Equal(t, ConfidenceHigh, rec.Confidence)
	assert.Equal(t, 95.0, rec.Breakdown.Specialization)
	assert.Equal(t, 100.0, rec.Breakdown.Performance)
	assert.Equal(t, 0.0, rec.Breakdown.WorkloadPenalty)
	assert.Len(t, rec.Reasoning, 3)
}

func TestRecommendVolumeFactorWeighted(t *testing.T) {
	// With send history the volume factor participates at weight 0.1:
	// sub-scores 100/100/100/10 blend to 91, final 95*0.5 + 91*0.4 = 83.9 -> 84.
	a := activeAgent("a1", domain.AgentProspector)
	a.ConversionRate = 20
	a.ROI = 1000
	a.OpenRate = 50
	a.EmailsSentThisPeriod = 100

	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignColdOutreach}, []domain.Agent{a})

	require.Len(t, recs, 1)
	assert.Equal(t, 84, recs[0].Score)
	assert.Equal(t, ConfidenceHigh, recs[0].Confidence)
}

func TestRecommendSkipsIneligibleAgents(t *testing.T) {
	paused := activeAgent("p1", domain.AgentCloser)
	paused.Status = domain.AgentPaused
	errored := activeAgent("e1", domain.AgentCloser)
	errored.Status = domain.AgentError
	disabled := activeAgent("d1", domain.AgentCloser)
	disabled.Disabled = true

	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignConversion},
		[]domain.Agent{paused, errored, disabled})

	assert.Empty(t, recs)
}

func TestRecommendEmptyInputIsNotAnError(t *testing.T) {
	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignNurture}, nil)
	assert.Empty(t, recs)
}

func TestRecommendWorkloadPenaltyTiers(t *testing.T) {
	r := NewRecommender(DefaultWeights()) // capacity 2000

	cases := []struct {
		name     string
		sent     int
		expected int
		penalty  float64
	}{
		{"under 60 percent", 1000, 0, 0},
		{"over 60 percent", 1300, 0, -5},
		{"over 80 percent", 1700, 0, -15},
		{"over capacity", 1500, 600, -30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := activeAgent("a1", domain.AgentProspector)
			a.EmailsSentThisPeriod = tc.sent
			recs := r.Recommend(domain.CampaignCharacteristics{
				Type:           domain.CampaignColdOutreach,
				ExpectedVolume: tc.expected,
			}, []domain.Agent{a})
			require.Len(t, recs, 1)
			assert.Equal(t, tc.penalty, recs[0].Breakdown.WorkloadPenalty)
		})
	}
}

func TestRecommendRankingAndStableTies(t *testing.T) {
	// Two identical closers tie exactly; input order must be preserved.
	first := activeAgent("first", domain.AgentCloser)
	second := activeAgent("second", domain.AgentCloser)
	weak := activeAgent("weak", domain.AgentExpander) // specialization 70 for conversion

	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignConversion},
		[]domain.Agent{weak, first, second})

	require.Len(t, recs, 3)
	assert.Equal(t, "first", recs[0].AgentID)
	assert.Equal(t, "second", recs[1].AgentID)
	assert.Equal(t, "weak", recs[2].AgentID)
	assert.GreaterOrEqual(t, recs[0].Score, recs[1].Score)
}

func TestRecommendScoreBounds(t *testing.T) {
	r := NewRecommender(DefaultWeights())

	// Overloaded weak match should clamp at 0, not go negative.
	bad := activeAgent("bad", domain.AgentExpander)
	bad.EmailsSentThisPeriod = 5000

	// Ceiling-busting metrics must cap sub-scores at 100.
	great := activeAgent("great", domain.AgentProspector)
	great.ConversionRate = 80
	great.ROI = 9000
	great.OpenRate = 95
	great.EmailsSentThisPeriod = 1000

	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignColdOutreach},
		[]domain.Agent{bad, great})
	require.Len(t, recs, 2)
	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.Score, 0)
		assert.LessOrEqual(t, rec.Score, 100)
	}
	assert.Equal(t, 100.0, recs[0].Breakdown.Performance)
}

func TestRecommendUnknownCombinationDefaultsNeutral(t *testing.T) {
	a := activeAgent("a1", domain.AgentType("experimental"))
	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignNurture}, []domain.Agent{a})

	require.Len(t, recs, 1)
	assert.Equal(t, neutralSpecialization, recs[0].Breakdown.Specialization)
}

func TestEstimatedPerformanceScalesBySpecialization(t *testing.T) {
	a := activeAgent("a1", domain.AgentProspector)
	a.ConversionRate = 10
	a.ROI = 500
	a.OpenRate = 40

	r := NewRecommender(DefaultWeights())
	recs := r.Recommend(domain.CampaignCharacteristics{Type: domain.CampaignColdOutreach}, []domain.Agent{a})

	require.Len(t, recs, 1)
	est := recs[0].Estimated
	assert.InDelta(t, 9.5, est.ConversionRate, 0.001)  // 10 * 95/100
	assert.InDelta(t, 475.0, est.ROI, 0.001)           // 500 * 95/100
	assert.InDelta(t, 38.0, est.OpenRate, 0.001)       // 40 * 95/100
}
