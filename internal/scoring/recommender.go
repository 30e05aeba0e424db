// Package scoring ranks automated agents by fitness for a campaign.
//
// The recommender is a pure function over its inputs: a fixed specialization
// matrix, a weighted blend of the agent's historical metrics, and a workload
// penalty from projected capacity. It never mutates state and never errors
// for well-formed input — an empty eligible set yields an empty slice.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/sales440/ivy-ai-platform/internal/domain"
)

// Confidence tiers for a recommendation.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ScoreBreakdown exposes the three factors behind a final score.
type ScoreBreakdown struct {
	Specialization  float64 `json:"specialization"`
	Performance     float64 `json:"performance"`
	WorkloadPenalty float64 `json:"workload_penalty"`
}

// EstimatedPerformance scales the agent's raw historical metrics by the
// specialization match, giving a campaign-specific expectation rather than
// a raw historical average.
type EstimatedPerformance struct {
	ConversionRate float64 `json:"conversion_rate"`
	ROI            float64 `json:"roi"`
	OpenRate       float64 `json:"open_rate"`
}

// AgentRecommendation is one ranked entry in the recommender's output.
type AgentRecommendation struct {
	AgentID    string           `json:"agent_id"`
	AgentName  string           `json:"agent_name"`
	AgentType  domain.AgentType `json:"agent_type"`
	Score      int              `json:"score"`
	Confidence Confidence       `json:"confidence"`
	Breakdown  ScoreBreakdown   `json:"breakdown"`
	Reasoning  []string         `json:"reasoning"`
	Estimated  EstimatedPerformance `json:"estimated_performance"`
}

// Weights configures the recommender's scoring blend. The zero value is not
// usable; call DefaultWeights.
type Weights struct {
	// Performance sub-score normalization ceilings: a metric at the ceiling
	// scores 100 points before weighting.
	ConversionCeiling float64 // percent, e.g. 20
	ROICeiling        float64 // percent, e.g. 1000
	OpenRateCeiling   float64 // percent, e.g. 50
	VolumeCeiling     float64 // sends/period, e.g. 1000

	// SendCapacity is the per-period ceiling used for the workload penalty.
	SendCapacity int
}

// DefaultWeights returns the production scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		ConversionCeiling: 20,
		ROICeiling:        1000,
		OpenRateCeiling:   50,
		VolumeCeiling:     1000,
		SendCapacity:      2000,
	}
}

// Recommender scores agents against campaigns.
type Recommender struct {
	weights Weights
}

// NewRecommender creates a recommender with the given weights. Zero-valued
// ceilings fall back to defaults so a partially-populated config is safe.
func NewRecommender(w Weights) *Recommender {
	d := DefaultWeights()
	if w.ConversionCeiling <= 0 {
		w.ConversionCeiling = d.ConversionCeiling
	}
	if w.ROICeiling <= 0 {
		w.ROICeiling = d.ROICeiling
	}
	if w.OpenRateCeiling <= 0 {
		w.OpenRateCeiling = d.OpenRateCeiling
	}
	if w.VolumeCeiling <= 0 {
		w.VolumeCeiling = d.VolumeCeiling
	}
	if w.SendCapacity <= 0 {
		w.SendCapacity = d.SendCapacity
	}
	return &Recommender{weights: w}
}

// Recommend ranks the eligible agents for the given campaign, best first.
//
// Ordering contract: the sort is stable, so agents with equal final scores
// keep their relative order from the input slice. Tests may rely on this.
// Non-active or disabled agents are skipped; an empty result is a valid
// "no recommendation" outcome, not an error.
func (r *Recommender) Recommend(c domain.CampaignCharacteristics, agents []domain.Agent) []AgentRecommendation {
	recs := make([]AgentRecommendation, 0, len(agents))

	for _, a := range agents {
		if !a.Eligible() {
			continue
		}

		spec := specializationScore(a.Type, c.Type)
		perf := r.performanceScore(a)
		penalty := r.workloadPenalty(a.EmailsSentThisPeriod, c.ExpectedVolume)

		final := spec*0.5 + perf*0.4 + penalty
		final = math.Min(100, math.Max(0, final))

		recs = append(recs, AgentRecommendation{
			AgentID:    a.ID,
			AgentName:  a.Name,
			AgentType:  a.Type,
			Score:      int(math.Round(final)),
			Confidence: confidenceFor(final),
			Breakdown: ScoreBreakdown{
				Specialization:  spec,
				Performance:     math.Round(perf*10) / 10,
				WorkloadPenalty: penalty,
			},
			Reasoning: buildReasoning(a, spec, perf, penalty),
			Estimated: EstimatedPerformance{
				ConversionRate: math.Round(a.ConversionRate*spec/100*100) / 100,
				ROI:            math.Round(a.ROI*spec/100*100) / 100,
				OpenRate:       math.Round(a.OpenRate*spec/100*100) / 100,
			},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	return recs
}

// performanceScore blends the agent's lifetime metrics into a 0-100 score.
// Each normalized sub-score is capped at 100 before weighting. An agent with
// no sends this period has no volume signal, so that factor's weight is
// redistributed across the other three instead of dragging the score down.
func (r *Recommender) performanceScore(a domain.Agent) float64 {
	conv := math.Min(100, a.ConversionRate/r.weights.ConversionCeiling*100)
	roi := math.Min(100, a.ROI/r.weights.ROICeiling*100)
	open := math.Min(100, a.OpenRate/r.weights.OpenRateCeiling*100)

	score := conv*0.4 + roi*0.3 + open*0.2
	if a.EmailsSentThisPeriod > 0 {
		volume := math.Min(100, float64(a.EmailsSentThisPeriod)/r.weights.VolumeCeiling*100)
		score += volume * 0.1
	} else {
		score /= 0.9
	}
	return math.Max(0, math.Min(100, score))
}

// workloadPenalty converts projected load into a score reduction.
func (r *Recommender) workloadPenalty(currentSent, expectedVolume int) float64 {
	projected := float64(currentSent+expectedVolume) / float64(r.weights.SendCapacity)
	switch {
	case projected > 1.0:
		return -30
	case projected > 0.8:
		return -15
	case projected > 0.6:
		return -5
	default:
		return 0
	}
}

func confidenceFor(score float64) Confidence {
	switch {
	case score >= 75:
		return ConfidenceHigh
	case score >= 55:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// buildReasoning derives human-readable sentences from the same thresholds
// that produced the numeric scores. It is purely derivative: no extra data
// source feeds it.
func buildReasoning(a domain.Agent, spec, perf, penalty float64) []string {
	var reasons []string

	switch {
	case spec >= 90:
		reasons = append(reasons, fmt.Sprintf("%s specialization is an excellent match for this campaign type", a.Type))
	case spec >= 70:
		reasons = append(reasons, fmt.Sprintf("%s specialization is a good match for this campaign type", a.Type))
	case spec >= 50:
		reasons = append(reasons, fmt.Sprintf("%s specialization is a moderate match for this campaign type", a.Type))
	default:
		reasons = append(reasons, fmt.Sprintf("%s specialization is a weak match for this campaign type", a.Type))
	}

	switch {
	case perf >= 80:
		reasons = append(reasons, fmt.Sprintf("strong historical performance (%.1f%% conversion, %.0f%% ROI)", a.ConversionRate, a.ROI))
	case perf >= 50:
		reasons = append(reasons, fmt.Sprintf("solid historical performance (%.1f%% conversion, %.0f%% ROI)", a.ConversionRate, a.ROI))
	default:
		reasons = append(reasons, "limited historical performance data for this agent")
	}

	switch {
	case penalty <= -30:
		reasons = append(reasons, "projected volume exceeds this agent's send capacity")
	case penalty <= -15:
		reasons = append(reasons, "agent is near send capacity for this period")
	case penalty <= -5:
		reasons = append(reasons, "agent has elevated load this period")
	default:
		reasons = append(reasons, "agent has available send capacity")
	}

	return reasons
}
