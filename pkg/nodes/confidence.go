package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// HistoricalSimilarity looks up how similar this request is to prior
// resolved decisions, returning a value in [0,1]. When nil is supplied to
// ConfidenceEstimator the factor defaults to 0.7.
type HistoricalSimilarity func(ctx context.Context, s *pipeline.State) float64

var riskFactor = map[pipeline.RiskLevel]float64{
	pipeline.RiskLow:      1.0,
	pipeline.RiskMedium:   0.8,
	pipeline.RiskHigh:     0.6,
	pipeline.RiskCritical: 0.3,
}

// ConfidenceEstimator builds the Confidence Estimator node, computing the
// weighted scalar:
//
//	confidence = 0.30*data_completeness + 0.30*risk_factor +
//	             0.20*retry_penalty + 0.20*historical_similarity
//
// rounded to two decimals and clamped to [0,1].
func ConfidenceEstimator(historical HistoricalSimilarity) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		total := len(s.ToolResults)
		completeness := 1.0
		if total > 0 {
			successful := 0
			for _, r := range s.ToolResults {
				if r.Error == "" {
					successful++
				}
			}
			completeness = float64(successful) / float64(total)
		}

		rf, ok := riskFactor[s.RiskLevel]
		if !ok {
			rf = riskFactor[pipeline.RiskMedium]
		}

		retryPenalty := 1 - 0.15*float64(s.Attempts)
		if retryPenalty < 0.4 {
			retryPenalty = 0.4
		}

		similarity := 0.7
		if historical != nil {
			similarity = clamp01(historical(ctx, s))
		}

		confidence := 0.30*completeness + 0.30*rf + 0.20*retryPenalty + 0.20*similarity
		confidence = clamp01(round2(confidence))

		s.Confidence = confidence
		s.ConfidenceFactors = map[string]float64{
			"data_completeness":     completeness,
			"risk_factor":           rf,
			"retry_penalty":         retryPenalty,
			"historical_similarity": similarity,
		}
		return nil
	}
}
