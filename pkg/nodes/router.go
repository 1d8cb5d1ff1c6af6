package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// DecisionRouter builds the Decision Router node, computing:
//
//	escalate <- escalate OR !policy_ok OR risk_level in {high,critical}
//	            OR confidence < threshold OR (!feasible AND attempts >= max_attempts)
//
// Escalate is monotonic (SetEscalate never clears a prior reason), and the
// confidence comparison is strict so a confidence exactly at the threshold
// is not escalated by that criterion alone.
func DecisionRouter(threshold float64) pipeline.NodeFunc {
	return func(_ context.Context, s *pipeline.State) error {
		if !s.PolicyOK {
			s.SetEscalate("policy not satisfied")
		}
		if s.RiskLevel == pipeline.RiskHigh || s.RiskLevel == pipeline.RiskCritical {
			s.SetEscalate("risk level " + string(s.RiskLevel) + " requires human review")
		}
		if s.Confidence < threshold {
			s.SetEscalate("confidence below threshold")
		}
		if !s.Feasible && s.Attempts >= s.MaxAttempts {
			s.SetEscalate("infeasible after max attempts")
		}
		return nil
	}
}

// RouteLabel is the edge-predicate label set the Decision Router's outcome
// drives: "escalate" or "proceed". Agents wire this as the conditional
// edge from the router node to either the output generator directly (it
// always leads there) or, for graphs that branch further post-router,
// as a general-purpose label source.
func RouteLabel(s *pipeline.State) string {
	if s.Escalate {
		return "escalate"
	}
	return "proceed"
}
