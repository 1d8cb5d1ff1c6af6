package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// OutputGenerator builds the Output Generator node, assembling
// state.Response from the upstream verdicts. Escalation always wins;
// otherwise a feasible, policy-compliant plan is recommended, except that
// emergency-priority work is fast-tracked to approve. Anything else is
// denied.
func OutputGenerator() pipeline.NodeFunc {
	return func(_ context.Context, s *pipeline.State) error {
		details := outputDetails(s)

		if s.Escalate {
			s.Response = &pipeline.Response{
				Decision:            pipeline.DecisionEscalate,
				Reason:              s.EscalationReason,
				RequiresHumanReview: true,
				Confidence:          s.Confidence,
				Details:             details,
			}
			return nil
		}

		if s.Feasible && s.PolicyOK {
			decision := pipeline.DecisionRecommend
			if s.InputEvent.Priority == "emergency" {
				decision = pipeline.DecisionApprove
			}
			s.Response = &pipeline.Response{
				Decision:   decision,
				Reason:     s.Goal,
				Confidence: s.Confidence,
				Recommendation: map[string]any{
					"action":      s.Goal,
					"plan":        s.Plan,
					"constraints": s.PolicyViolations,
					"conditions":  s.CoordinationRecommend,
					"confidence":  s.Confidence,
				},
				Details: details,
			}
			return nil
		}

		s.Response = &pipeline.Response{
			Decision:   pipeline.DecisionDeny,
			Reason:     s.FeasibilityReason,
			Confidence: s.Confidence,
			Details:    details,
		}
		return nil
	}
}

func outputDetails(s *pipeline.State) map[string]any {
	return map[string]any{
		"feasible":          s.Feasible,
		"policy_compliant":  s.PolicyOK,
		"risk_level":        string(s.RiskLevel),
		"plan":              s.Plan,
		"tool_results":      s.ToolResults,
		"observations":      s.Observations,
		"feasibility_reason": s.FeasibilityReason,
		"attempts":          s.Attempts,
	}
}
