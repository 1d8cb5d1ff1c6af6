package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/coordination"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// CoordinationChecker is the narrow contract the Coordination Checkpoint
// node depends on; *coordination.Workflow satisfies it. Kept as an
// interface (rather than depending on the concrete Workflow type directly
// in node wiring) so tests can substitute a stub without constructing a
// full workflow.
type CoordinationChecker interface {
	CheckPlanConflicts(ctx context.Context, agentID, agentType string, plan map[string]any, location string, resourcesNeeded []string, estimatedCost float64, priority string) coordination.CheckResult
}

// CoordinationCheckpoint builds the in-pipeline coordination checkpoint
// node. Routing contract, enforced here by writing
// Escalate/RetryNeeded/Attempts so the caller's conditional edge can read
// them:
//   - requires_human -> Escalate=true (edge routes to output)
//   - has_conflicts && !should_proceed -> Attempts++, RetryNeeded=true,
//     unless Attempts >= MaxAttempts, in which case Escalate=true instead
//   - otherwise -> RetryNeeded=false, continue to tool execution
func CoordinationCheckpoint(checker CoordinationChecker) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		if s.Plan == nil {
			s.RetryNeeded = false
			return nil
		}

		if checker == nil {
			s.CoordinationApproved = true
			s.CoordinationRecommend = []string{"coordinator unavailable, proceeding with caution"}
			s.RetryNeeded = false
			return nil
		}

		planMap := map[string]any{
			"steps":              s.Plan.Steps,
			"estimated_cost":     s.Plan.EstimatedCost,
			"estimated_duration": s.Plan.EstimatedDuration,
			"resources_needed":   s.Plan.ResourcesNeeded,
			"risk_level":         string(s.Plan.RiskLevel),
		}

		result := checker.CheckPlanConflicts(ctx, s.AgentID, s.AgentType, planMap,
			s.InputEvent.Location, s.Plan.ResourcesNeeded, s.Plan.EstimatedCost, s.InputEvent.Priority)

		s.CoordinationCheck = &pipeline.CoordinationCheck{
			HasConflicts:           result.HasConflicts,
			ShouldProceed:          result.ShouldProceed,
			RequiresHuman:          result.RequiresHuman,
			ConflictTypes:          result.ConflictTypes,
			Recommendations:        result.Recommendations,
			AlternativeSuggestions: result.AlternativeSuggestions,
		}
		s.CoordinationApproved = result.ShouldProceed
		s.CoordinationRecommend = result.Recommendations

		if result.RequiresHuman {
			s.SetEscalate("coordination checkpoint requires human review: " + joinOrEmpty(result.ConflictTypes))
			return nil
		}

		if result.HasConflicts && !result.ShouldProceed {
			s.Attempts++
			s.RetryNeeded = true
			if s.Attempts >= s.MaxAttempts {
				s.SetEscalate("coordination checkpoint conflicts unresolved after max attempts")
			}
			return nil
		}

		s.RetryNeeded = false
		return nil
	}
}

func joinOrEmpty(items []string) string {
	if len(items) == 0 {
		return "unspecified"
	}
	out := items[0]
	for _, it := range items[1:] {
		out += ", " + it
	}
	return out
}
