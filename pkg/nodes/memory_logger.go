package nodes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/transparency"
)

// MemoryLogger builds the Memory Logger node: appends one Transparency
// Entry capturing the routing decision. Failures are swallowed
// (best-effort): a logging outage must never fail a pipeline run.
func MemoryLogger(log transparency.Log) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		if log == nil {
			return nil
		}

		decision := "pending"
		if s.Escalate {
			decision = "escalate"
		} else if s.Feasible && s.PolicyOK {
			decision = "recommend"
		} else if s.Plan != nil {
			decision = "deny"
		}

		entry := transparency.Entry{
			AgentType:        s.AgentType,
			NodeName:         "memory_logger",
			Decision:         decision,
			Context:          map[string]any{"intent": s.Intent, "location": s.InputEvent.Location},
			Rationale:        s.FeasibilityReason,
			Confidence:       s.Confidence,
			CostImpact:       planCost(s),
			PolicyReferences: s.PolicyViolations,
			SearchableText: fmt.Sprintf("agent=%s intent=%s location=%s decision=%s reason=%s",
				s.AgentType, s.Intent, s.InputEvent.Location, decision, s.FeasibilityReason),
		}

		if err := log.Append(ctx, entry); err != nil {
			slog.Warn("memory logger failed to append transparency entry", "agent_type", s.AgentType, "error", err)
		}
		return nil
	}
}

func planCost(s *pipeline.State) float64 {
	if s.Plan == nil {
		return 0
	}
	return s.Plan.EstimatedCost
}
