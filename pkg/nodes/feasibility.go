package nodes

import (
	"context"
	"log/slog"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// FeasibilityFunc is the deterministic rule set one agent applies over its
// Observations and Plan. It never inspects AlternativePlans or Attempts;
// the node wraps the retry-loop bookkeeping around it.
type FeasibilityFunc func(s *pipeline.State) (feasible bool, reason string, details map[string]any)

// FeasibilityEvaluator builds the Feasibility Evaluator node. On
// infeasibility it pops the next AlternativePlans entry into Plan (or, once
// alternatives run out, regenerates against the current Plan unchanged),
// increments Attempts, and sets RetryNeeded so the caller's conditional edge
// routes back to the Tool Executor. It only stops retrying once Attempts
// reaches MaxAttempts, matching the Decision Router's
// "¬feasible ∧ attempts≥max_attempts → escalate" rule: an agent whose
// planner supplies fewer alternatives than MaxAttempts still retries up to
// MaxAttempts before giving up, rather than denying early with attempts
// left on the clock.
func FeasibilityEvaluator(agentType string, rules FeasibilityFunc) pipeline.NodeFunc {
	return func(_ context.Context, s *pipeline.State) error {
		feasible, reason, details := rules(s)
		s.Feasible = feasible
		s.FeasibilityReason = reason
		s.FeasibilityDetails = details

		if feasible {
			s.RetryNeeded = false
			return nil
		}

		if s.Attempts >= s.MaxAttempts {
			s.RetryNeeded = false
			s.SetEscalate("infeasible after exhausting planning attempts: " + reason)
			return nil
		}

		if len(s.AlternativePlans) > 0 {
			s.Plan = s.AlternativePlans[0]
			s.AlternativePlans = s.AlternativePlans[1:]
		}
		s.Attempts++
		s.RetryNeeded = true
		slog.Info("feasibility evaluator retrying", "agent_type", agentType, "attempt", s.Attempts, "reason", reason)

		if s.Attempts >= s.MaxAttempts {
			s.RetryNeeded = false
			s.SetEscalate("infeasible after exhausting planning attempts: " + reason)
		}
		return nil
	}
}
