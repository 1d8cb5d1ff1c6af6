package coordination

import "github.com/cityops/agentmesh/pkg/config"

// RequiresHumanApproval implements the Human-Approval Gate: escalates if
// the resolution itself demands it, confidence is below threshold, the
// combined estimated cost of the involved decisions exceeds the
// auto-approval limit, or the resolution is itself an escalate decision.
func RequiresHumanApproval(cfg *config.Config, res Resolution, decisions []AgentDecision) bool {
	if res.RequiresHuman {
		return true
	}
	if res.Confidence < cfg.Coordination.ConfidenceThreshold {
		return true
	}
	total := 0.0
	for _, d := range decisions {
		total += d.EstimatedCost
	}
	if total > cfg.Coordination.AutoApprovalCostLimit {
		return true
	}
	return res.Decision == DecisionEscalate
}
