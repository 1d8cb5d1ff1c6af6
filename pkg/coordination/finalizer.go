package coordination

import "time"

// Finalize produces the CoordinationState's final_decision and
// execution_plan. With no conflicts, every agent proceeds. Otherwise the
// primary (first) resolution's outcome is adopted, overwritten by a human
// decision when one was acquired.
func Finalize(decisions []AgentDecision, conflicts []Conflict, resolutions []Resolution, humanOverride *HumanEscalationRecord, humanPlan map[string]any, now time.Time) (finalDecision string, executionPlan map[string]any) {
	if len(conflicts) == 0 {
		return "approved", map[string]any{
			"approved": agentIDs(decisions),
			"action":   "execute_all",
		}
	}

	primary := resolutions[0]
	plan := primary.ExecutionPlan
	decision := string(primary.Decision)

	if humanOverride != nil && humanOverride.Status == "approved" {
		decision = "approved"
		if humanPlan != nil {
			plan = humanPlan
		}
	} else if humanOverride != nil {
		decision = humanOverride.Status
	}

	return decision, plan
}
