package coordination

import "github.com/cityops/agentmesh/pkg/config"

// Route is the Complexity Router's verdict for a batch of conflicts.
type Route string

const (
	RouteNoConflict Route = "no_conflict"
	RouteSimple     Route = "simple"
	RouteComplex    Route = "complex"
)

// twoAgentOnly are conflict types that only qualify for rule resolution
// when exactly two agents are involved.
var twoAgentOnly = map[ConflictType]bool{
	ConflictBudget:   true,
	ConflictLocation: true,
}

// CanResolveWithRules reports whether the Rule Engine can resolve c without
// escalating to the LLM Negotiator.
func CanResolveWithRules(cfg *config.Config, c Conflict) bool {
	if c.ComplexityScore >= cfg.Coordination.ComplexityThreshold {
		return false
	}
	if twoAgentOnly[c.ConflictType] {
		return len(c.AgentsInvolved) == 2
	}
	return true
}

// RouteConflicts implements the Complexity Router: empty list routes to
// no_conflict; otherwise simple only if every conflict qualifies for rule
// resolution, else complex.
func RouteConflicts(cfg *config.Config, conflicts []Conflict) Route {
	if len(conflicts) == 0 {
		return RouteNoConflict
	}
	for _, c := range conflicts {
		if !CanResolveWithRules(cfg, c) {
			return RouteComplex
		}
	}
	return RouteSimple
}
