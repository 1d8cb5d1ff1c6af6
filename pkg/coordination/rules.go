package coordination

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/google/uuid"
)

// ResolveWithRules dispatches a Conflict to its per-type deterministic
// resolution logic.
func ResolveWithRules(cfg *config.Config, c Conflict, now time.Time) Resolution {
	switch c.ConflictType {
	case ConflictResource:
		return resolveResource(cfg, c, now)
	case ConflictPolicy:
		return resolvePolicy(cfg, c, now)
	case ConflictTiming:
		return resolveTiming(cfg, c, now)
	case ConflictBudget:
		return resolveBudget(cfg, c, now)
	case ConflictLocation:
		return resolveLocation(cfg, c, now)
	default:
		return Resolution{
			ResolutionID: uuid.NewString(),
			ConflictID:   c.ConflictID,
			Method:       MethodRule,
			Decision:     DecisionEscalate,
			Rationale:    fmt.Sprintf("no rule defined for conflict type %q", c.ConflictType),
			ResolvedAt:   now,
		}
	}
}

func hasEmergency(decisions []AgentDecision) (AgentDecision, bool) {
	for _, d := range decisions {
		if d.Priority == "emergency" {
			return d, true
		}
	}
	return AgentDecision{}, false
}

func resolveResource(cfg *config.Config, c Conflict, now time.Time) Resolution {
	if winner, ok := hasEmergency(c.decisions); ok {
		return winnerTakesAll(c, winner, 0.95, "emergency priority preempts the contested resource", now)
	}
	sorted := sortByPriorityDescThenFIFO(cfg, c.decisions)
	return winnerTakesAll(c, sorted[0], 0.90, "highest priority agent wins the contested resource, ties broken by earliest submission", now)
}

func winnerTakesAll(c Conflict, winner AgentDecision, confidence float64, rationale string, now time.Time) Resolution {
	var queued []string
	for _, d := range c.decisions {
		if d.AgentID != winner.AgentID {
			queued = append(queued, d.AgentID)
		}
	}
	return Resolution{
		ResolutionID: uuid.NewString(),
		ConflictID:   c.ConflictID,
		Method:       MethodRule,
		Decision:     DecisionApprovePartial,
		Rationale:    rationale,
		Confidence:   confidence,
		ExecutionPlan: map[string]any{
			"approved": []string{winner.AgentID},
			"queued":   queued,
			"action":   "execute_approved_queue_rest",
		},
		ResolvedAt: now,
	}
}

func resolvePolicy(cfg *config.Config, c Conflict, now time.Time) Resolution {
	deferMonth := firstPostSeasonMonth(cfg, now)
	return Resolution{
		ResolutionID: uuid.NewString(),
		ConflictID:   c.ConflictID,
		Method:       MethodRule,
		Decision:     DecisionDefer,
		Rationale:    fmt.Sprintf("seasonal policy restricts outdoor work until %s", deferMonth),
		Confidence:   1.0,
		ExecutionPlan: map[string]any{
			"deferred":    agentIDs(c.decisions),
			"action":      "defer_to_post_season",
			"defer_until": deferMonth,
		},
		ResolvedAt: now,
	}
}

func firstPostSeasonMonth(cfg *config.Config, now time.Time) string {
	month := now.Month()
	for i := 0; i < 12; i++ {
		month = month%12 + 1
		if !cfg.IsMonsoonMonth(int(month)) {
			break
		}
	}
	return month.String()
}

// infrastructureDependency reports whether decisions contain an
// engineering/construction decision that must precede a water/maintenance
// decision over the same location.
func infrastructureDependency(decisions []AgentDecision) ([]AgentDecision, bool) {
	var first, second AgentDecision
	var foundFirst, foundSecond bool
	for _, d := range decisions {
		lowerType := strings.ToLower(d.AgentType)
		lowerDecision := strings.ToLower(d.Decision)
		if strings.Contains(lowerType, "engineering") && strings.Contains(lowerDecision, "construction") {
			first = d
			foundFirst = true
		}
		if strings.Contains(lowerType, "water") && strings.Contains(lowerDecision, "maintenance") {
			second = d
			foundSecond = true
		}
	}
	if foundFirst && foundSecond && first.Location == second.Location {
		return []AgentDecision{first, second}, true
	}
	return nil, false
}

func resolveTiming(cfg *config.Config, c Conflict, now time.Time) Resolution {
	if seq, ok := infrastructureDependency(c.decisions); ok {
		return Resolution{
			ResolutionID: uuid.NewString(),
			ConflictID:   c.ConflictID,
			Method:       MethodRule,
			Decision:     DecisionApproveAll,
			Rationale:    "engineering construction must complete before dependent maintenance work",
			Confidence:   0.90,
			ExecutionPlan: map[string]any{
				"sequence": []map[string]any{
					{"agent": seq[0].AgentID, "order": 1},
					{"agent": seq[1].AgentID, "order": 2},
				},
				"action": "sequence",
			},
			ResolvedAt: now,
		}
	}

	sorted := make([]AgentDecision, len(c.decisions))
	copy(sorted, c.decisions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	sequence := make([]map[string]any, len(sorted))
	for i, d := range sorted {
		sequence[i] = map[string]any{"agent": d.AgentID, "order": i + 1}
	}
	return Resolution{
		ResolutionID: uuid.NewString(),
		ConflictID:   c.ConflictID,
		Method:       MethodRule,
		Decision:     DecisionApproveAll,
		Rationale:    "no explicit dependency detected, sequencing by submission order",
		Confidence:   0.85,
		ExecutionPlan: map[string]any{
			"sequence": sequence,
			"action":   "sequence",
		},
		ResolvedAt: now,
	}
}

func resolveBudget(cfg *config.Config, c Conflict, now time.Time) Resolution {
	total := 0.0
	for _, d := range c.decisions {
		total += d.EstimatedCost
	}
	if total > cfg.Coordination.AutoApprovalCostLimit {
		return Resolution{
			ResolutionID:  uuid.NewString(),
			ConflictID:    c.ConflictID,
			Method:        MethodRule,
			Decision:      DecisionEscalate,
			Rationale:     fmt.Sprintf("combined cost %.2f exceeds auto-approval limit", total),
			Confidence:    0.80,
			RequiresHuman: true,
			ResolvedAt:    now,
		}
	}

	sorted := sortByPriorityDescThenFIFO(cfg, c.decisions)
	winner := sorted[0]
	var deferred []string
	for _, d := range sorted[1:] {
		deferred = append(deferred, d.AgentID)
	}
	return Resolution{
		ResolutionID:  uuid.NewString(),
		ConflictID:    c.ConflictID,
		Method:        MethodRule,
		Decision:      DecisionApprovePartial,
		Rationale:     "budget allocated to the highest-priority agent, remainder deferred",
		Confidence:    0.80,
		RequiresHuman: len(deferred) > 0,
		ExecutionPlan: map[string]any{
			"approved": []string{winner.AgentID},
			"deferred": deferred,
			"action":   "allocate_to_highest_priority",
		},
		ResolvedAt: now,
	}
}

func resolveLocation(cfg *config.Config, c Conflict, now time.Time) Resolution {
	if winner, ok := hasEmergency(c.decisions); ok {
		res := winnerTakesAll(c, winner, 0.95, "emergency priority preempts the contested location", now)
		return res
	}

	if len(c.decisions) == 2 {
		return Resolution{
			ResolutionID:  uuid.NewString(),
			ConflictID:    c.ConflictID,
			Method:        MethodRule,
			Decision:      DecisionApproveAll,
			Rationale:     "two agents can proceed simultaneously at the same location with coordination",
			Confidence:    0.70,
			RequiresHuman: true,
			ExecutionPlan: map[string]any{
				"approved": agentIDs(c.decisions),
				"action":   "simultaneous_with_coordination",
			},
			ResolvedAt: now,
		}
	}

	sorted := sortByPriorityDescThenFIFO(cfg, c.decisions)
	sequence := make([]map[string]any, len(sorted))
	for i, d := range sorted {
		sequence[i] = map[string]any{"agent": d.AgentID, "order": i + 1}
	}
	return Resolution{
		ResolutionID: uuid.NewString(),
		ConflictID:   c.ConflictID,
		Method:       MethodRule,
		Decision:     DecisionApproveAll,
		Rationale:    "more than two agents at the same location, sequencing by priority then submission order",
		Confidence:   0.85,
		ExecutionPlan: map[string]any{
			"sequence": sequence,
			"action":   "sequence",
		},
		ResolvedAt: now,
	}
}
