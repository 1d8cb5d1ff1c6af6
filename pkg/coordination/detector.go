package coordination

import (
	"fmt"
	"sort"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/google/uuid"
)

// seasonalProjectTypes are project kinds the policy conflict check watches
// for during configured monsoon months.
var seasonalProjectTypes = map[string]struct{}{
	"construction":        {},
	"road_work":           {},
	"outdoor_maintenance": {},
}

// DetectConflicts runs the five independent checks over decisions and
// returns every Conflict found, each carrying a computed complexity score.
func DetectConflicts(cfg *config.Config, decisions []AgentDecision, now time.Time) []Conflict {
	var conflicts []Conflict

	if c, ok := detectResourceConflict(decisions, now); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := detectLocationConflict(decisions, now); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := detectTimingConflict(decisions, now); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := detectPolicyConflict(cfg, decisions, now); ok {
		conflicts = append(conflicts, c)
	}
	if c, ok := detectBudgetConflict(cfg, decisions, now); ok {
		conflicts = append(conflicts, c)
	}

	for i := range conflicts {
		conflicts[i].ConflictID = uuid.NewString()
		// Timing conflicts are always flagged medium severity pending finer
		// overlap detection, and seasonal policy conflicts are always high;
		// every other type uses the priority-driven mapping.
		if conflicts[i].ConflictType != ConflictTiming && conflicts[i].ConflictType != ConflictPolicy {
			conflicts[i].Severity = severityFor(cfg, conflicts[i].decisions)
		}
		conflicts[i].ComplexityScore = complexityScore(conflicts[i].decisions)
	}
	return conflicts
}

func agentIDs(decisions []AgentDecision) []string {
	ids := make([]string, len(decisions))
	for i, d := range decisions {
		ids[i] = d.AgentID
	}
	return ids
}

func detectResourceConflict(decisions []AgentDecision, now time.Time) (Conflict, bool) {
	byResource := make(map[string][]AgentDecision)
	for _, d := range decisions {
		for _, r := range d.ResourcesNeeded {
			byResource[r] = append(byResource[r], d)
		}
	}
	for resource, ds := range byResource {
		if len(ds) >= 2 {
			return Conflict{
				ConflictType:   ConflictResource,
				AgentsInvolved: agentIDs(ds),
				Description:    fmt.Sprintf("resource %q requested by %d agents", resource, len(ds)),
				DetectedAt:     now,
				decisions:      ds,
			}, true
		}
	}
	return Conflict{}, false
}

func detectLocationConflict(decisions []AgentDecision, now time.Time) (Conflict, bool) {
	byLocation := make(map[string][]AgentDecision)
	for _, d := range decisions {
		if d.Location == "" {
			continue
		}
		byLocation[d.Location] = append(byLocation[d.Location], d)
	}
	for loc, ds := range byLocation {
		if len(ds) >= 2 {
			return Conflict{
				ConflictType:   ConflictLocation,
				AgentsInvolved: agentIDs(ds),
				Description:    fmt.Sprintf("location %q targeted by %d agents", loc, len(ds)),
				DetectedAt:     now,
				decisions:      ds,
			}, true
		}
	}
	return Conflict{}, false
}

func detectTimingConflict(decisions []AgentDecision, now time.Time) (Conflict, bool) {
	var withTimeline []AgentDecision
	for _, d := range decisions {
		if d.Timeline != "" {
			withTimeline = append(withTimeline, d)
		}
	}
	if len(withTimeline) >= 2 {
		return Conflict{
			ConflictType:   ConflictTiming,
			AgentsInvolved: agentIDs(withTimeline),
			Description:    fmt.Sprintf("%d decisions declare overlapping timelines", len(withTimeline)),
			Severity:       SeverityMedium,
			DetectedAt:     now,
			decisions:      withTimeline,
		}, true
	}
	return Conflict{}, false
}

func detectPolicyConflict(cfg *config.Config, decisions []AgentDecision, now time.Time) (Conflict, bool) {
	if !cfg.IsMonsoonMonth(int(now.Month())) {
		return Conflict{}, false
	}
	var seasonal []AgentDecision
	for _, d := range decisions {
		projectType, _ := d.Request["project_type"].(string)
		if _, ok := seasonalProjectTypes[projectType]; ok {
			seasonal = append(seasonal, d)
		}
	}
	if len(seasonal) == 0 {
		return Conflict{}, false
	}
	return Conflict{
		ConflictType:   ConflictPolicy,
		AgentsInvolved: agentIDs(seasonal),
		Description:    "seasonal policy restricts outdoor project types during monsoon months",
		Severity:       SeverityHigh,
		DetectedAt:     now,
		decisions:      seasonal,
	}, true
}

func detectBudgetConflict(cfg *config.Config, decisions []AgentDecision, now time.Time) (Conflict, bool) {
	const secondaryThreshold = 2_000_000.0
	total := 0.0
	overThreshold := 0
	for _, d := range decisions {
		total += d.EstimatedCost
		if d.EstimatedCost > secondaryThreshold {
			overThreshold++
		}
	}
	if total > cfg.Coordination.AutoApprovalCostLimit && overThreshold >= 2 {
		return Conflict{
			ConflictType:   ConflictBudget,
			AgentsInvolved: agentIDs(decisions),
			Description:    fmt.Sprintf("combined estimated cost %.2f exceeds auto-approval limit", total),
			DetectedAt:     now,
			decisions:      decisions,
		}, true
	}
	return Conflict{}, false
}

func severityFor(cfg *config.Config, decisions []AgentDecision) Severity {
	max := 0
	for _, d := range decisions {
		if r, err := cfg.PriorityRank(d.Priority); err == nil && r > max {
			max = r
		}
	}
	switch {
	case max >= 9:
		return SeverityCritical
	case max >= 7:
		return SeverityHigh
	case max >= 4:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func complexityScore(decisions []AgentDecision) float64 {
	n := len(decisions)
	score := 0.0

	if n == 2 {
		score += 0.1
	} else if n > 2 {
		inc := 0.15 * float64(n)
		if inc > 0.5 {
			inc = 0.5
		}
		score += inc
	}

	maxCost := 0.0
	for _, d := range decisions {
		if d.EstimatedCost > maxCost {
			maxCost = d.EstimatedCost
		}
	}
	switch {
	case maxCost > 5_000_000:
		score += 0.3
	case maxCost > 1_000_000:
		score += 0.15
	case maxCost > 500_000:
		score += 0.10
	}

	hasEmergency := false
	distinctPriorities := make(map[string]struct{})
	for _, d := range decisions {
		if d.Priority == "emergency" {
			hasEmergency = true
		}
		distinctPriorities[d.Priority] = struct{}{}
	}
	if hasEmergency {
		if score > 0.3 {
			score = 0.3
		}
	} else {
		score += 0.10 * float64(len(distinctPriorities))
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// sortByPriorityDescThenFIFO orders decisions by priority rank descending,
// breaking ties by earliest timestamp: the Resource/Location rule
// engine's winner-selection order.
func sortByPriorityDescThenFIFO(cfg *config.Config, decisions []AgentDecision) []AgentDecision {
	sorted := make([]AgentDecision, len(decisions))
	copy(sorted, decisions)
	rank := func(priority string) int {
		r, _ := cfg.PriorityRank(priority)
		return r
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := rank(sorted[i].Priority), rank(sorted[j].Priority)
		if ri != rj {
			return ri > rj
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
