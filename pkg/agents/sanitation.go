package agents

import (
	"fmt"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

const (
	sanitationActiveProjectsCap = 6
	sanitationOverflowBinCap    = 6
	sanitationOverflowFillPct   = 95.0
)

// Sanitation builds the sanitation department's Spec: waste collection
// scheduling, bin overflow alerts, and truck maintenance.
func Sanitation(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability":      tools.WorkerAvailability("available_sanitation_workers"),
		"budget_check":             tools.BudgetCheck("sanitation_budget_lines"),
		"schedule_conflict":        tools.ScheduleConflict("scheduled_pickups"),
		"infrastructure_condition": tools.InfrastructureCondition("truck_conditions"),
		"zone_risk":                tools.ZoneRisk("zone_risk"),
		"active_projects":          tools.ActiveProjectsCount("active_sanitation_projects"),
	}

	return Spec{
		AgentID:   "sanitation_dept",
		AgentType: "sanitation",
		Version:   "1.0.0",
		ContextFacts: []string{
			"available_sanitation_workers", "sanitation_budget_lines", "scheduled_pickups",
			"truck_conditions", "zone_risk", "active_sanitation_projects", "waste_bins",
		},
		Intent: nodes.IntentConfig{
			AgentType: "sanitation",
			Rules: []nodes.IntentRule{
				{Intent: "status_query", Keywords: []string{"status_query", "bin status", "pickup schedule"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
				{Intent: "bin_overflow_alert", Keywords: []string{"overflow", "full bins", "bin full"}, RiskLevel: pipeline.RiskHigh},
				{Intent: "pickup_schedule_change_request", Keywords: []string{"pickup", "collection schedule"}, RiskLevel: pipeline.RiskLow},
				{Intent: "maintenance_request", Keywords: []string{"truck maintenance", "truck repair", "equipment"}, RiskLevel: pipeline.RiskMedium},
			},
			DefaultIntent:       "general_sanitation_request",
			DefaultRisk:         pipeline.RiskLow,
			ContextRiskOverride: sanitationRiskOverride,
		},
		Goals: map[string]string{
			"pickup_schedule_change_request": "Change collection pickup schedule at {location}: {reason}",
			"maintenance_request":             "Perform truck maintenance for {location}: {reason}",
			"bin_overflow_alert":              "Dispatch collection crew for overflowing bins at {location}: {reason}",
		},
		GoalFallback:        "Address sanitation request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        sanitationPlanFallback,
		Feasibility:         sanitationFeasibility,
		Policy:              sanitationPolicy,
		Informational:       sanitationInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

// sanitationRiskOverride forces critical risk when enough bins are near
// capacity, regardless of which intent the keyword match or LLM selected -
// a city-wide overflow is an emergency even if nobody typed "emergency".
func sanitationRiskOverride(s *pipeline.State) (pipeline.RiskLevel, string, bool) {
	bins, ok := s.Context["waste_bins"]
	if !ok {
		return "", "", false
	}
	full := 0
	for _, row := range bins {
		pct, ok := row["fill_percent"].(float64)
		if !ok {
			continue
		}
		if pct >= sanitationOverflowFillPct {
			full++
		}
	}
	if full >= sanitationOverflowBinCap {
		return pipeline.RiskCritical, fmt.Sprintf("%d bins at or above %.0f%% fill", full, sanitationOverflowFillPct), true
	}
	return "", "", false
}

func sanitationPlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "bin_overflow_alert":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "infrastructure_condition"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "same day",
			ResourcesNeeded:   []string{"collection_crew", "extra_truck"},
			RiskLevel:         pipeline.RiskHigh,
		}}
	case "pickup_schedule_change_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "schedule_conflict"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "1 week",
			ResourcesNeeded:   []string{"collection_crew"},
			RiskLevel:         pipeline.RiskLow,
		}}
	case "maintenance_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}, {Tool: "infrastructure_condition"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "3 days",
			ResourcesNeeded:   []string{"mechanic"},
			RiskLevel:         pipeline.RiskMedium,
		}}
	default:
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedDuration: "tbd",
			RiskLevel:         pipeline.RiskLow,
		}}
	}
}

func sanitationFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) || s.RiskLevel == pipeline.RiskCritical {
		if !obsBool(s, "worker_availability.sufficient", true) {
			return false, "insufficient emergency collection crew available", details
		}
		return true, "emergency bypass: collection crew available", details
	}
	if !obsBool(s, "worker_availability.sufficient", true) {
		return false, "insufficient sanitation workers available for requested window", details
	}
	if obsBool(s, "schedule_conflict.has_conflict", false) {
		return false, "schedule conflict with another active or scheduled pickup", details
	}
	if !obsBool(s, "budget_check.sufficient", true) {
		return false, "Insufficient budget remaining for estimated cost", details
	}
	if oneOf(obsString(s, "infrastructure_condition.condition", "good"), "poor", "critical") {
		return false, "truck condition too degraded for this plan", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= sanitationActiveProjectsCap {
		return false, "too many active sanitation projects already underway in this zone", details
	}
	return true, "all feasibility checks passed", details
}

func sanitationPolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !isEmergency(s) && s.RiskLevel != pipeline.RiskCritical {
		violations = append(violations, "critical-risk sanitation plan requires an emergency priority declaration or a context-driven risk override")
	}
	return len(violations) == 0, violations
}

func sanitationInformational(s *pipeline.State) map[string]any {
	return map[string]any{"waste_bins": s.Context["waste_bins"]}
}
