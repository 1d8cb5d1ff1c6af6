package agents

import (
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

// waterActiveProjectsCap bounds how many concurrently active water projects
// a zone may carry before new work is considered infeasible. Domain-tuned
// constant, not a deployment configuration option.
const waterActiveProjectsCap = 5

// Water builds the water department's Spec: pipeline maintenance,
// scheduling, and emergency repair dispatch.
func Water(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability":      tools.WorkerAvailability("available_workers"),
		"budget_check":             tools.BudgetCheck("budget_lines"),
		"schedule_conflict":        tools.ScheduleConflict("scheduled_shifts"),
		"infrastructure_condition": tools.InfrastructureCondition("pipeline_conditions"),
		"zone_risk":                tools.ZoneRisk("zone_risk"),
		"active_projects":          tools.ActiveProjectsCount("active_projects"),
	}

	return Spec{
		AgentID:   "water_dept",
		AgentType: "water",
		Version:   "1.0.0",
		ContextFacts: []string{
			"available_workers", "budget_lines", "scheduled_shifts",
			"pipeline_conditions", "zone_risk", "active_projects", "reservoir_levels",
		},
		Intent: waterIntentConfig(),
		Goals: map[string]string{
			"schedule_shift_request": "Shift water maintenance crew schedule at {location}: {reason}",
			"maintenance_request":    "Perform water infrastructure maintenance at {location}: {reason}",
			"emergency_repair":       "Dispatch emergency water repair crew to {location}: {reason}",
		},
		GoalFallback:        "Address water request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        waterPlanFallback,
		Feasibility:         waterFeasibility,
		Policy:              waterPolicy,
		Informational:       waterInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

func waterIntentConfig() nodes.IntentConfig {
	return nodes.IntentConfig{
		AgentType: "water",
		Rules: []nodes.IntentRule{
			{Intent: "status_query", Keywords: []string{"status_query", "pressure status", "reservoir level", "what is the water"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
			{Intent: "emergency_repair", Keywords: []string{"burst", "flood", "main break", "emergency"}, RiskLevel: pipeline.RiskCritical},
			{Intent: "schedule_shift_request", Keywords: []string{"shift", "schedule"}, RiskLevel: pipeline.RiskLow},
			{Intent: "maintenance_request", Keywords: []string{"maintenance", "repair", "inspection", "pipe"}, RiskLevel: pipeline.RiskMedium},
		},
		DefaultIntent: "general_water_request",
		DefaultRisk:   pipeline.RiskLow,
	}
}

func waterPlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "schedule_shift_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "schedule_conflict"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "2 days",
			ResourcesNeeded:   []string{"maintenance_crew"},
			RiskLevel:         pipeline.RiskLow,
		}}
	case "maintenance_request":
		return []*pipeline.Plan{
			{
				Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}, {Tool: "infrastructure_condition"}, {Tool: "active_projects"}},
				EstimatedCost:     s.InputEvent.EstimatedCost,
				EstimatedDuration: "1 week",
				ResourcesNeeded:   []string{"maintenance_crew"},
				RiskLevel:         pipeline.RiskMedium,
			},
			{
				Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}},
				EstimatedCost:     s.InputEvent.EstimatedCost * 0.6,
				EstimatedDuration: "3 days",
				ResourcesNeeded:   []string{"maintenance_crew"},
				RiskLevel:         pipeline.RiskLow,
			},
		}
	case "emergency_repair":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "immediate",
			ResourcesNeeded:   []string{"emergency_crew"},
			RiskLevel:         pipeline.RiskCritical,
		}}
	default:
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedDuration: "tbd",
			RiskLevel:         pipeline.RiskLow,
		}}
	}
}

func waterFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) {
		if !obsBool(s, "worker_availability.sufficient", true) {
			return false, "insufficient emergency crew available", details
		}
		return true, "emergency bypass: crew available", details
	}
	if !obsBool(s, "worker_availability.sufficient", true) {
		return false, "insufficient workers available for requested window", details
	}
	if obsBool(s, "schedule_conflict.has_conflict", false) {
		return false, "schedule conflict with another active or scheduled job", details
	}
	if !obsBool(s, "budget_check.sufficient", true) {
		return false, "Insufficient budget remaining for estimated cost", details
	}
	if obsFloat(s, "budget_check.utilisation_pct", 0) > 90 {
		return false, "budget utilisation exceeds 90% cap", details
	}
	if oneOf(obsString(s, "infrastructure_condition.condition", "good"), "poor", "critical") {
		return false, "pipeline condition too degraded for this plan", details
	}
	if oneOf(obsString(s, "zone_risk.risk_level", "low"), "high", "critical") {
		return false, "zone risk level too high for this plan", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= waterActiveProjectsCap {
		return false, "too many active water projects already underway in this zone", details
	}
	return true, "all feasibility checks passed", details
}

func waterPolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !isEmergency(s) {
		violations = append(violations, "critical-risk water plan requires an emergency priority declaration")
	}
	if s.InputEvent.EstimatedCost > 2_000_000 && s.InputEvent.Priority == "routine" {
		violations = append(violations, "routine-priority requests above 2,000,000 require elevated priority")
	}
	return len(violations) == 0, violations
}

func waterInformational(s *pipeline.State) map[string]any {
	if containsAny(s.InputEvent.Reason, "pressure", "reservoir", "level") {
		return map[string]any{"reservoir_levels": s.Context["reservoir_levels"]}
	}
	return map[string]any{"pipeline_conditions": s.Context["pipeline_conditions"]}
}
