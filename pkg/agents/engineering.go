package agents

import (
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

const engineeringActiveProjectsCap = 4

// Engineering builds the engineering department's Spec: road work,
// construction project approval, and structural inspections.
func Engineering(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability":      tools.WorkerAvailability("available_engineering_crews"),
		"budget_check":             tools.BudgetCheck("engineering_budget_lines"),
		"schedule_conflict":        tools.ScheduleConflict("scheduled_construction"),
		"infrastructure_condition": tools.InfrastructureCondition("road_conditions"),
		"zone_risk":                tools.ZoneRisk("zone_risk"),
		"active_projects":          tools.ActiveProjectsCount("active_engineering_projects"),
	}

	return Spec{
		AgentID:   "engineering_dept",
		AgentType: "engineering",
		Version:   "1.0.0",
		ContextFacts: []string{
			"available_engineering_crews", "engineering_budget_lines", "scheduled_construction",
			"road_conditions", "zone_risk", "active_engineering_projects",
		},
		Intent: nodes.IntentConfig{
			AgentType: "engineering",
			Rules: []nodes.IntentRule{
				{Intent: "status_query", Keywords: []string{"status_query", "road condition", "construction status"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
				{Intent: "emergency_infrastructure", Keywords: []string{"collapse", "structural failure", "bridge damage", "emergency"}, RiskLevel: pipeline.RiskCritical},
				{Intent: "road_work_request", Keywords: []string{"road work", "repaving", "construction"}, RiskLevel: pipeline.RiskMedium},
				{Intent: "inspection_request", Keywords: []string{"inspect", "structural"}, RiskLevel: pipeline.RiskLow},
			},
			DefaultIntent: "general_engineering_request",
			DefaultRisk:   pipeline.RiskLow,
		},
		Goals: map[string]string{
			"road_work_request":        "Schedule road work at {location}: {reason}",
			"inspection_request":       "Perform structural inspection at {location}: {reason}",
			"emergency_infrastructure": "Dispatch emergency structural response to {location}: {reason}",
		},
		GoalFallback:        "Address engineering request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        engineeringPlanFallback,
		Feasibility:         engineeringFeasibility,
		Policy:              engineeringPolicy,
		Informational:       engineeringInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

func engineeringPlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "road_work_request":
		return []*pipeline.Plan{
			{
				Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "schedule_conflict"}, {Tool: "budget_check"}},
				EstimatedCost:     s.InputEvent.EstimatedCost,
				EstimatedDuration: "2 weeks",
				ResourcesNeeded:   []string{"construction_crew", "heavy_machinery"},
				RiskLevel:         pipeline.RiskMedium,
			},
			{
				Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "budget_check"}},
				EstimatedCost:     s.InputEvent.EstimatedCost * 0.7,
				EstimatedDuration: "1 week",
				ResourcesNeeded:   []string{"construction_crew"},
				RiskLevel:         pipeline.RiskLow,
			},
		}
	case "inspection_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "infrastructure_condition"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "1 day",
			ResourcesNeeded:   []string{"inspector"},
			RiskLevel:         pipeline.RiskLow,
		}}
	case "emergency_infrastructure":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "immediate",
			ResourcesNeeded:   []string{"emergency_response_crew"},
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

func engineeringFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) {
		if !obsBool(s, "worker_availability.sufficient", true) {
			return false, "insufficient emergency crew available", details
		}
		return true, "emergency bypass: crew available", details
	}
	if !obsBool(s, "worker_availability.sufficient", true) {
		return false, "insufficient crew available for requested window", details
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
		return false, "road condition too degraded for this plan", details
	}
	if oneOf(obsString(s, "zone_risk.risk_level", "low"), "high", "critical") {
		return false, "zone risk level too high for this plan", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= engineeringActiveProjectsCap {
		return false, "too many active engineering projects already underway in this zone", details
	}
	return true, "all feasibility checks passed", details
}

func engineeringPolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !isEmergency(s) {
		violations = append(violations, "critical-risk engineering plan requires an emergency priority declaration")
	}
	return len(violations) == 0, violations
}

func engineeringInformational(s *pipeline.State) map[string]any {
	return map[string]any{"road_conditions": s.Context["road_conditions"]}
}
