package agents

import (
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

const healthActiveProjectsCap = 5

// Health builds the public health department's Spec: medical supply
// status, vaccination campaigns, and outbreak response.
func Health(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability":      tools.WorkerAvailability("available_health_workers"),
		"budget_check":             tools.BudgetCheck("health_budget_lines"),
		"schedule_conflict":        tools.ScheduleConflict("scheduled_health_activities"),
		"infrastructure_condition": tools.InfrastructureCondition("facilities"),
		"zone_risk":                tools.ZoneRisk("health_zone_risk"),
		"active_projects":          tools.ActiveProjectsCount("active_health_projects"),
		"supplies":                 tools.FactLookup("supplies"),
	}

	return Spec{
		AgentID:   "health_dept",
		AgentType: "health",
		Version:   "1.0.0",
		ContextFacts: []string{
			"available_health_workers", "health_budget_lines", "scheduled_health_activities",
			"facilities", "health_zone_risk", "active_health_projects", "supplies", "campaigns",
		},
		Intent: nodes.IntentConfig{
			AgentType: "health",
			Rules: []nodes.IntentRule{
				{Intent: "status_query", Keywords: []string{"status_query", "supplies", "medical supplies", "what medical"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
				{Intent: "outbreak_response", Keywords: []string{"outbreak", "epidemic", "contagion"}, RiskLevel: pipeline.RiskCritical},
				{Intent: "vaccination_campaign_request", Keywords: []string{"vaccination", "campaign", "immunization"}, RiskLevel: pipeline.RiskMedium},
				{Intent: "inspection_request", Keywords: []string{"inspect", "health code"}, RiskLevel: pipeline.RiskLow},
			},
			DefaultIntent: "general_health_request",
			DefaultRisk:   pipeline.RiskLow,
		},
		Goals: map[string]string{
			"vaccination_campaign_request": "Schedule vaccination campaign at {location}: {reason}",
			"inspection_request":           "Perform health code inspection at {location}: {reason}",
			"outbreak_response":            "Dispatch outbreak response team to {location}: {reason}",
		},
		GoalFallback:        "Address health request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        healthPlanFallback,
		Feasibility:         healthFeasibility,
		Policy:              healthPolicy,
		Informational:       healthInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

func healthPlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "vaccination_campaign_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "schedule_conflict"}, {Tool: "budget_check"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "1 week",
			ResourcesNeeded:   []string{"health_worker", "vaccine_supply"},
			RiskLevel:         pipeline.RiskMedium,
		}}
	case "inspection_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "infrastructure_condition"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "1 day",
			ResourcesNeeded:   []string{"inspector"},
			RiskLevel:         pipeline.RiskLow,
		}}
	case "outbreak_response":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "supplies"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "immediate",
			ResourcesNeeded:   []string{"emergency_health_team"},
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

func healthFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) {
		if !obsBool(s, "worker_availability.sufficient", true) {
			return false, "insufficient emergency health staff available", details
		}
		return true, "emergency bypass: health staff available", details
	}
	if !obsBool(s, "worker_availability.sufficient", true) {
		return false, "insufficient health workers available for requested window", details
	}
	if obsBool(s, "schedule_conflict.has_conflict", false) {
		return false, "schedule conflict with another active or scheduled activity", details
	}
	if !obsBool(s, "budget_check.sufficient", true) {
		return false, "Insufficient budget remaining for estimated cost", details
	}
	if obsFloat(s, "budget_check.utilisation_pct", 0) > 90 {
		return false, "budget utilisation exceeds 90% cap", details
	}
	if oneOf(obsString(s, "zone_risk.risk_level", "low"), "high", "critical") {
		return false, "zone risk level too high for this plan", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= healthActiveProjectsCap {
		return false, "too many active health projects already underway in this zone", details
	}
	return true, "all feasibility checks passed", details
}

func healthPolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !isEmergency(s) {
		violations = append(violations, "critical-risk health plan requires an emergency priority declaration")
	}
	return len(violations) == 0, violations
}

func healthInformational(s *pipeline.State) map[string]any {
	switch {
	case containsAny(s.InputEvent.Reason, "campaign", "vaccination", "immunization"):
		return map[string]any{"campaigns": s.Context["campaigns"]}
	case containsAny(s.InputEvent.Reason, "facility", "facilities", "clinic"):
		return map[string]any{"facilities": s.Context["facilities"]}
	default:
		return map[string]any{"supplies": s.Context["supplies"]}
	}
}
