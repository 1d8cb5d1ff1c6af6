package agents

import (
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

const fireActiveIncidentsCap = 6

// Fire builds the fire department's Spec: emergency response dispatch,
// equipment maintenance, and fire safety inspections.
func Fire(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability":      tools.WorkerAvailability("available_firefighters"),
		"budget_check":             tools.BudgetCheck("station_budget_lines"),
		"schedule_conflict":        tools.ScheduleConflict("scheduled_drills"),
		"infrastructure_condition": tools.InfrastructureCondition("equipment_conditions"),
		"zone_risk":                tools.ZoneRisk("zone_risk"),
		"active_projects":          tools.ActiveProjectsCount("active_incidents"),
	}

	return Spec{
		AgentID:   "fire_dept",
		AgentType: "fire",
		Version:   "1.0.0",
		ContextFacts: []string{
			"available_firefighters", "station_budget_lines", "scheduled_drills",
			"equipment_conditions", "zone_risk", "active_incidents",
		},
		Intent: nodes.IntentConfig{
			AgentType: "fire",
			Rules: []nodes.IntentRule{
				{Intent: "status_query", Keywords: []string{"status_query", "how many firefighters", "equipment status"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
				{Intent: "emergency_response", Keywords: []string{"fire", "blaze", "explosion", "emergency"}, RiskLevel: pipeline.RiskCritical},
				{Intent: "equipment_maintenance_request", Keywords: []string{"equipment", "truck maintenance", "hydrant"}, RiskLevel: pipeline.RiskMedium},
				{Intent: "inspection_request", Keywords: []string{"inspect", "fire safety inspection", "code compliance"}, RiskLevel: pipeline.RiskLow},
			},
			DefaultIntent:       "general_fire_request",
			DefaultRisk:         pipeline.RiskLow,
			ContextRiskOverride: fireRiskOverride,
		},
		Goals: map[string]string{
			"equipment_maintenance_request": "Schedule equipment maintenance at {location}: {reason}",
			"inspection_request":            "Perform fire safety inspection at {location}: {reason}",
			"emergency_response":            "Dispatch emergency fire response to {location}: {reason}",
		},
		GoalFallback:        "Address fire department request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        firePlanFallback,
		Feasibility:         fireFeasibility,
		Policy:              firePolicy,
		Informational:       fireInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

// fireRiskOverride escalates to critical when context already shows an
// active high-or-critical-severity incident, regardless of how this
// particular request was phrased.
func fireRiskOverride(s *pipeline.State) (pipeline.RiskLevel, string, bool) {
	incidents, ok := s.Context["active_incidents"]
	if !ok {
		return "", "", false
	}
	for _, row := range incidents {
		status, _ := row["status"].(string)
		severity, _ := row["severity"].(string)
		if status == "active" && (severity == "high" || severity == "critical") {
			return pipeline.RiskCritical, "active high-severity incident requires fire risk escalation", true
		}
	}
	return "", "", false
}

func firePlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "equipment_maintenance_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}, {Tool: "infrastructure_condition"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "2 days",
			ResourcesNeeded:   []string{"mechanic"},
			RiskLevel:         pipeline.RiskMedium,
		}}
	case "inspection_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}, {Tool: "schedule_conflict"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "1 day",
			ResourcesNeeded:   []string{"inspector"},
			RiskLevel:         pipeline.RiskLow,
		}}
	case "emergency_response":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "immediate",
			ResourcesNeeded:   []string{"engine_crew"},
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

func fireFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) || s.RiskLevel == pipeline.RiskCritical {
		if !obsBool(s, "worker_availability.sufficient", true) {
			return false, "insufficient firefighter crew available for emergency response", details
		}
		return true, "emergency bypass: firefighter crew available", details
	}
	if !obsBool(s, "worker_availability.sufficient", true) {
		return false, "insufficient firefighters available for requested window", details
	}
	if obsBool(s, "schedule_conflict.has_conflict", false) {
		return false, "schedule conflict with another active or scheduled drill", details
	}
	if !obsBool(s, "budget_check.sufficient", true) {
		return false, "Insufficient budget remaining for estimated cost", details
	}
	if oneOf(obsString(s, "infrastructure_condition.condition", "good"), "poor", "critical") {
		return false, "equipment condition too degraded for this plan", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= fireActiveIncidentsCap {
		return false, "too many active incidents already underway in this zone", details
	}
	return true, "all feasibility checks passed", details
}

func firePolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !oneOf(s.InputEvent.Priority, "emergency", "safety_critical") && s.RiskLevel != pipeline.RiskCritical {
		violations = append(violations, "critical-risk fire plan requires an emergency or safety_critical priority")
	}
	return len(violations) == 0, violations
}

func fireInformational(s *pipeline.State) map[string]any {
	return map[string]any{"equipment_conditions": s.Context["equipment_conditions"]}
}
