package agents

import (
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

const financeActiveProjectsCap = 3

// Finance builds the finance department's Spec: budget status queries,
// funding requests, and emergency fund releases.
func Finance(cfg *config.Config) Spec {
	reg := tools.Registry{
		"worker_availability": tools.WorkerAvailability("available_auditors"),
		"budget_check":        tools.BudgetCheck("budget_lines"),
		"active_projects":     tools.ActiveProjectsCount("active_finance_projects"),
	}

	return Spec{
		AgentID:   "finance_dept",
		AgentType: "finance",
		Version:   "1.0.0",
		ContextFacts: []string{
			"budget_lines", "available_auditors", "active_finance_projects", "pending_approvals",
		},
		Intent: nodes.IntentConfig{
			AgentType: "finance",
			Rules: []nodes.IntentRule{
				{Intent: "status_query", Keywords: []string{"status_query", "budget balance", "how much budget"}, RiskLevel: pipeline.RiskLow, QueryType: "informational"},
				{Intent: "emergency_funding_request", Keywords: []string{"emergency fund", "disaster relief"}, RiskLevel: pipeline.RiskCritical},
				{Intent: "audit_request", Keywords: []string{"audit", "compliance review"}, RiskLevel: pipeline.RiskMedium},
				{Intent: "funding_request", Keywords: []string{"funding", "allocate budget", "budget request"}, RiskLevel: pipeline.RiskMedium},
			},
			DefaultIntent: "general_finance_request",
			DefaultRisk:   pipeline.RiskLow,
		},
		Goals: map[string]string{
			"funding_request":           "Approve budget allocation for {location}: {reason}",
			"audit_request":             "Schedule compliance audit for {location}: {reason}",
			"emergency_funding_request": "Release emergency funds for {location}: {reason}",
		},
		GoalFallback:        "Address finance request at {location}: {reason}",
		Tools:               reg,
		PlanFallback:        financePlanFallback,
		Feasibility:         financeFeasibility,
		Policy:              financePolicy,
		Informational:       financeInformational,
		ConfidenceThreshold: cfg.Agent.ConfidenceThreshold,
		MaxAttempts:         cfg.Agent.MaxPlanningAttempts,
	}
}

func financePlanFallback(s *pipeline.State) []*pipeline.Plan {
	switch s.Intent {
	case "funding_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}, {Tool: "active_projects"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "2 weeks",
			ResourcesNeeded:   []string{"budget_analyst"},
			RiskLevel:         pipeline.RiskMedium,
		}}
	case "audit_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "worker_availability"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "3 weeks",
			ResourcesNeeded:   []string{"auditor"},
			RiskLevel:         pipeline.RiskMedium,
		}}
	case "emergency_funding_request":
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}},
			EstimatedCost:     s.InputEvent.EstimatedCost,
			EstimatedDuration: "immediate",
			ResourcesNeeded:   []string{"emergency_fund_release"},
			RiskLevel:         pipeline.RiskCritical,
		}}
	default:
		return []*pipeline.Plan{{
			Steps:             []pipeline.ToolInvocation{{Tool: "budget_check"}},
			EstimatedDuration: "tbd",
			RiskLevel:         pipeline.RiskLow,
		}}
	}
}

func financeFeasibility(s *pipeline.State) (bool, string, map[string]any) {
	details := map[string]any{}
	if isEmergency(s) {
		if !obsBool(s, "budget_check.sufficient", true) {
			return false, "insufficient emergency reserves for requested release", details
		}
		return true, "emergency bypass: reserves available", details
	}
	if !obsBool(s, "budget_check.sufficient", true) {
		return false, "Insufficient budget remaining for estimated cost", details
	}
	if obsFloat(s, "budget_check.utilisation_pct", 0) > 90 {
		return false, "budget utilisation exceeds 90% cap", details
	}
	if obsInt(s, "active_projects.active_count", 0) >= financeActiveProjectsCap {
		return false, "too many active finance projects already underway", details
	}
	return true, "all feasibility checks passed", details
}

func financePolicy(s *pipeline.State) (bool, []string) {
	var violations []string
	if s.Plan != nil && s.Plan.RiskLevel == pipeline.RiskCritical && !isEmergency(s) {
		violations = append(violations, "critical-risk finance plan requires an emergency priority declaration")
	}
	if obsFloat(s, "budget_check.utilisation_pct", 0) > 100 {
		violations = append(violations, "plan exceeds appropriated budget authority")
	}
	return len(violations) == 0, violations
}

func financeInformational(s *pipeline.State) map[string]any {
	return map[string]any{"budget_lines": s.Context["budget_lines"]}
}
