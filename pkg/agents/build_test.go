package agents

import (
	"context"
	"testing"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/transparency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDeps(facts datasource.FactSet) Deps {
	return Deps{
		DataSource: datasource.NewMemory(facts),
		LLM:        nil,
		Checkpoint: nil,
		Log:        transparency.NewMemory(),
	}
}

// A routine informational query against the health agent answers directly
// from context, with no coordination check and a fixed 0.95 confidence.
func TestHealthAgent_InformationalSupplyQuery(t *testing.T) {
	supplies := make([]map[string]any, 9)
	for i := range supplies {
		supplies[i] = map[string]any{"location": "Downtown", "item": "bandages", "count": 10 + i}
	}
	deps := testDeps(datasource.FactSet{"supplies": supplies})
	agent := Build(Health(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:     "status_query",
		Location: "Downtown",
		Reason:   "What medical supplies do we have?",
	}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionInform, resp.Decision)
	assert.Equal(t, 0.95, resp.Confidence)
	assert.True(t, resp.Details["feasible"].(bool))
	assert.Len(t, resp.Data["supplies"], 9)
}

// Enough overflowing bins in context force a critical risk override before
// the planner ever runs, so the agent escalates even though the request
// text itself never mentions an emergency.
func TestSanitationAgent_BinOverflowContextOverrideEscalates(t *testing.T) {
	bins := make([]map[string]any, 8)
	for i := range bins {
		fill := 60.0
		if i < 7 {
			fill = 97.0
		}
		bins[i] = map[string]any{"location": "Zone-C", "fill_percent": fill}
	}
	deps := testDeps(datasource.FactSet{"waste_bins": bins})
	agent := Build(Sanitation(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:     "routine_check",
		Location: "Zone-C",
		Reason:   "scheduled weekly bin check",
	}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionEscalate, resp.Decision)
	assert.True(t, resp.RequiresHumanReview)
}

// A maintenance request with sufficient workers, budget, and infrastructure
// condition should clear every gate and come back recommended or approved,
// never escalated or denied.
func TestWaterAgent_MaintenanceRequestHappyPath(t *testing.T) {
	deps := testDeps(datasource.FactSet{
		"available_workers":   {{"location": "Zone-A", "count": 5}},
		"budget_lines":        {{"location": "Zone-A", "remaining": 500000.0, "limit": 1000000.0}},
		"scheduled_shifts":    {{"location": "Zone-A", "status": "idle"}},
		"pipeline_conditions": {{"location": "Zone-A", "condition": "fair"}},
		"zone_risk":           {{"location": "Zone-A", "risk_level": "low"}},
		"active_projects":     {},
	})
	agent := Build(Water(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:          "maintenance_request",
		Location:      "Zone-A",
		Reason:        "scheduled pipe inspection",
		EstimatedCost: 10000,
		Priority:      "routine",
	}, 0)

	require.NotNil(t, resp)
	assert.NotEqual(t, pipeline.DecisionEscalate, resp.Decision)
	assert.NotEqual(t, pipeline.DecisionDeny, resp.Decision)
	assert.True(t, resp.Details["feasible"].(bool))
}

// A schedule shift with enough workers, no conflicting shifts, and budget
// headroom clears every gate with a non-empty plan and confidence at or
// above the routing threshold.
func TestWaterAgent_ScheduleShiftFeasibleAndCompliant(t *testing.T) {
	deps := testDeps(datasource.FactSet{
		"available_workers": {{"location": "Downtown", "count": 10}},
		"scheduled_shifts":  {{"location": "Downtown", "status": "idle"}},
		"budget_lines":      {{"location": "Downtown", "remaining": 300000.0, "limit": 1000000.0}},
	})
	agent := Build(Water(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:          "schedule_shift_request",
		Location:      "Downtown",
		Reason:        "shift the maintenance window forward",
		EstimatedCost: 50000,
		Priority:      "routine",
		Fields:        map[string]any{"requested_shift_days": 2, "required_workers": 5},
	}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionRecommend, resp.Decision)
	assert.True(t, resp.Details["feasible"].(bool))
	assert.True(t, resp.Details["policy_compliant"].(bool))
	assert.GreaterOrEqual(t, resp.Confidence, 0.7)
	require.NotNil(t, resp.Recommendation)
	plan, ok := resp.Recommendation["plan"].(*pipeline.Plan)
	require.True(t, ok)
	assert.NotEmpty(t, plan.Steps)
}

// An estimated cost far beyond the remaining budget line stays infeasible
// through every alternative plan, so the feasibility evaluator keeps
// retrying until it exhausts max attempts and the decision router
// escalates rather than denying with attempts still on the clock.
func TestWaterAgent_InsufficientBudgetEscalatesAfterExhaustingAttempts(t *testing.T) {
	deps := testDeps(datasource.FactSet{
		"available_workers":   {{"location": "Zone-B", "count": 5}},
		"budget_lines":        {{"location": "Zone-B", "remaining": 100000.0, "limit": 1000000.0}},
		"scheduled_shifts":    {{"location": "Zone-B", "status": "idle"}},
		"pipeline_conditions": {{"location": "Zone-B", "condition": "fair"}},
		"zone_risk":           {{"location": "Zone-B", "risk_level": "low"}},
		"active_projects":     {},
	})
	agent := Build(Water(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:          "maintenance_request",
		Location:      "Zone-B",
		Reason:        "replace aging trunk main",
		EstimatedCost: 999999,
		Priority:      "routine",
	}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionEscalate, resp.Decision)
	assert.True(t, resp.RequiresHumanReview)
	assert.Contains(t, resp.Reason, "Insufficient budget")
}

func TestAgent_Handle_RejectsMissingRequiredFields(t *testing.T) {
	deps := testDeps(nil)
	agent := Build(Water(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{Reason: "no type or location"}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionError, resp.Decision)
	assert.Contains(t, resp.Reason, "type")
	assert.Contains(t, resp.Reason, "location")
}

// An emergency-priority request bypasses every feasibility rule except
// worker availability, so a zeroed budget line does not block it.
func TestFireAgent_EmergencyPriorityBypassesBudgetCheck(t *testing.T) {
	deps := testDeps(datasource.FactSet{
		"available_firefighters": {{"location": "Zone-D", "count": 12}},
		"station_budget_lines":   {{"location": "Zone-D", "remaining": 0.0, "limit": 1000000.0}},
	})
	agent := Build(Fire(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:          "equipment_maintenance_request",
		Location:      "Zone-D",
		Reason:        "pump truck hydraulics failing, engine crew cannot respond",
		EstimatedCost: 50000,
		Priority:      "emergency",
	}, 0)

	require.NotNil(t, resp)
	assert.NotEqual(t, pipeline.DecisionDeny, resp.Decision)
	assert.NotEqual(t, pipeline.DecisionEscalate, resp.Decision)
	assert.True(t, resp.Details["feasible"].(bool))
}

// A critical-risk classification escalates straight from the intent node,
// before the planner ever runs.
func TestFireAgent_CriticalRiskEscalatesBeforePlanning(t *testing.T) {
	deps := testDeps(datasource.FactSet{
		"available_firefighters": {{"location": "Zone-D", "count": 12}},
	})
	agent := Build(Fire(config.Default()), deps)

	resp := agent.Handle(context.Background(), pipeline.Request{
		Type:          "emergency_response",
		Location:      "Zone-D",
		Reason:        "structure fire reported with residents trapped",
		EstimatedCost: 50000,
		Priority:      "emergency",
	}, 0)

	require.NotNil(t, resp)
	assert.Equal(t, pipeline.DecisionEscalate, resp.Decision)
	assert.True(t, resp.RequiresHumanReview)
	assert.Equal(t, "critical", resp.Details["risk_level"])
	assert.Nil(t, resp.Details["plan"])
}
