package coordination

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/humaninterface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinate_FewerThanTwoDecisionsApprovesImmediately(t *testing.T) {
	w := &Workflow{Config: config.Default()}
	result := w.Coordinate(context.Background(), []AgentDecision{{AgentID: "water"}})
	assert.Equal(t, "approved", result.Decision)
	assert.Equal(t, MethodNone, result.ResolutionMethod)
	assert.Zero(t, result.ConflictsDetected)
}

func TestCoordinate_TwoAgentResourceConflictResolvedByRule(t *testing.T) {
	w := &Workflow{Config: config.Default()}
	now := time.Now()
	decisions := []AgentDecision{
		{AgentID: "water", AgentType: "water", Priority: "routine", ResourcesNeeded: []string{"crew-a"}, Timestamp: now},
		{AgentID: "engineering", AgentType: "engineering", Priority: "safety_critical", ResourcesNeeded: []string{"crew-a"}, Timestamp: now},
	}
	result := w.Coordinate(context.Background(), decisions)
	require.Equal(t, MethodRule, result.ResolutionMethod)
	assert.Equal(t, 1, result.ConflictsDetected)
	assert.False(t, result.RequiresHuman)
	assert.Equal(t, "approve_partial", result.Decision)
}

// Two agents contending for the same crew at the same zone trip both the
// resource and location checks; the rule engine awards the resource to the
// higher-priority agent and queues the other, with no human involvement.
func TestCoordinate_SameZoneCrewContentionAwardsHigherPriority(t *testing.T) {
	w := &Workflow{Config: config.Default()}
	now := time.Now()
	decisions := []AgentDecision{
		{AgentID: "water_dept", AgentType: "water", Priority: "expansion", ResourcesNeeded: []string{"workers_zone_a"}, Location: "Zone-A", Timestamp: now},
		{AgentID: "engineering_dept", AgentType: "engineering", Priority: "maintenance", ResourcesNeeded: []string{"workers_zone_a"}, Location: "Zone-A", Timestamp: now.Add(time.Second)},
	}
	result := w.Coordinate(context.Background(), decisions)
	assert.Equal(t, 2, result.ConflictsDetected)
	require.Equal(t, MethodRule, result.ResolutionMethod)
	assert.False(t, result.RequiresHuman)
	assert.Equal(t, []string{"water_dept"}, result.ExecutionPlan["approved"])
	assert.Equal(t, []string{"engineering_dept"}, result.ExecutionPlan["queued"])
}

func TestCoordinate_BudgetOverLimitEscalatesToHumanApproval(t *testing.T) {
	cfg := config.Default()
	w := &Workflow{
		Config:   cfg,
		LLM:      stubAdapter{err: assertErr{}},
		Approval: humaninterface.AutoApprove{},
	}
	now := time.Now()
	decisions := []AgentDecision{
		{AgentID: "water", AgentType: "water", Priority: "expansion", EstimatedCost: 3_000_000, Timestamp: now},
		{AgentID: "engineering", AgentType: "engineering", Priority: "expansion", EstimatedCost: 3_000_000, Timestamp: now},
	}
	result := w.Coordinate(context.Background(), decisions)
	require.Equal(t, MethodRule, result.ResolutionMethod)
	assert.True(t, result.RequiresHuman)
	assert.Equal(t, "approved", result.Decision)
	assert.Equal(t, "execute_all", result.ExecutionPlan["action"])
}

type assertErr struct{}

func (assertErr) Error() string { return "llm unavailable" }

// A high-cost conflict with mixed priorities scores past the complexity
// threshold, goes through the LLM negotiator (here falling back to the
// budget rule), and needs a human, satisfied by the auto-approve
// configuration flag with the system approver.
func TestCoordinate_AutoApproveFlagSuppliesSystemApprover(t *testing.T) {
	cfg := config.Default()
	cfg.Coordination.AutoApprove = true
	w := &Workflow{Config: cfg, LLM: stubAdapter{err: assertErr{}}}
	now := time.Now()
	decisions := []AgentDecision{
		{AgentID: "water", AgentType: "water", Priority: "expansion", EstimatedCost: 90_000_000, Confidence: 0.60, Timestamp: now},
		{AgentID: "engineering", AgentType: "engineering", Priority: "maintenance", EstimatedCost: 90_000_000, Confidence: 0.65, Timestamp: now},
	}
	result := w.Coordinate(context.Background(), decisions)
	require.Equal(t, MethodLLM, result.ResolutionMethod)
	assert.True(t, result.RequiresHuman)
	assert.Equal(t, "approved", result.Decision)

	approverLogged := false
	for _, line := range result.WorkflowLog {
		if strings.Contains(line, "approver=system_auto_approve") {
			approverLogged = true
		}
	}
	assert.True(t, approverLogged)
}

func TestCoordinate_NoApprovalSourceAndNoAutoApproveDefers(t *testing.T) {
	w := &Workflow{Config: config.Default(), LLM: stubAdapter{err: assertErr{}}}
	now := time.Now()
	decisions := []AgentDecision{
		{AgentID: "water", AgentType: "water", Priority: "expansion", EstimatedCost: 3_000_000, Timestamp: now},
		{AgentID: "engineering", AgentType: "engineering", Priority: "expansion", EstimatedCost: 3_000_000, Timestamp: now},
	}
	result := w.Coordinate(context.Background(), decisions)
	require.Equal(t, MethodRule, result.ResolutionMethod)
	assert.True(t, result.RequiresHuman)
	assert.Equal(t, "deferred", result.Decision)
}

func TestCheckPlanConflicts_DetectsConflictAgainstInFlightPeer(t *testing.T) {
	w := &Workflow{Config: config.Default()}

	first := w.CheckPlanConflicts(context.Background(), "water", "water", nil, "main-st", []string{"crew-a"}, 1000, "routine")
	assert.False(t, first.HasConflicts)

	second := w.CheckPlanConflicts(context.Background(), "engineering", "engineering", nil, "main-st", []string{"crew-a"}, 1000, "expansion")
	assert.True(t, second.HasConflicts)
	assert.Contains(t, second.ConflictTypes, string(ConflictResource))
	assert.Contains(t, second.ConflictTypes, string(ConflictLocation))
}

func TestCheckPlanConflicts_ExpiredInFlightEntryIsNotCompared(t *testing.T) {
	w := &Workflow{Config: config.Default()}
	past := time.Now().Add(-2 * inFlightTTL)
	w.inFlight = []inFlightDecision{
		{decision: AgentDecision{AgentID: "water", Location: "main-st"}, seenAt: past},
	}

	result := w.CheckPlanConflicts(context.Background(), "engineering", "engineering", nil, "main-st", nil, 0, "routine")
	assert.False(t, result.HasConflicts)
}
