package coordination

import (
	"testing"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveResource_EmergencyPreempts(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictResource,
		decisions: []AgentDecision{
			{AgentID: "water", Priority: "emergency", Timestamp: now},
			{AgentID: "engineering", Priority: "expansion", Timestamp: now.Add(-time.Hour)},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, DecisionApprovePartial, res.Decision)
	assert.Equal(t, []string{"water"}, res.ExecutionPlan["approved"])
}

func TestResolveResource_HighestPriorityWinsOnTie(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictResource,
		decisions: []AgentDecision{
			{AgentID: "water", Priority: "routine", Timestamp: now},
			{AgentID: "engineering", Priority: "safety_critical", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, []string{"engineering"}, res.ExecutionPlan["approved"])
}

func TestResolvePolicy_DefersToFirstPostSeasonMonth(t *testing.T) {
	cfg := config.Default()
	june := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	c := Conflict{ConflictType: ConflictPolicy, decisions: []AgentDecision{{AgentID: "engineering"}}}
	res := ResolveWithRules(cfg, c, june)
	assert.Equal(t, DecisionDefer, res.Decision)
	assert.Equal(t, "October", res.ExecutionPlan["defer_until"])
	assert.Equal(t, 1.0, res.Confidence)
}

func TestResolveTiming_InfrastructureDependencyOrdersConstructionFirst(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictTiming,
		decisions: []AgentDecision{
			{AgentID: "water", AgentType: "water", Decision: "maintenance", Location: "main-st", Timestamp: now},
			{AgentID: "engineering", AgentType: "engineering", Decision: "construction", Location: "main-st", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	require.Equal(t, DecisionApproveAll, res.Decision)
	seq := res.ExecutionPlan["sequence"].([]map[string]any)
	require.Len(t, seq, 2)
	assert.Equal(t, "engineering", seq[0]["agent"])
	assert.Equal(t, "water", seq[1]["agent"])
}

func TestResolveBudget_EscalatesPastLimit(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictBudget,
		decisions: []AgentDecision{
			{AgentID: "water", EstimatedCost: 3_000_000, Priority: "expansion", Timestamp: now},
			{AgentID: "engineering", EstimatedCost: 3_000_000, Priority: "expansion", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, DecisionEscalate, res.Decision)
	assert.True(t, res.RequiresHuman)
}

func TestResolveBudget_AllocatesToHighestPriorityUnderLimit(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictBudget,
		decisions: []AgentDecision{
			{AgentID: "water", EstimatedCost: 1_000_000, Priority: "routine", Timestamp: now},
			{AgentID: "engineering", EstimatedCost: 1_000_000, Priority: "safety_critical", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, DecisionApprovePartial, res.Decision)
	assert.Equal(t, []string{"engineering"}, res.ExecutionPlan["approved"])
	assert.True(t, res.RequiresHuman)
}

func TestResolveLocation_TwoAgentsAllowSimultaneousWithCoordination(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictLocation,
		decisions: []AgentDecision{
			{AgentID: "water", Priority: "routine", Timestamp: now},
			{AgentID: "sanitation", Priority: "routine", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, DecisionApproveAll, res.Decision)
	assert.True(t, res.RequiresHuman)
	assert.Equal(t, "simultaneous_with_coordination", res.ExecutionPlan["action"])
}

func TestResolveLocation_MoreThanTwoAgentsSequencesByPriority(t *testing.T) {
	cfg := config.Default()
	now := time.Now()
	c := Conflict{
		ConflictType: ConflictLocation,
		decisions: []AgentDecision{
			{AgentID: "water", Priority: "routine", Timestamp: now},
			{AgentID: "sanitation", Priority: "maintenance", Timestamp: now},
			{AgentID: "engineering", Priority: "safety_critical", Timestamp: now},
		},
	}
	res := ResolveWithRules(cfg, c, now)
	assert.Equal(t, DecisionApproveAll, res.Decision)
	assert.False(t, res.RequiresHuman)
	seq := res.ExecutionPlan["sequence"].([]map[string]any)
	assert.Equal(t, "engineering", seq[0]["agent"])
}
