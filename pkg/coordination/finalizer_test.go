package coordination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFinalize_NoConflictsApprovesEveryone(t *testing.T) {
	decisions := []AgentDecision{{AgentID: "water"}, {AgentID: "engineering"}}
	decision, plan := Finalize(decisions, nil, nil, nil, nil, time.Now())
	assert.Equal(t, "approved", decision)
	assert.Equal(t, "execute_all", plan["action"])
}

func TestFinalize_AdoptsPrimaryResolutionWithoutHumanOverride(t *testing.T) {
	resolutions := []Resolution{{Decision: DecisionApprovePartial, ExecutionPlan: map[string]any{"action": "partial"}}}
	conflicts := []Conflict{{ConflictID: "c1"}}
	decision, plan := Finalize(nil, conflicts, resolutions, nil, nil, time.Now())
	assert.Equal(t, "approve_partial", decision)
	assert.Equal(t, "partial", plan["action"])
}

func TestFinalize_HumanApprovalOverridesWithHumanPlan(t *testing.T) {
	resolutions := []Resolution{{Decision: DecisionEscalate, ExecutionPlan: map[string]any{"action": "escalate"}}}
	conflicts := []Conflict{{ConflictID: "c1"}}
	human := &HumanEscalationRecord{Status: "approved"}
	humanPlan := map[string]any{"action": "human_override"}
	decision, plan := Finalize(nil, conflicts, resolutions, human, humanPlan, time.Now())
	assert.Equal(t, "approved", decision)
	assert.Equal(t, "human_override", plan["action"])
}

func TestFinalize_HumanRejectionAdoptsRejectedStatus(t *testing.T) {
	resolutions := []Resolution{{Decision: DecisionApprovePartial, ExecutionPlan: map[string]any{}}}
	conflicts := []Conflict{{ConflictID: "c1"}}
	human := &HumanEscalationRecord{Status: "rejected"}
	decision, _ := Finalize(nil, conflicts, resolutions, human, nil, time.Now())
	assert.Equal(t, "rejected", decision)
}
