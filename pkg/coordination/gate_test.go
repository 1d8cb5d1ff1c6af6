package coordination

import (
	"testing"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/stretchr/testify/assert"
)

func TestRequiresHumanApproval_CostExactlyAtLimitDoesNotEscalate(t *testing.T) {
	cfg := config.Default()
	decisions := []AgentDecision{
		{EstimatedCost: cfg.Coordination.AutoApprovalCostLimit},
	}
	res := Resolution{Confidence: cfg.Coordination.ConfidenceThreshold, Decision: DecisionApproveAll}
	assert.False(t, RequiresHumanApproval(cfg, res, decisions))
}

func TestRequiresHumanApproval_CostOverLimitEscalates(t *testing.T) {
	cfg := config.Default()
	decisions := []AgentDecision{
		{EstimatedCost: cfg.Coordination.AutoApprovalCostLimit + 1},
	}
	res := Resolution{Confidence: 1, Decision: DecisionApproveAll}
	assert.True(t, RequiresHumanApproval(cfg, res, decisions))
}

func TestRequiresHumanApproval_ConfidenceExactlyAtThresholdDoesNotEscalate(t *testing.T) {
	cfg := config.Default()
	res := Resolution{Confidence: cfg.Coordination.ConfidenceThreshold, Decision: DecisionApproveAll}
	assert.False(t, RequiresHumanApproval(cfg, res, nil))
}

func TestRequiresHumanApproval_BelowConfidenceThresholdEscalates(t *testing.T) {
	cfg := config.Default()
	res := Resolution{Confidence: cfg.Coordination.ConfidenceThreshold - 0.01, Decision: DecisionApproveAll}
	assert.True(t, RequiresHumanApproval(cfg, res, nil))
}

func TestRequiresHumanApproval_EscalateDecisionAlwaysEscalates(t *testing.T) {
	cfg := config.Default()
	res := Resolution{Confidence: 1, Decision: DecisionEscalate}
	assert.True(t, RequiresHumanApproval(cfg, res, nil))
}

func TestRequiresHumanApproval_ResolutionRequiresHumanFlagEscalates(t *testing.T) {
	cfg := config.Default()
	res := Resolution{Confidence: 1, Decision: DecisionApproveAll, RequiresHuman: true}
	assert.True(t, RequiresHumanApproval(cfg, res, nil))
}
