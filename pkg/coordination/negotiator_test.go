package coordination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/stretchr/testify/assert"
)

type stubAdapter struct {
	resp llmclient.CompletionResponse
	err  error
}

func (s stubAdapter) Complete(_ context.Context, _ llmclient.CompletionRequest) (llmclient.CompletionResponse, error) {
	return s.resp, s.err
}

func budgetConflict() Conflict {
	return Conflict{
		ConflictID:   "c1",
		ConflictType: ConflictBudget,
		decisions: []AgentDecision{
			{AgentID: "water", EstimatedCost: 3_000_000, Priority: "expansion"},
			{AgentID: "engineering", EstimatedCost: 3_000_000, Priority: "expansion"},
		},
	}
}

func TestNegotiate_FallsBackToRulesOnAdapterError(t *testing.T) {
	cfg := config.Default()
	adapter := stubAdapter{err: errors.New("provider unreachable")}
	res := Negotiate(context.Background(), cfg, adapter, budgetConflict(), time.Now())
	assert.Equal(t, MethodRule, res.Method)
	assert.Equal(t, DecisionEscalate, res.Decision)
}

func TestNegotiate_FallsBackToRulesOnMalformedJSON(t *testing.T) {
	cfg := config.Default()
	adapter := stubAdapter{resp: llmclient.CompletionResponse{Content: "not json"}}
	res := Negotiate(context.Background(), cfg, adapter, budgetConflict(), time.Now())
	assert.Equal(t, MethodRule, res.Method)
}

func TestNegotiate_FallsBackToRulesOnInvalidDecisionEnum(t *testing.T) {
	cfg := config.Default()
	adapter := stubAdapter{resp: llmclient.CompletionResponse{Content: `{"decision":"maybe","confidence":0.5}`}}
	res := Negotiate(context.Background(), cfg, adapter, budgetConflict(), time.Now())
	assert.Equal(t, MethodRule, res.Method)
}

func TestNegotiate_AcceptsWellFormedResponseAndClampsConfidence(t *testing.T) {
	cfg := config.Default()
	adapter := stubAdapter{resp: llmclient.CompletionResponse{
		Content: `{"decision":"approve_partial","rationale":"negotiated split","confidence":1.4,"requires_human":true,"execution_plan":{"action":"split"}}`,
	}}
	res := Negotiate(context.Background(), cfg, adapter, budgetConflict(), time.Now())
	assert.Equal(t, MethodLLM, res.Method)
	assert.Equal(t, DecisionApprovePartial, res.Decision)
	assert.Equal(t, 1.0, res.Confidence)
	assert.True(t, res.RequiresHuman)
}
