package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// PolicyFunc is the deterministic, authoritative rule set for one agent's
// policy compliance check. The boolean it returns always wins; an LLM
// explanation, when available, is advisory text only.
type PolicyFunc func(s *pipeline.State) (ok bool, violations []string)

// PolicyValidator builds the Policy Validator node. A failing policy MUST
// set Escalate; deterministic rules decide the boolean regardless of
// whether adapter is configured.
func PolicyValidator(adapter llmclient.Adapter, agentType string, rules PolicyFunc) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		ok, violations := rules(s)
		s.PolicyOK = ok
		s.PolicyViolations = violations

		if !ok {
			s.SetEscalate("policy violation: " + strings.Join(violations, "; "))
			if adapter != nil {
				if explanation, explained := policyExplanation(ctx, adapter, agentType, violations); explained {
					s.PolicyViolations = append(s.PolicyViolations, "explanation: "+explanation)
				}
			}
		}
		return nil
	}
}

func policyExplanation(ctx context.Context, adapter llmclient.Adapter, agentType string, violations []string) (string, bool) {
	resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
		System: fmt.Sprintf("You are the policy explainer for the %s municipal agent. "+
			"Explain the listed policy violations to a human reviewer in one or two sentences. Plain text, no JSON.", agentType),
		User: strings.Join(violations, "; "),
	})
	if err != nil || resp.Error != "" {
		slog.Warn("llm policy explanation unavailable", "agent_type", agentType, "error", errOrField(err, resp.Error))
		return "", false
	}
	return strings.TrimSpace(resp.Content), true
}
