package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// InformationalTemplate builds the deterministic "data" payload for an
// informational query from whatever facts the Context Loader already
// populated, keyed the way the agent names them (e.g. "supplies",
// "campaigns", "facilities").
type InformationalTemplate func(s *pipeline.State) map[string]any

// InformationalResponder builds the direct-response node: it
// short-circuits the full pipeline when the Intent Analyser set
// QueryType="informational". Confidence is fixed at 0.95, Feasible and
// PolicyOK are both true by definition of an informational query having
// been answered. The LLM summary is a terse natural-language rendering of
// template's data; its system prompt is generated per call declaring role,
// required brevity, and an explicit anti-table constraint (never render a
// markdown table). A nil adapter, or any LLM failure, falls back to a
// templated listing of the data's entries.
func InformationalResponder(adapter llmclient.Adapter, agentType string, template InformationalTemplate) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		data := template(s)

		summary := templatedSummary(data)
		if adapter != nil {
			if llmSummary, ok := llmInformationalSummary(ctx, adapter, agentType, s, data); ok {
				summary = llmSummary
			}
		}

		s.Feasible = true
		s.PolicyOK = true
		s.Confidence = 0.95
		s.Response = &pipeline.Response{
			Decision:   pipeline.DecisionInform,
			Reason:     summary,
			Confidence: 0.95,
			Data:       data,
			Details: map[string]any{
				"feasible":         true,
				"policy_compliant": true,
				"risk_level":       string(s.RiskLevel),
			},
		}
		return nil
	}
}

func llmInformationalSummary(ctx context.Context, adapter llmclient.Adapter, agentType string, s *pipeline.State, data map[string]any) (string, bool) {
	system := fmt.Sprintf(
		"You are the %s municipal agent answering a citizen-facing informational query. "+
			"Respond in at most two short sentences of plain prose. Never render a markdown table, "+
			"bullet list, or code block. Prose only.", agentType)
	resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
		System: system,
		User:   fmt.Sprintf("question=%q data=%v", s.InputEvent.Reason, data),
	})
	if err != nil || resp.Error != "" {
		slog.Warn("llm informational summary unavailable, falling back to templated listing", "agent_type", agentType, "error", errOrField(err, resp.Error))
		return "", false
	}
	return strings.TrimSpace(resp.Content), true
}

func templatedSummary(data map[string]any) string {
	var b strings.Builder
	b.WriteString("Here is what we currently have on record: ")
	first := true
	for key, value := range data {
		if !first {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %v", key, value)
		first = false
	}
	return b.String()
}
