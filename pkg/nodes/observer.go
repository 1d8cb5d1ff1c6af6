package nodes

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// Observer builds the Observer node: normalises state.ToolResults into a
// flat state.Observations mapping. The deterministic extraction (every
// Data field flattened under "<tool>.<field>", plus a "<tool>_error"
// boolean when a tool failed) always runs, since downstream deterministic
// evaluators depend on it; when adapter is non-nil an additional
// free-text "commentary" observation is attached, best-effort.
func Observer(adapter llmclient.Adapter, agentType string) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		for tool, result := range s.ToolResults {
			if result.Error != "" {
				s.Observations[tool+"_error"] = true
				s.Observations[tool+"_error_message"] = result.Error
				continue
			}
			s.Observations[tool+"_error"] = false
			for field, value := range result.Data {
				s.Observations[fmt.Sprintf("%s.%s", tool, field)] = value
			}
		}

		if adapter == nil {
			return nil
		}
		resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
			System: fmt.Sprintf("You are the observation summarizer for the %s municipal agent. "+
				"Summarize the tool results in one terse sentence. Return plain text, no JSON.", agentType),
			User: observerUserPrompt(s),
		})
		if err != nil || resp.Error != "" {
			slog.Warn("llm observer commentary unavailable, continuing without it", "agent_type", agentType, "error", errOrField(err, resp.Error))
			return nil
		}
		s.Observations["commentary"] = strings.TrimSpace(resp.Content)
		return nil
	}
}

func observerUserPrompt(s *pipeline.State) string {
	names := make([]string, 0, len(s.ToolResults))
	for name := range s.ToolResults {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		r := s.ToolResults[name]
		if r.Error != "" {
			fmt.Fprintf(&b, "%s: error=%s\n", name, r.Error)
			continue
		}
		fmt.Fprintf(&b, "%s: %v\n", name, r.Data)
	}
	return b.String()
}
