package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

// PlannerConfig parameterises the Planner node for one agent.
type PlannerConfig struct {
	AgentType string
	Tools     tools.Registry

	// Fallback produces the deterministic plan set for the pipeline's
	// current Intent when the LLM path is unavailable or malformed. Index 0
	// is the primary plan; the rest become AlternativePlans, in order.
	Fallback func(s *pipeline.State) []*pipeline.Plan
}

type plannerLLMPlan struct {
	Name              string   `json:"name"`
	Steps             []string `json:"steps"`
	EstimatedDuration string   `json:"estimated_duration"`
	EstimatedCost     float64  `json:"estimated_cost"`
	ResourcesNeeded   []string `json:"resources_needed"`
	RiskLevel         string   `json:"risk_level"`
}

type plannerLLMResponse struct {
	Plans []plannerLLMPlan `json:"plans"`
}

// Planner builds the Planner node. The LLM path's steps MUST be drawn from
// cfg.Tools; unknown tool names are dropped (logged), never a hard failure.
// A plan with zero valid steps after filtering is discarded and the next
// candidate plan (LLM or fallback) is tried instead.
func Planner(adapter llmclient.Adapter, cfg PlannerConfig) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		plans := plansFromLLM(ctx, adapter, cfg, s)
		if len(plans) == 0 {
			plans = cfg.Fallback(s)
		}
		if len(plans) == 0 {
			return fmt.Errorf("planner: no candidate plan available for intent %q", s.Intent)
		}

		s.Plan = plans[0]
		s.AlternativePlans = plans[1:]
		return nil
	}
}

func plansFromLLM(ctx context.Context, adapter llmclient.Adapter, cfg PlannerConfig, s *pipeline.State) []*pipeline.Plan {
	if adapter == nil {
		return nil
	}
	resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
		System: fmt.Sprintf("You are the planner for the %s municipal agent. Available tools: %s. "+
			`Respond with a single JSON object: {"plans": [{"name": string, "steps": [toolName,...], `+
			`"estimated_duration": string, "estimated_cost": number, "resources_needed": [string], `+
			`"risk_level": "low|medium|high|critical"}]}. Order plans with the preferred plan first. `+
			"Return JSON only, no prose.", cfg.AgentType, strings.Join(toolNames(cfg.Tools), ", ")),
		User:     plannerUserPrompt(s),
		JSONOnly: true,
	})
	if err != nil || resp.Error != "" {
		slog.Warn("llm planner unavailable, falling back to template plan", "agent_type", cfg.AgentType, "error", errOrField(err, resp.Error))
		return nil
	}

	var parsed plannerLLMResponse
	if jsonErr := json.Unmarshal([]byte(resp.Content), &parsed); jsonErr != nil || len(parsed.Plans) == 0 {
		slog.Warn("llm planner returned malformed json, falling back to template plan", "agent_type", cfg.AgentType)
		return nil
	}

	names := cfg.Tools.Names()
	var plans []*pipeline.Plan
	for _, p := range parsed.Plans {
		var steps []pipeline.ToolInvocation
		for _, name := range p.Steps {
			if !names[name] {
				slog.Info("planner dropped unregistered tool from llm plan", "agent_type", cfg.AgentType, "tool", name)
				continue
			}
			steps = append(steps, pipeline.ToolInvocation{Tool: name})
		}
		if len(steps) == 0 {
			continue
		}
		risk := pipeline.RiskLevel(p.RiskLevel)
		if _, ok := riskRank[string(risk)]; !ok {
			risk = pipeline.RiskLow
		}
		plans = append(plans, &pipeline.Plan{
			Steps:             steps,
			EstimatedCost:     p.EstimatedCost,
			EstimatedDuration: p.EstimatedDuration,
			ResourcesNeeded:   p.ResourcesNeeded,
			RiskLevel:         risk,
		})
	}
	return plans
}

func toolNames(r tools.Registry) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

func plannerUserPrompt(s *pipeline.State) string {
	return fmt.Sprintf("intent=%q goal=%q location=%q estimated_cost=%v reason=%q",
		s.Intent, s.Goal, s.InputEvent.Location, s.InputEvent.EstimatedCost, s.InputEvent.Reason)
}
