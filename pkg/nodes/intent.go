package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// IntentRule is one entry of an agent's deterministic fallback classifier:
// if any Keywords substring-matches the request's type/reason text, Intent
// and RiskLevel are assigned. Rules are evaluated in order; the first match
// wins.
type IntentRule struct {
	Intent    string
	Keywords  []string
	RiskLevel pipeline.RiskLevel
	QueryType string // "" normally, "informational" short-circuits to direct response
}

// IntentConfig parameterises the Intent Analyser for one agent.
type IntentConfig struct {
	AgentType     string
	Rules         []IntentRule
	DefaultIntent string
	DefaultRisk   pipeline.RiskLevel

	// ContextRiskOverride inspects already-loaded Context/Request and may
	// force a risk level independent of the text classification (e.g. "N
	// bins over the fill threshold" forcing risk_level=critical before the
	// planner ever runs). Returns ok=false to leave the classified risk
	// untouched.
	ContextRiskOverride func(s *pipeline.State) (level pipeline.RiskLevel, reason string, ok bool)
}

type intentLLMResponse struct {
	Intent         string   `json:"intent"`
	RiskLevel      string   `json:"risk_level"`
	QueryType      string   `json:"query_type"`
	SafetyConcerns []string `json:"safety_concerns"`
	Reasoning      string   `json:"reasoning"`
}

var riskRank = map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}

// IntentAnalyser builds the Intent Analyser node. Preferred path asks adapter
// for a strict JSON classification; a malformed or unavailable response
// falls back to cfg's keyword dictionary. risk_level=critical, from either
// path or the context override, sets state.Escalate immediately.
func IntentAnalyser(adapter llmclient.Adapter, cfg IntentConfig) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		intent, risk, queryType, reasoning := classifyWithLLM(ctx, adapter, cfg, s)
		if intent == "" {
			intent, risk, queryType = classifyWithKeywords(cfg, s.InputEvent)
			reasoning = "deterministic keyword fallback"
		}

		if cfg.ContextRiskOverride != nil {
			if overrideLevel, overrideReason, ok := cfg.ContextRiskOverride(s); ok {
				if riskRank[string(overrideLevel)] > riskRank[string(risk)] {
					risk = overrideLevel
					reasoning = overrideReason
				}
			}
		}

		s.Intent = intent
		s.RiskLevel = risk
		s.QueryType = queryType

		if risk == pipeline.RiskCritical {
			s.SetEscalate(fmt.Sprintf("critical risk at intent classification: %s", reasoning))
		}

		slog.Debug("intent analyser classified request",
			"agent_type", cfg.AgentType, "intent", intent, "risk_level", risk, "reasoning", reasoning)
		return nil
	}
}

func classifyWithLLM(ctx context.Context, adapter llmclient.Adapter, cfg IntentConfig, s *pipeline.State) (intent string, risk pipeline.RiskLevel, queryType, reasoning string) {
	if adapter == nil {
		return "", "", "", ""
	}
	resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
		System: fmt.Sprintf("You are the intent classifier for the %s municipal agent. "+
			"Respond with a single JSON object: "+
			`{"intent": string, "risk_level": "low|medium|high|critical", `+
			`"query_type": "" or "informational", "safety_concerns": [string], `+
			`"reasoning": string}. Return JSON only, no prose.`, cfg.AgentType),
		User:     intentUserPrompt(s.InputEvent),
		JSONOnly: true,
	})
	if err != nil || resp.Error != "" {
		slog.Warn("llm intent analyser unavailable, falling back to keywords",
			"agent_type", cfg.AgentType, "error", errOrField(err, resp.Error))
		return "", "", "", ""
	}

	var parsed intentLLMResponse
	if jsonErr := json.Unmarshal([]byte(resp.Content), &parsed); jsonErr != nil || parsed.Intent == "" {
		slog.Warn("llm intent analyser returned malformed json, falling back to keywords",
			"agent_type", cfg.AgentType)
		return "", "", "", ""
	}
	if _, ok := riskRank[parsed.RiskLevel]; !ok {
		parsed.RiskLevel = string(cfg.DefaultRisk)
	}
	return parsed.Intent, pipeline.RiskLevel(parsed.RiskLevel), parsed.QueryType, parsed.Reasoning
}

func classifyWithKeywords(cfg IntentConfig, req pipeline.Request) (intent string, risk pipeline.RiskLevel, queryType string) {
	haystack := strings.ToLower(req.Type + " " + req.Reason)
	for _, rule := range cfg.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(haystack, strings.ToLower(kw)) {
				return rule.Intent, rule.RiskLevel, rule.QueryType
			}
		}
	}
	return cfg.DefaultIntent, cfg.DefaultRisk, ""
}

func intentUserPrompt(req pipeline.Request) string {
	return fmt.Sprintf("type=%q location=%q reason=%q priority=%q estimated_cost=%v",
		req.Type, req.Location, req.Reason, req.Priority, req.EstimatedCost)
}

func errOrField(err error, field string) string {
	if err != nil {
		return err.Error()
	}
	return field
}
