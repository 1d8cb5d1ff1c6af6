package coordination

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/google/uuid"
)

type negotiatorResponse struct {
	Decision      string         `json:"decision"`
	Rationale     string         `json:"rationale"`
	Confidence    float64        `json:"confidence"`
	RequiresHuman bool           `json:"requires_human"`
	ExecutionPlan map[string]any `json:"execution_plan"`
}

var validNegotiatorDecisions = map[string]bool{
	string(DecisionApproveAll):     true,
	string(DecisionApprovePartial): true,
	string(DecisionDefer):          true,
	string(DecisionReject):         true,
	string(DecisionEscalate):       true,
}

// Negotiate resolves a complex conflict by prompting adapter for a
// negotiated outcome across the full decision set. On a malformed or
// unavailable response it falls back to the Rule Engine; if the rule
// engine itself has nothing to offer for this conflict type, it produces
// an escalate resolution.
func Negotiate(ctx context.Context, cfg *config.Config, adapter llmclient.Adapter, c Conflict, now time.Time) Resolution {
	resp, err := adapter.Complete(ctx, llmclient.CompletionRequest{
		System:   negotiatorSystemPrompt(),
		User:     negotiatorUserPrompt(c),
		JSONOnly: true,
	})
	if err != nil || resp.Error != "" {
		slog.Warn("llm negotiator unavailable, falling back to rule engine", "conflict_id", c.ConflictID, "error", errString(err, resp.Error))
		return ResolveWithRules(cfg, c, now)
	}

	var parsed negotiatorResponse
	if jsonErr := json.Unmarshal([]byte(resp.Content), &parsed); jsonErr != nil || !validNegotiatorDecisions[parsed.Decision] {
		slog.Warn("llm negotiator returned malformed response, falling back to rule engine", "conflict_id", c.ConflictID)
		return ResolveWithRules(cfg, c, now)
	}

	confidence := parsed.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}

	return Resolution{
		ResolutionID:  uuid.NewString(),
		ConflictID:    c.ConflictID,
		Method:        MethodLLM,
		Decision:      ResolutionDecision(parsed.Decision),
		Rationale:     parsed.Rationale,
		Confidence:    confidence,
		RequiresHuman: parsed.RequiresHuman,
		ExecutionPlan: parsed.ExecutionPlan,
		ResolvedAt:    now,
	}
}

func errString(err error, respErr string) string {
	if err != nil {
		return err.Error()
	}
	return respErr
}

func negotiatorSystemPrompt() string {
	return "You are a municipal coordination negotiator resolving conflicts between " +
		"domain agents. Respond with a single JSON object: " +
		`{"decision": "approve_all|approve_partial|defer|reject|escalate", ` +
		`"rationale": string, "confidence": number 0-1, "requires_human": bool, ` +
		`"execution_plan": object}. Return JSON only, no prose.`
}

func negotiatorUserPrompt(c Conflict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Conflict type: %s\nSeverity: %s\nComplexity score: %.2f\n", c.ConflictType, c.Severity, c.ComplexityScore)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	b.WriteString("Decisions involved:\n")
	for _, d := range c.decisions {
		fmt.Fprintf(&b, "- agent=%s type=%s priority=%s cost=%.2f location=%s resources=%v\n",
			d.AgentID, d.AgentType, d.Priority, d.EstimatedCost, d.Location, d.ResourcesNeeded)
	}
	return b.String()
}
