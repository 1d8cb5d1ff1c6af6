// Package nodes implements the Agent Node Library: the shared catalogue of
// pipeline.NodeFunc constructors every domain agent assembles its graph
// from. Each constructor closes over agent-specific configuration (intent
// keywords, goal templates, tool registries, feasibility/policy rules) so
// the node logic itself (LLM-preferred with a deterministic fallback,
// never raising past the runtime boundary) stays identical across agents.
package nodes

import (
	"strings"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

// renderTemplate substitutes {location}, {reason}, {type} placeholders in a
// goal/summary template with values drawn from the request.
func renderTemplate(tmpl string, req pipeline.Request) string {
	r := strings.NewReplacer(
		"{location}", req.Location,
		"{reason}", req.Reason,
		"{type}", req.Type,
	)
	return r.Replace(tmpl)
}

// stringField reads a string field from a Request's domain-specific Fields
// map, defaulting to "" when absent or of a different type.
func stringField(req pipeline.Request, key string) string {
	v, _ := req.Fields[key].(string)
	return v
}

// intField reads an int/float64-typed field from Fields, defaulting to def.
func intField(req pipeline.Request, key string, def int) int {
	v, ok := req.Fields[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

// floatField reads a numeric field from Fields, defaulting to def.
func floatField(req pipeline.Request, key string, def float64) float64 {
	v, ok := req.Fields[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}
