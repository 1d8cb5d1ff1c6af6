package agents

import (
	"strings"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// containsAny reports whether text contains any of substrs, case-insensitive.
func containsAny(text string, substrs ...string) bool {
	lower := strings.ToLower(text)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// obsBool reads a boolean observation, defaulting to def when absent or of
// a different type. Shared across every domain agent's Feasibility rules,
// since Observer always flattens tool results the same way
// ("<tool>.<field>").
func obsBool(s *pipeline.State, key string, def bool) bool {
	v, ok := s.Observations[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func obsFloat(s *pipeline.State, key string, def float64) float64 {
	v, ok := s.Observations[key]
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

func obsInt(s *pipeline.State, key string, def int) int {
	v, ok := s.Observations[key]
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

func obsString(s *pipeline.State, key, def string) string {
	v, ok := s.Observations[key]
	if !ok {
		return def
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return def
	}
	return str
}

func isEmergency(s *pipeline.State) bool {
	return s.InputEvent.Priority == "emergency" || s.Intent == "emergency"
}

func oneOf(v string, set ...string) bool {
	for _, item := range set {
		if v == item {
			return true
		}
	}
	return false
}
