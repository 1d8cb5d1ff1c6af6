package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// GoalSetter builds the Goal Setter node: a pure template lookup from
// templates keyed by state.Intent, with {location}/{reason}/{type}
// placeholders substituted from the request. An intent with no matching
// template falls back to fallback, rendered the same way.
func GoalSetter(templates map[string]string, fallback string) pipeline.NodeFunc {
	return func(_ context.Context, s *pipeline.State) error {
		tmpl, ok := templates[s.Intent]
		if !ok {
			tmpl = fallback
		}
		s.Goal = renderTemplate(tmpl, s.InputEvent)
		return nil
	}
}
