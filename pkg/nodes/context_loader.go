package nodes

import (
	"context"
	"log/slog"

	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// ContextLoader builds the Context Loader node: for every named fact set in
// facts, queries ds filtered by the request's location (sentinel locations
// are treated as no-filter, per datasource.IsSentinelLocation) and writes
// the result into state.Context. Never raises: a query error logs and
// leaves that fact set as an empty list, same as any other no-data outcome.
func ContextLoader(ds datasource.DataSource, facts []string) pipeline.NodeFunc {
	return func(ctx context.Context, s *pipeline.State) error {
		loc := s.InputEvent.Location
		if datasource.IsSentinelLocation(loc) {
			loc = ""
		}
		for _, fact := range facts {
			rows, err := ds.Query(ctx, fact, datasource.Filter{Location: loc})
			if err != nil {
				slog.Warn("context loader query failed, using empty fact set",
					"agent_type", s.AgentType, "fact", fact, "error", err)
				s.Context[fact] = []map[string]any{}
				continue
			}
			s.Context[fact] = rows
		}
		return nil
	}
}
