package nodes

import (
	"context"

	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
)

// ArgsBuilder derives a tool call's parameter pack deterministically from
// the pipeline state and the step being invoked. The default, DefaultArgs,
// covers the common shape (location, cost, required workers); domain
// agents with extra step-specific parameters supply their own.
type ArgsBuilder func(s *pipeline.State, step pipeline.ToolInvocation) map[string]any

// DefaultArgs builds the parameter pack every tool in pkg/tools/common.go
// expects: location, cost, and a "required" worker count read from the
// request's domain fields (default key "required_workers").
func DefaultArgs(s *pipeline.State, _ pipeline.ToolInvocation) map[string]any {
	return map[string]any{
		"location": s.InputEvent.Location,
		"cost":     s.InputEvent.EstimatedCost,
		"required": intField(s.InputEvent, "required_workers", 0),
	}
}

// ToolExecutor builds the Tool Executor node: for each step in s.Plan.Steps,
// looks up the tool by name in registry and invokes it with argsFor's
// parameter pack, storing the result under the step name. A failing or
// unregistered tool call records {error} and does not abort the remaining
// steps.
func ToolExecutor(ds datasource.DataSource, registry tools.Registry, argsFor ArgsBuilder) pipeline.NodeFunc {
	if argsFor == nil {
		argsFor = DefaultArgs
	}
	return func(ctx context.Context, s *pipeline.State) error {
		if s.Plan == nil {
			return nil
		}
		for _, step := range s.Plan.Steps {
			args := argsFor(s, step)
			for k, v := range step.Args {
				args[k] = v
			}
			s.ToolResults[step.Tool] = registry.Invoke(ctx, ds, step.Tool, args)
		}
		return nil
	}
}
