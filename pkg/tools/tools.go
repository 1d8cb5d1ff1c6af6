// Package tools provides pure functions that wrap Domain Data Source
// queries into named, parameterised capabilities a plan's steps invoke.
package tools

import (
	"context"

	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// Func is one tool's implementation. It never raises: any failure is
// reported via ToolResult.Error, never a Go error return.
type Func func(ctx context.Context, ds datasource.DataSource, args map[string]any) pipeline.ToolResult

// Registry is a per-agent named capability set.
type Registry map[string]Func

// Names returns the registered tool names, used by the Planner to drop
// unknown tool names from LLM-proposed plans.
func (r Registry) Names() map[string]bool {
	names := make(map[string]bool, len(r))
	for name := range r {
		names[name] = true
	}
	return names
}

// Invoke looks up name and runs it. An unregistered tool name is reported
// as a ToolResult error rather than a panic; the Planner node filters
// LLM-proposed plans against Names(), but the Tool Executor does no such
// check, so Invoke stays defensive.
func (r Registry) Invoke(ctx context.Context, ds datasource.DataSource, name string, args map[string]any) pipeline.ToolResult {
	fn, ok := r[name]
	if !ok {
		return pipeline.ToolResult{Error: "unknown tool: " + name}
	}
	return fn(ctx, ds, args)
}

// ErrorResult is a convenience constructor for a failing ToolResult.
func ErrorResult(msg string) pipeline.ToolResult {
	return pipeline.ToolResult{Error: msg}
}

// DataResult is a convenience constructor for a successful ToolResult.
func DataResult(data map[string]any) pipeline.ToolResult {
	return pipeline.ToolResult{Data: data}
}
