// Package agents assembles the six municipal domain agents (water,
// engineering, fire, sanitation, health, finance) as concrete instances of
// the Pipeline Runtime, wired from the shared Agent Node Library in
// pkg/nodes. Each domain agent supplies its own AgentSpec (intent
// keywords, goal templates, tool registry, feasibility/policy rules,
// informational templates) while the graph shape and every node's
// behavior are identical across agents.
package agents

import (
	"context"
	"strings"
	"time"

	"github.com/cityops/agentmesh/pkg/pipeline"
)

// Agent is one domain agent: a built Pipeline Runtime graph plus the
// identity (AgentID/AgentType) every run is stamped with.
type Agent struct {
	AgentID     string
	AgentType   string
	Version     string
	MaxAttempts int
	Graph       *pipeline.Graph
}

// Handle runs one pipeline execution for req. Missing required fields
// (type, location) are rejected synchronously, before the pipeline runs:
// input errors never enter the pipeline. deadline, when
// positive, bounds the whole execution; on expiry the runtime escalates
// with reason "deadline exceeded" rather than this method returning an
// error.
func (a *Agent) Handle(ctx context.Context, req pipeline.Request, deadline time.Duration) *pipeline.Response {
	if missing := missingFields(req); len(missing) > 0 {
		return &pipeline.Response{
			Decision: pipeline.DecisionError,
			Reason:   "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	s := pipeline.NewState(req, a.MaxAttempts)
	s.AgentID = a.AgentID
	s.AgentType = a.AgentType
	s.AgentVersion = a.Version

	runCtx := ctx
	if deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, deadline)
		defer cancel()
	}

	s = pipeline.Execute(runCtx, a.Graph, s)

	if s.Response == nil {
		s.Response = &pipeline.Response{
			Decision:            pipeline.DecisionEscalate,
			Reason:              "pipeline terminated without producing a response",
			RequiresHumanReview: true,
		}
	}
	s.Response.ExecutionTimeMs = s.ExecutionTimeMs()
	return s.Response
}

func missingFields(req pipeline.Request) []string {
	var missing []string
	if req.Type == "" {
		missing = append(missing, "type")
	}
	if req.Location == "" {
		missing = append(missing, "location")
	}
	return missing
}
