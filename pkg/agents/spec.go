package agents

import (
	"github.com/cityops/agentmesh/pkg/datasource"
	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
	"github.com/cityops/agentmesh/pkg/tools"
	"github.com/cityops/agentmesh/pkg/transparency"
)

// Spec is everything one domain agent supplies to Build: the pieces of
// the shared node catalogue that vary by domain. Build wires these into
// the identical graph shape every agent shares.
type Spec struct {
	AgentID   string
	AgentType string
	Version   string

	// ContextFacts names the Domain Data Source fact sets the Context
	// Loader populates for this agent.
	ContextFacts []string

	Intent       nodes.IntentConfig
	Goals        map[string]string
	GoalFallback string

	Tools        tools.Registry
	PlanFallback func(s *pipeline.State) []*pipeline.Plan
	Args         nodes.ArgsBuilder

	Feasibility nodes.FeasibilityFunc
	Policy      nodes.PolicyFunc

	Informational nodes.InformationalTemplate

	ConfidenceThreshold float64
	MaxAttempts         int
}

// Deps are the shared, process-scoped collaborators every agent is built
// against: a DataSource, an LLM adapter, the Coordination Checkpoint
// target, and the Transparency Log.
type Deps struct {
	DataSource datasource.DataSource
	LLM        llmclient.Adapter
	Checkpoint nodes.CoordinationChecker
	Log        transparency.Log
}
