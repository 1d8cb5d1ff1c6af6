package agents

import (
	"github.com/cityops/agentmesh/pkg/nodes"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// Build assembles one domain Agent from spec and deps, wiring the shared
// state-machine view every agent executes:
//
//	START -> context -> intent -> {informational -> inform -> END,
//	                               escalate -> output, normal -> goal}
//	goal -> planner -> checkpoint
//	checkpoint -> {escalate -> output, retry -> planner, proceed -> tools}
//	tools -> observe -> feasibility -> {retry -> tools, ok -> policy}
//	policy -> memory_log -> confidence -> router -> output -> END
func Build(spec Spec, deps Deps) *Agent {
	g := pipeline.NewGraph("context", "output")

	g.AddNode("context", nodes.ContextLoader(deps.DataSource, spec.ContextFacts))
	g.AddEdge("context", "intent")

	g.AddNode("intent", nodes.IntentAnalyser(deps.LLM, spec.Intent))
	g.AddConditionalEdge("intent", intentLabel, map[string]string{
		"informational": "inform",
		"escalate":      "output",
		"normal":        "goal",
	})

	g.AddNode("inform", nodes.InformationalResponder(deps.LLM, spec.AgentType, spec.Informational))

	g.AddNode("goal", nodes.GoalSetter(spec.Goals, spec.GoalFallback))
	g.AddEdge("goal", "planner")

	g.AddNode("planner", nodes.Planner(deps.LLM, nodes.PlannerConfig{
		AgentType: spec.AgentType,
		Tools:     spec.Tools,
		Fallback:  spec.PlanFallback,
	}))
	g.AddEdge("planner", "checkpoint")

	g.AddNode("checkpoint", nodes.CoordinationCheckpoint(deps.Checkpoint))
	g.AddConditionalEdge("checkpoint", checkpointLabel, map[string]string{
		"escalate": "output",
		"retry":    "planner",
		"proceed":  "tools",
	})

	g.AddNode("tools", nodes.ToolExecutor(deps.DataSource, spec.Tools, spec.Args))
	g.AddEdge("tools", "observe")

	g.AddNode("observe", nodes.Observer(deps.LLM, spec.AgentType))
	g.AddEdge("observe", "feasibility")

	g.AddNode("feasibility", nodes.FeasibilityEvaluator(spec.AgentType, spec.Feasibility))
	g.AddConditionalEdge("feasibility", feasibilityLabel, map[string]string{
		"retry": "tools",
		"ok":    "policy",
	})

	g.AddNode("policy", nodes.PolicyValidator(deps.LLM, spec.AgentType, spec.Policy))
	g.AddEdge("policy", "memory_log")

	g.AddNode("memory_log", nodes.MemoryLogger(deps.Log))
	g.AddEdge("memory_log", "confidence")

	g.AddNode("confidence", nodes.ConfidenceEstimator(nil))
	g.AddEdge("confidence", "router")

	g.AddNode("router", nodes.DecisionRouter(spec.ConfidenceThreshold))
	g.AddEdge("router", "output")

	g.AddNode("output", nodes.OutputGenerator())

	if err := g.Validate(); err != nil {
		panic("agents: " + spec.AgentType + ": " + err.Error())
	}

	return &Agent{
		AgentID:     spec.AgentID,
		AgentType:   spec.AgentType,
		Version:     spec.Version,
		MaxAttempts: spec.MaxAttempts,
		Graph:       g,
	}
}

func intentLabel(s *pipeline.State) string {
	if s.QueryType == "informational" {
		return "informational"
	}
	if s.Escalate {
		return "escalate"
	}
	return "normal"
}

func checkpointLabel(s *pipeline.State) string {
	if s.Escalate {
		return "escalate"
	}
	if s.RetryNeeded {
		return "retry"
	}
	return "proceed"
}

func feasibilityLabel(s *pipeline.State) string {
	if s.RetryNeeded {
		return "retry"
	}
	return "ok"
}
