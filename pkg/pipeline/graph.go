package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cityops/agentmesh/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// End is the sentinel vertex name that terminates Execute.
const End = "END"

// NodeFunc is a unit of the pipeline graph: a function from State to State,
// mutating it in place. Returning a non-nil error is the only raise path;
// the runtime is the single adapter that converts it into escalation.
type NodeFunc func(ctx context.Context, s *State) error

// EdgePredicate is a total function over a declared label set. Every label
// it can return MUST appear in the Conditional edge's Labels map; an
// unknown label is a fatal configuration error (panic), not a runtime
// state error, because it means the graph was wired incorrectly.
type EdgePredicate func(s *State) string

// edge is either unconditional (To set) or guarded by Predicate, whose
// result is looked up in Labels to find the destination vertex.
type edge struct {
	to        string
	predicate EdgePredicate
	labels    map[string]string
}

// Graph is a directed graph of named nodes with conditional edges, built
// once at startup and reused across pipeline executions (a Graph has no
// per-execution state; State is always a separate argument).
type Graph struct {
	start string
	nodes map[string]NodeFunc
	edges map[string]edge

	// outputNode is where node errors and deadline expiry route to, when
	// reachable. It is also the designated loop-guard target: an edge that
	// would re-enter an already-visited vertex while Attempts >= MaxAttempts
	// is forced here instead.
	outputNode string
}

// NewGraph creates an empty graph. start is the designated START vertex
// name; outputNode is the vertex errors/deadlines/loop-exhaustion route to.
func NewGraph(start, outputNode string) *Graph {
	return &Graph{
		start:      start,
		nodes:      make(map[string]NodeFunc),
		edges:      make(map[string]edge),
		outputNode: outputNode,
	}
}

// AddNode registers a node function under name.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge adds an unconditional edge from -> to.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = edge{to: to}
	return g
}

// AddConditionalEdge adds a guarded edge: predicate(state) returns a label,
// which labels maps to the destination vertex. Destinations are not checked
// here; checking them against the registered nodes is left to Validate().
func (g *Graph) AddConditionalEdge(from string, predicate EdgePredicate, labels map[string]string) *Graph {
	g.edges[from] = edge{predicate: predicate, labels: labels}
	return g
}

// Validate checks every edge destination (both unconditional "to" and every
// value in a conditional edge's "labels") names a registered node or End.
// Call this once after building the graph, at process startup: graph
// configuration errors are fatal at startup, never at request time.
func (g *Graph) Validate() error {
	if _, ok := g.nodes[g.start]; !ok {
		return fmt.Errorf("pipeline: start vertex %q has no registered node", g.start)
	}
	if g.outputNode != "" && g.outputNode != End {
		if _, ok := g.nodes[g.outputNode]; !ok {
			return fmt.Errorf("pipeline: output vertex %q has no registered node", g.outputNode)
		}
	}
	for from, e := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("pipeline: edge declared from unregistered node %q", from)
		}
		if e.predicate == nil {
			if e.to != End {
				if _, ok := g.nodes[e.to]; !ok {
					return fmt.Errorf("pipeline: edge %s -> %q targets unregistered node", from, e.to)
				}
			}
			continue
		}
		for label, dest := range e.labels {
			if dest != End {
				if _, ok := g.nodes[dest]; !ok {
					return fmt.Errorf("pipeline: edge %s label %q -> %q targets unregistered node", from, label, dest)
				}
			}
		}
	}
	return nil
}

// ErrDeadlineExceeded is returned in State.EscalationReason text (not as a
// Go error) when the per-pipeline deadline expires mid-execution.
var ErrDeadlineExceeded = errors.New("deadline exceeded")

// Execute runs graph from its start vertex until End, honoring ctx's
// deadline. It never panics on a node's returned error: that is caught and
// converted to escalation. It DOES panic on a graph wiring defect (unknown
// conditional-edge label at runtime, or a destination vertex with no
// registered node) because that is a configuration error, not request data.
func Execute(ctx context.Context, g *Graph, s *State) *State {
	ctx, endSpan := telemetry.StartSpan(ctx, "pipeline.Execute", attribute.String("agent_type", s.AgentType))
	defer func() { endSpan(nil) }()

	current := g.start
	visited := make(map[string]int)

	for current != End {
		if err := ctx.Err(); err != nil {
			s.SetEscalate(ErrDeadlineExceeded.Error())
			if current != g.outputNode {
				if fn, ok := g.nodes[g.outputNode]; ok {
					runNode(ctx, fn, s, g.outputNode)
				}
			}
			s.CompletedAt = time.Now()
			return s
		}

		visited[current]++

		fn, ok := g.nodes[current]
		if !ok {
			panic(fmt.Sprintf("pipeline: no node registered for vertex %q", current))
		}

		if s.Attempts > s.MaxAttempts {
			panic(fmt.Sprintf("pipeline: invariant violated, attempts (%d) exceeded max_attempts (%d) before running %q",
				s.Attempts, s.MaxAttempts, current))
		}

		if err := runNode(ctx, fn, s, current); err != nil {
			s.SetEscalate(fmt.Sprintf("%s: %s", current, err))
			if current != g.outputNode {
				if outFn, ok := g.nodes[g.outputNode]; ok {
					runNode(ctx, outFn, s, g.outputNode)
				}
			}
			s.CompletedAt = time.Now()
			return s
		}

		next := g.next(current, s)

		if next != End && visited[next] > 0 && s.Attempts >= s.MaxAttempts {
			next = g.outputNode
		}

		current = next
	}

	s.CompletedAt = time.Now()
	return s
}

// next resolves the destination vertex for the edge leaving "from".
// A node with no declared outgoing edge routes straight to End.
func (g *Graph) next(from string, s *State) string {
	e, ok := g.edges[from]
	if !ok {
		return End
	}
	if e.predicate == nil {
		return e.to
	}
	label := e.predicate(s)
	dest, ok := e.labels[label]
	if !ok {
		panic(fmt.Sprintf("pipeline: conditional edge from %q returned unknown label %q", from, label))
	}
	return dest
}

// runNode invokes fn, recovering a panic as an error so a single
// misbehaving node cannot crash the process mid-request; this is in
// addition to (not instead of) fn's own error return.
func runNode(ctx context.Context, fn NodeFunc, s *State, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("node %s panicked: %v", name, r)
		}
	}()
	return fn(ctx, s)
}
