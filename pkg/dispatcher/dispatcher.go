// Package dispatcher implements the agent dispatcher: a
// registry of domain agents with lazy, cache-per-agent-type construction,
// a fan-out query API, and a dispatch-depth guard that stops a query from
// recursing back into the coordination checkpoint it originated from.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cityops/agentmesh/pkg/agents"
	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/pipeline"
)

// ErrUnknownAgentType is returned when QueryAgent/QueryMultipleAgents names
// an agent type with no registered factory.
var ErrUnknownAgentType = errors.New("dispatcher: unknown agent type")

// ErrDispatchCycle is returned when a query is attempted from within the
// call stack of another dispatch, which would let a coordination checkpoint
// transitively re-enter the dispatcher it was invoked from.
var ErrDispatchCycle = errors.New("dispatcher: refusing to dispatch from inside another dispatch")

// Factory builds one domain agent's Spec from the shared Config. Every
// builtin domain agent (water, engineering, fire, sanitation, health,
// finance) has this shape; Register lets callers add more.
type Factory func(cfg *config.Config) agents.Spec

type dispatchDepthKey struct{}

// maxDispatchDepth bounds re-entrant dispatch to one level: a query issued
// from inside another dispatch's call stack is refused rather than allowed
// to cycle.
const maxDispatchDepth = 1

// inFlight tracks one agent type's build: the channel closes when the
// build finishes, so concurrent requests for the same not-yet-built type
// wait on it instead of building twice.
type inFlight struct {
	done chan struct{}
	err  error
}

// Dispatcher is the process-wide registry and cache of domain agents. One
// Dispatcher is shared across every incoming request; agents are built at
// most once per type and reused for the life of the process (or until
// CloseAll resets the cache).
type Dispatcher struct {
	cfg  *config.Config
	deps agents.Deps

	mu        sync.Mutex
	factories map[string]Factory
	built     map[string]*agents.Agent
	building  map[string]*inFlight
}

// New constructs a Dispatcher with the six builtin municipal domain agents
// already registered. Additional agent types can be added with Register
// before the first QueryAgent call for that type.
func New(cfg *config.Config, deps agents.Deps) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		deps:      deps,
		factories: make(map[string]Factory),
		built:     make(map[string]*agents.Agent),
		building:  make(map[string]*inFlight),
	}
	d.Register("water", agents.Water)
	d.Register("engineering", agents.Engineering)
	d.Register("fire", agents.Fire)
	d.Register("sanitation", agents.Sanitation)
	d.Register("health", agents.Health)
	d.Register("finance", agents.Finance)
	return d
}

// Register adds or replaces the factory for agentType. Safe to call
// concurrently with QueryAgent, but registering over a type that has
// already been built does not rebuild the cached instance - call CloseAll
// first if a fresh build is required.
func (d *Dispatcher) Register(agentType string, factory Factory) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.factories[agentType] = factory
}

// AgentTypes returns the registered agent type names.
func (d *Dispatcher) AgentTypes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	types := make([]string, 0, len(d.factories))
	for t := range d.factories {
		types = append(types, t)
	}
	return types
}

// getOrBuild returns the cached agent for agentType, building it on first
// use. Building happens outside the lock; concurrent callers for the same
// not-yet-built type wait on the in-flight build rather than duplicating
// it, mirroring the reserve-then-register pattern used to dispatch
// sub-agents without holding a lock across the slow path.
func (d *Dispatcher) getOrBuild(agentType string) (*agents.Agent, error) {
	d.mu.Lock()
	if a, ok := d.built[agentType]; ok {
		d.mu.Unlock()
		return a, nil
	}
	factory, ok := d.factories[agentType]
	if !ok {
		d.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgentType, agentType)
	}
	if inf, ok := d.building[agentType]; ok {
		d.mu.Unlock()
		<-inf.done
		if inf.err != nil {
			return nil, inf.err
		}
		d.mu.Lock()
		a := d.built[agentType]
		d.mu.Unlock()
		return a, nil
	}
	inf := &inFlight{done: make(chan struct{})}
	d.building[agentType] = inf
	d.mu.Unlock()

	var built *agents.Agent
	buildErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("dispatcher: building agent %q panicked: %v", agentType, r)
			}
		}()
		built = agents.Build(factory(d.cfg), d.deps)
		return nil
	}()

	d.mu.Lock()
	delete(d.building, agentType)
	if buildErr == nil {
		d.built[agentType] = built
	}
	inf.err = buildErr
	close(inf.done)
	d.mu.Unlock()

	return built, buildErr
}

// QueryAgent dispatches req to agentType's agent, building it on first use.
// deadline bounds the pipeline run the same way agents.Agent.Handle does;
// pass 0 for no deadline. Returns ErrDispatchCycle if ctx already carries a
// dispatch marker, preventing a coordination checkpoint reached from one
// dispatch from recursively dispatching again.
func (d *Dispatcher) QueryAgent(ctx context.Context, agentType string, req pipeline.Request, deadline time.Duration) (*pipeline.Response, error) {
	depth, _ := ctx.Value(dispatchDepthKey{}).(int)
	if depth >= maxDispatchDepth {
		return nil, ErrDispatchCycle
	}

	agent, err := d.getOrBuild(agentType)
	if err != nil {
		return nil, err
	}

	childCtx := context.WithValue(ctx, dispatchDepthKey{}, depth+1)
	return agent.Handle(childCtx, req, deadline), nil
}

// AgentQuery is one entry of a QueryMultipleAgents fan-out request.
type AgentQuery struct {
	AgentType string
	Request   pipeline.Request
}

// AgentResult pairs one AgentQuery's outcome with its agent type for
// caller-side matching, since map iteration order is not significant here
// but the caller still needs to know which response belongs to which
// agent.
type AgentResult struct {
	AgentType string
	Response  *pipeline.Response
	Err       error
}

// QueryMultipleAgents dispatches every query concurrently and returns once
// all have completed, for coordination scenarios that need several
// agents' plans before comparing them.
func (d *Dispatcher) QueryMultipleAgents(ctx context.Context, queries []AgentQuery, deadline time.Duration) []AgentResult {
	results := make([]AgentResult, len(queries))
	var wg sync.WaitGroup
	wg.Add(len(queries))
	for i, q := range queries {
		go func(i int, q AgentQuery) {
			defer wg.Done()
			resp, err := d.QueryAgent(ctx, q.AgentType, q.Request, deadline)
			results[i] = AgentResult{AgentType: q.AgentType, Response: resp, Err: err}
		}(i, q)
	}
	wg.Wait()
	return results
}

// AgentInfo describes one agent type's metadata without invoking its
// pipeline, for status/health endpoints that want to confirm an agent type
// builds cleanly without running a full decision.
type AgentInfo struct {
	AgentType string
	Version   string
	Available bool
	Error     string
}

// GetAgentInfo builds (or reuses the cached build of) agentType and reports
// its metadata, never calling Handle. A build failure is reported as
// Available=false with Error set rather than returned as an error, matching
// the dispatcher's other status-reporting calls that are meant to be safe
// to poll.
func (d *Dispatcher) GetAgentInfo(agentType string) AgentInfo {
	agent, err := d.getOrBuild(agentType)
	if err != nil {
		return AgentInfo{AgentType: agentType, Available: false, Error: err.Error()}
	}
	return AgentInfo{
		AgentType: agentType,
		Version:   agent.Version,
		Available: true,
	}
}

// CloseAll drops every cached agent, so the next QueryAgent call for each
// type rebuilds it from its factory. Intended for tests and for picking up
// a reloaded Config; it does not cancel any dispatch already in flight.
func (d *Dispatcher) CloseAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.built = make(map[string]*agents.Agent)
}
