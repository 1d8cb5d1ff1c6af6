package coordination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cityops/agentmesh/pkg/config"
	"github.com/cityops/agentmesh/pkg/humaninterface"
	"github.com/cityops/agentmesh/pkg/llmclient"
	"github.com/cityops/agentmesh/pkg/transparency"
	"github.com/google/uuid"
)

// inFlightTTL bounds how long a checkpointed plan stays eligible for
// conflict comparison against other agents' concurrent checkpoints.
const inFlightTTL = 5 * time.Minute

// Workflow wires the Coordination Workflow's stages together: conflict
// detection, complexity routing, rule/LLM resolution, the human-approval
// gate, and finalization. It also tracks in-flight Coordination Checkpoint
// calls so CheckPlanConflicts can detect clashes against other agents'
// concurrently executing plans, not just the caller's own.
type Workflow struct {
	Config   *config.Config
	LLM      llmclient.Adapter
	Approval humaninterface.ApprovalSource
	Log      transparency.Log

	mu       sync.Mutex
	inFlight []inFlightDecision
}

type inFlightDecision struct {
	decision AgentDecision
	seenAt   time.Time
}

// CoordinateResult is Coordinate's return value.
type CoordinateResult struct {
	CoordinationID    string
	Decision          string
	Rationale         string
	ExecutionPlan     map[string]any
	ConflictsDetected int
	ResolutionMethod  ResolutionMethod
	RequiresHuman     bool
	ProcessingTime    time.Duration
	WorkflowLog       []string
}

// Coordinate runs the full workflow over decisions, assembling one
// CoordinationState record per run. For fewer than two decisions there is
// nothing to conflict over: has_conflicts=false and
// final_decision="approved" unconditionally.
func (w *Workflow) Coordinate(ctx context.Context, decisions []AgentDecision) CoordinateResult {
	st := &CoordinationState{
		CoordinationID: uuid.NewString(),
		AgentDecisions: decisions,
		StartedAt:      time.Now(),
	}
	logf := func(format string, args ...any) {
		st.WorkflowLog = append(st.WorkflowLog, fmt.Sprintf(format, args...))
	}
	logf("coordination %s started with %d agent decisions", st.CoordinationID, len(decisions))

	if len(decisions) < 2 {
		logf("fewer than two decisions submitted, nothing to coordinate")
		st.ResolutionMethod = MethodNone
		st.DecisionRationale = "no conflicts possible with fewer than two decisions"
		st.FinalDecision = "approved"
		st.ExecutionPlan = map[string]any{"approved": agentIDs(decisions), "action": "execute_all"}
		return w.complete(ctx, st)
	}

	st.ConflictsDetected = DetectConflicts(w.Config, decisions, st.StartedAt)
	st.HasConflicts = len(st.ConflictsDetected) > 0
	logf("detected %d conflicts", len(st.ConflictsDetected))

	route := RouteConflicts(w.Config, st.ConflictsDetected)
	logf("complexity router selected route=%s", route)

	if route == RouteNoConflict {
		st.ResolutionMethod = MethodNone
		st.DecisionRationale = "no conflicts detected among submitted decisions"
		st.FinalDecision, st.ExecutionPlan = Finalize(decisions, st.ConflictsDetected, nil, nil, nil, st.StartedAt)
		return w.complete(ctx, st)
	}

	st.ResolutionMethod = MethodRule
	for _, c := range st.ConflictsDetected {
		var res Resolution
		if route == RouteSimple {
			res = ResolveWithRules(w.Config, c, st.StartedAt)
		} else {
			st.ResolutionMethod = MethodLLM
			res = Negotiate(ctx, w.Config, w.LLM, c, st.StartedAt)
		}
		st.Resolutions = append(st.Resolutions, res)
		logf("conflict %s (%s) resolved via %s: %s", c.ConflictID, c.ConflictType, res.Method, res.Decision)
	}

	primary := st.Resolutions[0]
	st.RequiresHuman = RequiresHumanApproval(w.Config, primary, decisions)
	st.DecisionRationale = primary.Rationale

	// ResolutionMethod stays rule/llm: human involvement is tracked by the
	// separate RequiresHuman flag, not by rewriting which stage resolved.
	var humanPlan map[string]any
	if st.RequiresHuman {
		logf("human approval required for conflict %s", primary.ConflictID)
		st.HumanEscalation, humanPlan = w.acquireHumanApproval(ctx, primary, st.ConflictsDetected[0], decisions)
		logf("human approval gate resolved with status=%s approver=%s", st.HumanEscalation.Status, st.HumanEscalation.Approver)
	}

	st.FinalDecision, st.ExecutionPlan = Finalize(decisions, st.ConflictsDetected, st.Resolutions, st.HumanEscalation, humanPlan, st.StartedAt)
	return w.complete(ctx, st)
}

// complete stamps the run's timing metadata, appends the transparency
// entry, and projects the CoordinationState onto the wire-shaped result.
func (w *Workflow) complete(ctx context.Context, st *CoordinationState) CoordinateResult {
	st.CompletedAt = time.Now()
	st.TotalProcessingTime = st.CompletedAt.Sub(st.StartedAt)
	w.logTransparency(ctx, string(st.ResolutionMethod), st.FinalDecision, st.DecisionRationale)

	return CoordinateResult{
		CoordinationID:    st.CoordinationID,
		Decision:          st.FinalDecision,
		Rationale:         st.DecisionRationale,
		ExecutionPlan:     st.ExecutionPlan,
		ConflictsDetected: len(st.ConflictsDetected),
		ResolutionMethod:  st.ResolutionMethod,
		RequiresHuman:     st.RequiresHuman,
		ProcessingTime:    st.TotalProcessingTime,
		WorkflowLog:       st.WorkflowLog,
	}
}

func (w *Workflow) acquireHumanApproval(ctx context.Context, primary Resolution, c Conflict, decisions []AgentDecision) (*HumanEscalationRecord, map[string]any) {
	priorities := make([]string, len(decisions))
	for i, d := range decisions {
		priorities[i] = d.Priority
	}
	urgency := humaninterface.ComputeUrgency(priorities, string(c.Severity))

	var totalCost float64
	for _, d := range decisions {
		totalCost += d.EstimatedCost
	}
	reason := humaninterface.BuildEscalationReason(
		string(c.ConflictType), string(c.Severity),
		primary.Confidence, w.Config.Coordination.ConfidenceThreshold,
		primary.RequiresHuman, totalCost, w.Config.Coordination.AutoApprovalCostLimit,
	)

	highestPriority := sortByPriorityDescThenFIFO(w.Config, decisions)[0].AgentID
	esc := humaninterface.Escalation{
		EscalationID: uuid.NewString(),
		ConflictID:   c.ConflictID,
		Reason:       reason,
		Urgency:      urgency,
		Options:      humaninterface.MinimumOptions(highestPriority),
		LLMAnalysis:  primary.Rationale,
	}

	source := w.Approval
	if source == nil && w.Config.Coordination.AutoApprove {
		source = humaninterface.AutoApprove{}
	}

	acquireCtx := ctx
	if timeout := w.Config.Coordination.HumanResponseTimeout; timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var decision humaninterface.Decision
	if source == nil {
		decision = humaninterface.Decision{Status: humaninterface.StatusDeferred, Notes: "no approval source configured"}
	} else if d, err := source.Acquire(acquireCtx, esc); err != nil {
		decision = humaninterface.Decision{Status: humaninterface.StatusDeferred, Notes: err.Error()}
	} else {
		decision = d
	}

	record := &HumanEscalationRecord{
		EscalationID:  esc.EscalationID,
		ConflictID:    c.ConflictID,
		Reason:        esc.Reason,
		Urgency:       string(urgency),
		Status:        string(decision.Status),
		Approver:      decision.Approver,
		ApprovalNotes: decision.Notes,
		CreatedAt:     time.Now(),
		ResolvedAt:    decision.ApprovedAt,
	}
	return record, decision.ExecutionPlan
}

func (w *Workflow) logTransparency(ctx context.Context, method, decision, rationale string) {
	if w.Log == nil {
		return
	}
	_ = w.Log.Append(ctx, transparency.Entry{
		AgentType:      "coordinator",
		NodeName:       "finalizer",
		Decision:       decision,
		Rationale:      rationale,
		SearchableText: fmt.Sprintf("coordinator %s decision=%s method=%s rationale=%s", "finalizer", decision, method, rationale),
	})
}

// CheckPlanConflicts is the in-pipeline Coordination Checkpoint API: a
// lightweight, synchronous conflict probe an agent calls mid-pipeline,
// before committing to tool execution. It compares the caller's plan
// against other agents' plans checkpointed within the in-flight window.
func (w *Workflow) CheckPlanConflicts(ctx context.Context, agentID, agentType string, plan map[string]any, location string, resourcesNeeded []string, estimatedCost float64, priority string) CheckResult {
	now := time.Now()
	decision := AgentDecision{
		AgentID:         agentID,
		AgentType:       agentType,
		Location:        location,
		ResourcesNeeded: resourcesNeeded,
		EstimatedCost:   estimatedCost,
		Priority:        priority,
		Timestamp:       now,
	}

	peers := w.registerInFlight(agentID, decision, now)
	conflicts := DetectConflicts(w.Config, append(peers, decision), now)
	if len(conflicts) == 0 {
		return CheckResult{ShouldProceed: true}
	}

	types := make([]string, len(conflicts))
	var recommendations []string
	requiresHuman := false
	for i, c := range conflicts {
		types[i] = string(c.ConflictType)
		if !CanResolveWithRules(w.Config, c) {
			requiresHuman = true
			recommendations = append(recommendations, fmt.Sprintf("conflict %s is complex, recommend deferring to the coordination workflow", c.ConflictType))
		} else {
			recommendations = append(recommendations, fmt.Sprintf("conflict %s can likely be resolved by rule", c.ConflictType))
		}
	}

	return CheckResult{
		HasConflicts:           true,
		ShouldProceed:          !requiresHuman,
		RequiresHuman:          requiresHuman,
		ConflictTypes:          types,
		Recommendations:        recommendations,
		AlternativeSuggestions: []string{"retry with reduced resource scope", "retry at an alternative location"},
	}
}

// registerInFlight records decision under agentID, evicts entries older
// than inFlightTTL or superseded by a newer checkpoint from the same
// agent, and returns every other agent's currently live decision.
func (w *Workflow) registerInFlight(agentID string, decision AgentDecision, now time.Time) []AgentDecision {
	w.mu.Lock()
	defer w.mu.Unlock()

	live := w.inFlight[:0]
	var peers []AgentDecision
	for _, entry := range w.inFlight {
		if now.Sub(entry.seenAt) > inFlightTTL || entry.decision.AgentID == agentID {
			continue
		}
		live = append(live, entry)
		peers = append(peers, entry.decision)
	}
	live = append(live, inFlightDecision{decision: decision, seenAt: now})
	w.inFlight = live

	return peers
}
