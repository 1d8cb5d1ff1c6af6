// Package coordination implements the second pipeline: detecting and
// resolving conflicts across multiple domain agents' decisions, and the
// in-pipeline coordination checkpoint each agent consults before acting.
package coordination

import "time"

// AgentDecision is the coordinator's input: one domain agent's proposed
// action, submitted for conflict checking. Request carries the original
// request payload; the seasonal policy check reads its "project_type"
// field.
type AgentDecision struct {
	AgentID         string
	AgentType       string
	Decision        string
	Request         map[string]any
	Confidence      float64
	Constraints     []string
	ResourcesNeeded []string
	Location        string
	EstimatedCost   float64
	Timeline        string
	Priority        string
	Timestamp       time.Time
}

// ConflictType is the closed set of ways two or more decisions can clash.
type ConflictType string

const (
	ConflictResource ConflictType = "resource"
	ConflictLocation ConflictType = "location"
	ConflictTiming   ConflictType = "timing"
	ConflictPolicy   ConflictType = "policy"
	ConflictBudget   ConflictType = "budget"
)

// Severity orders how serious a Conflict is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Conflict is one detected clash among the submitted AgentDecisions.
type Conflict struct {
	ConflictID      string
	ConflictType    ConflictType
	AgentsInvolved  []string
	Description     string
	Severity        Severity
	ComplexityScore float64
	DetectedAt      time.Time

	// decisions carries the involved AgentDecisions for downstream resolution
	// stages; not part of the wire schema, populated by the detector.
	decisions []AgentDecision
}

// ResolutionMethod names which stage produced a Resolution.
type ResolutionMethod string

const (
	MethodNone  ResolutionMethod = "none"
	MethodRule  ResolutionMethod = "rule"
	MethodLLM   ResolutionMethod = "llm"
	MethodHuman ResolutionMethod = "human"
)

// ResolutionDecision is the closed set of outcomes a Resolution may carry.
type ResolutionDecision string

const (
	DecisionApproveAll     ResolutionDecision = "approve_all"
	DecisionApprovePartial ResolutionDecision = "approve_partial"
	DecisionDefer          ResolutionDecision = "defer"
	DecisionReject         ResolutionDecision = "reject"
	DecisionEscalate       ResolutionDecision = "escalate"
)

// Resolution is the coordinator's verdict for one Conflict.
type Resolution struct {
	ResolutionID  string
	ConflictID    string
	Method        ResolutionMethod
	Decision      ResolutionDecision
	Rationale     string
	Confidence    float64
	RequiresHuman bool
	ExecutionPlan map[string]any
	ResolvedAt    time.Time
}

// CoordinationState is the single record produced by one Coordinate() run.
type CoordinationState struct {
	CoordinationID      string
	AgentDecisions      []AgentDecision
	ConflictsDetected   []Conflict
	HasConflicts        bool
	Resolutions         []Resolution
	ResolutionMethod    ResolutionMethod
	RequiresHuman       bool
	HumanEscalation     *HumanEscalationRecord
	FinalDecision       string
	ExecutionPlan       map[string]any
	WorkflowLog         []string
	DecisionRationale   string
	StartedAt           time.Time
	CompletedAt         time.Time
	TotalProcessingTime time.Duration
}

// HumanEscalationRecord mirrors the Human Escalation record attached to a
// CoordinationState once the human-approval gate fires.
type HumanEscalationRecord struct {
	EscalationID  string
	ConflictID    string
	Reason        string
	Urgency       string
	Status        string
	Approver      string
	ApprovalNotes string
	CreatedAt     time.Time
	ResolvedAt    time.Time
}

// CheckResult is CheckPlanConflicts' output: the verdict the in-pipeline
// Coordination Checkpoint writes into a pipeline's State.
type CheckResult struct {
	HasConflicts           bool
	ShouldProceed          bool
	RequiresHuman          bool
	ConflictTypes          []string
	Recommendations        []string
	AlternativeSuggestions []string
}
