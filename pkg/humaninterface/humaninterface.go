// Package humaninterface implements blocking acquisition of a human
// approval decision, abstracted behind a pluggable notification sink and
// a pluggable approval source so the core never depends on stdio.
package humaninterface

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Urgency drives notification priority and SLA expectations.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// DecisionOption is one choice presented to the approver.
type DecisionOption struct {
	Action      string
	Description string
}

// Escalation is the input to an ApprovalSource: everything a human (or an
// automated stand-in) needs to rule on a conflict.
type Escalation struct {
	EscalationID string
	ConflictID   string
	Reason       string
	Urgency      Urgency
	Options      []DecisionOption
	LLMAnalysis  string
}

// DecisionStatus is the closed set of outcomes AcquireApproval may return.
type DecisionStatus string

const (
	StatusApproved DecisionStatus = "approved"
	StatusRejected DecisionStatus = "rejected"
	StatusDeferred DecisionStatus = "deferred"
	StatusModified DecisionStatus = "modified"
)

// Decision is a human's (or auto-approver's) ruling on an Escalation.
type Decision struct {
	Status       DecisionStatus
	Approver     string
	ExecutionPlan map[string]any
	Notes        string
	ApprovedAt   time.Time
}

// NotificationSink delivers an Escalation to whatever channel is
// configured (email, SMS, dashboard); the default is a log line.
type NotificationSink interface {
	Notify(ctx context.Context, esc Escalation) error
}

// ApprovalSource is the abstraction the Design Notes call for: the core
// must never depend on stdio directly. Adapters: interactive (blocks on an
// external channel), auto-approve (configuration-driven), test-double.
type ApprovalSource interface {
	Acquire(ctx context.Context, esc Escalation) (Decision, error)
}

// MinimumOptions returns the DecisionOption set every Escalation presents
// at minimum: approve_all, approve_partial, defer, reject.
func MinimumOptions(highestPriorityAgent string) []DecisionOption {
	return []DecisionOption{
		{Action: "approve_all", Description: "Approve all involved agents' plans"},
		{Action: "approve_partial", Description: "Approve only " + highestPriorityAgent + "'s plan"},
		{Action: "defer", Description: "Defer all involved plans to a later window"},
		{Action: "reject", Description: "Reject all involved plans"},
	}
}

// BuildEscalationReason composes a human-readable escalation reason out of
// the conflict and its resolution as "field: value" clauses joined by
// " | ": the conflict type and severity always appear, followed by the
// specific reasons the resolution couldn't clear automatically (low
// confidence, an explicit requires-human flag, total cost over the
// auto-approval limit).
func BuildEscalationReason(conflictType, severity string, confidence, confidenceThreshold float64, requiresHuman bool, totalCost, autoApprovalCostLimit float64) string {
	reasons := []string{
		fmt.Sprintf("conflict type: %s", conflictType),
		fmt.Sprintf("severity: %s", severity),
	}
	if confidence < confidenceThreshold {
		reasons = append(reasons, fmt.Sprintf("low confidence: %.2f", confidence))
	}
	if requiresHuman {
		reasons = append(reasons, "resolution requires human judgment")
	}
	if totalCost > autoApprovalCostLimit {
		reasons = append(reasons, fmt.Sprintf("high cost: %.0f exceeds limit %.0f", totalCost, autoApprovalCostLimit))
	}
	return strings.Join(reasons, " | ")
}

// ComputeUrgency implements the urgency rule: critical when any priority is
// emergency; high when any priority is safety_critical or public_health, or
// severity is already high/critical; medium for medium severity; else low.
func ComputeUrgency(priorities []string, severity string) Urgency {
	for _, p := range priorities {
		if p == "emergency" {
			return UrgencyCritical
		}
	}
	for _, p := range priorities {
		if p == "safety_critical" || p == "public_health" {
			return UrgencyHigh
		}
	}
	switch severity {
	case "critical", "high":
		return UrgencyHigh
	case "medium":
		return UrgencyMedium
	default:
		return UrgencyLow
	}
}
