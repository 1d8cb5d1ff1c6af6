package humaninterface

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogSink is the default NotificationSink: a structured log line. Real
// deployments substitute an email/SMS/dashboard adapter behind the same
// interface.
type LogSink struct{}

// Notify implements NotificationSink.
func (LogSink) Notify(_ context.Context, esc Escalation) error {
	slog.Warn("human approval required",
		"escalation_id", esc.EscalationID,
		"conflict_id", esc.ConflictID,
		"urgency", esc.Urgency,
		"reason", esc.Reason,
	)
	return nil
}

// AutoApprove is an ApprovalSource that immediately approves every
// escalation, used when coordination.auto_approve is configured or in
// tests that don't want to exercise interactive input.
type AutoApprove struct {
	Approver string
}

// Acquire implements ApprovalSource.
func (a AutoApprove) Acquire(_ context.Context, esc Escalation) (Decision, error) {
	approver := a.Approver
	if approver == "" {
		approver = "system_auto_approve"
	}
	return Decision{
		Status:        StatusApproved,
		Approver:      approver,
		ExecutionPlan: map[string]any{"action": "execute_all", "source_escalation": esc.EscalationID},
		ApprovedAt:    time.Now(),
	}, nil
}

// TestDouble is a scripted ApprovalSource for tests: returns Next once per
// call, looping on the last entry once the script is exhausted.
type TestDouble struct {
	mu   sync.Mutex
	Next []Decision
	idx  int
}

// Acquire implements ApprovalSource.
func (d *TestDouble) Acquire(_ context.Context, _ Escalation) (Decision, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Next) == 0 {
		return Decision{Status: StatusDeferred}, nil
	}
	i := d.idx
	if i >= len(d.Next) {
		i = len(d.Next) - 1
	} else {
		d.idx++
	}
	return d.Next[i], nil
}

// Interactive reads a decision from an input stream (default: stdin via
// the reader supplied by the caller). On context cancellation or a read
// error it returns status=deferred rather than blocking forever or
// crashing the process, matching the "process interruption" contract.
type Interactive struct {
	Reader *bufio.Reader
	Notify NotificationSink
}

// Acquire implements ApprovalSource.
func (i Interactive) Acquire(ctx context.Context, esc Escalation) (Decision, error) {
	sink := i.Notify
	if sink == nil {
		sink = LogSink{}
	}
	_ = sink.Notify(ctx, esc)

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("Escalation %s (%s): %s\nOptions: ", esc.EscalationID, esc.Urgency, esc.Reason)
		for _, opt := range esc.Options {
			fmt.Printf("[%s] ", opt.Action)
		}
		fmt.Print("\n> ")
		line, err := i.Reader.ReadString('\n')
		if err != nil {
			errCh <- err
			return
		}
		lineCh <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return Decision{Status: StatusDeferred, Notes: "context cancelled before approver responded"}, nil
	case <-errCh:
		return Decision{Status: StatusDeferred, Notes: "approval input stream closed"}, nil
	case line := <-lineCh:
		status := parseStatus(line)
		return Decision{
			Status:     status,
			Approver:   "interactive",
			ApprovedAt: time.Now(),
		}, nil
	}
}

func parseStatus(line string) DecisionStatus {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "approve_all", "approved", "approve":
		return StatusApproved
	case "reject", "rejected":
		return StatusRejected
	case "modify", "modified":
		return StatusModified
	default:
		return StatusDeferred
	}
}
