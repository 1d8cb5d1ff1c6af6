package humaninterface

import (
	"bufio"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUrgency_EmergencyPriorityIsCritical(t *testing.T) {
	assert.Equal(t, UrgencyCritical, ComputeUrgency([]string{"routine", "emergency"}, "low"))
}

func TestComputeUrgency_SafetyCriticalIsHigh(t *testing.T) {
	assert.Equal(t, UrgencyHigh, ComputeUrgency([]string{"safety_critical"}, "low"))
}

func TestComputeUrgency_SeverityDrivesRemainder(t *testing.T) {
	assert.Equal(t, UrgencyHigh, ComputeUrgency([]string{"routine"}, "critical"))
	assert.Equal(t, UrgencyMedium, ComputeUrgency([]string{"routine"}, "medium"))
	assert.Equal(t, UrgencyLow, ComputeUrgency([]string{"routine"}, "low"))
}

func TestMinimumOptions_AlwaysIncludesTheFourBaseActions(t *testing.T) {
	opts := MinimumOptions("water_dept")
	actions := make([]string, len(opts))
	for i, o := range opts {
		actions[i] = o.Action
	}
	assert.ElementsMatch(t, []string{"approve_all", "approve_partial", "defer", "reject"}, actions)
}

func TestAutoApprove_AlwaysApproves(t *testing.T) {
	decision, err := (AutoApprove{}).Acquire(context.Background(), Escalation{EscalationID: "esc-1"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decision.Status)
	assert.Equal(t, "system_auto_approve", decision.Approver)
}

func TestTestDouble_ReturnsScriptedDecisionsThenSticksOnLast(t *testing.T) {
	d := &TestDouble{Next: []Decision{{Status: StatusRejected}, {Status: StatusApproved}}}

	first, _ := d.Acquire(context.Background(), Escalation{})
	second, _ := d.Acquire(context.Background(), Escalation{})
	third, _ := d.Acquire(context.Background(), Escalation{})

	assert.Equal(t, StatusRejected, first.Status)
	assert.Equal(t, StatusApproved, second.Status)
	assert.Equal(t, StatusApproved, third.Status)
}

func TestTestDouble_EmptyScriptDefers(t *testing.T) {
	d := &TestDouble{}
	decision, err := d.Acquire(context.Background(), Escalation{})
	require.NoError(t, err)
	assert.Equal(t, StatusDeferred, decision.Status)
}

func TestInteractive_ContextCancellationDefers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := Interactive{Reader: bufio.NewReader(strings.NewReader("")), Notify: LogSink{}}
	decision, err := adapter.Acquire(ctx, Escalation{EscalationID: "esc-2"})
	require.NoError(t, err)
	assert.Equal(t, StatusDeferred, decision.Status)
}

func TestInteractive_ParsesApprovedFromInput(t *testing.T) {
	adapter := Interactive{Reader: bufio.NewReader(strings.NewReader("approve_all\n")), Notify: LogSink{}}
	decision, err := adapter.Acquire(context.Background(), Escalation{EscalationID: "esc-3"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, decision.Status)
	assert.WithinDuration(t, time.Now(), decision.ApprovedAt, time.Second)
}
