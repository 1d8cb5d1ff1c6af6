package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestState_SetEscalateIsMonotonicUntilHumanApproval(t *testing.T) {
	s := newTestState()
	s.SetEscalate("first reason")
	s.SetEscalate("second reason")

	assert.True(t, s.Escalate)
	assert.Equal(t, "first reason", s.EscalationReason, "first reason sticks")

	s.ClearEscalateForHumanApproval()
	assert.False(t, s.Escalate)
	assert.Empty(t, s.EscalationReason)
}

func TestState_ExecutionTimeMsZeroUntilCompleted(t *testing.T) {
	s := newTestState()
	assert.Zero(t, s.ExecutionTimeMs())

	s.CompletedAt = s.StartedAt.Add(150 * time.Millisecond)
	assert.Equal(t, int64(150), s.ExecutionTimeMs())
}
