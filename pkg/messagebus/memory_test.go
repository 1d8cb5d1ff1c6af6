package messagebus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PublishAndMessagesForAreFIFO(t *testing.T) {
	bus := NewMemory()

	id1, err := bus.Publish(Message{FromAgent: "water", ToAgent: "engineering", Type: TypeRequestAssistance, Content: "first"})
	require.NoError(t, err)
	id2, err := bus.Publish(Message{FromAgent: "water", ToAgent: "engineering", Type: TypeRequestAssistance, Content: "second"})
	require.NoError(t, err)

	msgs, err := bus.MessagesFor("engineering", StatusPending)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, id1, msgs[0].ID)
	assert.Equal(t, id2, msgs[1].ID)
}

func TestMemory_MessagesForFiltersByRecipientAndStatus(t *testing.T) {
	bus := NewMemory()
	_, _ = bus.Publish(Message{ToAgent: "fire", Content: "for fire"})
	_, _ = bus.Publish(Message{ToAgent: "water", Content: "for water"})

	msgs, err := bus.MessagesFor("fire", StatusPending)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "for fire", msgs[0].Content)
}

func TestMemory_AcknowledgeUpdatesStatusAndResponse(t *testing.T) {
	bus := NewMemory()
	id, _ := bus.Publish(Message{ToAgent: "health", Content: "need supplies"})

	require.NoError(t, bus.Acknowledge(id, "shipping tomorrow"))

	pending, _ := bus.MessagesFor("health", StatusPending)
	assert.Empty(t, pending)

	acked, _ := bus.MessagesFor("health", StatusAcknowledged)
	require.Len(t, acked, 1)
	assert.Equal(t, "shipping tomorrow", acked[0].Response)
}

func TestMemory_AcknowledgeUnknownIDReturnsError(t *testing.T) {
	bus := NewMemory()
	err := bus.Acknowledge("ghost-id", "irrelevant")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}
