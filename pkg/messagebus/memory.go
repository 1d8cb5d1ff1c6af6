package messagebus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMessageNotFound is returned by Acknowledge when id names no message.
var ErrMessageNotFound = errors.New("messagebus: message not found")

// Memory is an in-process Bus. Per-receiver ordering is FIFO: MessagesFor
// returns matching messages in publish order. Safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	messages []*Message
}

// NewMemory creates an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{}
}

// Publish implements Bus. Assigns an ID and timestamp if unset, and always
// starts a message in StatusPending.
func (m *Memory) Publish(msg Message) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.Status = StatusPending

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, &msg)
	return msg.ID, nil
}

// MessagesFor implements Bus. Returns, in publish order, every message
// addressed to agent whose Status matches.
func (m *Memory) MessagesFor(agent string, status Status) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Message
	for _, msg := range m.messages {
		if msg.ToAgent == agent && msg.Status == status {
			out = append(out, *msg)
		}
	}
	return out, nil
}

// Acknowledge implements Bus: marks id as acknowledged and records response.
func (m *Memory) Acknowledge(id, response string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, msg := range m.messages {
		if msg.ID == id {
			msg.Status = StatusAcknowledged
			msg.Response = response
			return nil
		}
	}
	return ErrMessageNotFound
}
