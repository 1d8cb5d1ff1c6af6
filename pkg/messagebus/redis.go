package messagebus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// Redis is a durable Bus backed by a Redis list per receiver (for FIFO
// ordering) plus one string key per message body, keyed by ID (so Acknowledge can
// rewrite a message in place without scanning every receiver's list).
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis opens a client against redisURL (e.g. "redis://localhost:6379/0")
// and pings it once.
func NewRedis(ctx context.Context, redisURL, namespace string) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("messagebus: invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("messagebus: failed to connect to redis: %w", err)
	}
	if namespace == "" {
		namespace = "messagebus"
	}
	return &Redis{client: client, namespace: namespace}, nil
}

func (r *Redis) queueKey(agent string) string {
	return fmt.Sprintf("%s:queue:%s", r.namespace, agent)
}

func (r *Redis) bodyKey(id string) string {
	return fmt.Sprintf("%s:message:%s", r.namespace, id)
}

// Publish implements Bus: stores the body under bodyKey and pushes its ID
// onto the receiver's queue, preserving FIFO order via RPush/LRange.
func (r *Redis) Publish(msg Message) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Status = StatusPending

	ctx := context.Background()
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("messagebus: failed to serialize message: %w", err)
	}
	if err := r.client.Set(ctx, r.bodyKey(msg.ID), data, 0).Err(); err != nil {
		return "", fmt.Errorf("messagebus: failed to store message: %w", err)
	}
	if err := r.client.RPush(ctx, r.queueKey(msg.ToAgent), msg.ID).Err(); err != nil {
		return "", fmt.Errorf("messagebus: failed to enqueue message: %w", err)
	}
	return msg.ID, nil
}

// MessagesFor implements Bus: walks agent's queue in FIFO order and returns
// every message whose current Status matches.
func (r *Redis) MessagesFor(agent string, status Status) ([]Message, error) {
	ctx := context.Background()
	ids, err := r.client.LRange(ctx, r.queueKey(agent), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("messagebus: failed to list queue for %s: %w", agent, err)
	}

	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, r.bodyKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("messagebus: failed to load message %s: %w", id, err)
		}
		var msg Message
		if err := json.Unmarshal([]byte(data), &msg); err != nil {
			return nil, fmt.Errorf("messagebus: failed to parse message %s: %w", id, err)
		}
		if msg.Status == status {
			out = append(out, msg)
		}
	}
	return out, nil
}

// Acknowledge implements Bus.
func (r *Redis) Acknowledge(id, response string) error {
	ctx := context.Background()
	data, err := r.client.Get(ctx, r.bodyKey(id)).Result()
	if err == redis.Nil {
		return ErrMessageNotFound
	}
	if err != nil {
		return fmt.Errorf("messagebus: failed to load message %s: %w", id, err)
	}
	var msg Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return fmt.Errorf("messagebus: failed to parse message %s: %w", id, err)
	}
	msg.Status = StatusAcknowledged
	msg.Response = response
	updated, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("messagebus: failed to serialize message %s: %w", id, err)
	}
	if err := r.client.Set(ctx, r.bodyKey(id), updated, 0).Err(); err != nil {
		return fmt.Errorf("messagebus: failed to store message %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
