package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SystemMessage is a system-generated chat message attached to a booking's
// conversation (status updates, receipts, dispatch notices).
type SystemMessage struct {
	ID        string    `json:"id"`
	BookingID string    `json:"booking_id"`
	Kind      string    `json:"kind"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageStore persists system chat messages in Redis. The chat product
// reads them alongside user messages; process-local memory is never
// treated as durable.
type MessageStore struct {
	client *redis.Client
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(client *redis.Client) *MessageStore {
	return &MessageStore{client: client}
}

func messageKey(bookingRef string) string {
	return fmt.Sprintf("chat:system:%s", bookingRef)
}

// Append appends a system message to a booking's conversation.
func (s *MessageStore) Append(ctx context.Context, msg *SystemMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.client.RPush(ctx, messageKey(msg.BookingID), data).Err()
}

// List retrieves up to limit system messages for a booking, oldest first.
func (s *MessageStore) List(ctx context.Context, bookingRef string, limit int) ([]*SystemMessage, error) {
	values, err := s.client.LRange(ctx, messageKey(bookingRef), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]*SystemMessage, 0, len(values))
	for _, v := range values {
		var msg SystemMessage
		if err := json.Unmarshal([]byte(v), &msg); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}
	return messages, nil
}

// Delete removes all system messages for a booking.
func (s *MessageStore) Delete(ctx context.Context, bookingRef string) error {
	return s.client.Del(ctx, messageKey(bookingRef)).Err()
}
