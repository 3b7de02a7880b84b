package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-assistant-be/pkg/conversation"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore shares sessions across instances. Every Save refreshes the
// TTL, so a session only expires after the user has been idle for the full
// window.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context, key Key) (*conversation.State, error) {
	raw, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		fresh := conversation.NewState()
		return &fresh, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var state conversation.State
	if err := json.Unmarshal(raw, &state); err != nil {
		// A corrupted session is unrecoverable; start the conversation over
		// instead of failing the turn.
		fresh := conversation.NewState()
		return &fresh, nil
	}
	return &state, nil
}

func (s *RedisStore) Save(ctx context.Context, key Key, state *conversation.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	if err := s.client.Set(ctx, key.String(), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
