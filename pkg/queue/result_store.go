package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrResultTimeout means no worker produced a result within the deadline.
var ErrResultTimeout = errors.New("generation result not ready before deadline")

// ResultStore passes worker results back to the waiting orchestrator
// through Redis, so the orchestrator and the worker can live in different
// processes.
type ResultStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResultStore(client *redis.Client, ttl time.Duration) *ResultStore {
	return &ResultStore{
		client: client,
		ttl:    ttl,
	}
}

func resultKey(jobID string) string {
	return "genresult:" + jobID
}

func (s *ResultStore) Set(ctx context.Context, result *GenerationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal generation result: %w", err)
	}
	if err := s.client.Set(ctx, resultKey(result.JobID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store generation result: %w", err)
	}
	return nil
}

// Get returns the result if present, or nil without error when the worker
// has not finished yet.
func (s *ResultStore) Get(ctx context.Context, jobID string) (*GenerationResult, error) {
	raw, err := s.client.Get(ctx, resultKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read generation result: %w", err)
	}
	var result GenerationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode generation result: %w", err)
	}
	return &result, nil
}

// Wait polls for the result until the context deadline. The poll interval
// bounds added latency; results usually land within one or two polls.
func (s *ResultStore) Wait(ctx context.Context, jobID string, interval time.Duration) (*GenerationResult, error) {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := s.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrResultTimeout
		case <-ticker.C:
		}
	}
}
