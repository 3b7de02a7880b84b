package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ResponseCache short-circuits repeated questions. Only clean full-mode
// replies are cached: guard-blocked, restricted and fallback replies are
// context dependent and never reused.
type ResponseCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResponseCache(client *redis.Client, ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		client: client,
		ttl:    ttl,
	}
}

// key hashes the normalized message so arbitrary customer text never ends
// up in a Redis key.
func (c *ResponseCache) key(organizationID uuid.UUID, normalizedMessage string) string {
	sum := sha1.Sum([]byte(normalizedMessage))
	return fmt.Sprintf("resp:%s:%s", organizationID, hex.EncodeToString(sum[:]))
}

// Normalize collapses whitespace and case so trivially different phrasings
// share a cache entry.
func Normalize(message string) string {
	return strings.Join(strings.Fields(strings.ToLower(message)), " ")
}

func (c *ResponseCache) Get(ctx context.Context, organizationID uuid.UUID, normalizedMessage string) (string, bool, error) {
	reply, err := c.client.Get(ctx, c.key(organizationID, normalizedMessage)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read response cache: %w", err)
	}
	return reply, true, nil
}

func (c *ResponseCache) Set(ctx context.Context, organizationID uuid.UUID, normalizedMessage, reply string) error {
	if err := c.client.Set(ctx, c.key(organizationID, normalizedMessage), reply, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write response cache: %w", err)
	}
	return nil
}
