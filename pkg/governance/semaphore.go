package governance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrCapacityExceeded is returned when either the global or the per-org
// concurrency cap is reached.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// acquireScript checks both caps and claims a lease in one atomic step.
// Leases are sorted-set members scored by their expiry deadline, so a worker
// that crashes while holding a slot frees it after the TTL sweep.
var acquireScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local deadline = tonumber(ARGV[2])
local lease = ARGV[3]
local global_cap = tonumber(ARGV[4])
local org_cap = tonumber(ARGV[5])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now)
redis.call('ZREMRANGEBYSCORE', KEYS[2], '-inf', now)

if redis.call('ZCARD', KEYS[1]) >= global_cap then
  return 0
end
if redis.call('ZCARD', KEYS[2]) >= org_cap then
  return 0
end

redis.call('ZADD', KEYS[1], deadline, lease)
redis.call('ZADD', KEYS[2], deadline, lease)
return 1
`)

var releaseScript = redis.NewScript(`
redis.call('ZREM', KEYS[1], ARGV[1])
redis.call('ZREM', KEYS[2], ARGV[1])
return 1
`)

type SemaphoreConfig struct {
	GlobalLimit int
	OrgLimit    int
	LeaseTTL    time.Duration
}

// Semaphore is the two-dimensional admission gate: one global cap, one cap
// per org, both enforced in a single Lua round trip.
type Semaphore struct {
	rdb *redis.Client
	cfg SemaphoreConfig
	now func() time.Time
}

func NewSemaphore(rdb *redis.Client, cfg SemaphoreConfig) *Semaphore {
	return &Semaphore{rdb: rdb, cfg: cfg, now: time.Now}
}

// Lease is a held capacity slot. Release is safe to call more than once.
type Lease struct {
	sem      *Semaphore
	orgKey   string
	id       string
	released bool
}

func globalSemKey() string { return "sem:global" }

func orgSemKey(orgID string) string { return fmt.Sprintf("sem:org:%s", orgID) }

// Acquire claims one global and one org slot atomically. It does not queue:
// admission failures surface immediately so the caller can fail fast.
func (s *Semaphore) Acquire(ctx context.Context, orgID string) (*Lease, error) {
	now := s.now()
	leaseID := uuid.NewString()
	deadline := now.Add(s.cfg.LeaseTTL).UnixMilli()

	ok, err := acquireScript.Run(ctx, s.rdb,
		[]string{globalSemKey(), orgSemKey(orgID)},
		now.UnixMilli(), deadline, leaseID, s.cfg.GlobalLimit, s.cfg.OrgLimit,
	).Int()
	if err != nil {
		return nil, fmt.Errorf("semaphore acquire: %w", err)
	}
	if ok != 1 {
		return nil, ErrCapacityExceeded
	}

	return &Lease{sem: s, orgKey: orgSemKey(orgID), id: leaseID}, nil
}

// Release frees the slot. Called defensively on every exit path; releasing
// an expired lease is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	if l == nil || l.released {
		return nil
	}
	l.released = true
	if err := releaseScript.Run(ctx, l.sem.rdb, []string{globalSemKey(), l.orgKey}, l.id).Err(); err != nil {
		return fmt.Errorf("semaphore release: %w", err)
	}
	return nil
}

// InFlight returns the live slot counts, minus expired leases.
func (s *Semaphore) InFlight(ctx context.Context, orgID string) (global int64, org int64, err error) {
	now := s.now().UnixMilli()
	pipe := s.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, globalSemKey(), "-inf", fmt.Sprintf("%d", now))
	pipe.ZRemRangeByScore(ctx, orgSemKey(orgID), "-inf", fmt.Sprintf("%d", now))
	globalCmd := pipe.ZCard(ctx, globalSemKey())
	orgCmd := pipe.ZCard(ctx, orgSemKey(orgID))
	if _, err = pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("semaphore inflight: %w", err)
	}
	return globalCmd.Val(), orgCmd.Val(), nil
}
