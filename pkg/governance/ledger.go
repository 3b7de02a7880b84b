package governance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBudgetExceeded is returned when a reservation would break the daily cap.
var ErrBudgetExceeded = errors.New("daily budget exceeded")

// reserveScript enforces spent + reserved + estimate < limit and books the
// estimate in the same atomic step. Amounts are integer minor-currency units
// (satang) so there is no float drift.
var reserveScript = redis.NewScript(`
local spent = tonumber(redis.call('HGET', KEYS[1], 'spent') or '0')
local reserved = tonumber(redis.call('HGET', KEYS[1], 'reserved') or '0')
local estimate = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])

if spent + reserved + estimate >= limit then
  return 0
end

redis.call('HINCRBY', KEYS[1], 'reserved', estimate)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[3]))
return 1
`)

// reconcileScript releases the reservation and records the actual spend in
// one unit of work. Reserved never goes below zero even if a sweep raced us.
var reconcileScript = redis.NewScript(`
local estimate = tonumber(ARGV[1])
local actual = tonumber(ARGV[2])

local reserved = tonumber(redis.call('HGET', KEYS[1], 'reserved') or '0')
if reserved < estimate then
  estimate = reserved
end
redis.call('HINCRBY', KEYS[1], 'reserved', -estimate)
if actual > 0 then
  redis.call('HINCRBY', KEYS[1], 'spent', actual)
end
return 1
`)

type LedgerConfig struct {
	DailyLimitSatang int64
	Location         *time.Location // calendar day boundary
	EntryTTL         time.Duration  // keep closed days around briefly for reporting
}

// Ledger is the per-org daily budget, backed by a Redis hash per calendar
// day. Reserve-then-reconcile: an optimistic upper bound is booked before
// the provider call and replaced by the actual afterwards, on success and
// failure paths alike.
type Ledger struct {
	rdb *redis.Client
	cfg LedgerConfig
	now func() time.Time
}

func NewLedger(rdb *redis.Client, cfg LedgerConfig) *Ledger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = 48 * time.Hour
	}
	return &Ledger{rdb: rdb, cfg: cfg, now: time.Now}
}

// WithClock overrides the ledger clock for tests.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) dayKey(orgID string) string {
	return fmt.Sprintf("budget:%s:%s", orgID, l.now().In(l.cfg.Location).Format("20060102"))
}

// Reservation is a booked estimate that must be reconciled exactly once.
type Reservation struct {
	ledger   *Ledger
	key      string
	Estimate int64

	once sync.Once
}

// Reserve books the estimate if the daily cap allows it.
func (l *Ledger) Reserve(ctx context.Context, orgID string, estimateSatang int64) (*Reservation, error) {
	if estimateSatang <= 0 {
		estimateSatang = 1
	}
	key := l.dayKey(orgID)

	ok, err := reserveScript.Run(ctx, l.rdb, []string{key},
		estimateSatang, l.cfg.DailyLimitSatang, int64(l.cfg.EntryTTL.Seconds()),
	).Int()
	if err != nil {
		return nil, fmt.Errorf("budget reserve: %w", err)
	}
	if ok != 1 {
		return nil, ErrBudgetExceeded
	}

	return &Reservation{ledger: l, key: key, Estimate: estimateSatang}, nil
}

// Reconcile swaps the reservation for the actual spend. Exactly-once: later
// calls are no-ops, so defensive reconciliation on error paths cannot double
// count. actualSatang of 0 simply releases the reservation (failed call).
func (r *Reservation) Reconcile(ctx context.Context, actualSatang int64) error {
	if r == nil {
		return nil
	}
	var err error
	r.once.Do(func() {
		if actualSatang < 0 {
			actualSatang = 0
		}
		err = reconcileScript.Run(ctx, r.ledger.rdb, []string{r.key}, r.Estimate, actualSatang).Err()
		if err != nil {
			err = fmt.Errorf("budget reconcile: %w", err)
		}
	})
	return err
}

// Snapshot returns the current reserved/spent pair for an org's day.
func (l *Ledger) Snapshot(ctx context.Context, orgID string) (reserved int64, spent int64, err error) {
	vals, err := l.rdb.HMGet(ctx, l.dayKey(orgID), "reserved", "spent").Result()
	if err != nil {
		return 0, 0, fmt.Errorf("budget snapshot: %w", err)
	}
	return parseLedgerInt(vals[0]), parseLedgerInt(vals[1]), nil
}

func parseLedgerInt(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	var out int64
	_, _ = fmt.Sscanf(s, "%d", &out)
	return out
}
