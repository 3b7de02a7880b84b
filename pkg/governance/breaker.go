package governance

import (
	"errors"
	"sync"
	"time"
)

// Breaker states
const (
	BreakerClosed   = "closed"
	BreakerOpen     = "open"
	BreakerHalfOpen = "half_open"
)

// ErrProviderUnavailable is returned when the circuit for a provider is open.
var ErrProviderUnavailable = errors.New("provider circuit is open")

type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Cooldown         time.Duration
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Cooldown:         30 * time.Second,
	}
}

type circuit struct {
	state     string
	failures  int
	successes int
	openedAt  time.Time
}

// CircuitBreaker centralizes per-provider failure state so any call site can
// check availability without attempting a call. All transitions happen here.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      BreakerConfig
	now      func() time.Time
	circuits map[string]*circuit
}

func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultBreakerConfig().SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultBreakerConfig().Cooldown
	}
	return &CircuitBreaker{
		cfg:      cfg,
		now:      time.Now,
		circuits: make(map[string]*circuit),
	}
}

// WithClock overrides the breaker clock for tests.
func (b *CircuitBreaker) WithClock(now func() time.Time) *CircuitBreaker {
	b.now = now
	return b
}

func (b *CircuitBreaker) get(provider string) *circuit {
	c, ok := b.circuits[provider]
	if !ok {
		c = &circuit{state: BreakerClosed}
		b.circuits[provider] = c
	}
	return c
}

// Allow reports whether a call to the provider may proceed. An open circuit
// whose cooldown elapsed moves to half-open and admits a trial call.
func (b *CircuitBreaker) Allow(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(provider)
	switch c.state {
	case BreakerClosed, BreakerHalfOpen:
		return nil
	default: // open
		if b.now().Sub(c.openedAt) >= b.cfg.Cooldown {
			c.state = BreakerHalfOpen
			c.successes = 0
			return nil
		}
		return ErrProviderUnavailable
	}
}

func (b *CircuitBreaker) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(provider)
	switch c.state {
	case BreakerHalfOpen:
		c.successes++
		if c.successes >= b.cfg.SuccessThreshold {
			c.state = BreakerClosed
			c.failures = 0
			c.successes = 0
		}
	case BreakerClosed:
		c.failures = 0
	}
}

func (b *CircuitBreaker) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.get(provider)
	switch c.state {
	case BreakerHalfOpen:
		// One failure during trial reopens immediately
		c.state = BreakerOpen
		c.openedAt = b.now()
		c.failures = 0
		c.successes = 0
	case BreakerClosed:
		c.failures++
		if c.failures >= b.cfg.FailureThreshold {
			c.state = BreakerOpen
			c.openedAt = b.now()
		}
	}
}

// State returns the current state without side effects.
func (b *CircuitBreaker) State(provider string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.get(provider).state
}
