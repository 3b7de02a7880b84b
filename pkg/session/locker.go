package session

import "sync"

// Locker serializes turns for the same conversation so two concurrent
// messages from one user cannot interleave state updates. Locks are
// created lazily and never evicted; the per-key footprint is one mutex.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *Locker) Lock(key Key) func() {
	l.mu.Lock()
	m, ok := l.locks[key.String()]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key.String()] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
