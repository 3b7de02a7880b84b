package session

import (
	"context"
	"time"

	"clinic-assistant-be/pkg/conversation"

	"github.com/patrickmn/go-cache"
)

type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore keeps sessions in process memory. Suited for single
// instance deployments and tests; expired sessions are purged in the
// background at a fraction of the TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(ttl, ttl/3),
	}
}

func (s *MemoryStore) Load(ctx context.Context, key Key) (*conversation.State, error) {
	if x, found := s.cache.Get(key.String()); found {
		cloned := x.(*conversation.State).Clone()
		return &cloned, nil
	}
	fresh := conversation.NewState()
	return &fresh, nil
}

func (s *MemoryStore) Save(ctx context.Context, key Key, state *conversation.State) error {
	cloned := state.Clone()
	s.cache.Set(key.String(), &cloned, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key Key) error {
	s.cache.Delete(key.String())
	return nil
}
