package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit entries in process memory for dev and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *InMemoryStore) ListByActor(ctx context.Context, actorID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].ActorID.String() == actorID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}

// All returns every entry in insertion order. Test helper.
func (s *InMemoryStore) All() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
