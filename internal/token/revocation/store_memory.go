package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process revocation list for dev and tests. Entries are
// dropped lazily on lookup once their TTL passes.
type Memory struct {
	mu      sync.RWMutex
	expires map[string]time.Time
	clock   func() time.Time
}

// MemoryOption configures a Memory store.
type MemoryOption func(*Memory)

// WithClock sets the clock function for testability.
func WithClock(clock func() time.Time) MemoryOption {
	return func(m *Memory) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		expires: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Revoke marks a token ID as revoked for the remaining token lifetime.
func (m *Memory) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expires[jti] = m.clock().Add(ttl)
	return nil
}

// IsRevoked reports whether the token ID is currently revoked.
func (m *Memory) IsRevoked(ctx context.Context, jti string) (bool, error) {
	m.mu.RLock()
	expiry, ok := m.expires[jti]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if m.clock().After(expiry) {
		m.mu.Lock()
		delete(m.expires, jti)
		m.mu.Unlock()
		return false, nil
	}
	return true, nil
}
