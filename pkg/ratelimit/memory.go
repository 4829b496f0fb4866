package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens    float64
	last      time.Time
	expiresAt time.Time
}

// MemoryStore keeps buckets in process memory behind a mutex, so the
// refill-and-decrement stays atomic across goroutines. It serves tests and
// single-replica deployments where Redis is not available; bucket state is
// not shared across processes.
type MemoryStore struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	stateTTL time.Duration
}

// NewMemoryStore creates an in-memory bucket store.
func NewMemoryStore(stateTTL time.Duration) *MemoryStore {
	if stateTTL <= 0 {
		stateTTL = DefaultStateTTL
	}
	return &MemoryStore{
		buckets:  make(map[string]*bucket),
		stateTTL: stateTTL,
	}
}

// Take refills then attempts to consume one token, atomically.
func (s *MemoryStore) Take(ctx context.Context, key string, rate float64, burst int, now time.Time) (float64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.After(b.expiresAt) {
		// Evicted or brand new: recreate at full burst capacity.
		b = &bucket{tokens: float64(burst), last: now}
		s.buckets[key] = b
	}

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * rate
		if b.tokens > float64(burst) {
			b.tokens = float64(burst)
		}
	}
	b.last = now
	b.expiresAt = now.Add(s.stateTTL)

	if b.tokens >= 1 {
		b.tokens--
		return b.tokens, true, nil
	}
	return b.tokens, false, nil
}
