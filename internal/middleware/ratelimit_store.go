package middleware

import (
	"context"
	"sync"
	"time"
)

// RateStore coordinates rate limiting counters for a specific key.
type RateStore interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int, ttl time.Duration, err error)
}

// memoryRateStore provides process-local rate limiting. It is concurrency-safe.
type memoryRateStore struct {
	mu    sync.Mutex
	data  map[string]*memoryCounter
	clock func() time.Time
	ops   int
}

type memoryCounter struct {
	count     int
	windowEnd time.Time
}

// sweepEvery controls how many increments pass between expired-counter sweeps.
const sweepEvery = 1024

// NewMemoryRateStore constructs an in-memory rate store.
func NewMemoryRateStore() RateStore {
	return newMemoryRateStore(time.Now)
}

func newMemoryRateStore(clock func() time.Time) *memoryRateStore {
	return &memoryRateStore{
		data:  make(map[string]*memoryCounter),
		clock: clock,
	}
}

func (s *memoryRateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	if window <= 0 {
		window = time.Minute
	}

	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ops++
	if s.ops%sweepEvery == 0 {
		s.sweepLocked(now)
	}

	counter, ok := s.data[key]
	if !ok || !now.Before(counter.windowEnd) {
		counter = &memoryCounter{windowEnd: now.Add(window)}
		s.data[key] = counter
	}

	counter.count++

	return counter.count, counter.windowEnd.Sub(now), nil
}

func (s *memoryRateStore) sweepLocked(now time.Time) {
	for key, counter := range s.data {
		if !now.Before(counter.windowEnd) {
			delete(s.data, key)
		}
	}
}
