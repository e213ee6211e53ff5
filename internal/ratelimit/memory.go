package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps counters in process memory. Expired windows are
// reclaimed by Sweep, either called directly or from StartSweep.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*window)}
}

func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, d time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.entries[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(d)}
		s.entries[key] = w
		return w.count, w.resetAt, nil
	}
	w.count++
	return w.count, w.resetAt, nil
}

// Sweep drops every window that has expired at now and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, w := range s.entries {
		if !now.Before(w.resetAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweep runs Sweep every interval until ctx is done. The returned
// channel is closed once the goroutine has exited.
func (s *MemoryStore) StartSweep(ctx context.Context, clock Clock, interval time.Duration) <-chan struct{} {
	if clock == nil {
		clock = systemClock{}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := s.Sweep(clock.Now()); n > 0 {
					slog.Debug("rate limit sweep", "removed", n)
				}
			}
		}
	}()
	return done
}
