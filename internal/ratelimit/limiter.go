package ratelimit

import (
	"sync"
	"time"

	"github.com/voyago/tripcraft/internal/domain"
)

// Limiter is an in-memory sliding-window rate limiter keyed by journey id.
// It is the pre-check gate in front of the generation gateway.
type Limiter struct {
	mu      sync.Mutex
	enabled bool
	limit   int
	window  time.Duration
	hits    map[string][]time.Time

	now func() time.Time
}

// New creates a limiter allowing requestsPerHour requests per key within a
// one-hour sliding window. A disabled limiter allows everything.
func New(enabled bool, requestsPerHour int) *Limiter {
	return &Limiter{
		enabled: enabled,
		limit:   requestsPerHour,
		window:  time.Hour,
		hits:    make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records one request for key and returns domain.ErrRateLimited when
// the window is already full. The rejected request does not consume a slot.
func (l *Limiter) Allow(key string) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.limit {
		l.hits[key] = recent
		return domain.ErrRateLimited
	}

	l.hits[key] = append(recent, now)
	return nil
}
