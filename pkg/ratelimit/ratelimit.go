// Package ratelimit provides a per-client request limiter with an explicit
// refill window, shared by the HTTP handlers instead of living in module
// globals.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Registry tracks one token-bucket limiter per key (normally the client IP).
// Buckets refill at perWindow events per window and allow a burst of the same
// size, which matches a fixed "N per minute" policy closely enough for a
// conversion API.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter

	limit rate.Limit
	burst int
	ttl   time.Duration

	now func() time.Time // overridable in tests
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRegistry builds a registry allowing perWindow events per window for each
// key. Keys idle for ten windows are pruned so the map stays bounded.
func NewRegistry(perWindow int, window time.Duration) *Registry {
	if perWindow < 1 {
		perWindow = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Registry{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Every(window / time.Duration(perWindow)),
		burst:    perWindow,
		ttl:      10 * window,
		now:      time.Now,
	}
}

// Allow reports whether key may perform another request right now.
func (r *Registry) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cl, ok := r.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(r.limit, r.burst), lastSeen: r.now()}
		r.limiters[key] = cl
		r.pruneLocked()
	}
	cl.lastSeen = r.now()
	return cl.limiter.Allow()
}

// Len returns the number of tracked keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for key, cl := range r.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(r.limiters, key)
		}
	}
}
