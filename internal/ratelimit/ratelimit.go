// Package ratelimit provides the per-owner cooldown used to throttle sync
// requests against the external aggregator.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. Buckets are created lazily and
// never evicted; the key space is one entry per user.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func New(rps float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

// Check reports whether an operation under key may proceed now. When denied,
// resetAt is the earliest time a retry can succeed.
func (l *Limiter) Check(key string) (allowed bool, resetAt time.Time) {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(l.rps, l.burst)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()

	if bucket.Allow() {
		return true, time.Time{}
	}

	// Reserve to learn the wait, then cancel so the probe itself does not
	// consume a token.
	r := bucket.Reserve()
	delay := r.Delay()
	r.Cancel()
	return false, time.Now().Add(delay)
}
