package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RegionLimiter rate-limits work per region bucket. Batch runs over one
// neighborhood would otherwise hammer the satellite service and the store's
// bucket locks from every worker at once.
type RegionLimiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewRegionLimiter creates a limiter with per-bucket token buckets
func NewRegionLimiter(perSecond float64, burst int) *RegionLimiter {
	if burst <= 0 {
		burst = 5
	}

	return &RegionLimiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(perSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the bucket's limiter clears or the context ends
func (l *RegionLimiter) Wait(ctx context.Context, bucket string) error {
	return l.getLimiter(bucket).Wait(ctx)
}

// Allow reports whether work may proceed right now, without waiting
func (l *RegionLimiter) Allow(bucket string) bool {
	return l.getLimiter(bucket).Allow()
}

func (l *RegionLimiter) getLimiter(bucket string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[bucket]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[bucket]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[bucket] = limiter

	return limiter
}

// SetRegionRate overrides the limit for one bucket
func (l *RegionLimiter) SetRegionRate(bucket string, perSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[bucket] = rate.NewLimiter(rate.Limit(perSecond), burst)
}
