// Package ratelimit implements the per-principal token bucket used to
// throttle read routes (spec.md §4.6): buckets are kept in an LRU cache
// and each bucket's refill is guarded by its own lock. A bucket is evicted
// only when the cache is full and it is the least recently used; nothing
// evicts idle buckets on a timer.
package ratelimit

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// bucket is a single principal's token bucket state, guarded by its own
// mutex so concurrent principals never contend on each other's refills.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// Limiter is a registry of per-principal token buckets. Idle principals
// are evicted from the backing LRU so memory stays bounded under churn
// (spec.md §9).
type Limiter struct {
	qps   float64
	burst int

	cache *lru.Cache[string, *bucket]
}

// Result is the outcome of a TryAcquire call.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// New constructs a limiter sustaining qps tokens/sec with a burst
// capacity, evicting the least-recently-used principal once more than
// maxPrincipals are tracked.
func New(qps float64, burst int, maxPrincipals int) *Limiter {
	if maxPrincipals <= 0 {
		maxPrincipals = 10000
	}
	cache, err := lru.New[string, *bucket](maxPrincipals)
	if err != nil {
		panic(err)
	}
	return &Limiter{qps: qps, burst: burst, cache: cache}
}

// TryAcquire attempts to consume one token for principal, returning
// whether the request is allowed and the bucket's remaining tokens /
// estimated reset time for the Retry-After / meta.rate_limit response
// (spec.md §4.6). It never blocks.
func (l *Limiter) TryAcquire(principal string) Result {
	b := l.bucketFor(principal)

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * l.qps
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return Result{Allowed: true, Remaining: int(b.tokens), ResetAt: now}
	}

	secondsToToken := (1 - b.tokens) / l.qps
	resetAt := now.Add(time.Duration(secondsToToken * float64(time.Second)))
	return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
}

func (l *Limiter) bucketFor(principal string) *bucket {
	if b, ok := l.cache.Get(principal); ok {
		return b
	}
	b := &bucket{tokens: float64(l.burst), lastRefill: time.Now()}
	l.cache.Add(principal, b)
	return b
}

// Len reports how many principals currently have tracked bucket state,
// for the rate_limit_stats diagnostic route.
func (l *Limiter) Len() int {
	return l.cache.Len()
}
