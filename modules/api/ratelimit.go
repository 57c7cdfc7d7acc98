package api

import (
	"sync"
	"time"
)

// Per-connection message rate limits.
const (
	messagesPerSecond = 10
	burstSize         = 20
)

// rateLimiter is a token bucket. Tokens refill at refillRate per second
// up to maxTokens.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     int
	maxTokens  int
	refillRate int
	lastRefill time.Time
}

func newRateLimiter(maxTokens, refillRate int) *rateLimiter {
	return &rateLimiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (r *rateLimiter) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.lastRefill)
	tokensToAdd := int(elapsed.Seconds()) * r.refillRate
	if tokensToAdd > 0 {
		r.tokens += tokensToAdd
		if r.tokens > r.maxTokens {
			r.tokens = r.maxTokens
		}
		r.lastRefill = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}
	return false
}

// limiterRegistry tracks one rate limiter per connected user.
type limiterRegistry struct {
	limiters sync.Map // userID -> *rateLimiter
}

func newLimiterRegistry() *limiterRegistry {
	return &limiterRegistry{}
}

func (lr *limiterRegistry) get(userID string) *rateLimiter {
	if v, ok := lr.limiters.Load(userID); ok {
		return v.(*rateLimiter)
	}
	limiter := newRateLimiter(burstSize, messagesPerSecond)
	actual, _ := lr.limiters.LoadOrStore(userID, limiter)
	return actual.(*rateLimiter)
}

func (lr *limiterRegistry) remove(userID string) {
	lr.limiters.Delete(userID)
}
