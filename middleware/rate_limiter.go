package middleware

import (
	"net/http"
	"sync"
	"time"

	"contesthub/config"
	"contesthub/metrics"

	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	name     string
	visitors map[string]*Visitor
	mu       sync.Mutex
	rate     int           // Requests added per interval
	burst    int           // Bucket capacity
	interval time.Duration // Refill interval
	now      func() time.Time
}

type Visitor struct {
	tokens      int
	lastUpdated time.Time
}

func NewRateLimiter(name string, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		name:     name,
		visitors: make(map[string]*Visitor),
		rate:     cfg.Rate,
		burst:    cfg.Burst,
		interval: time.Minute,
		now:      time.Now,
	}
}

// Allow takes one token from the key's bucket
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	visitor, exists := rl.visitors[key]
	if !exists {
		visitor = &Visitor{tokens: rl.burst, lastUpdated: now}
		rl.visitors[key] = visitor
	}

	// Refill tokens
	refill := int(now.Sub(visitor.lastUpdated) / rl.interval)
	if refill > 0 {
		visitor.tokens += refill * rl.rate
		if visitor.tokens > rl.burst {
			visitor.tokens = rl.burst
		}
		visitor.lastUpdated = now
	}

	if visitor.tokens > 0 {
		visitor.tokens--
		return true
	}
	return false
}

// Cleanup forgets visitors idle for longer than maxIdle
func (rl *RateLimiter) Cleanup(maxIdle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-maxIdle)
	for key, v := range rl.visitors {
		if v.lastUpdated.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

func RateLimiterMiddleware(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			metrics.RateLimiterRejections.WithLabelValues(rl.name).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"message": "Too many requests. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
