// file: internal/server/middleware/ratelimit.go
// version: 1.1.0
// guid: 9e0f1a2b-3c4d-5e6f-7a8b-9c0d1e2f3a4b

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out a token bucket per client IP. Idle buckets are
// reaped lazily so the map stays bounded for a long-running review session.
type IPRateLimiter struct {
	mu             sync.Mutex
	buckets        map[string]*clientBucket
	requestsPerMin int
	burst          int
	idleTTL        time.Duration
}

func NewIPRateLimiter(requestsPerMinute, burst int) *IPRateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	return &IPRateLimiter{
		buckets:        make(map[string]*clientBucket),
		requestsPerMin: requestsPerMinute,
		burst:          burst,
		idleTTL:        15 * time.Minute,
	}
}

func (r *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, b := range r.buckets {
		if now.Sub(b.lastSeen) > r.idleTTL {
			delete(r.buckets, key)
		}
	}

	b, ok := r.buckets[ip]
	if !ok {
		b = &clientBucket{
			limiter: rate.NewLimiter(rate.Limit(float64(r.requestsPerMin)/60.0), r.burst),
		}
		r.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter
}

// Middleware enforces the configured per-IP limit on every request.
func (r *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		if !r.bucketFor(ip).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}
