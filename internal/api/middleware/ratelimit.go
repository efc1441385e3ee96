package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters keys a per-client-IP rate.Limiter, the same
// double-checked-locking map idiom the fetcher uses for per-host
// politeness delay.
type clientLimiters struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (cl *clientLimiters) forClient(key string) *rate.Limiter {
	cl.mu.RLock()
	limiter, ok := cl.limiters[key]
	cl.mu.RUnlock()
	if ok {
		return limiter
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	if limiter, ok = cl.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(cl.limit, cl.burst)
	cl.limiters[key] = limiter
	return limiter
}

// RateLimit caps requests per client IP to rps with the given burst.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	cl := &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}

	return func(c *gin.Context) {
		if !cl.forClient(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"result": false,
				"error":  "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
