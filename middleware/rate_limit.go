package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/liveplus/utils"
)

const limiterIdle = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter hands out one token bucket per client IP. Buckets idle for
// five minutes are dropped.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rateLimiter
}

// NewRateLimiter allows perMinute requests per IP with a burst of half that.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(max(perMinute, 1))),
		burst:    max(perMinute/2, 1),
		limiters: map[string]*rateLimiter{},
	}
}

// Middleware applies the limiter using a token bucket.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !rl.Allow(ctx.ClientIP()) {
			utils.AbortWithError(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			return
		}
		ctx.Next()
	}
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for k, l := range rl.limiters {
		if now.After(l.expires) {
			delete(rl.limiters, k)
		}
	}

	l, ok := rl.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = l
	}
	l.expires = now.Add(limiterIdle)
	return l.limiter.Allow()
}
