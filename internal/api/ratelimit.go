// Per-client token-bucket rate limiting for the admin command endpoints.
package api

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"golang.org/x/time/rate"
)

// RateLimiter holds one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	every   time.Duration // Refill interval of one token
	burst   int
	idle    time.Duration // Buckets unused this long are dropped
	swept   time.Time
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows maxRate requests per window per client, with bursts
// up to maxRate.
func NewRateLimiter(maxRate int, window time.Duration) *RateLimiter {
	if maxRate <= 0 {
		maxRate = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		every:   window / time.Duration(maxRate),
		burst:   maxRate,
		idle:    2 * window,
		swept:   time.Now(),
	}
}

// Allow reports whether ip may make a request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.swept) > rl.idle {
		rl.sweep(now)
	}
	c, ok := rl.clients[ip]
	if !ok {
		c = &client{lim: rate.NewLimiter(rate.Every(rl.every), rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = now
	return c.lim.AllowN(now, 1)
}

// RetryAfter is the number of whole seconds until one token refills.
func (rl *RateLimiter) RetryAfter() int {
	if rl.every <= 0 {
		return 1
	}
	return int((rl.every + time.Second - 1) / time.Second)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > rl.idle {
			delete(rl.clients, ip)
		}
	}
	rl.swept = now
}

// RateLimitMiddleware rejects requests over the limit with 429.
func RateLimitMiddleware(rl *RateLimiter) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if !rl.Allow(ctx.ClientIP()) {
			ctx.Response.Header.Set("Retry-After", strconv.Itoa(rl.RetryAfter()))
			writeErrorBody(ctx, consts.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next(c)
	}
}
