package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/compia/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window counter per key, kept in process memory
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   int
	window  time.Duration
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

type client struct {
	tokens    int
	lastReset time.Time
}

// NewRateLimiter starts a limiter; call Stop to end its cleanup loop
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(window * 2)
	return rl
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, c := range rl.clients {
				if now.Sub(c.lastReset) > rl.window*2 {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Allow consumes one request for key and reports whether it fits the window,
// plus the remaining budget and the time until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c, exists := rl.clients[key]
	if !exists || now.Sub(c.lastReset) >= rl.window {
		rl.clients[key] = &client{tokens: rl.limit - 1, lastReset: now}
		return true, rl.limit - 1, rl.window
	}
	reset := rl.window - now.Sub(c.lastReset)
	if c.tokens > 0 {
		c.tokens--
		return true, c.tokens, reset
	}
	return false, 0, reset
}

// KeyByClientIP limits per remote address
func KeyByClientIP(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}

// KeyByUserOrIP limits authenticated callers per user and the rest per IP
func KeyByUserOrIP(c *gin.Context) string {
	if claims := GetJWTClaims(c); claims != nil {
		return "user:" + claims.UserID
	}
	return KeyByClientIP(c)
}

// RateLimit limits requests per client IP
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return RateLimitByKey(limiter, KeyByClientIP)
}

// RateLimitByKey limits requests per keyFunc result
func RateLimitByKey(limiter *RateLimiter, keyFunc func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining, reset := limiter.Allow(keyFunc(c))
		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(reset.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRateLimited, "Too many requests. Please try again later.", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RateLimitPrefix applies limiter per client IP to paths under one of prefixes only
func RateLimitPrefix(limiter *RateLimiter, prefixes ...string) gin.HandlerFunc {
	limit := RateLimit(limiter)
	return func(c *gin.Context) {
		for _, p := range prefixes {
			if strings.HasPrefix(c.Request.URL.Path, p) {
				limit(c)
				return
			}
		}
		c.Next()
	}
}
