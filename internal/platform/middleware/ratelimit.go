package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/xd-sarthak/medical-doc-verification-using-blockchain/internal/platform/auth"
)

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{RequestsPerSecond: 100, BurstSize: 200}
}

// limiters holds one token bucket per key.
type limiters struct {
	cfg RateLimitConfig
	mu  sync.Mutex
	m   map[string]*rate.Limiter
}

func (l *limiters) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.m[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.RequestsPerSecond), l.cfg.BurstSize)
		l.m[key] = lim
	}
	return lim
}

// retryAfter is the whole number of seconds until lim has a token again,
// at least one.
func retryAfter(lim *rate.Limiter) int {
	r := lim.ReserveN(time.Now(), 1)
	if !r.OK() {
		return 1
	}
	d := r.Delay()
	r.Cancel()
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// RateLimit applies a token bucket per caller and client IP. Mount it after
// the auth middleware so the caller is known.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := &limiters{cfg: cfg, m: make(map[string]*rate.Limiter)}
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if caller := auth.UserIDFromContext(c.Request().Context()); caller != "" {
				key = caller + "@" + key
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", limit)

			lim := store.get(key)
			if !lim.Allow() {
				h.Set("Retry-After", strconv.Itoa(retryAfter(lim)))
				h.Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
