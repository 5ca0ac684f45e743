package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimitStore evaluates one attempt against a sliding window in a
// single call: trim the window, admit or reject, record when admitted.
// It reports the attempt count inside the window after evaluation and the
// oldest recorded attempt, the zero time when the window is empty.
type RateLimitStore interface {
	Take(ctx context.Context, identifier string, window time.Duration, limit int, at time.Time) (allowed bool, count int, oldest time.Time, err error)
}

// IdentifierFunc extracts the identifier used to scope rate limits.
type IdentifierFunc func(*gin.Context) (string, bool)

// RateLimitRule configures a sliding-window limit for a particular
// identifier.
type RateLimitRule struct {
	Name       string
	Limit      int
	Window     time.Duration
	Identifier IdentifierFunc
}

// RateLimiter enforces sliding-window limits against a shared store.
type RateLimiter struct {
	store  RateLimitStore
	logger *zap.Logger
	now    func() time.Time
}

type ruleResult struct {
	allowed    bool
	limit      int
	remaining  int
	reset      time.Time
	retryAfter time.Duration
}

// NewRateLimiter builds a reusable rate limiter middleware helper.
func NewRateLimiter(store RateLimitStore, logger *zap.Logger) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RateLimiter{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock injects a custom clock, primarily for testing.
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	if now != nil {
		rl.now = now
	}
	return rl
}

// ClientIPIdentifier builds an IdentifierFunc using the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// RateLimit returns a Gin middleware enforcing the provided rule. A failing
// store never blocks the request; limits degrade open.
func (rl *RateLimiter) RateLimit(rule RateLimitRule) gin.HandlerFunc {
	if rule.Name == "" {
		rule.Name = "default"
	}

	return func(c *gin.Context) {
		if rl.store == nil || rule.Identifier == nil || rule.Limit <= 0 || rule.Window <= 0 {
			c.Next()
			return
		}

		identifier, ok := rule.Identifier(c)
		if !ok || identifier == "" {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", rule.Name, identifier)
		now := rl.now()

		res, err := rl.evaluateRule(c.Request.Context(), rule, key, now)
		if err != nil {
			rl.logger.Warn("rate limit check failed",
				zap.String("rule", rule.Name),
				zap.String("identifier", identifier),
				zap.Error(err))
			c.Next()
			return
		}

		rl.applyHeaders(c, res)
		if !res.allowed {
			retrySeconds := int(math.Ceil(res.retryAfter.Seconds()))
			if retrySeconds < 0 {
				retrySeconds = 0
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, newErrorResponse(c,
				fmt.Sprintf("too many requests, retry in %d seconds", retrySeconds)))
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) evaluateRule(ctx context.Context, rule RateLimitRule, key string, now time.Time) (ruleResult, error) {
	allowed, count, oldest, err := rl.store.Take(ctx, key, rule.Window, rule.Limit, now)
	if err != nil {
		return ruleResult{}, err
	}

	result := ruleResult{
		allowed: allowed,
		limit:   rule.Limit,
		reset:   now.Add(rule.Window),
	}
	if !oldest.IsZero() {
		result.reset = oldest.Add(rule.Window)
	}

	result.remaining = rule.Limit - count
	if result.remaining < 0 {
		result.remaining = 0
	}

	if !allowed {
		result.remaining = 0
		result.retryAfter = result.reset.Sub(now)
		if result.retryAfter < 0 {
			result.retryAfter = 0
		}
	}

	return result, nil
}

func (rl *RateLimiter) applyHeaders(c *gin.Context, res ruleResult) {
	headers := c.Writer.Header()
	headers.Set("X-RateLimit-Limit", strconv.Itoa(res.limit))
	headers.Set("X-RateLimit-Remaining", strconv.Itoa(res.remaining))
	headers.Set("X-RateLimit-Reset", strconv.FormatInt(res.reset.Unix(), 10))

	if !res.allowed {
		seconds := int(math.Ceil(res.retryAfter.Seconds()))
		if seconds < 0 {
			seconds = 0
		}
		headers.Set("Retry-After", strconv.Itoa(seconds))
	}
}
