package http

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/astro-clock/internal/infra/config"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func errorHandlingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		httpErr := asHTTPError(c.Errors.Last().Err)
		message := httpErr.Message
		if message == "" {
			message = httpErr.Error()
		}

		attrs := []any{"code", httpErr.Code, "status", httpErr.Status, "path", c.Request.URL.Path, "request_id", requestIDFrom(c), "error", httpErr.Err}
		if httpErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed", attrs...)
		} else {
			logger.Warn("request failed", attrs...)
		}

		c.JSON(httpErr.Status, errorResponse{Error: message, Code: httpErr.Code})
	}
}

const rateLimitedMessage = "Too many reading requests. Please wait a moment and try again."

// rateLimitMiddleware meters reading requests per client IP with a token
// bucket. Rejected requests carry Retry-After in whole seconds.
func rateLimitMiddleware(cfg config.RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newReadingLimiter(cfg, time.Now)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		wait, ok := limiter.reserve(ip)
		if ok {
			c.Next()
			return
		}
		logger.Warn("reading rate limit exceeded", "ip", ip, "path", c.Request.URL.Path, "retry_after", wait)
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		abortWithError(c, NewHTTPError(http.StatusTooManyRequests, codeRateLimited, rateLimitedMessage, nil))
	}
}

// readingLimiter holds one bucket per client. Buckets idle longer than
// idleTTL are swept at most once per sweepEvery.
type readingLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	perSecond  float64
	burst      float64
	idleTTL    time.Duration
	sweepEvery time.Duration
	lastSweep  time.Time
	now        func() time.Time
}

type bucket struct {
	tokens float64
	seen   time.Time
}

func newReadingLimiter(cfg config.RateLimitConfig, now func() time.Time) *readingLimiter {
	burst := float64(cfg.Burst)
	if burst < 1 {
		burst = 1
	}
	return &readingLimiter{
		buckets:    make(map[string]*bucket),
		perSecond:  float64(cfg.RequestsPerMinute) / 60,
		burst:      burst,
		idleTTL:    5 * time.Minute,
		sweepEvery: time.Minute,
		lastSweep:  now(),
		now:        now,
	}
}

// reserve takes a token for ip. When none is left it reports how long until
// the next one refills.
func (l *readingLimiter) reserve(ip string) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.sweepEvery {
		l.sweepLocked(now)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{tokens: l.burst, seen: now}
		l.buckets[ip] = b
	} else if elapsed := now.Sub(b.seen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.burst, b.tokens+elapsed*l.perSecond)
		b.seen = now
	}

	if b.tokens < 1 {
		missing := 1 - b.tokens
		return time.Duration(missing / l.perSecond * float64(time.Second)), false
	}
	b.tokens--
	return 0, true
}

func (l *readingLimiter) sweepLocked(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.seen) > l.idleTTL {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}
