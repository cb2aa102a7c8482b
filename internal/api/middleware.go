package api

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const RequestIDKey = "X-Request-ID"

// requestID tags every request with a ULID unless the client sent one
func requestID() fiber.Handler {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.Reader, 0)
	newID := func() string {
		mu.Lock()
		defer mu.Unlock()
		id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
		if err != nil {
			// monotonic entropy overflowed within one millisecond
			entropy = ulid.Monotonic(rand.Reader, 0)
			id = ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
		}
		return id.String()
	}

	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDKey)
		if id == "" {
			id = newID()
		}
		c.Locals(RequestIDKey, id)
		c.Set(RequestIDKey, id)
		return c.Next()
	}
}

func getRequestID(c *fiber.Ctx) string {
	id, ok := c.Locals(RequestIDKey).(string)
	if !ok || id == "" {
		return "unknown"
	}
	return id
}

func accessLog(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler set the status before logging it
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		fields := []any{
			"request_id", getRequestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
			"ip", c.IP(),
		}
		switch {
		case status >= 500:
			log.Errorw("server error", fields...)
		case status >= 400:
			log.Warnw("client error", fields...)
		default:
			log.Debugw("request", fields...)
		}
		return nil
	}
}

const (
	limiterIdle       = 10 * time.Minute
	limiterMaxClients = 1024
)

type clientLimiter struct {
	limiter *rate.Limiter
	seen    time.Time
}

// rateLimiter keeps one token bucket per client IP. Buckets idle for longer
// than idle are dropped, and the map never holds more than maxClients.
type rateLimiter struct {
	mu         sync.Mutex
	clock      clock.Clock
	bucket     map[string]*clientLimiter
	rate       rate.Limit
	burst      int
	idle       time.Duration
	maxClients int
	swept      time.Time
}

func newRateLimiter(clk clock.Clock, perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{
		clock:      clk,
		bucket:     make(map[string]*clientLimiter),
		rate:       rate.Limit(perSecond),
		burst:      burst,
		idle:       limiterIdle,
		maxClients: limiterMaxClients,
		swept:      clk.Now(),
	}
}

func (r *rateLimiter) limiterFor(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if now.Sub(r.swept) >= r.idle {
		r.evictIdle(now)
	}
	if c, ok := r.bucket[ip]; ok {
		c.seen = now
		return c.limiter
	}
	if len(r.bucket) >= r.maxClients {
		r.evictIdle(now)
	}
	if len(r.bucket) >= r.maxClients {
		r.evictOldest()
	}
	c := &clientLimiter{limiter: rate.NewLimiter(r.rate, r.burst), seen: now}
	r.bucket[ip] = c
	return c.limiter
}

func (r *rateLimiter) evictIdle(now time.Time) {
	for ip, c := range r.bucket {
		if now.Sub(c.seen) >= r.idle {
			delete(r.bucket, ip)
		}
	}
	r.swept = now
}

func (r *rateLimiter) evictOldest() {
	var oldest string
	var seen time.Time
	for ip, c := range r.bucket {
		if oldest == "" || c.seen.Before(seen) {
			oldest, seen = ip, c.seen
		}
	}
	delete(r.bucket, oldest)
}

func (r *rateLimiter) handler(log *zap.SugaredLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if !r.limiterFor(ip).Allow() {
			log.Warnw("too many requests", "ip", ip)
			return errTooManyRequests
		}
		return c.Next()
	}
}

func requireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}
