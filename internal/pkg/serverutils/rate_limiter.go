package serverutils

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

const visitorIdle = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// VisitorLimiter throttles anonymous writes (submissions, votes) per client IP.
type VisitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
}

// NewVisitorLimiter allows perMinute requests per IP with the given burst.
// perMinute <= 0 disables limiting.
func NewVisitorLimiter(perMinute, burst int) *VisitorLimiter {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	if burst < 1 {
		burst = 1
	}
	return &VisitorLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
	}
}

func (l *VisitorLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter
}

// Allow reports whether ip may make another request now.
func (l *VisitorLimiter) Allow(ip string) bool {
	return l.get(ip).AllowN(l.now(), 1)
}

// Sweep forgets visitors idle for longer than three minutes.
func (l *VisitorLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-visitorIdle)
	n := 0
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
			n++
		}
	}
	return n
}

// Run sweeps idle visitors every minute until ctx is done.
func (l *VisitorLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

func (l *VisitorLimiter) Middleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if l.limit == rate.Inf || l.Allow(ctx.IP()) {
			return ctx.Next()
		}
		ctx.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(visitorRetryAfter(l.limit).Seconds())))
		return ctx.Status(fiber.StatusTooManyRequests).
			JSON(ErrorResponse(fiber.StatusTooManyRequests, "Too many requests, slow down"))
	}
}

func visitorRetryAfter(limit rate.Limit) time.Duration {
	d := time.Duration(float64(time.Second) / float64(limit))
	if d < time.Second {
		return time.Second
	}
	return d
}
