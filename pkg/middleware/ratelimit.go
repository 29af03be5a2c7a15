package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const maxTrackedClients = 1024

// ClientLimiter keeps one token bucket per client address. X-Forwarded-For
// is only honoured when the service runs behind a trusted proxy.
type ClientLimiter struct {
	mu           sync.Mutex
	visitors     map[string]*visitor
	limit        rate.Limit
	burst        int
	idle         time.Duration
	lastSweep    time.Time
	trustForward bool
}

// NewClientLimiter returns nil when cfg disables limiting.
func NewClientLimiter(cfg config.RateLimitConfig) *ClientLimiter {
	if cfg.RequestsPerSecond <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(cfg.RequestsPerSecond) + 1
	}
	return &ClientLimiter{
		visitors:     make(map[string]*visitor),
		limit:        rate.Limit(cfg.RequestsPerSecond),
		burst:        burst,
		idle:         10 * time.Minute,
		trustForward: cfg.TrustForwardedFor,
	}
}

// Allow consumes a token for key.
func (l *ClientLimiter) Allow(key string) bool {
	return l.allowAt(key, time.Now())
}

func (l *ClientLimiter) allowAt(key string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	l.evictIdle(now)
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

// evictIdle drops buckets unused for l.idle. The map is swept at most once
// a minute, however many clients are tracked. Called with l.mu held.
func (l *ClientLimiter) evictIdle(now time.Time) {
	if len(l.visitors) < maxTrackedClients || now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	for key, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.visitors, key)
		}
	}
}

// RateLimit rejects requests over the per-client budget with 429. Health
// probes are never limited. A nil limiter disables the middleware.
func RateLimit(limiter *ClientLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.Allow(limiter.clientKey(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (l *ClientLimiter) clientKey(r *http.Request) string {
	if l.trustForward {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
