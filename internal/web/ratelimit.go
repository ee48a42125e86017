package web

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit defaults. 100/min is sized for PVP result polling.
const (
	rateLimitPerMinute = 100
	rateLimitWindow    = time.Minute
)

// rateLimitExempt paths skip the limiter entirely.
var rateLimitExempt = map[string]bool{
	"/":            true,
	"/health":      true,
	"/favicon.ico": true,
}

// ipLimiter tracks one token bucket per client IP. Buckets idle for an hour
// are dropped by a background sweep so the map cannot grow unbounded; close
// stops the sweep goroutine.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipBucket
	done     chan struct{}
	closer   sync.Once
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter() *ipLimiter {
	l := &ipLimiter{
		limiters: make(map[string]*ipBucket),
		done:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

func (l *ipLimiter) close() {
	l.closer.Do(func() { close(l.done) })
}

func (l *ipLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.limiters[ip]
	if !ok {
		b = &ipBucket{
			limiter: rate.NewLimiter(rate.Every(rateLimitWindow/rateLimitPerMinute), rateLimitPerMinute),
		}
		l.limiters[ip] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

func (l *ipLimiter) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.mu.Lock()
			for ip, b := range l.limiters {
				if time.Since(b.lastSeen) > time.Hour {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// rateLimitMiddleware enforces a per-IP request budget and reports the
// remaining allowance in response headers. chi's RealIP middleware runs
// earlier, so RemoteAddr already holds the client address behind a proxy.
func rateLimitMiddleware(limiters *ipLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rateLimitExempt[r.URL.Path] || strings.HasPrefix(r.URL.Path, "/assets/") {
				next.ServeHTTP(w, r)
				return
			}

			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}

			limiter := limiters.get(ip)
			if !limiter.Allow() {
				resetAt := time.Now().Add(rateLimitWindow)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.UnixMilli(), 10))
				writeError(w, http.StatusTooManyRequests, CodeRateLimit,
					fmt.Sprintf("Rate limit exceeded. Try again after %s", resetAt.UTC().Format(time.RFC3339)))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(limiter.Tokens())))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(rateLimitWindow).UnixMilli(), 10))
			next.ServeHTTP(w, r)
		})
	}
}
