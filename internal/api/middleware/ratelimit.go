package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client address.
type IPRateLimiter struct {
	ips   sync.Map
	rps   rate.Limit
	burst int
}

// NewIPRateLimiter creates a limiter with the given per-IP rate.
func NewIPRateLimiter(rps rate.Limit, burst int) *IPRateLimiter {
	l := &IPRateLimiter{rps: rps, burst: burst}
	go l.cleanupLoop()
	return l
}

func (l *IPRateLimiter) limiter(ip string) *rate.Limiter {
	if existing, ok := l.ips.Load(ip); ok {
		return existing.(*rate.Limiter)
	}
	fresh := rate.NewLimiter(l.rps, l.burst)
	actual, _ := l.ips.LoadOrStore(ip, fresh)
	return actual.(*rate.Limiter)
}

// cleanupLoop periodically drops all buckets. Idle clients re-create theirs
// on the next request with a full burst, which is acceptable here.
func (l *IPRateLimiter) cleanupLoop() {
	for {
		time.Sleep(10 * time.Minute)
		l.ips.Range(func(key, _ any) bool {
			l.ips.Delete(key)
			return true
		})
	}
}

// Middleware rejects requests over the per-IP rate with a 429.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if !l.limiter(ip).Allow() {
			slog.Warn("rate_limit_exceeded", "ip", ip, "path", r.URL.Path)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
