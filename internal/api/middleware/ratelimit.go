package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	visitorTTL = 10 * time.Minute
	gcInterval = 5 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	last    time.Time
}

type visitors struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
	lastGC  time.Time
}

func getIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		ip, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(ip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (v *visitors) allow(ip string, now time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if now.Sub(v.lastGC) > gcInterval {
		for k, e := range v.entries {
			if now.Sub(e.last) > visitorTTL {
				delete(v.entries, k)
			}
		}
		v.lastGC = now
	}

	e, ok := v.entries[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(v.rps, v.burst)}
		v.entries[ip] = e
	}
	e.last = now
	return e.limiter.AllowN(now, 1)
}

// RateLimit applies an IP-based token bucket limiter. Idle visitors are
// evicted lazily.
func RateLimit(rps float64, burst int) func(http.Handler) http.Handler {
	v := &visitors{
		entries: map[string]*limiterEntry{},
		rps:     rate.Limit(rps),
		burst:   burst,
		lastGC:  time.Now(),
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !v.allow(getIP(r), time.Now()) {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
