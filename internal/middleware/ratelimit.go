package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig sets one token bucket per key.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int

	// Buckets idle longer than CleanupInterval are dropped. Default one minute.
	CleanupInterval time.Duration

	// KeyFunc picks the bucket for a request. Default UserOrIPKey.
	KeyFunc func(r *http.Request) string
}

type bucket struct {
	*rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per key in process memory, so limits are
// per replica.
type RateLimiter struct {
	cfg      RateLimiterConfig
	mu       sync.Mutex
	buckets  map[string]*bucket
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter starts a background sweep of idle buckets; call Stop to end it.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = UserOrIPKey
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	rl := &RateLimiter{cfg: cfg, buckets: map[string]*bucket{}, stop: make(chan struct{})}
	go rl.sweep()
	return rl
}

func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	b := rl.buckets[key]
	if b == nil {
		b = &bucket{Limiter: rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.BurstSize)}
		rl.buckets[key] = b
	}
	b.lastSeen = time.Now()
	rl.mu.Unlock()
	return b.Allow()
}

func (rl *RateLimiter) sweep() {
	t := time.NewTicker(rl.cfg.CleanupInterval)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case now := <-t.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.lastSeen) > rl.cfg.CleanupInterval {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop ends the sweep. It may be called more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Middleware answers 429 with Retry-After once a key's bucket is empty.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Allow(rl.cfg.KeyFunc(r)) {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Retry-After", "1")
		respondTooManyRequests(w, r)
	})
}

// UserOrIPKey buckets authenticated callers by user id and everyone else by
// client IP.
func UserOrIPKey(r *http.Request) string {
	if u := GetUserFromContext(r); u != nil {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}
	return "ip:" + GetClientIP(r)
}

// GetClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's remote address.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
