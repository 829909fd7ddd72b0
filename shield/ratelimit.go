package shield

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Rule limits one endpoint to MaxRequests per Window and client IP.
type Rule struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type bucket struct {
	count   int
	resetAt time.Time
}

// RateLimiter enforces per-IP, per-endpoint fixed-window limits. Endpoints
// are keyed "METHOD /path"; endpoints without a rule are not limited.
type RateLimiter struct {
	rules   map[string]Rule
	exclude []string
	now     func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewRateLimiter returns a limiter for rules. Paths starting with one of
// excludePrefixes are never limited.
func NewRateLimiter(rules map[string]Rule, excludePrefixes ...string) *RateLimiter {
	return &RateLimiter{
		rules:   rules,
		exclude: excludePrefixes,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow counts one request from ip on endpoint and reports whether it is
// within the limit.
func (rl *RateLimiter) Allow(ip, endpoint string) bool {
	rule, ok := rl.rules[endpoint]
	if !ok || rule.MaxRequests <= 0 || rule.Window <= 0 {
		return true
	}
	now := rl.now()
	key := ip + " " + endpoint

	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok || now.After(b.resetAt) {
		rl.buckets[key] = &bucket{count: 1, resetAt: now.Add(rule.Window)}
		return true
	}
	b.count++
	return b.count <= rule.MaxRequests
}

// Sweep drops expired buckets and returns how many are left.
func (rl *RateLimiter) Sweep() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for k, b := range rl.buckets {
		if now.After(b.resetAt) {
			delete(rl.buckets, k)
		}
	}
	return len(rl.buckets)
}

// StartSweeper sweeps every interval until done is closed.
func (rl *RateLimiter) StartSweeper(interval time.Duration, done <-chan struct{}) {
	t := time.NewTicker(interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				rl.Sweep()
			}
		}
	}()
}

// Middleware answers 429 with a JSON error once a client exceeds a rule.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range rl.exclude {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		endpoint := r.Method + " " + r.URL.Path
		ip := ExtractIP(r)
		if rl.Allow(ip, endpoint) {
			next.ServeHTTP(w, r)
			return
		}

		slog.Warn("ratelimit: request blocked", "ip", ip, "endpoint", endpoint)
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.rules[endpoint].Window.Seconds())))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

// ExtractIP returns the client IP from X-Forwarded-For or RemoteAddr.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
