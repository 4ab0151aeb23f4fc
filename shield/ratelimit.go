package shield

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig is a fixed-window budget per client IP.
type RateLimitConfig struct {
	MaxRequests int           `yaml:"max_requests"`
	Window      time.Duration `yaml:"window"`
}

type bucket struct {
	mu      sync.Mutex
	count   int
	resetAt time.Time
}

// RateLimiter enforces one RateLimitConfig per client IP. A zero
// MaxRequests disables limiting.
type RateLimiter struct {
	cfg     RateLimitConfig
	buckets sync.Map
	now     func() time.Time
}

// NewRateLimiter returns a limiter for cfg. Window defaults to one minute.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return &RateLimiter{cfg: cfg, now: time.Now}
}

// GC drops expired buckets.
func (rl *RateLimiter) GC() {
	now := rl.now()
	rl.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		expired := now.After(b.resetAt)
		b.mu.Unlock()
		if expired {
			rl.buckets.Delete(key)
		}
		return true
	})
}

// StartGC runs GC every window until done is closed.
func (rl *RateLimiter) StartGC(done <-chan struct{}) {
	t := time.NewTicker(rl.cfg.Window)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				rl.GC()
			}
		}
	}()
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.cfg.MaxRequests <= 0 {
		return true
	}
	now := rl.now()
	val, _ := rl.buckets.LoadOrStore(ip, &bucket{resetAt: now.Add(rl.cfg.Window)})
	b := val.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()
	if now.After(b.resetAt) {
		b.count = 0
		b.resetAt = now.Add(rl.cfg.Window)
	}
	b.count++
	return b.count <= rl.cfg.MaxRequests
}

// Middleware answers 429 with a JSON error once a client exceeds its budget.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ExtractIP(r)
		if rl.allow(ip) {
			next.ServeHTTP(w, r)
			return
		}

		GetLogger(r.Context()).Warn("ratelimit: request blocked", "ip", ip)
		w.Header().Set("Retry-After", retryAfter(rl.cfg.Window))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
	})
}

func retryAfter(d time.Duration) string {
	s := int(d.Seconds())
	if s < 1 {
		s = 1
	}
	return strconv.Itoa(s)
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
