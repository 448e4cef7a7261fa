// Package ratelimit throttles state-changing dashboard requests per client.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"energydash/internal/metrics"
)

// window is the length of one counting window.
const window = time.Minute

// staleAfter is how long an idle client is remembered.
const staleAfter = 10 * time.Minute

// Limiter counts requests per client in fixed windows. A window opens with
// the client's first request and is not extended by later ones.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*bucket
	now     func() time.Time
	limit   int
	hits    int64

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	opened   time.Time
	lastSeen time.Time
	count    int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 120 requests a minute and forgets idle clients
// every five minutes.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		CleanupInterval:   5 * time.Minute,
	}
}

// NewLimiter starts a limiter and its cleanup goroutine. Call Stop to
// release it.
func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = def.CleanupInterval
	}

	rl := &Limiter{
		clients: make(map[string]*bucket),
		now:     time.Now,
		limit:   config.RequestsPerMinute,
		stop:    make(chan struct{}),
	}
	go rl.cleanupLoop(config.CleanupInterval)
	return rl
}

// Reserve counts one request from clientIP. When the budget is spent it
// returns false and the time until the client's window closes.
func (rl *Limiter) Reserve(clientIP string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.clients[clientIP]
	if !ok || now.Sub(b.opened) >= window {
		rl.clients[clientIP] = &bucket{opened: now, lastSeen: now, count: 1}
		return true, 0
	}

	b.count++
	b.lastSeen = now
	if b.count <= rl.limit {
		return true, 0
	}

	rl.hits++
	metrics.RateLimitHits.Inc()
	return false, b.opened.Add(window).Sub(now)
}

func (rl *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stop:
			return
		}
	}
}

func (rl *Limiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleAfter)
	for ip, b := range rl.clients {
		if b.lastSeen.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *Limiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Stats is a snapshot for the readiness report.
type Stats struct {
	Rejected      int64
	ActiveClients int
}

func (rl *Limiter) Stats() Stats {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return Stats{Rejected: rl.hits, ActiveClients: len(rl.clients)}
}

// Middleware limits requests accepted by applies. Other requests pass
// through uncounted. Rejected requests get a Retry-After header and are
// handed to onLimit, which may be nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, applies func(*http.Request) bool, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if applies != nil && !applies(r) {
				next.ServeHTTP(w, r)
				return
			}

			ok, wait := rl.Reserve(extractIP(r))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Retry-After", retryAfter(wait))
			if onLimit != nil {
				onLimit(w, r)
				return
			}
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		})
	}
}

// retryAfter renders wait in whole seconds, rounded up and at least one.
func retryAfter(wait time.Duration) string {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// MutatingRequest reports whether r changes server state.
func MutatingRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
