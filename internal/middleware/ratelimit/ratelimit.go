// Package ratelimit throttles requests per client with a fixed one-minute window.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const window = time.Minute

// Limiter counts requests per key within a fixed window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	now     func() time.Time

	requestsPerMinute int
	staleAfter        time.Duration
	hits              atomic.Int64
}

type clientInfo struct {
	windowStart time.Time
	lastRequest time.Time
	requests    int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	// StaleAfter is how long an idle client is remembered.
	StaleAfter time.Duration
}

// DefaultConfig returns the limits used for the general API.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		StaleAfter:        10 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = def.RequestsPerMinute
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = def.StaleAfter
	}
	return &Limiter{
		clients:           make(map[string]*clientInfo),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
		staleAfter:        config.StaleAfter,
	}
}

// Allow records a request for key and reports whether it is within the limit.
// The second result is how long until the window resets.
func (rl *Limiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	client, ok := rl.clients[key]
	if !ok || now.Sub(client.windowStart) >= window {
		client = &clientInfo{windowStart: now}
		rl.clients[key] = client
	}
	client.requests++
	client.lastRequest = now

	if client.requests > rl.requestsPerMinute {
		rl.hits.Add(1)
		return false, window - now.Sub(client.windowStart)
	}
	return true, 0
}

// CleanExpired forgets clients idle for longer than StaleAfter and returns
// how many were dropped.
func (rl *Limiter) CleanExpired() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.staleAfter)
	n := 0
	for key, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, key)
			n++
		}
	}
	return n
}

// Run cleans stale clients every interval until ctx is cancelled.
func (rl *Limiter) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.CleanExpired()
		case <-ctx.Done():
			return nil
		}
	}
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits   int64 `json:"total_hits"`
	ClientCount int64 `json:"client_count"`
}

func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	clients := int64(len(rl.clients))
	rl.mu.Unlock()
	return Metrics{TotalHits: rl.hits.Load(), ClientCount: clients}
}

// Middleware rejects requests over the limit. onLimit writes the rejection;
// when nil a plain 429 is sent. Retry-After is always set.
func (rl *Limiter) Middleware(extractKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := rl.Allow(extractKey(r))
			if !ok {
				secs := int(retry.Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
