package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestLimiter(limit int) (*Limiter, *clock) {
	c := &clock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewLimiter(Config{RequestsPerMinute: limit, StaleAfter: 5 * time.Minute})
	rl.now = c.now
	return rl, c
}

func TestAllowWindow(t *testing.T) {
	rl, c := newTestLimiter(2)

	for i := 0; i < 2; i++ {
		if ok, _ := rl.Allow("a"); !ok {
			t.Fatalf("request %d should pass", i+1)
		}
	}
	c.t = c.t.Add(20 * time.Second)
	ok, retry := rl.Allow("a")
	if ok {
		t.Fatal("third request in the window should be limited")
	}
	if retry != 40*time.Second {
		t.Fatalf("retry = %v, want 40s", retry)
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Fatal("clients are limited independently")
	}

	c.t = c.t.Add(40 * time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("a new window should reset the count")
	}
	if got := rl.GetMetrics(); got.TotalHits != 1 || got.ClientCount != 2 {
		t.Fatalf("GetMetrics() = %+v", got)
	}
}

func TestCleanExpired(t *testing.T) {
	rl, c := newTestLimiter(10)
	rl.Allow("old")
	c.t = c.t.Add(4 * time.Minute)
	rl.Allow("new")
	c.t = c.t.Add(2 * time.Minute)

	if n := rl.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", n)
	}
	if got := rl.GetMetrics().ClientCount; got != 1 {
		t.Fatalf("ClientCount = %d", got)
	}
}

func TestMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(1)
	var limited bool
	h := rl.Middleware(
		func(r *http.Request) string { return r.RemoteAddr },
		func(w http.ResponseWriter, r *http.Request) {
			limited = true
			w.WriteHeader(http.StatusTooManyRequests)
		},
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("first request = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests || !limited {
		t.Fatalf("second request = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}
