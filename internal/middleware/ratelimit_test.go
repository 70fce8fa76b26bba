// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source for the limiter.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(t *testing.T, limit int, window time.Duration) (*RateLimiter, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, window)
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.allow("10.0.0.1"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	if ok, _ := rl.allow("10.0.0.1"); ok {
		t.Error("4th attempt should be rate-limited")
	}

	// Different IP has its own budget.
	if ok, _ := rl.allow("10.0.0.2"); !ok {
		t.Error("different IP should be allowed")
	}
}

func TestRateLimiterRetryAfterOldestHit(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.allow("ip")
	clock.advance(20 * time.Second)
	rl.allow("ip")
	clock.advance(10 * time.Second)

	ok, retry := rl.allow("ip")
	if ok {
		t.Fatal("should be rate-limited")
	}
	// The first hit leaves the window 30s from now.
	if retry != 30*time.Second {
		t.Errorf("retry: got %v, want 30s", retry)
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, time.Minute)

	rl.allow("ip")
	clock.advance(30 * time.Second)
	rl.allow("ip")

	if ok, _ := rl.allow("ip"); ok {
		t.Fatal("should be rate-limited")
	}

	// Only the first hit has left the window.
	clock.advance(31 * time.Second)
	if ok, _ := rl.allow("ip"); !ok {
		t.Error("one slot should be free once the oldest hit expires")
	}
	if ok, _ := rl.allow("ip"); ok {
		t.Error("the second slot is still taken")
	}
}

func TestRateLimiterRejectedAttemptsDoNotCount(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, time.Minute)

	rl.allow("ip")
	for i := 0; i < 5; i++ {
		rl.allow("ip")
	}

	clock.advance(time.Minute + time.Second)
	if ok, _ := rl.allow("ip"); !ok {
		t.Error("rejected attempts should not extend the lockout")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want 200", i+1, rr.Code)
		}
	}

	t.Run("plain request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("got status %d, want 429", rr.Code)
		}
		if got := rr.Header().Get("Retry-After"); got != "60" {
			t.Errorf("Retry-After: got %q, want %q", got, "60")
		}
		if rr.Body.String() != msgTooManyAttempts+"\n" {
			t.Errorf("body: got %q", rr.Body.String())
		}
	})

	t.Run("htmx request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/2fa/verify", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		req.Header.Set("HX-Request", "true")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusTooManyRequests {
			t.Errorf("got status %d, want 429", rr.Code)
		}
		if rr.Header().Get("HX-Reswap") != "none" {
			t.Error("HTMX rejection should not swap the page")
		}
		if trigger := rr.Header().Get("HX-Trigger"); trigger == "" {
			t.Error("HTMX rejection should carry a toast")
		}
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xri        string
		remoteAddr string
		want       string
	}{
		{
			name:       "x-forwarded-for single",
			xff:        "10.0.0.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for multiple",
			xff:        "10.0.0.1, 172.16.0.1, 192.168.1.1",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.1",
		},
		{
			name:       "x-real-ip",
			xri:        "10.0.0.2",
			remoteAddr: "192.168.1.1:1234",
			want:       "10.0.0.2",
		},
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.1:1234",
			want:       "192.168.1.1",
		},
		{
			name:       "remote addr no port",
			remoteAddr: "192.168.1.1",
			want:       "192.168.1.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 10, time.Minute)

	rl.allow("ip-old")
	clock.advance(45 * time.Second)
	rl.allow("ip-fresh")
	clock.advance(30 * time.Second)

	rl.cleanup()

	rl.mu.Lock()
	_, oldExists := rl.clients["ip-old"]
	_, freshExists := rl.clients["ip-fresh"]
	rl.mu.Unlock()

	if oldExists {
		t.Error("ip-old should have been cleaned up")
	}
	if !freshExists {
		t.Error("ip-fresh still has a hit inside the window")
	}
}

func TestRateLimiterStopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	rl.Stop()
}
