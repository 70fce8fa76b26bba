// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const msgTooManyAttempts = "Demasiados intentos. Espere un momento e intente nuevamente."

// attempts holds the request times of one client inside the window.
type attempts struct {
	mu   sync.Mutex
	hits []time.Time
}

// prune drops hits older than cutoff.
func (a *attempts) prune(cutoff time.Time) {
	keep := a.hits[:0]
	for _, ts := range a.hits {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	a.hits = keep
}

// RateLimiter limits login and 2FA attempts per client IP using a sliding
// window.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*attempts
	limit   int
	window  time.Duration
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
// It starts a background goroutine to clean up idle clients; call Stop to end it.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// allow records a hit for key. When the key is over the limit it returns
// false and how long until the oldest hit leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	a, ok := rl.clients[key]
	if !ok {
		a = &attempts{}
		rl.clients[key] = a
	}
	rl.mu.Unlock()

	now := rl.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune(now.Add(-rl.window))
	if len(a.hits) >= rl.limit {
		return false, a.hits[0].Add(rl.window).Sub(now)
	}
	a.hits = append(a.hits, now)
	return true, 0
}

// cleanup forgets clients with no hit inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, a := range rl.clients {
		a.mu.Lock()
		a.prune(cutoff)
		idle := len(a.hits) == 0
		a.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
// Rejected HTMX requests get an error toast instead of a swapped body.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, retry := rl.allow(ip)
		if !ok {
			slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			fail(w, r, http.StatusTooManyRequests, msgTooManyAttempts)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
