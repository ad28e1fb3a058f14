// Package ratelimit implements fixed-window admission control keyed by an
// opaque string, typically a connection id. A window that has fully elapsed is
// reset on the next call, so a burst straddling a window boundary can admit up
// to twice the configured maximum; that approximation is accepted in exchange
// for constant-size per-key state.
package ratelimit

import (
	"sync"
	"time"
)

// Config holds the fixed-window parameters.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Result reports the outcome of one admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

type window struct {
	count int
	start time.Time
}

// Limiter tracks one fixed window per key. Safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*window
	now     func() time.Time
}

// New creates a limiter, sanitizing non-positive parameters to usable defaults.
func New(cfg Config) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = 5 * time.Second
	}
	return &Limiter{
		cfg:     cfg,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records one request against key's current window and reports whether
// it is admitted.
func (l *Limiter) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok {
		w = &window{start: now}
		l.entries[key] = w
	}

	if now.Sub(w.start) > l.cfg.Window {
		w.count = 0
		w.start = now
	}

	resetAt := w.start.Add(l.cfg.Window)
	if w.count >= l.cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt, Limit: l.cfg.MaxRequests}
	}

	w.count++
	return Result{
		Allowed:   true,
		Remaining: l.cfg.MaxRequests - w.count,
		ResetAt:   resetAt,
		Limit:     l.cfg.MaxRequests,
	}
}

// Forget drops the state held for key. Called when a connection goes away so
// the map does not grow with dead keys.
func (l *Limiter) Forget(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// SetNow overrides the clock. Test hook.
func (l *Limiter) SetNow(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
