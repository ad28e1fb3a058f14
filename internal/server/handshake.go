package server

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// handshakeLimiter throttles WebSocket upgrade attempts per client IP. It
// guards the handshake path, which runs before any Connection (and its
// fixed-window message counter) exists.
type handshakeLimiter struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   rate.Limit
	burst int
}

func newHandshakeLimiter(rps float64, burst int) *handshakeLimiter {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return &handshakeLimiter{
		m:     make(map[string]*rate.Limiter),
		rps:   rate.Limit(rps),
		burst: burst,
	}
}

func (h *handshakeLimiter) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	h.mu.Lock()
	l, ok := h.m[host]
	if !ok {
		l = rate.NewLimiter(h.rps, h.burst)
		h.m[host] = l
	}
	h.mu.Unlock()

	return l.Allow()
}
