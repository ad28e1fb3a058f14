package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/auth"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/config"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/presence"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/ratelimit"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/room"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/voice"
)

// Server wires the signaling components together and owns the lifecycle of
// every client connection.
type Server struct {
	cfg config.Config

	registry *registry.Registry
	limiter  *ratelimit.Limiter
	rooms    *room.Manager
	voice    *voice.Coordinator
	gateway  *auth.Gateway
	presence *presence.Broadcaster

	origins    *originChecker
	handshakes *handshakeLimiter
	upgrader   websocket.Upgrader
	readLimit  int64

	mu      sync.Mutex
	clients map[*Client]struct{}
	wg      sync.WaitGroup
}

// New builds a server from its configuration and external collaborators.
func New(cfg config.Config, verifier auth.TokenVerifier, profiles auth.ProfileStore, dir auth.RoomDirectory) *Server {
	reg := registry.New()
	limiter := ratelimit.New(ratelimit.Config{
		MaxRequests: cfg.RateLimitMax,
		Window:      cfg.RateLimitWindow,
	})
	rooms := room.NewManager(limiter, room.Config{
		MaxContentLength: cfg.MaxContentLength,
		HistoryCapacity:  cfg.HistoryCapacity,
	})

	s := &Server{
		cfg:        cfg,
		registry:   reg,
		limiter:    limiter,
		rooms:      rooms,
		voice:      voice.NewCoordinator(rooms, reg),
		gateway:    auth.NewGateway(verifier, profiles, dir, reg),
		presence:   presence.NewBroadcaster(reg, cfg.PresenceInterval),
		origins:    newOriginChecker(cfg.AllowedOrigins),
		handshakes: newHandshakeLimiter(cfg.HandshakeRPS, cfg.HandshakeBurst),
		clients:    make(map[*Client]struct{}),
		// Content is capped in runes; allow for multi-byte UTF-8, JSON
		// escaping, and the envelope around it.
		readLimit: int64(cfg.MaxContentLength)*6 + 1024,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.check,
	}
	return s
}

// Registry exposes the connection registry for read-only consumers.
func (s *Server) Registry() *registry.Registry { return s.registry }

// Rooms exposes the room manager for read-only consumers.
func (s *Server) Rooms() *room.Manager { return s.rooms }

// Start launches the presence broadcaster. The HTTP listener is started
// separately by the caller.
func (s *Server) Start() {
	go s.presence.Run()
	log.Println("Signaling server ready to accept connections")
}

// track registers a client for shutdown bookkeeping and launches its pumps.
func (s *Server) track(c *Client) {
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		c.writePump()
	}()
	go func() {
		defer s.wg.Done()
		c.readPump()
	}()
}

// disconnect is the single cleanup path for a closing client: room and voice
// cleanup with departure broadcasts, registry unregistration, and rate-limit
// state release. Idempotent because registry.Unregister is.
func (s *Server) disconnect(c *Client) {
	if conn := c.session; conn != nil {
		s.rooms.DisconnectCleanup(conn)
		s.voice.DisconnectCleanup(conn)
		if s.registry.Unregister(conn.ID) != nil {
			s.limiter.Forget(conn.ID)
		}
	}
	c.Close()

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
}

// Shutdown stops the presence broadcaster, closes every client connection,
// and waits for the pump goroutines to finish or the timeout to elapse.
func (s *Server) Shutdown(timeout time.Duration) error {
	log.Println("Shutting down signaling server...")
	s.presence.Shutdown()

	s.mu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
	log.Printf("Closed %d client connections", len(clients))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Signaling server shutdown completed")
		return nil
	case <-time.After(timeout):
		log.Println("Signaling server shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
