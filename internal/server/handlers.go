package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
)

// handleWebSocket upgrades the HTTP connection, applies the per-IP handshake
// limit, and hands the socket to a Client. Authentication happens on the
// socket itself: the first frame must be an authenticate message.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
		return
	}

	if !s.handshakes.allow(r.RemoteAddr) {
		metrics.HandshakesRejected.Inc()
		log.Printf("Rejected WebSocket handshake from %s: too many attempts", r.RemoteAddr)
		http.Error(w, "Too many connection attempts", http.StatusTooManyRequests)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(conn, s, r.RemoteAddr)
	s.track(client)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Bonfire signaling server is running!")
}

// statsResponse is the aggregate view served at /stats. A thin reporting
// wrapper over the registry and room manager; it only reads snapshots.
type statsResponse struct {
	Connections       int `json:"connections"`
	Rooms             int `json:"rooms"`
	VoiceParticipants int `json:"voiceParticipants"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	rooms, voiceParticipants := s.rooms.Counts()
	resp := statsResponse{
		Connections:       s.registry.Len(),
		Rooms:             rooms,
		VoiceParticipants: voiceParticipants,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("Error writing stats response: %v", err)
	}
}
