// Package metrics exposes the server's prometheus collectors. Everything is
// registered on the default registry and served by promhttp.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections is the number of live authenticated connections.
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bonfire_connections",
		Help: "Live authenticated WebSocket connections.",
	})

	// Rooms is the number of active rooms, labeled by kind.
	Rooms = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "bonfire_rooms",
		Help: "Active rooms by kind.",
	}, []string{"kind"})

	// VoiceParticipants is the number of connections currently in a voice group.
	VoiceParticipants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bonfire_voice_participants",
		Help: "Connections currently in a voice group.",
	})

	// MessagesTotal counts messages accepted into room history.
	MessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_messages_total",
		Help: "Chat messages accepted and broadcast.",
	})

	// RateLimitedTotal counts messages rejected by the fixed-window limiter.
	RateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_rate_limited_total",
		Help: "Messages rejected by the rate limiter.",
	})

	// RelaysTotal counts signaling payloads relayed to their target.
	RelaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_signal_relays_total",
		Help: "WebRTC signaling payloads relayed.",
	})

	// RelayDropsTotal counts signaling payloads dropped because the target was
	// offline or its send buffer was full.
	RelayDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_signal_relay_drops_total",
		Help: "WebRTC signaling payloads dropped.",
	})

	// Evictions counts connections closed because the same user logged in again.
	Evictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_evictions_total",
		Help: "Connections evicted by a newer login for the same user.",
	})

	// HandshakesRejected counts upgrade attempts refused by the per-IP limiter.
	HandshakesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bonfire_handshakes_rejected_total",
		Help: "WebSocket upgrade attempts rejected by the per-IP limiter.",
	})
)
