// Package server is the WebSocket transport and HTTP surface of the Bonfire
// signaling server: connection upgrade with origin and per-IP handshake
// checks, per-client read/write pumps, the wire-message dispatcher, and the
// health, stats, and metrics endpoints.
package server
