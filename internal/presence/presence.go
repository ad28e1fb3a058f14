// Package presence periodically fans a read-only snapshot of who is online,
// and what room/voice context they occupy, out to every live connection. It
// never mutates shared state; a snapshot may be stale by up to one tick.
package presence

import (
	"log"
	"time"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
)

const statusOnline = "online"

// Broadcaster ticks on a fixed interval and broadcasts the presence snapshot.
type Broadcaster struct {
	registry *registry.Registry
	interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewBroadcaster creates a broadcaster ticking every interval.
func NewBroadcaster(reg *registry.Registry, interval time.Duration) *Broadcaster {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Broadcaster{
		registry: reg,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run ticks until Shutdown is called. Meant to be launched in its own
// goroutine.
func (b *Broadcaster) Run() {
	defer close(b.done)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	log.Printf("Presence broadcaster started (interval %s)", b.interval)
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.Tick()
		}
	}
}

// Tick builds one snapshot and sends it to every live connection.
func (b *Broadcaster) Tick() {
	conns := b.registry.Snapshot()
	if len(conns) == 0 {
		return
	}

	event := protocol.NewPresenceSnapshot(Snapshot(conns))
	for _, c := range conns {
		if !c.Send(event) {
			log.Printf("Dropped presence snapshot for connection %s: send buffer full", c.ID)
		}
	}
}

// Snapshot renders the presence entries for the given connections.
func Snapshot(conns []*registry.Connection) []protocol.PresenceEntry {
	entries := make([]protocol.PresenceEntry, 0, len(conns))
	for _, c := range conns {
		entries = append(entries, protocol.PresenceEntry{
			ConnectionID: c.ID,
			UserID:       c.UserID,
			DisplayName:  c.Profile.DisplayName,
			Status:       statusOnline,
			RoomID:       c.CurrentRoom(protocol.RoomChannel).ID,
			VoiceRoomID:  c.VoiceRoom().ID,
		})
	}
	return entries
}

// Shutdown stops the ticker and waits for Run to return.
func (b *Broadcaster) Shutdown() {
	close(b.stop)
	<-b.done
	log.Println("Presence broadcaster stopped")
}
