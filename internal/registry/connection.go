// Package registry tracks every live transport connection together with its
// authenticated identity. It is pure bookkeeping: business rules live in the
// room manager and voice coordinator, which operate on connections the
// registry hands out.
package registry

import (
	"sync"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

// Transport is the narrow surface a connection needs from its underlying
// socket: enqueue one event, or tear the socket down. Send must not block;
// it reports false when the peer's buffer is full or the socket is closed.
type Transport interface {
	Send(event any) bool
	Close()
}

// Connection is one live authenticated transport session. The identity fields
// are immutable after registration; the room/voice pointers are guarded by a
// per-connection mutex because the presence broadcaster reads them while room
// operations mutate them.
type Connection struct {
	ID      string
	UserID  string
	Profile protocol.Profile

	transport Transport

	mu          sync.Mutex
	currentRoom protocol.RoomRef // active server channel, at most one
	currentDM   protocol.RoomRef // active DM session, at most one
	voiceRoom   protocol.RoomRef
	voiceState  protocol.VoiceState
}

// Member returns the connection's public representation.
func (c *Connection) Member() protocol.Member {
	return protocol.Member{
		ConnectionID: c.ID,
		UserID:       c.UserID,
		Username:     c.Profile.Username,
		DisplayName:  c.Profile.DisplayName,
		AvatarURL:    c.Profile.AvatarURL,
	}
}

// Send enqueues an event toward the peer.
func (c *Connection) Send(event any) bool {
	return c.transport.Send(event)
}

// CloseTransport tears down the underlying socket. The transport's close
// handling drives the usual disconnect cascade.
func (c *Connection) CloseTransport() {
	c.transport.Close()
}

// CurrentRoom returns the active room of the given kind, or a zero ref.
func (c *Connection) CurrentRoom(kind protocol.RoomKind) protocol.RoomRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == protocol.RoomDM {
		return c.currentDM
	}
	return c.currentRoom
}

// SetCurrentRoom records the active room pointer for ref's kind. A zero ID
// clears the pointer.
func (c *Connection) SetCurrentRoom(kind protocol.RoomKind, ref protocol.RoomRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if kind == protocol.RoomDM {
		c.currentDM = ref
	} else {
		c.currentRoom = ref
	}
}

// VoiceRoom returns the voice room the connection currently occupies, or a
// zero ref.
func (c *Connection) VoiceRoom() protocol.RoomRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voiceRoom
}

// SetVoiceRoom records the active voice room pointer.
func (c *Connection) SetVoiceRoom(ref protocol.RoomRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.voiceRoom = ref
}

// VoiceState returns a copy of the connection's voice state.
func (c *Connection) VoiceState() protocol.VoiceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.voiceState
}

// MergeVoiceState applies the non-nil fields of upd and returns the merged
// state.
func (c *Connection) MergeVoiceState(upd protocol.VoiceStateUpdate) protocol.VoiceState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if upd.Muted != nil {
		c.voiceState.Muted = *upd.Muted
	}
	if upd.Deafened != nil {
		c.voiceState.Deafened = *upd.Deafened
	}
	if upd.Speaking != nil {
		c.voiceState.Speaking = *upd.Speaking
	}
	return c.voiceState
}
