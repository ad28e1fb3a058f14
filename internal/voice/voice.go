// Package voice coordinates full-mesh voice groups: it tracks voice
// membership through the owning room and relays WebRTC offer/answer/ICE
// payloads between peers. It never brokers media; every pairwise combination
// of participants negotiates one direct peer link.
package voice

import (
	"encoding/json"
	"log"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/room"
)

// Coordinator mediates voice-group membership and signaling relay.
type Coordinator struct {
	rooms    *room.Manager
	registry *registry.Registry
}

// NewCoordinator wires the coordinator to the room store and the connection
// registry.
func NewCoordinator(rooms *room.Manager, reg *registry.Registry) *Coordinator {
	return &Coordinator{rooms: rooms, registry: reg}
}

// Join adds the connection to the room's voice group. The caller must already
// be a text member of the room. The caller is sent the participant roster as
// it was before joining, so it knows whom to initiate offers toward; everyone
// else in the room is told the caller arrived. Joining a new voice group
// implicitly leaves the previous one, but only once the new join has
// succeeded: a rejected join leaves the caller's voice membership untouched.
func (c *Coordinator) Join(conn *registry.Connection, ref protocol.RoomRef) error {
	r := c.rooms.Lookup(ref)
	if r == nil {
		return &errs.NotInRoomError{RoomID: ref.ID}
	}

	before, err := r.JoinVoice(conn)
	if err != nil {
		return err
	}
	if prev := conn.VoiceRoom(); !prev.IsZero() && prev != ref {
		c.Leave(conn, prev)
	}
	conn.SetVoiceRoom(ref)
	conn.Send(protocol.NewVoiceParticipants(ref, before))
	return nil
}

// Leave removes the connection from the room's voice group and announces it.
// Leaving a group the connection is not in is a no-op.
func (c *Coordinator) Leave(conn *registry.Connection, ref protocol.RoomRef) {
	if r := c.rooms.Lookup(ref); r != nil {
		r.LeaveVoice(conn)
	}
	if conn.VoiceRoom() == ref {
		conn.SetVoiceRoom(protocol.RoomRef{})
	}
}

// Relay forwards one handshake payload verbatim to the target connection.
// Best-effort: an offline target is logged and dropped, never retried; the
// initiating peer is expected to time out. The target is currently trusted
// from the caller's `to` field without a shared-voice-room check; see
// DESIGN.md's security review note.
func (c *Coordinator) Relay(from *registry.Connection, to string, kind protocol.SignalKind, body json.RawMessage) error {
	if !kind.Valid() {
		return &errs.ValidationError{Field: "kind", Reason: "must be offer, answer, or ice-candidate"}
	}
	if to == "" {
		return &errs.ValidationError{Field: "to", Reason: "must not be empty"}
	}

	target := c.registry.LookupByID(to)
	if target == nil {
		metrics.RelayDropsTotal.Inc()
		log.Printf("Dropping %s relay from %s: %v", kind, from.ID,
			&errs.RelayTargetUnavailableError{TargetID: to})
		return nil
	}
	if !target.Send(protocol.NewSignal(from.ID, kind, body)) {
		metrics.RelayDropsTotal.Inc()
		log.Printf("Dropping %s relay from %s: send buffer full for %s", kind, from.ID, to)
		return nil
	}
	metrics.RelaysTotal.Inc()
	return nil
}

// UpdateState merges the provided fields into the connection's voice state
// and broadcasts the merged state to its current voice room.
func (c *Coordinator) UpdateState(conn *registry.Connection, upd protocol.VoiceStateUpdate) {
	st := conn.MergeVoiceState(upd)
	ref := conn.VoiceRoom()
	if ref.IsZero() {
		return
	}
	if r := c.rooms.Lookup(ref); r != nil {
		r.BroadcastVoiceState(conn, st)
	}
}

// DisconnectCleanup removes a closing connection from its voice group, if any.
// Room cleanup usually handles this as part of leaving the text room; this
// covers a voice room whose text room was already left through another path.
func (c *Coordinator) DisconnectCleanup(conn *registry.Connection) {
	if ref := conn.VoiceRoom(); !ref.IsZero() {
		c.Leave(conn, ref)
	}
}
