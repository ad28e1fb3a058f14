// Package room owns text-room membership, bounded message history, and the
// room broadcast path, plus the voice-participant set that the voice
// coordinator mutates through it. Every mutating operation against one room
// runs under that room's mutex, so per-room operations are processed one at a
// time in arrival order; operations against different rooms do not block each
// other.
package room

import (
	"log"
	"sync"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
)

// Room is one text scope, either a server channel or a DM pairing. Created
// lazily on first join, deleted the instant the member set becomes empty.
type Room struct {
	ref protocol.RoomRef

	mu      sync.Mutex
	members map[string]*registry.Connection
	history []protocol.Message
	voice   map[string]*registry.Connection
	// closed is set when the manager deletes the room from its store; a join
	// that fetched this instance before the delete must retry rather than
	// land in an unmapped room.
	closed bool

	historyCap int
}

func newRoom(ref protocol.RoomRef, historyCap int) *Room {
	return &Room{
		ref:        ref,
		members:    make(map[string]*registry.Connection),
		voice:      make(map[string]*registry.Connection),
		historyCap: historyCap,
	}
}

// Ref returns the room's wire reference.
func (r *Room) Ref() protocol.RoomRef { return r.ref }

// MemberCount returns the current number of text members.
func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// IsMember reports whether the connection is a current text member.
func (r *Room) IsMember(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[connectionID]
	return ok
}

// VoiceCount returns the current number of voice participants.
func (r *Room) VoiceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.voice)
}

// membersLocked snapshots the member roster. Caller holds r.mu.
func (r *Room) membersLocked() []protocol.Member {
	out := make([]protocol.Member, 0, len(r.members))
	for _, c := range r.members {
		out = append(out, c.Member())
	}
	return out
}

// historyLocked copies the bounded history. Caller holds r.mu.
func (r *Room) historyLocked() []protocol.Message {
	out := make([]protocol.Message, len(r.history))
	copy(out, r.history)
	return out
}

// appendLocked appends to history, evicting the oldest entry at capacity.
// Caller holds r.mu.
func (r *Room) appendLocked(msg protocol.Message) {
	if r.historyCap <= 0 {
		return
	}
	if len(r.history) >= r.historyCap {
		copy(r.history, r.history[1:])
		r.history[len(r.history)-1] = msg
		return
	}
	r.history = append(r.history, msg)
}

// broadcastLocked enqueues an event to every member except excludeID. Sends
// are non-blocking, so holding the lock preserves per-room delivery order
// without risking a stall on a slow peer. Caller holds r.mu.
func (r *Room) broadcastLocked(event any, excludeID string) {
	for id, c := range r.members {
		if id == excludeID {
			continue
		}
		if !c.Send(event) {
			log.Printf("Dropped event for connection %s in room %s: send buffer full", id, r.ref.ID)
		}
	}
}

// JoinVoice adds the connection to the room's voice group and returns the
// participant roster as it was before the caller was added. The caller must
// already be a text member.
func (r *Room) JoinVoice(conn *registry.Connection) ([]protocol.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[conn.ID]; !ok {
		return nil, &errs.NotInRoomError{RoomID: r.ref.ID}
	}
	if _, ok := r.voice[conn.ID]; ok {
		// Already in: report the others without re-announcing.
		return r.voiceRosterLocked(conn.ID), nil
	}

	before := r.voiceRosterLocked(conn.ID)
	r.voice[conn.ID] = conn
	metrics.VoiceParticipants.Inc()
	r.broadcastLocked(protocol.NewUserJoinedVoice(r.ref, conn.Member()), conn.ID)
	return before, nil
}

// LeaveVoice removes the connection from the voice group and announces it to
// the room. Reports whether the connection was a participant.
func (r *Room) LeaveVoice(conn *registry.Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveVoiceLocked(conn)
}

func (r *Room) leaveVoiceLocked(conn *registry.Connection) bool {
	if _, ok := r.voice[conn.ID]; !ok {
		return false
	}
	delete(r.voice, conn.ID)
	metrics.VoiceParticipants.Dec()
	r.broadcastLocked(protocol.NewUserLeftVoice(r.ref, conn.Member()), conn.ID)
	return true
}

// voiceRosterLocked lists voice participants excluding the given id. Caller
// holds r.mu.
func (r *Room) voiceRosterLocked(excludeID string) []protocol.Member {
	out := make([]protocol.Member, 0, len(r.voice))
	for id, c := range r.voice {
		if id == excludeID {
			continue
		}
		out = append(out, c.Member())
	}
	return out
}

// BroadcastVoiceState announces a participant's merged voice state to the
// room, including the participant itself.
func (r *Room) BroadcastVoiceState(conn *registry.Connection, st protocol.VoiceState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(protocol.NewVoiceStateUpdated(conn.Member(), st), "")
}
