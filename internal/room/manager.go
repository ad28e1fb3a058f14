package room

import (
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/metrics"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/ratelimit"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
)

// Config holds room-level validation parameters.
type Config struct {
	MaxContentLength int
	HistoryCapacity  int
}

// Manager owns the room store. Rooms are created lazily on first join and
// removed the instant their member set becomes empty.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	limiter *ratelimit.Limiter
	cfg     Config
	now     func() time.Time
}

// NewManager creates a manager enforcing the given limits, consulting limiter
// for message admission.
func NewManager(limiter *ratelimit.Limiter, cfg Config) *Manager {
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = 2000
	}
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = 50
	}
	return &Manager{
		rooms:   make(map[string]*Room),
		limiter: limiter,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Lookup returns the room for ref, or nil if it does not exist.
func (m *Manager) Lookup(ref protocol.RoomRef) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[ref.Key()]
}

func (m *Manager) getOrCreate(ref protocol.RoomRef) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[ref.Key()]; ok {
		return r
	}
	r := newRoom(ref, m.cfg.HistoryCapacity)
	m.rooms[ref.Key()] = r
	metrics.Rooms.WithLabelValues(string(ref.Kind)).Inc()
	log.Printf("Room %s (%s) created", ref.ID, ref.Kind)
	return r
}

// removeIfEmpty deletes the room from the store if it still has no members.
// Rechecked under both locks because a concurrent join may have revived it.
func (m *Manager) removeIfEmpty(r *Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.rooms[r.ref.Key()]
	if !ok || current != r {
		return
	}
	r.mu.Lock()
	empty := len(r.members) == 0
	if empty {
		r.closed = true
	}
	r.mu.Unlock()
	if !empty {
		return
	}
	delete(m.rooms, r.ref.Key())
	metrics.Rooms.WithLabelValues(string(r.ref.Kind)).Dec()
	log.Printf("Room %s (%s) deleted (empty)", r.ref.ID, r.ref.Kind)
}

func validateRef(ref protocol.RoomRef) error {
	if ref.ID == "" {
		return &errs.ValidationError{Field: "roomRef.id", Reason: "must not be empty"}
	}
	if !ref.Kind.Valid() {
		return &errs.ValidationError{Field: "roomRef.kind", Reason: "must be \"channel\" or \"dm\""}
	}
	return nil
}

// Join adds the connection to the room, sends the caller the roster and
// recent-history snapshot, and announces the join to existing members.
// Joining a new room of a kind implicitly leaves the previous room of that
// kind: a connection holds at most one active channel and one active DM.
func (m *Manager) Join(conn *registry.Connection, ref protocol.RoomRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}

	if prev := conn.CurrentRoom(ref.Kind); !prev.IsZero() && prev != ref {
		if err := m.Leave(conn, prev); err != nil {
			log.Printf("Implicit leave of room %s failed for connection %s: %v", prev.ID, conn.ID, err)
		}
	}

	// getOrCreate releases m.mu before we take r.mu, so a concurrent leave
	// can delete the room in between. A deleted instance is marked closed;
	// fetch a fresh one.
	var r *Room
	for {
		r = m.getOrCreate(ref)
		r.mu.Lock()
		if !r.closed {
			break
		}
		r.mu.Unlock()
	}
	_, already := r.members[conn.ID]
	r.members[conn.ID] = conn
	conn.SetCurrentRoom(ref.Kind, ref)
	conn.Send(protocol.NewRoomJoined(ref, r.membersLocked(), r.historyLocked()))
	if !already {
		r.broadcastLocked(protocol.NewMemberJoined(ref, conn.Member()), conn.ID)
	}
	r.mu.Unlock()
	return nil
}

// Leave removes the connection from the room, cascading voice-group removal
// first, announces the departure, and deletes the room if it is now empty.
func (m *Manager) Leave(conn *registry.Connection, ref protocol.RoomRef) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	r := m.Lookup(ref)
	if r == nil {
		return &errs.NotInRoomError{RoomID: ref.ID}
	}

	r.mu.Lock()
	if _, ok := r.members[conn.ID]; !ok {
		r.mu.Unlock()
		return &errs.NotInRoomError{RoomID: ref.ID}
	}
	if r.leaveVoiceLocked(conn) {
		conn.SetVoiceRoom(protocol.RoomRef{})
	}
	delete(r.members, conn.ID)
	r.broadcastLocked(protocol.NewMemberLeft(ref, conn.Member()), conn.ID)
	empty := len(r.members) == 0
	r.mu.Unlock()

	if conn.CurrentRoom(ref.Kind) == ref {
		conn.SetCurrentRoom(ref.Kind, protocol.RoomRef{})
	}
	if empty {
		m.removeIfEmpty(r)
	}
	return nil
}

// Post validates, rate-limits, sanitizes, and appends a message to the room's
// history, then broadcasts it to every member including the sender. Delivery
// order is the arrival order at the room's lock.
func (m *Manager) Post(conn *registry.Connection, ref protocol.RoomRef, content string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	r := m.Lookup(ref)
	if r == nil || !r.IsMember(conn.ID) {
		return &errs.NotInRoomError{RoomID: ref.ID}
	}

	if isBlank(content) {
		return &errs.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if utf8.RuneCountInString(content) > m.cfg.MaxContentLength {
		return &errs.ValidationError{Field: "content", Reason: "exceeds maximum length"}
	}

	// All validation happens before the limiter so rejected content never
	// costs the sender a window token.
	clean := sanitizeContent(content)
	if clean == "" {
		return &errs.ValidationError{Field: "content", Reason: "empty after sanitization"}
	}

	res := m.limiter.Allow(conn.ID)
	if !res.Allowed {
		metrics.RateLimitedTotal.Inc()
		return &errs.RateLimitError{Remaining: res.Remaining, ResetAt: res.ResetAt}
	}

	msg := protocol.Message{
		ID:                 uuid.NewString(),
		AuthorConnectionID: conn.ID,
		Content:            clean,
		CreatedAt:          m.now().UTC(),
		Kind:               ref.Kind,
	}

	r.mu.Lock()
	if _, ok := r.members[conn.ID]; !ok {
		r.mu.Unlock()
		return &errs.NotInRoomError{RoomID: ref.ID}
	}
	r.appendLocked(msg)
	r.broadcastLocked(protocol.NewMessage(ref, msg), "")
	r.mu.Unlock()

	metrics.MessagesTotal.Inc()
	return nil
}

// Typing fans a typing indicator out to the other members. Best-effort: not
// rate-limited, not stored, and silently ignored when the sender is not a
// member.
func (m *Manager) Typing(conn *registry.Connection, ref protocol.RoomRef) {
	if validateRef(ref) != nil {
		return
	}
	r := m.Lookup(ref)
	if r == nil {
		return
	}
	r.mu.Lock()
	if _, ok := r.members[conn.ID]; ok {
		r.broadcastLocked(protocol.NewTyping(ref, conn.Member()), conn.ID)
	}
	r.mu.Unlock()
}

// DisconnectCleanup removes a closing connection from every room it occupies,
// with the usual departure broadcasts. Safe to call for connections that are
// in no room.
func (m *Manager) DisconnectCleanup(conn *registry.Connection) {
	for _, kind := range []protocol.RoomKind{protocol.RoomChannel, protocol.RoomDM} {
		if ref := conn.CurrentRoom(kind); !ref.IsZero() {
			if err := m.Leave(conn, ref); err != nil {
				log.Printf("Disconnect cleanup for connection %s in room %s: %v", conn.ID, ref.ID, err)
			}
		}
	}
}

// Counts returns the current room and voice-participant totals for the stats
// surface.
func (m *Manager) Counts() (rooms, voiceParticipants int) {
	m.mu.RLock()
	snapshot := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		snapshot = append(snapshot, r)
	}
	m.mu.RUnlock()

	for _, r := range snapshot {
		voiceParticipants += r.VoiceCount()
	}
	return len(snapshot), voiceParticipants
}

// SetNow overrides the message timestamp clock. Test hook.
func (m *Manager) SetNow(now func() time.Time) { m.now = now }
