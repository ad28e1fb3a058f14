package registry

import (
	"sync"
	"testing"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
)

type fakeTransport struct {
	mu     sync.Mutex
	events []any
	closed bool
}

func (t *fakeTransport) Send(event any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.events = append(t.events, event)
	return true
}

func (t *fakeTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func testProfile(name string) protocol.Profile {
	return protocol.Profile{Username: name, DisplayName: name}
}

func TestRegisterAndLookup(t *testing.T) {
	r := New()
	conn := r.Register("u1", testProfile("alice"), &fakeTransport{})

	if conn.ID == "" {
		t.Fatal("registered connection should get an id")
	}
	if got := r.LookupByID(conn.ID); got != conn {
		t.Errorf("LookupByID = %v, want the registered connection", got)
	}
	if got := r.LookupByUserID("u1"); got != conn {
		t.Errorf("LookupByUserID = %v, want the registered connection", got)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := New()
	conn := r.Register("u1", testProfile("alice"), &fakeTransport{})

	if removed := r.Unregister(conn.ID); removed != conn {
		t.Fatal("first Unregister should return the connection")
	}
	if removed := r.Unregister(conn.ID); removed != nil {
		t.Fatal("second Unregister should be a no-op")
	}
	if r.LookupByID(conn.ID) != nil || r.LookupByUserID("u1") != nil {
		t.Error("unregistered connection should be gone from both indexes")
	}
}

func TestUnregisterOfEvictedConnectionKeepsNewerMapping(t *testing.T) {
	r := New()
	old := r.Register("u1", testProfile("alice"), &fakeTransport{})
	newer := r.Register("u1", testProfile("alice"), &fakeTransport{})

	// The evicted connection's close cascade runs after the newer login
	// already owns the byUser slot; it must not clobber it.
	r.Unregister(old.ID)

	if got := r.LookupByUserID("u1"); got != newer {
		t.Errorf("LookupByUserID after stale unregister = %v, want the newer connection", got)
	}
	if r.LookupByID(newer.ID) != newer {
		t.Error("newer connection should still be registered")
	}
}

func TestSendReachesTransport(t *testing.T) {
	r := New()
	tr := &fakeTransport{}
	conn := r.Register("u1", testProfile("alice"), tr)

	if !r.Send(conn.ID, "hello") {
		t.Fatal("Send to a live connection should succeed")
	}
	if len(tr.events) != 1 || tr.events[0] != "hello" {
		t.Errorf("transport events = %v", tr.events)
	}
	if r.Send("missing", "hello") {
		t.Error("Send to an unknown connection should report false")
	}
}

func TestMergeVoiceState(t *testing.T) {
	r := New()
	conn := r.Register("u1", testProfile("alice"), &fakeTransport{})

	muted := true
	st := conn.MergeVoiceState(protocol.VoiceStateUpdate{Muted: &muted})
	if !st.Muted || st.Deafened || st.Speaking {
		t.Errorf("state after muting = %+v", st)
	}

	speaking := true
	st = conn.MergeVoiceState(protocol.VoiceStateUpdate{Speaking: &speaking})
	if !st.Muted {
		t.Error("merge must not reset fields that were not provided")
	}
	if !st.Speaking {
		t.Error("speaking should be set")
	}
}

func TestCurrentRoomPointersPerKind(t *testing.T) {
	r := New()
	conn := r.Register("u1", testProfile("alice"), &fakeTransport{})

	channel := protocol.RoomRef{ID: "general", Kind: protocol.RoomChannel}
	dm := protocol.RoomRef{ID: "dm-1", Kind: protocol.RoomDM}

	conn.SetCurrentRoom(protocol.RoomChannel, channel)
	conn.SetCurrentRoom(protocol.RoomDM, dm)

	if got := conn.CurrentRoom(protocol.RoomChannel); got != channel {
		t.Errorf("channel pointer = %+v", got)
	}
	if got := conn.CurrentRoom(protocol.RoomDM); got != dm {
		t.Errorf("dm pointer = %+v", got)
	}
}
