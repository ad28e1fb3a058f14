package voice

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/errs"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/protocol"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/ratelimit"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/registry"
	"github.com/svnityobvsenity/bonfirepakistanmn-sub000/internal/room"
)

type fakeTransport struct {
	mu     sync.Mutex
	events []map[string]any
}

func (t *fakeTransport) Send(event any) bool {
	raw, err := json.Marshal(event)
	if err != nil {
		return false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return false
	}
	t.mu.Lock()
	t.events = append(t.events, m)
	t.mu.Unlock()
	return true
}

func (t *fakeTransport) Close() {}

func (t *fakeTransport) ofType(eventType protocol.EventType) []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []map[string]any
	for _, e := range t.events {
		if e["type"] == string(eventType) {
			out = append(out, e)
		}
	}
	return out
}

func setup() (*Coordinator, *room.Manager, *registry.Registry) {
	limiter := ratelimit.New(ratelimit.Config{MaxRequests: 100, Window: time.Minute})
	rooms := room.NewManager(limiter, room.Config{})
	reg := registry.New()
	return NewCoordinator(rooms, reg), rooms, reg
}

func connect(reg *registry.Registry, user string) (*registry.Connection, *fakeTransport) {
	tr := &fakeTransport{}
	return reg.Register(user, protocol.Profile{Username: user, DisplayName: user}, tr), tr
}

func generalRef() protocol.RoomRef {
	return protocol.RoomRef{ID: "general", Kind: protocol.RoomChannel}
}

func TestJoinRequiresTextMembership(t *testing.T) {
	c, rooms, reg := setup()
	ref := generalRef()
	a, _ := connect(reg, "alice")
	b, _ := connect(reg, "bob")
	if err := rooms.Join(a, ref); err != nil {
		t.Fatal(err)
	}

	err := c.Join(b, ref)
	var notIn *errs.NotInRoomError
	if err == nil || !errors.As(err, &notIn) {
		t.Fatalf("err = %v, want NotInRoomError", err)
	}
}

func TestJoinReturnsRosterExcludingCaller(t *testing.T) {
	c, rooms, reg := setup()
	ref := generalRef()
	a, trA := connect(reg, "alice")
	b, trB := connect(reg, "bob")
	for _, conn := range []*registry.Connection{a, b} {
		if err := rooms.Join(conn, ref); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Join(a, ref); err != nil {
		t.Fatalf("a join voice: %v", err)
	}
	first := trA.ofType(protocol.EventVoiceParticipants)
	if len(first) != 1 {
		t.Fatalf("a got %d voice-participants events, want 1", len(first))
	}
	if got := first[0]["participants"].([]any); len(got) != 0 {
		t.Errorf("first joiner should see an empty roster, got %v", got)
	}

	if err := c.Join(b, ref); err != nil {
		t.Fatalf("b join voice: %v", err)
	}
	second := trB.ofType(protocol.EventVoiceParticipants)[0]["participants"].([]any)
	if len(second) != 1 {
		t.Fatalf("second joiner roster = %v, want exactly the prior participant", second)
	}
	if second[0].(map[string]any)["connectionId"] != a.ID {
		t.Errorf("roster names %v, want %s", second[0], a.ID)
	}

	// A, already in voice, is told B arrived; B is not told about itself.
	if len(trA.ofType(protocol.EventUserJoinedVoice)) != 1 {
		t.Error("existing participant should get user-joined-voice")
	}
	if len(trB.ofType(protocol.EventUserJoinedVoice)) != 0 {
		t.Error("joiner must not get its own user-joined-voice")
	}
}

func TestVoiceParticipantsSubsetOfMembers(t *testing.T) {
	c, rooms, reg := setup()
	ref := generalRef()
	a, _ := connect(reg, "alice")
	b, _ := connect(reg, "bob")
	for _, conn := range []*registry.Connection{a, b} {
		if err := rooms.Join(conn, ref); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Join(a, ref); err != nil {
		t.Fatal(err)
	}

	// Leaving the text room cascades out of the voice group.
	if err := rooms.Leave(a, ref); err != nil {
		t.Fatal(err)
	}
	if got := rooms.Lookup(ref).VoiceCount(); got != 0 {
		t.Errorf("voice count after text leave = %d, want 0", got)
	}
	if !a.VoiceRoom().IsZero() {
		t.Error("voice room pointer should be cleared by the cascade")
	}
}

func TestJoinSwitchesVoiceRooms(t *testing.T) {
	c, rooms, reg := setup()
	first := protocol.RoomRef{ID: "one", Kind: protocol.RoomChannel}
	second := protocol.RoomRef{ID: "two", Kind: protocol.RoomDM}
	a, _ := connect(reg, "alice")
	b, _ := connect(reg, "bob")
	// b keeps both rooms alive so switching does not delete them.
	for _, ref := range []protocol.RoomRef{first, second} {
		if err := rooms.Join(b, ref); err != nil {
			t.Fatal(err)
		}
	}
	if err := rooms.Join(a, first); err != nil {
		t.Fatal(err)
	}
	if err := rooms.Join(a, second); err != nil {
		t.Fatal(err)
	}

	if err := c.Join(a, first); err != nil {
		t.Fatal(err)
	}
	if err := c.Join(a, second); err != nil {
		t.Fatal(err)
	}

	if got := rooms.Lookup(first).VoiceCount(); got != 0 {
		t.Errorf("old voice room count = %d, want 0", got)
	}
	if got := a.VoiceRoom(); got != second {
		t.Errorf("voice room pointer = %+v, want %+v", got, second)
	}
}

func TestRejectedJoinKeepsCurrentVoiceRoom(t *testing.T) {
	c, rooms, reg := setup()
	alpha := protocol.RoomRef{ID: "alpha", Kind: protocol.RoomChannel}
	beta := protocol.RoomRef{ID: "beta", Kind: protocol.RoomChannel}
	a, _ := connect(reg, "alice")
	b, _ := connect(reg, "bob")
	d, trD := connect(reg, "dana")
	// b keeps beta alive; a is not a text member of it.
	if err := rooms.Join(b, beta); err != nil {
		t.Fatal(err)
	}
	for _, conn := range []*registry.Connection{a, d} {
		if err := rooms.Join(conn, alpha); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Join(a, alpha); err != nil {
		t.Fatal(err)
	}

	err := c.Join(a, beta)
	var notIn *errs.NotInRoomError
	if err == nil || !errors.As(err, &notIn) {
		t.Fatalf("err = %v, want NotInRoomError", err)
	}

	if got := a.VoiceRoom(); got != alpha {
		t.Errorf("voice room pointer = %+v, want %+v", got, alpha)
	}
	if got := rooms.Lookup(alpha).VoiceCount(); got != 1 {
		t.Errorf("alpha voice count = %d, want 1", got)
	}
	if len(trD.ofType(protocol.EventUserLeftVoice)) != 0 {
		t.Error("a rejected join must not broadcast user-left-voice to the current group")
	}
}

func TestRelayDeliversVerbatim(t *testing.T) {
	c, _, reg := setup()
	a, _ := connect(reg, "alice")
	b, trB := connect(reg, "bob")

	body := json.RawMessage(`{"sdp":"v=0"}`)
	if err := c.Relay(a, b.ID, protocol.SignalOffer, body); err != nil {
		t.Fatalf("relay: %v", err)
	}

	sigs := trB.ofType(protocol.EventSignal)
	if len(sigs) != 1 {
		t.Fatalf("target got %d signal events, want 1", len(sigs))
	}
	if sigs[0]["from"] != a.ID || sigs[0]["kind"] != "offer" {
		t.Errorf("signal envelope = %v", sigs[0])
	}
	if sigs[0]["body"].(map[string]any)["sdp"] != "v=0" {
		t.Errorf("body not forwarded verbatim: %v", sigs[0]["body"])
	}
}

func TestRelayToOfflineTargetIsDroppedSilently(t *testing.T) {
	c, _, reg := setup()
	a, trA := connect(reg, "alice")

	if err := c.Relay(a, "gone", protocol.SignalAnswer, json.RawMessage(`{}`)); err != nil {
		t.Fatalf("offline relay should not surface an error, got %v", err)
	}
	if len(trA.events) != 0 {
		t.Error("initiator must not be notified about a dropped relay")
	}
}

func TestRelayRejectsUnknownKind(t *testing.T) {
	c, _, reg := setup()
	a, _ := connect(reg, "alice")
	b, _ := connect(reg, "bob")

	err := c.Relay(a, b.ID, protocol.SignalKind("media"), nil)
	var valid *errs.ValidationError
	if err == nil || !errors.As(err, &valid) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestUpdateStateMergesAndBroadcasts(t *testing.T) {
	c, rooms, reg := setup()
	ref := generalRef()
	a, trA := connect(reg, "alice")
	b, trB := connect(reg, "bob")
	for _, conn := range []*registry.Connection{a, b} {
		if err := rooms.Join(conn, ref); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Join(a, ref); err != nil {
		t.Fatal(err)
	}

	muted := true
	c.UpdateState(a, protocol.VoiceStateUpdate{Muted: &muted})

	for name, tr := range map[string]*fakeTransport{"self": trA, "other": trB} {
		updates := tr.ofType(protocol.EventVoiceStateUpdated)
		if len(updates) != 1 {
			t.Fatalf("%s got %d voice-state-updated events, want 1", name, len(updates))
		}
		st := updates[0]["voiceState"].(map[string]any)
		if st["muted"] != true || st["deafened"] != false {
			t.Errorf("%s merged state = %v", name, st)
		}
	}
}

func TestUpdateStateOutsideVoiceIsSilent(t *testing.T) {
	c, rooms, reg := setup()
	ref := generalRef()
	a, trA := connect(reg, "alice")
	if err := rooms.Join(a, ref); err != nil {
		t.Fatal(err)
	}

	deafened := true
	c.UpdateState(a, protocol.VoiceStateUpdate{Deafened: &deafened})

	if len(trA.ofType(protocol.EventVoiceStateUpdated)) != 0 {
		t.Error("no broadcast expected outside a voice room")
	}
	if !a.VoiceState().Deafened {
		t.Error("the merge itself should still apply")
	}
}
