package protocol

import (
	"encoding/json"
	"time"
)

// EventType tags a server-to-client event.
type EventType string

const (
	EventAuthSuccess       EventType = "auth-success"
	EventAuthError         EventType = "auth-error"
	EventRoomJoined        EventType = "room-joined"
	EventMemberJoined      EventType = "member-joined"
	EventMemberLeft        EventType = "member-left"
	EventMessage           EventType = "message"
	EventTyping            EventType = "typing"
	EventVoiceParticipants EventType = "voice-participants"
	EventUserJoinedVoice   EventType = "user-joined-voice"
	EventUserLeftVoice     EventType = "user-left-voice"
	EventVoiceStateUpdated EventType = "voice-state-updated"
	EventSignal            EventType = "signal"
	EventPresenceSnapshot  EventType = "presence-snapshot"
	EventError             EventType = "error"
)

// AuthSuccessEvent confirms authentication and seeds the client with its
// identity, room roster, and the ICE endpoints to use for voice.
type AuthSuccessEvent struct {
	Type       EventType   `json:"type"`
	Identity   Member      `json:"identity"`
	Rooms      []RoomInfo  `json:"rooms"`
	ICEServers []ICEServer `json:"iceServers"`
}

// AuthErrorEvent is fatal: the server closes the connection after sending it.
type AuthErrorEvent struct {
	Type   EventType `json:"type"`
	Reason string    `json:"reason"`
}

// RoomJoinedEvent is the snapshot handed to a caller that just joined a room.
type RoomJoinedEvent struct {
	Type    EventType `json:"type"`
	Room    RoomRef   `json:"roomRef"`
	Members []Member  `json:"members"`
	History []Message `json:"history"`
}

// MemberEvent announces a membership change to the rest of a room. It is used
// for both member-joined and member-left.
type MemberEvent struct {
	Type   EventType `json:"type"`
	Room   RoomRef   `json:"roomRef"`
	Member Member    `json:"member"`
}

// MessageEvent delivers one chat message to every room member, sender included.
type MessageEvent struct {
	Type    EventType `json:"type"`
	Room    RoomRef   `json:"roomRef"`
	Message Message   `json:"message"`
}

// TypingEvent is the fan-out of a typing indicator to other members.
type TypingEvent struct {
	Type   EventType `json:"type"`
	Room   RoomRef   `json:"roomRef"`
	Member Member    `json:"member"`
}

// VoiceParticipantsEvent tells a joining caller who is already in the voice
// group, so it knows whom to initiate offers toward.
type VoiceParticipantsEvent struct {
	Type         EventType `json:"type"`
	Room         RoomRef   `json:"roomRef"`
	Participants []Member  `json:"participants"`
}

// VoiceMemberEvent announces a voice-group membership change to a room. Used
// for both user-joined-voice and user-left-voice.
type VoiceMemberEvent struct {
	Type   EventType `json:"type"`
	Room   RoomRef   `json:"roomRef"`
	Member Member    `json:"member"`
}

// VoiceStateUpdatedEvent carries a participant's merged voice state.
type VoiceStateUpdatedEvent struct {
	Type       EventType  `json:"type"`
	Member     Member     `json:"member"`
	VoiceState VoiceState `json:"voiceState"`
}

// SignalEvent is a relayed WebRTC handshake payload. Body is forwarded
// verbatim.
type SignalEvent struct {
	Type EventType       `json:"type"`
	From string          `json:"from"`
	Sig  SignalKind      `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// PresenceSnapshotEvent is the periodic aggregate view of who is online.
type PresenceSnapshotEvent struct {
	Type        EventType       `json:"type"`
	Connections []PresenceEntry `json:"connections"`
}

// ErrorEvent reports a recoverable failure; the connection stays open.
// Remaining and ResetAt are populated for rate-limit rejections only.
type ErrorEvent struct {
	Type      EventType  `json:"type"`
	Code      string     `json:"code"`
	Message   string     `json:"message"`
	Remaining *int       `json:"remaining,omitempty"`
	ResetAt   *time.Time `json:"resetAt,omitempty"`
}

func NewAuthSuccess(identity Member, rooms []RoomInfo, ice []ICEServer) AuthSuccessEvent {
	if rooms == nil {
		rooms = []RoomInfo{}
	}
	if ice == nil {
		ice = []ICEServer{}
	}
	return AuthSuccessEvent{Type: EventAuthSuccess, Identity: identity, Rooms: rooms, ICEServers: ice}
}

func NewAuthError(reason string) AuthErrorEvent {
	return AuthErrorEvent{Type: EventAuthError, Reason: reason}
}

func NewRoomJoined(room RoomRef, members []Member, history []Message) RoomJoinedEvent {
	if members == nil {
		members = []Member{}
	}
	if history == nil {
		history = []Message{}
	}
	return RoomJoinedEvent{Type: EventRoomJoined, Room: room, Members: members, History: history}
}

func NewMemberJoined(room RoomRef, m Member) MemberEvent {
	return MemberEvent{Type: EventMemberJoined, Room: room, Member: m}
}

func NewMemberLeft(room RoomRef, m Member) MemberEvent {
	return MemberEvent{Type: EventMemberLeft, Room: room, Member: m}
}

func NewMessage(room RoomRef, msg Message) MessageEvent {
	return MessageEvent{Type: EventMessage, Room: room, Message: msg}
}

func NewTyping(room RoomRef, m Member) TypingEvent {
	return TypingEvent{Type: EventTyping, Room: room, Member: m}
}

func NewVoiceParticipants(room RoomRef, participants []Member) VoiceParticipantsEvent {
	if participants == nil {
		participants = []Member{}
	}
	return VoiceParticipantsEvent{Type: EventVoiceParticipants, Room: room, Participants: participants}
}

func NewUserJoinedVoice(room RoomRef, m Member) VoiceMemberEvent {
	return VoiceMemberEvent{Type: EventUserJoinedVoice, Room: room, Member: m}
}

func NewUserLeftVoice(room RoomRef, m Member) VoiceMemberEvent {
	return VoiceMemberEvent{Type: EventUserLeftVoice, Room: room, Member: m}
}

func NewVoiceStateUpdated(m Member, st VoiceState) VoiceStateUpdatedEvent {
	return VoiceStateUpdatedEvent{Type: EventVoiceStateUpdated, Member: m, VoiceState: st}
}

func NewSignal(from string, kind SignalKind, body json.RawMessage) SignalEvent {
	return SignalEvent{Type: EventSignal, From: from, Sig: kind, Body: body}
}

func NewPresenceSnapshot(entries []PresenceEntry) PresenceSnapshotEvent {
	if entries == nil {
		entries = []PresenceEntry{}
	}
	return PresenceSnapshotEvent{Type: EventPresenceSnapshot, Connections: entries}
}

func NewError(code, message string) ErrorEvent {
	return ErrorEvent{Type: EventError, Code: code, Message: message}
}

// NewRateLimitError attaches the remaining/reset metadata a rejected sender
// needs to back off correctly.
func NewRateLimitError(code, message string, remaining int, resetAt time.Time) ErrorEvent {
	return ErrorEvent{Type: EventError, Code: code, Message: message, Remaining: &remaining, ResetAt: &resetAt}
}
