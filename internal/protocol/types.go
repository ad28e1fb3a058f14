// Package protocol defines the JSON wire format spoken between clients and the
// Bonfire signaling server: the closed set of client message kinds, the server
// event types, and the payload structures shared by both directions.
package protocol

import "time"

// RoomKind distinguishes server channels from direct-message sessions.
type RoomKind string

const (
	RoomChannel RoomKind = "channel"
	RoomDM      RoomKind = "dm"
)

// Valid reports whether the kind is one of the two known room kinds.
func (k RoomKind) Valid() bool {
	return k == RoomChannel || k == RoomDM
}

// RoomRef identifies a text room on the wire. The zero value means "no room".
type RoomRef struct {
	ID   string   `json:"id"`
	Kind RoomKind `json:"kind"`
}

// IsZero reports whether the reference points at nothing.
func (r RoomRef) IsZero() bool {
	return r.ID == "" && r.Kind == ""
}

// Key returns a stable map key that keeps channel and DM namespaces apart.
func (r RoomRef) Key() string {
	return string(r.Kind) + ":" + r.ID
}

// Profile is the cached display profile fetched at authentication time.
type Profile struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// Member is how one connection appears to everybody else.
type Member struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Username     string `json:"username"`
	DisplayName  string `json:"displayName"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
}

// RoomInfo describes a room the durable channel store says the user belongs
// to. It seeds the client's roster inside auth-success and is never consulted
// again on the hot path.
type RoomInfo struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Kind RoomKind `json:"kind"`
}

// Message is one chat message held in a room's bounded history. Immutable once
// appended.
type Message struct {
	ID                 string    `json:"id"`
	AuthorConnectionID string    `json:"authorConnectionId"`
	Content            string    `json:"content"`
	CreatedAt          time.Time `json:"createdAt"`
	Kind               RoomKind  `json:"kind"`
}

// VoiceState is a connection's ephemeral state inside a voice group. It lives
// only in memory; a server restart drops every connection and the state with it.
type VoiceState struct {
	Muted    bool `json:"muted"`
	Deafened bool `json:"deafened"`
	Speaking bool `json:"speaking"`
}

// VoiceStateUpdate carries a partial voice-state change; nil fields are left
// untouched by the merge.
type VoiceStateUpdate struct {
	Muted    *bool `json:"muted,omitempty"`
	Deafened *bool `json:"deafened,omitempty"`
	Speaking *bool `json:"speaking,omitempty"`
}

// SignalKind is one of the three WebRTC handshake payload kinds the server
// relays. It never brokers media.
type SignalKind string

const (
	SignalOffer        SignalKind = "offer"
	SignalAnswer       SignalKind = "answer"
	SignalICECandidate SignalKind = "ice-candidate"
)

// Valid reports whether the kind is a relayable handshake kind.
func (k SignalKind) Valid() bool {
	switch k {
	case SignalOffer, SignalAnswer, SignalICECandidate:
		return true
	}
	return false
}

// ICEServer describes one STUN/TURN endpoint advertised to clients in
// auth-success.
type ICEServer struct {
	URLs       []string `json:"urls" yaml:"urls"`
	Username   string   `json:"username,omitempty" yaml:"username,omitempty"`
	Credential string   `json:"credential,omitempty" yaml:"credential,omitempty"`
}

// PresenceEntry is one connection's row in the periodic presence snapshot.
type PresenceEntry struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	DisplayName  string `json:"displayName"`
	Status       string `json:"status"`
	RoomID       string `json:"roomId,omitempty"`
	VoiceRoomID  string `json:"voiceRoomId,omitempty"`
}
