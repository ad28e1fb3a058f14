package protocol

import (
	"encoding/json"
	"fmt"
)

// Kind tags a client-to-server message.
type Kind string

const (
	KindAuthenticate     Kind = "authenticate"
	KindJoinRoom         Kind = "join-room"
	KindLeaveRoom        Kind = "leave-room"
	KindPostMessage      Kind = "post-message"
	KindTyping           Kind = "typing"
	KindJoinVoice        Kind = "join-voice"
	KindLeaveVoice       Kind = "leave-voice"
	KindSignal           Kind = "signal"
	KindUpdateVoiceState Kind = "update-voice-state"
)

// ClientMessage is the closed union of messages a client may send. DecodeClient
// is the only constructor, so a type switch over its results is exhaustive by
// construction.
type ClientMessage interface {
	Kind() Kind
}

// Authenticate must be the first message on a fresh connection.
type Authenticate struct {
	Credential string `json:"credential"`
}

// JoinRoom asks to enter a text room, creating it lazily.
type JoinRoom struct {
	Room RoomRef `json:"roomRef"`
}

// LeaveRoom asks to leave a text room.
type LeaveRoom struct {
	Room RoomRef `json:"roomRef"`
}

// PostMessage submits chat content to a room the sender has joined.
type PostMessage struct {
	Room    RoomRef `json:"roomRef"`
	Content string  `json:"content"`
}

// Typing is the best-effort typing indicator.
type Typing struct {
	Room RoomRef `json:"roomRef"`
}

// JoinVoice asks to enter a room's voice group.
type JoinVoice struct {
	Room RoomRef `json:"roomRef"`
}

// LeaveVoice asks to leave a room's voice group.
type LeaveVoice struct {
	Room RoomRef `json:"roomRef"`
}

// Signal carries one WebRTC handshake payload toward a single peer.
type Signal struct {
	To   string          `json:"to"`
	Sig  SignalKind      `json:"kind"`
	Body json.RawMessage `json:"body"`
}

// UpdateVoiceState merges a partial voice-state change.
type UpdateVoiceState struct {
	VoiceStateUpdate
}

func (Authenticate) Kind() Kind     { return KindAuthenticate }
func (JoinRoom) Kind() Kind         { return KindJoinRoom }
func (LeaveRoom) Kind() Kind        { return KindLeaveRoom }
func (PostMessage) Kind() Kind      { return KindPostMessage }
func (Typing) Kind() Kind           { return KindTyping }
func (JoinVoice) Kind() Kind        { return KindJoinVoice }
func (LeaveVoice) Kind() Kind       { return KindLeaveVoice }
func (Signal) Kind() Kind           { return KindSignal }
func (UpdateVoiceState) Kind() Kind { return KindUpdateVoiceState }

// DecodeClient parses one raw frame into its typed message. Unknown or missing
// type tags are reported as an error; payload field validation is left to the
// component that handles the message.
func DecodeClient(data []byte) (ClientMessage, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch env.Type {
	case KindAuthenticate:
		return decodeAs[Authenticate](data)
	case KindJoinRoom:
		return decodeAs[JoinRoom](data)
	case KindLeaveRoom:
		return decodeAs[LeaveRoom](data)
	case KindPostMessage:
		return decodeAs[PostMessage](data)
	case KindTyping:
		return decodeAs[Typing](data)
	case KindJoinVoice:
		return decodeAs[JoinVoice](data)
	case KindLeaveVoice:
		return decodeAs[LeaveVoice](data)
	case KindSignal:
		return decodeAs[Signal](data)
	case KindUpdateVoiceState:
		return decodeAs[UpdateVoiceState](data)
	case "":
		return nil, fmt.Errorf("message is missing a type")
	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

func decodeAs[T ClientMessage](data []byte) (ClientMessage, error) {
	var msg T
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed %s message: %w", msg.Kind(), err)
	}
	return msg, nil
}
