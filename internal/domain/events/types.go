package events

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/internal/domain"
)

// Message is the envelope for everything exchanged over the socket.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage wraps payload into an envelope. The event types below cannot
// fail to marshal, so errors collapse to an empty data field.
func NewMessage(eventType string, payload any) Message {
	data, _ := json.Marshal(payload)

	return Message{Type: eventType, Data: data}
}

// Inbound payloads.

type JoinEvent struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
}

type ChatEvent struct {
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// RelayEvent covers offer, answer, candidate and share-request. SDP and
// Candidate stay opaque: this layer forwards handshake metadata without
// interpreting it.
type RelayEvent struct {
	Target    uuid.UUID       `json:"target"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type MuteEvent struct {
	Muted bool `json:"muted"`
}

type DeafenEvent struct {
	Deafened bool `json:"deafened"`
}

type ShareEvent struct {
	Sharing bool `json:"sharing"`
}

type AvatarEvent struct {
	Avatar string `json:"avatar"`
}

// Outbound payloads.

type JoinedEvent struct {
	ConnID       uuid.UUID            `json:"conn_id"`
	MemberKey    string               `json:"member_key"`
	Participants []domain.Participant `json:"participants"`
	History      []domain.ChatMessage `json:"history"`
}

type UserJoinedEvent struct {
	Participant domain.Participant `json:"participant"`
}

type UserLeftEvent struct {
	ConnID uuid.UUID `json:"conn_id"`
	Name   string    `json:"name"`
}

type ParticipantListEvent struct {
	Participants []domain.Participant `json:"participants"`
}

type ChatMessageEvent struct {
	Message domain.ChatMessage `json:"message"`
}

// RelayedEvent is the delivered form of a RelayEvent, tagged with the
// sender. FromName is set only for offers.
type RelayedEvent struct {
	From      uuid.UUID       `json:"from"`
	FromName  string          `json:"from_name,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type MutedEvent struct {
	ConnID uuid.UUID `json:"conn_id"`
	Muted  bool      `json:"muted"`
}

type DeafenedEvent struct {
	ConnID   uuid.UUID `json:"conn_id"`
	Deafened bool      `json:"deafened"`
}

type SharingEvent struct {
	ConnID  uuid.UUID `json:"conn_id"`
	Sharing bool      `json:"sharing"`
}

type AvatarChangedEvent struct {
	ConnID uuid.UUID `json:"conn_id"`
	Avatar string    `json:"avatar"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// Event type discriminators.
const (
	TypeJoin         = "join"
	TypeChat         = "chat"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeCandidate    = "candidate"
	TypeShareRequest = "share-request"
	TypeMute         = "mute"
	TypeDeafen       = "deafen"
	TypeShare        = "share"
	TypeAvatar       = "avatar"

	TypeJoined       = "joined"
	TypeUserJoined   = "user-joined"
	TypeUserLeft     = "user-left"
	TypeParticipants = "participants"
	TypeChatMessage  = "chat-message"
	TypeUserMuted    = "user-muted"
	TypeUserDeafened = "user-deafened"
	TypeUserSharing  = "user-sharing"
	TypeUserAvatar   = "user-avatar"
	TypeRoomClosed   = "room-closed"
	TypeError        = "error"
)
