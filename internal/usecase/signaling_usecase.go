package usecase

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/application/constant"
	"github.com/voxroom/voxroom/internal/application/metric"
	"github.com/voxroom/voxroom/internal/domain"
	"github.com/voxroom/voxroom/internal/domain/events"
	"github.com/voxroom/voxroom/internal/infra/adapters/memory"
)

const memberKeyBytes = 16

// SignalingUsecase interprets inbound socket messages, mutates room and
// participant state and computes the outbound fan-out.
type SignalingUsecase interface {
	HandleConnect(connID uuid.UUID, sender memory.Sender)

	// HandleMessage dispatches one raw inbound frame. Malformed frames
	// are logged and dropped; unrecognized types are ignored.
	HandleMessage(connID uuid.UUID, raw []byte)

	HandleDisconnect(connID uuid.UUID)

	// RoomInfo returns a point-in-time view of a room for callers
	// outside the socket path, such as the HTTP lookup.
	RoomInfo(roomID string) (RoomInfo, bool)

	// CloseRoom notifies members, unbinds them and deletes the room.
	CloseRoom(roomID string)

	// SweepRooms deletes rooms that have been empty for too long.
	SweepRooms(now time.Time)
}

// RoomInfo is a snapshot of a room taken under the signaling mutex. It
// carries plain values only, so holding one never touches live state.
type RoomInfo struct {
	ID           string
	Participants int
	CreatedAt    time.Time
}

type signalingUsecase struct {
	cfg config.RoomsConfig

	rooms memory.RoomRepository
	conns memory.ConnectionRepository

	now func() time.Time

	// mu serializes every handler and sweep against shared room state.
	// Outbound sends are buffered channel pushes, so nothing under this
	// lock ever waits on the network.
	mu sync.Mutex
}

func NewSignalingUsecase(
	cfg config.RoomsConfig,
	rooms memory.RoomRepository,
	conns memory.ConnectionRepository,
	now func() time.Time,
) SignalingUsecase {
	if now == nil {
		now = time.Now
	}

	return &signalingUsecase{
		cfg:   cfg,
		rooms: rooms,
		conns: conns,
		now:   now,
	}
}

func (s *signalingUsecase) HandleConnect(connID uuid.UUID, sender memory.Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conns.Add(connID, sender)

	slog.Info("connection established", slog.String(constant.ConnID, connID.String()))
}

func (s *signalingUsecase) HandleMessage(connID uuid.UUID, raw []byte) {
	var msg events.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Warn(
			"malformed message dropped",
			slog.Any(constant.Error, err),
			slog.String(constant.ConnID, connID.String()),
		)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Type {
	case events.TypeJoin:
		var join events.JoinEvent
		if !s.unmarshal(connID, msg, &join) {
			return
		}
		s.handleJoin(connID, join)

	case events.TypeChat:
		var chat events.ChatEvent
		if !s.unmarshal(connID, msg, &chat) {
			return
		}
		s.handleChat(connID, chat)

	case events.TypeOffer, events.TypeAnswer, events.TypeCandidate, events.TypeShareRequest:
		var relay events.RelayEvent
		if !s.unmarshal(connID, msg, &relay) {
			return
		}
		s.handleRelay(connID, msg.Type, relay)

	case events.TypeMute:
		var mute events.MuteEvent
		if !s.unmarshal(connID, msg, &mute) {
			return
		}
		s.updatePresence(connID, func(p *domain.Participant) events.Message {
			p.Muted = mute.Muted
			return events.NewMessage(events.TypeUserMuted, events.MutedEvent{ConnID: connID, Muted: mute.Muted})
		})

	case events.TypeDeafen:
		var deafen events.DeafenEvent
		if !s.unmarshal(connID, msg, &deafen) {
			return
		}
		s.updatePresence(connID, func(p *domain.Participant) events.Message {
			p.Deafened = deafen.Deafened
			return events.NewMessage(events.TypeUserDeafened, events.DeafenedEvent{ConnID: connID, Deafened: deafen.Deafened})
		})

	case events.TypeShare:
		var share events.ShareEvent
		if !s.unmarshal(connID, msg, &share) {
			return
		}
		s.updatePresence(connID, func(p *domain.Participant) events.Message {
			p.Sharing = share.Sharing
			return events.NewMessage(events.TypeUserSharing, events.SharingEvent{ConnID: connID, Sharing: share.Sharing})
		})

	case events.TypeAvatar:
		var avatar events.AvatarEvent
		if !s.unmarshal(connID, msg, &avatar) {
			return
		}
		s.updatePresence(connID, func(p *domain.Participant) events.Message {
			p.Avatar = avatar.Avatar
			return events.NewMessage(events.TypeUserAvatar, events.AvatarChangedEvent{ConnID: connID, Avatar: avatar.Avatar})
		})

	default:
		// Unrecognized types are ignored without error.
	}
}

func (s *signalingUsecase) HandleDisconnect(connID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leaveLocked(connID)
	s.conns.Remove(connID)

	slog.Info("connection closed", slog.String(constant.ConnID, connID.String()))
}

func (s *signalingUsecase) RoomInfo(roomID string) (RoomInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(roomID)
	if !ok {
		return RoomInfo{}, false
	}

	return RoomInfo{
		ID:           room.ID,
		Participants: len(room.Participants),
		CreatedAt:    room.CreatedAt,
	}, true
}

func (s *signalingUsecase) CloseRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms.Get(roomID)
	if ok {
		closed := events.NewMessage(events.TypeRoomClosed, struct{}{})
		for connID := range room.Participants {
			s.conns.Send(connID, closed)
			s.conns.Unbind(connID)
		}
	}

	s.rooms.Delete(roomID)
}

func (s *signalingUsecase) SweepRooms(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.rooms.SweepExpired(now) {
		slog.Info("expired empty room removed", slog.String(constant.RoomID, id))
	}
}

func (s *signalingUsecase) handleJoin(connID uuid.UUID, join events.JoinEvent) {
	room, ok := s.rooms.Get(join.RoomID)
	if !ok {
		s.conns.Send(connID, events.NewMessage(events.TypeError, events.ErrorEvent{Message: "room not found"}))
		return
	}

	// A connection holds at most one room. Joining while bound acts as
	// leave-then-join so the old room sees a normal departure.
	if entry, ok := s.conns.Get(connID); ok && entry.RoomID != "" {
		s.leaveLocked(connID)
	}

	participant := &domain.Participant{
		ConnID:    connID,
		Name:      join.Name,
		MemberKey: domain.NewSecret(memberKeyBytes),
		JoinedAt:  s.now(),
	}

	room.AddParticipant(participant)
	s.conns.Bind(connID, room.ID, participant.Name, participant.MemberKey)

	s.conns.Send(connID, events.NewMessage(events.TypeJoined, events.JoinedEvent{
		ConnID:       connID,
		MemberKey:    participant.MemberKey,
		Participants: room.Roster(),
		History:      room.RecentChat(s.cfg.JoinHistory),
	}))

	joined := events.NewMessage(events.TypeUserJoined, events.UserJoinedEvent{Participant: *participant})
	for memberID := range room.Participants {
		if memberID == connID {
			continue
		}
		s.conns.Send(memberID, joined)
	}

	s.broadcastRoster(room)

	slog.Info(
		"participant joined",
		slog.String(constant.ConnID, connID.String()),
		slog.String(constant.RoomID, room.ID),
	)
}

func (s *signalingUsecase) handleChat(connID uuid.UUID, chat events.ChatEvent) {
	entry, room, ok := s.boundRoom(connID)
	if !ok {
		return
	}

	msg := domain.ChatMessage{
		ID:     uuid.New(),
		From:   connID,
		Name:   entry.Name,
		Text:   chat.Text,
		Image:  chat.Image,
		SentAt: s.now(),
	}

	room.AppendChat(msg, s.cfg.ChatLogMax, s.cfg.ChatLogTrimTo)

	// The sender gets its own echo; the client de-duplicates.
	s.broadcast(room, events.NewMessage(events.TypeChatMessage, events.ChatMessageEvent{Message: msg}))

	metric.IncrementChatMessages()
}

// handleRelay is pure store-and-forward: delivered to the one target if
// it is connected, silently dropped otherwise. No error to the sender.
func (s *signalingUsecase) handleRelay(connID uuid.UUID, relayType string, relay events.RelayEvent) {
	if _, ok := s.conns.Get(relay.Target); !ok {
		return
	}

	relayed := events.RelayedEvent{
		From:      connID,
		SDP:       relay.SDP,
		Candidate: relay.Candidate,
	}

	if relayType == events.TypeOffer {
		if entry, ok := s.conns.Get(connID); ok {
			relayed.FromName = entry.Name
		}
	}

	s.conns.Send(relay.Target, events.NewMessage(relayType, relayed))

	metric.IncrementSignalsRelayed(relayType)
}

func (s *signalingUsecase) updatePresence(connID uuid.UUID, apply func(*domain.Participant) events.Message) {
	_, room, ok := s.boundRoom(connID)
	if !ok {
		return
	}

	participant, ok := room.Participants[connID]
	if !ok {
		return
	}

	msg := apply(participant)

	s.broadcast(room, msg)
}

// leaveLocked removes the participant from its room, if bound, and emits
// the departure broadcasts. Callers hold s.mu.
func (s *signalingUsecase) leaveLocked(connID uuid.UUID) {
	entry, room, ok := s.boundRoom(connID)
	if !ok {
		return
	}

	room.RemoveParticipant(connID, s.now())
	s.conns.Unbind(connID)

	left := events.NewMessage(events.TypeUserLeft, events.UserLeftEvent{ConnID: connID, Name: entry.Name})
	s.broadcast(room, left)
	s.broadcastRoster(room)

	slog.Info(
		"participant left",
		slog.String(constant.ConnID, connID.String()),
		slog.String(constant.RoomID, room.ID),
	)
}

func (s *signalingUsecase) boundRoom(connID uuid.UUID) (memory.ConnectionEntry, *domain.Room, bool) {
	entry, ok := s.conns.Get(connID)
	if !ok || entry.RoomID == "" {
		return memory.ConnectionEntry{}, nil, false
	}

	room, ok := s.rooms.Get(entry.RoomID)
	if !ok {
		return memory.ConnectionEntry{}, nil, false
	}

	return entry, room, true
}

func (s *signalingUsecase) broadcast(room *domain.Room, msg events.Message) {
	for memberID := range room.Participants {
		s.conns.Send(memberID, msg)
	}
}

func (s *signalingUsecase) broadcastRoster(room *domain.Room) {
	s.broadcast(room, events.NewMessage(events.TypeParticipants, events.ParticipantListEvent{Participants: room.Roster()}))
}

func (s *signalingUsecase) unmarshal(connID uuid.UUID, msg events.Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		slog.Warn(
			"malformed event payload dropped",
			slog.Any(constant.Error, err),
			slog.String(constant.Type, msg.Type),
			slog.String(constant.ConnID, connID.String()),
		)
		return false
	}

	return true
}
