package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Room groups participants, chat history and relay targets under one
// short identifier. Rooms are not safe for concurrent use on their own;
// all access goes through the signaling usecase's exclusion discipline.
type Room struct {
	ID        string
	AdminKey  string
	CreatedAt time.Time

	// EmptySince is nil while the room has participants.
	EmptySince *time.Time

	Participants map[uuid.UUID]*Participant
	ChatLog      []ChatMessage
}

func NewRoom(adminKeyBytes int, now time.Time) *Room {
	emptySince := now

	return &Room{
		ID:           NewRoomID(),
		AdminKey:     NewSecret(adminKeyBytes),
		CreatedAt:    now,
		EmptySince:   &emptySince,
		Participants: make(map[uuid.UUID]*Participant),
	}
}

func (r *Room) AddParticipant(p *Participant) {
	r.Participants[p.ConnID] = p
	r.EmptySince = nil
}

// RemoveParticipant deletes the participant and stamps EmptySince when
// the room just became empty. Idempotent.
func (r *Room) RemoveParticipant(connID uuid.UUID, now time.Time) {
	if _, ok := r.Participants[connID]; !ok {
		return
	}

	delete(r.Participants, connID)

	if len(r.Participants) == 0 {
		r.EmptySince = &now
	}
}

// Roster returns the current participants ordered by join time, so every
// broadcast shows the same stable ordering.
func (r *Room) Roster() []Participant {
	roster := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		roster = append(roster, *p)
	}

	sort.Slice(roster, func(i, j int) bool {
		if roster[i].JoinedAt.Equal(roster[j].JoinedAt) {
			return roster[i].ConnID.String() < roster[j].ConnID.String()
		}
		return roster[i].JoinedAt.Before(roster[j].JoinedAt)
	})

	return roster
}

// AppendChat appends a message and trims the log down to trimTo entries
// once it grows past max, keeping the most recent entries in order.
func (r *Room) AppendChat(msg ChatMessage, max, trimTo int) {
	r.ChatLog = append(r.ChatLog, msg)

	if len(r.ChatLog) > max {
		trimmed := make([]ChatMessage, trimTo)
		copy(trimmed, r.ChatLog[len(r.ChatLog)-trimTo:])
		r.ChatLog = trimmed
	}
}

// RecentChat returns up to n of the most recent messages in order.
func (r *Room) RecentChat(n int) []ChatMessage {
	if len(r.ChatLog) <= n {
		out := make([]ChatMessage, len(r.ChatLog))
		copy(out, r.ChatLog)
		return out
	}

	out := make([]ChatMessage, n)
	copy(out, r.ChatLog[len(r.ChatLog)-n:])
	return out
}
