package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom_Identity(t *testing.T) {
	now := time.Now()
	room := NewRoom(24, now)

	assert.Len(t, room.ID, 8, "6 random bytes encode to 8 base64url chars")
	assert.Len(t, room.AdminKey, 32)
	assert.NotContains(t, room.ID, "/")
	assert.NotContains(t, room.ID, "+")

	require.NotNil(t, room.EmptySince)
	assert.Equal(t, now, *room.EmptySince)
	assert.Empty(t, room.Participants)

	other := NewRoom(24, now)
	assert.NotEqual(t, room.ID, other.ID)
	assert.NotEqual(t, room.AdminKey, other.AdminKey)
}

func TestRoom_EmptySinceTracksOccupancy(t *testing.T) {
	now := time.Now()
	room := NewRoom(24, now)

	p := &Participant{ConnID: uuid.New(), Name: "alice", JoinedAt: now}
	room.AddParticipant(p)
	assert.Nil(t, room.EmptySince)

	later := now.Add(time.Minute)
	room.RemoveParticipant(p.ConnID, later)

	require.NotNil(t, room.EmptySince)
	assert.Equal(t, later, *room.EmptySince)

	// Removing an absent participant does not restamp.
	room.RemoveParticipant(uuid.New(), later.Add(time.Minute))
	assert.Equal(t, later, *room.EmptySince)
}

func TestRoom_RosterOrderedByJoinTime(t *testing.T) {
	now := time.Now()
	room := NewRoom(24, now)

	second := &Participant{ConnID: uuid.New(), Name: "second", JoinedAt: now.Add(time.Second)}
	first := &Participant{ConnID: uuid.New(), Name: "first", JoinedAt: now}

	room.AddParticipant(second)
	room.AddParticipant(first)

	roster := room.Roster()
	require.Len(t, roster, 2)
	assert.Equal(t, "first", roster[0].Name)
	assert.Equal(t, "second", roster[1].Name)
}

func TestRoom_AppendChatTrims(t *testing.T) {
	now := time.Now()
	room := NewRoom(24, now)

	for i := 0; i < 101; i++ {
		room.AppendChat(ChatMessage{
			ID:   uuid.New(),
			Text: fmt.Sprintf("msg-%d", i),
		}, 100, 50)
	}

	require.Len(t, room.ChatLog, 50)
	assert.Equal(t, "msg-51", room.ChatLog[0].Text)
	assert.Equal(t, "msg-100", room.ChatLog[49].Text)

	// The log never exceeds the cap at any point.
	for i := 101; i < 200; i++ {
		room.AppendChat(ChatMessage{Text: fmt.Sprintf("msg-%d", i)}, 100, 50)
		assert.LessOrEqual(t, len(room.ChatLog), 100)
	}
}

func TestRoom_RecentChat(t *testing.T) {
	now := time.Now()
	room := NewRoom(24, now)

	for i := 0; i < 10; i++ {
		room.AppendChat(ChatMessage{Text: fmt.Sprintf("msg-%d", i)}, 100, 50)
	}

	recent := room.RecentChat(3)
	require.Len(t, recent, 3)
	assert.Equal(t, "msg-7", recent[0].Text)
	assert.Equal(t, "msg-9", recent[2].Text)

	all := room.RecentChat(50)
	assert.Len(t, all, 10)
}
