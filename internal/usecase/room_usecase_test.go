package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/domain"
	"github.com/voxroom/voxroom/internal/domain/events"
	"github.com/voxroom/voxroom/internal/guard"
	"github.com/voxroom/voxroom/internal/infra/adapters/memory"
)

type roomFixture struct {
	*signalingFixture
	guard *guard.Guard
	rooms RoomUsecase
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()

	f := newSignalingFixture(t)

	g := guard.New(config.GuardConfig{
		RateWindow:    time.Minute,
		RateCeiling:   3,
		BlockDuration: time.Hour,
		TokenLifetime: 5 * time.Minute,
		TokenMinAge:   time.Second,
	}, []string{"http://localhost:3000"}, f.clock.Now)

	return &roomFixture{
		signalingFixture: f,
		guard:            g,
		rooms:            NewRoomUsecase(g, f.rooms, f.signaling),
	}
}

func browserMeta() guard.RequestMetadata {
	return guard.RequestMetadata{
		UserAgent:    "Mozilla/5.0 (X11; Linux x86_64)",
		Origin:       "http://localhost:3000",
		SecFetchSite: "same-origin",
	}
}

func (f *roomFixture) freshToken(t *testing.T, addr string) string {
	t.Helper()

	token, err := f.rooms.IssueToken(addr)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Second)
	return token
}

func TestCreateRoom_Success(t *testing.T) {
	f := newRoomFixture(t)

	token := f.freshToken(t, "10.0.0.1")

	room, err := f.rooms.CreateRoom(token, "10.0.0.1", browserMeta())
	require.NoError(t, err)

	assert.NotEmpty(t, room.ID)
	assert.NotEmpty(t, room.AdminKey)
	assert.NotEqual(t, room.ID, room.AdminKey)

	got, ok := f.rooms.GetRoom(room.ID)
	require.True(t, ok)
	assert.Equal(t, room.ID, got.ID)
}

func TestCreateRoom_BadTokenForbidden(t *testing.T) {
	f := newRoomFixture(t)

	_, err := f.rooms.CreateRoom("bogus", "10.0.0.2", browserMeta())
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRoom_TooFastTokenForbiddenAndBlocks(t *testing.T) {
	f := newRoomFixture(t)

	token, err := f.rooms.IssueToken("10.0.0.3")
	require.NoError(t, err)

	// Consumed at replay speed, before the minimum token age.
	_, err = f.rooms.CreateRoom(token, "10.0.0.3", browserMeta())
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The address is now blocked: it cannot even get a new token.
	_, err = f.rooms.IssueToken("10.0.0.3")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRoom_RateLimitedAfterCeiling(t *testing.T) {
	f := newRoomFixture(t)

	for i := 0; i < 3; i++ {
		token := f.freshToken(t, "10.0.0.4")
		_, err := f.rooms.CreateRoom(token, "10.0.0.4", browserMeta())
		require.NoError(t, err)
	}

	token := f.freshToken(t, "10.0.0.4")
	_, err := f.rooms.CreateRoom(token, "10.0.0.4", browserMeta())
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestCreateRoom_CapacityReached(t *testing.T) {
	clock := newFakeClock()

	cfg := config.RoomsConfig{
		MaxRooms:         1,
		CreationsPerHour: 1000,
		EmptyTTL:         10 * time.Minute,
		ChatLogMax:       100,
		ChatLogTrimTo:    50,
		JoinHistory:      50,
	}

	repo := memory.NewRoomRepository(cfg, clock.Now)
	conns := memory.NewConnectionRepository()
	signaling := NewSignalingUsecase(cfg, repo, conns, clock.Now)

	g := guard.New(config.GuardConfig{
		RateWindow:    time.Minute,
		RateCeiling:   10,
		BlockDuration: time.Hour,
		TokenLifetime: 5 * time.Minute,
		TokenMinAge:   time.Second,
	}, []string{"http://localhost:3000"}, clock.Now)

	rooms := NewRoomUsecase(g, repo, signaling)

	token := g.IssueToken("10.0.0.5")
	clock.Advance(2 * time.Second)
	_, err := rooms.CreateRoom(token, "10.0.0.5", browserMeta())
	require.NoError(t, err)

	token = g.IssueToken("10.0.0.5")
	clock.Advance(2 * time.Second)
	_, err = rooms.CreateRoom(token, "10.0.0.5", browserMeta())
	assert.ErrorIs(t, err, domain.ErrRoomCapacity)
}

// GetRoom must hand out a detached snapshot, never the live participant
// map: lookups race against socket joins and leaves. Run with -race.
func TestGetRoom_SnapshotDuringMembershipChurn(t *testing.T) {
	f := newRoomFixture(t)

	token := f.freshToken(t, "10.0.0.7")
	room, err := f.rooms.CreateRoom(token, "10.0.0.7", browserMeta())
	require.NoError(t, err)

	frame := []byte(fmt.Sprintf(`{"type":"join","data":{"room_id":%q,"name":"churn"}}`, room.ID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			id := uuid.New()
			f.signaling.HandleConnect(id, &fakeSender{})
			f.signaling.HandleMessage(id, frame)
			f.signaling.HandleDisconnect(id)
		}
	}()

	for churning := true; churning; {
		select {
		case <-done:
			churning = false
		default:
		}

		if info, ok := f.rooms.GetRoom(room.ID); ok {
			assert.LessOrEqual(t, info.Participants, 1)
		}
	}

	info, ok := f.rooms.GetRoom(room.ID)
	require.True(t, ok)
	assert.Equal(t, 0, info.Participants)
}

func TestDeleteRoom(t *testing.T) {
	f := newRoomFixture(t)

	token := f.freshToken(t, "10.0.0.6")
	room, err := f.rooms.CreateRoom(token, "10.0.0.6", browserMeta())
	require.NoError(t, err)

	aliceID, alice := f.connect(t)
	f.send(t, aliceID, events.TypeJoin, events.JoinEvent{RoomID: room.ID, Name: "alice"})
	alice.reset()

	assert.ErrorIs(t, f.rooms.DeleteRoom(room.ID, "wrong-key"), domain.ErrForbidden)

	require.NoError(t, f.rooms.DeleteRoom(room.ID, room.AdminKey))

	assert.Len(t, alice.byType(events.TypeRoomClosed), 1)

	_, ok := f.rooms.GetRoom(room.ID)
	assert.False(t, ok)

	assert.ErrorIs(t, f.rooms.DeleteRoom(room.ID, room.AdminKey), domain.ErrRoomNotFound)
}
