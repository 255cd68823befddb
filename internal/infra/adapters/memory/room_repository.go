package memory

import (
	"sync"
	"time"

	"github.com/voxroom/voxroom/internal/application/config"
	"github.com/voxroom/voxroom/internal/application/metric"
	"github.com/voxroom/voxroom/internal/domain"
)

const adminKeyBytes = 24

// RoomRepository is the in-memory Room Registry. It owns every Room and,
// transitively, the participants and chat log inside them.
type RoomRepository interface {
	// Create registers a new empty room, enforcing the per-process room
	// ceiling and the sliding-hour creation velocity ceiling.
	Create() (*domain.Room, error)

	Get(roomID string) (*domain.Room, bool)

	// Delete removes a room. Idempotent.
	Delete(roomID string)

	Count() int

	// SweepExpired deletes rooms that have been continuously empty for
	// longer than the configured TTL and returns their ids.
	SweepExpired(now time.Time) []string
}

type roomRepository struct {
	cfg config.RoomsConfig

	now func() time.Time

	mu        sync.RWMutex
	rooms     map[string]*domain.Room
	creations []time.Time
}

func NewRoomRepository(cfg config.RoomsConfig, now func() time.Time) RoomRepository {
	if now == nil {
		now = time.Now
	}

	return &roomRepository{
		cfg:   cfg,
		now:   now,
		rooms: make(map[string]*domain.Room),
	}
}

func (r *roomRepository) Create() (*domain.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	if len(r.rooms) >= r.cfg.MaxRooms {
		return nil, domain.ErrRoomCapacity
	}

	r.pruneCreationsLocked(now)
	if len(r.creations) >= r.cfg.CreationsPerHour {
		return nil, domain.ErrRateLimited
	}

	room := domain.NewRoom(adminKeyBytes, now)
	for {
		if _, taken := r.rooms[room.ID]; !taken {
			break
		}
		room = domain.NewRoom(adminKeyBytes, now)
	}

	r.rooms[room.ID] = room
	r.creations = append(r.creations, now)

	metric.SetRoomsActive(len(r.rooms))

	return room, nil
}

func (r *roomRepository) Get(roomID string) (*domain.Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	return room, ok
}

func (r *roomRepository) Delete(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)

	metric.SetRoomsActive(len(r.rooms))
}

func (r *roomRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}

func (r *roomRepository) SweepExpired(now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []string

	for id, room := range r.rooms {
		if len(room.Participants) > 0 || room.EmptySince == nil {
			continue
		}

		if now.Sub(*room.EmptySince) > r.cfg.EmptyTTL {
			delete(r.rooms, id)
			expired = append(expired, id)
		}
	}

	if len(expired) > 0 {
		metric.SetRoomsActive(len(r.rooms))
	}

	return expired
}

func (r *roomRepository) pruneCreationsLocked(now time.Time) {
	cutoff := now.Add(-time.Hour)

	kept := r.creations[:0]
	for _, t := range r.creations {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	r.creations = kept
}
