package usecase

import (
	"crypto/subtle"
	"fmt"

	"github.com/voxroom/voxroom/internal/domain"
	"github.com/voxroom/voxroom/internal/guard"
	"github.com/voxroom/voxroom/internal/infra/adapters/memory"
)

// RoomUsecase gates room creation behind the abuse guard and exposes the
// lookups the HTTP front door needs.
type RoomUsecase interface {
	// IssueToken hands out a single-use anti-forgery token. Blocked
	// addresses are refused outright.
	IssueToken(addr string) (string, error)

	// CreateRoom spends the token and, if the guard approves, registers
	// a new room. The admin key in the result is returned to the creator
	// once and never re-derivable.
	CreateRoom(token, addr string, meta guard.RequestMetadata) (*domain.Room, error)

	// GetRoom returns a snapshot of the room, taken under the same
	// exclusion the socket handlers use.
	GetRoom(roomID string) (RoomInfo, bool)

	// DeleteRoom tears down a room when the caller presents its admin
	// key. Members get a room-closed notice.
	DeleteRoom(roomID, adminKey string) error
}

type roomUsecase struct {
	guard     *guard.Guard
	rooms     memory.RoomRepository
	signaling SignalingUsecase
}

func NewRoomUsecase(g *guard.Guard, rooms memory.RoomRepository, signaling SignalingUsecase) RoomUsecase {
	return &roomUsecase{
		guard:     g,
		rooms:     rooms,
		signaling: signaling,
	}
}

func (u *roomUsecase) IssueToken(addr string) (string, error) {
	if u.guard.IsBlocked(addr) {
		return "", domain.ErrForbidden
	}

	return u.guard.IssueToken(addr), nil
}

func (u *roomUsecase) CreateRoom(token, addr string, meta guard.RequestMetadata) (*domain.Room, error) {
	switch result := u.guard.ConsumeToken(token, addr, meta); result {
	case guard.ResultOK:
	case guard.ResultRateLimited:
		return nil, domain.ErrRateLimited
	default:
		return nil, fmt.Errorf("%w: token %s", domain.ErrForbidden, result)
	}

	room, err := u.rooms.Create()
	if err != nil {
		return nil, fmt.Errorf("create room: %w", err)
	}

	return room, nil
}

func (u *roomUsecase) GetRoom(roomID string) (RoomInfo, bool) {
	return u.signaling.RoomInfo(roomID)
}

func (u *roomUsecase) DeleteRoom(roomID, adminKey string) error {
	room, ok := u.rooms.Get(roomID)
	if !ok {
		return domain.ErrRoomNotFound
	}

	if subtle.ConstantTimeCompare([]byte(room.AdminKey), []byte(adminKey)) != 1 {
		return domain.ErrForbidden
	}

	u.signaling.CloseRoom(roomID)

	return nil
}
