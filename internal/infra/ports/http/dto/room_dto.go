package dto

import "time"

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateRoomRequest struct {
	Token string `json:"token"`
}

type CreateRoomResponse struct {
	RoomID   string `json:"room_id"`
	AdminKey string `json:"admin_key"`
}

type RoomInfoResponse struct {
	RoomID       string    `json:"room_id"`
	Participants int       `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}
