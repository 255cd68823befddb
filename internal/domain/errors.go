package domain

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomCapacity = errors.New("room capacity reached")
	ErrRateLimited  = errors.New("rate limited")
	ErrForbidden    = errors.New("forbidden")
)
