package domain

import (
	"crypto/rand"
	"encoding/base64"
)

// NewRoomID returns a short URL-safe random room identifier.
// Six random bytes give a 2^48 space, enough to make collisions negligible
// at the room counts this process is allowed to hold.
func NewRoomID() string {
	return NewSecret(6)
}

// NewSecret returns n random bytes encoded as unpadded base64url.
func NewSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}

	return base64.RawURLEncoding.EncodeToString(buf)
}
