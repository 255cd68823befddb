package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is immutable once appended. Name is snapshotted at send
// time; it does not follow later nickname changes.
type ChatMessage struct {
	ID     uuid.UUID `json:"id"`
	From   uuid.UUID `json:"from"`
	Name   string    `json:"name"`
	Text   string    `json:"text"`
	Image  string    `json:"image,omitempty"`
	SentAt time.Time `json:"sent_at"`
}
