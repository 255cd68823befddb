package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant is one room member. The connection id is a back-reference
// into the connection registry, which stays the owner of the transport.
type Participant struct {
	ConnID    uuid.UUID `json:"conn_id"`
	Name      string    `json:"name"`
	MemberKey string    `json:"-"`
	Muted     bool      `json:"muted"`
	Deafened  bool      `json:"deafened"`
	Sharing   bool      `json:"sharing"`
	Avatar    string    `json:"avatar,omitempty"`
	JoinedAt  time.Time `json:"joined_at"`
}
