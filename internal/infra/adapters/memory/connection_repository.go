package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/voxroom/voxroom/internal/application/metric"
	"github.com/voxroom/voxroom/internal/domain/events"
)

// Sender is the narrow transport contract the core sees. Send is
// fire-and-forget: a closed or backed-up transport drops the message and
// reports false, it is never awaited.
type Sender interface {
	Send(msg events.Message) bool
}

// ConnectionEntry binds an opaque connection id to its transport handle
// and current room, if any.
type ConnectionEntry struct {
	ID        uuid.UUID
	Sender    Sender
	RoomID    string
	Name      string
	MemberKey string
}

// ConnectionRepository is the in-memory Connection Registry.
type ConnectionRepository interface {
	Add(id uuid.UUID, sender Sender)

	// Get returns a copy of the entry; mutations go through Bind/Unbind.
	Get(id uuid.UUID) (ConnectionEntry, bool)

	// Bind records the room membership of a connection.
	Bind(id uuid.UUID, roomID, name, memberKey string)

	// Unbind clears the room membership, keeping the connection alive.
	Unbind(id uuid.UUID)

	Remove(id uuid.UUID)

	// Send delivers msg to the connection if it is registered, dropping
	// it silently otherwise.
	Send(id uuid.UUID, msg events.Message)
}

type connectionRepository struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*ConnectionEntry
}

func NewConnectionRepository() ConnectionRepository {
	return &connectionRepository{
		conns: make(map[uuid.UUID]*ConnectionEntry),
	}
}

func (c *connectionRepository) Add(id uuid.UUID, sender Sender) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conns[id] = &ConnectionEntry{ID: id, Sender: sender}

	metric.IncrementWSActiveConnections()
}

func (c *connectionRepository) Get(id uuid.UUID) (ConnectionEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.conns[id]
	if !ok {
		return ConnectionEntry{}, false
	}

	return *entry, true
}

func (c *connectionRepository) Bind(id uuid.UUID, roomID, name, memberKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.conns[id]; ok {
		entry.RoomID = roomID
		entry.Name = name
		entry.MemberKey = memberKey
	}
}

func (c *connectionRepository) Unbind(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.conns[id]; ok {
		entry.RoomID = ""
		entry.Name = ""
		entry.MemberKey = ""
	}
}

func (c *connectionRepository) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.conns[id]; ok {
		delete(c.conns, id)

		metric.DecrementWSActiveConnections()
	}
}

func (c *connectionRepository) Send(id uuid.UUID, msg events.Message) {
	c.mu.RLock()
	entry, ok := c.conns[id]
	c.mu.RUnlock()

	if !ok {
		return
	}

	entry.Sender.Send(msg)
}
