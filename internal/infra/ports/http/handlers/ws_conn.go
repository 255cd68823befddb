package handlers

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/voxroom/voxroom/internal/domain/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 64
)

// wsConn adapts a gorilla connection to the core's Sender contract. All
// writes go through a buffered channel drained by writePump, so Send
// never waits on the network.
type wsConn struct {
	conn *websocket.Conn

	send chan events.Message
	done chan struct{}
	once sync.Once
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan events.Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// Send queues msg for delivery. A full buffer or a closed connection
// drops the message and reports false.
func (c *wsConn) Send(msg events.Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *wsConn) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
