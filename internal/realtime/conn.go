package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// Time allowed to write an event to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size.
	maxFrameSize = 8 * 1024

	// Outbound queue depth per connection. A peer that cannot drain
	// this many events is treated as dead.
	sendQueueSize = 64
)

// ErrConnClosed is returned by Push once a connection is shutting down
// or its outbound queue is full.
var ErrConnClosed = errors.New("connection closed")

// Pusher is the handle fan-out components push events through. It is
// satisfied by *Conn and by test fakes.
type Pusher interface {
	UserID() uuid.UUID
	Push(event string, data any) error
}

// Conn wraps one live websocket with a buffered outbound queue. The
// write pump is the only goroutine that touches the socket for writes,
// so Push is safe from any goroutine.
type Conn struct {
	userID uuid.UUID
	ws     *websocket.Conn
	send   chan Event
	done   chan struct{}
	once   sync.Once
	logger zerolog.Logger
}

func newConn(userID uuid.UUID, ws *websocket.Conn, logger zerolog.Logger) *Conn {
	return &Conn{
		userID: userID,
		ws:     ws,
		send:   make(chan Event, sendQueueSize),
		done:   make(chan struct{}),
		logger: logger.With().Str("user_id", userID.String()).Logger(),
	}
}

// UserID returns the identity bound to this connection.
func (c *Conn) UserID() uuid.UUID {
	return c.userID
}

// Push queues an event for delivery. It never blocks: a full queue
// means the peer stopped draining, and the push fails like a push to a
// dead connection would.
func (c *Conn) Push(event string, data any) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}

	select {
	case c.send <- Event{Name: event, Data: data}:
		return nil
	default:
		return ErrConnClosed
	}
}

// close stops the write pump and closes the socket. Safe to call more
// than once.
func (c *Conn) close() {
	c.once.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// writePump serializes queued events onto the socket and keeps the
// connection alive with pings. Runs in its own goroutine per
// connection; exits on the first write error or on close.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(ev); err != nil {
				c.logger.Debug().Err(err).Str("event", ev.Name).Msg("write failed, dropping connection")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
