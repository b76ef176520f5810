package websocket

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playsquare/gamesession-backend/internal/room"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var (
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSendBufferFull   = errors.New("send buffer is full")
)

// Conn wraps one client socket. All writes go through a single pump
// goroutine fed by a buffered channel, so concurrent broadcasts never
// interleave frames on the wire.
type Conn struct {
	id     string
	logger *slog.Logger
	socket *websocket.Conn
	send   chan room.Event

	mu     sync.Mutex
	closed bool
}

func newConn(logger *slog.Logger, socket *websocket.Conn) *Conn {
	conn := &Conn{
		id:     uuid.NewString(),
		logger: logger,
		socket: socket,
		send:   make(chan room.Event, sendBufferSize),
	}

	go conn.writePump()

	return conn
}

func (that *Conn) ID() string {
	return that.id
}

// Send queues event for delivery. It never blocks: a client that stopped
// draining its socket loses events rather than stalling the sender.
func (that *Conn) Send(event room.Event) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return ErrConnectionClosed
	}

	select {
	case that.send <- event:
		return nil
	default:
		that.logger.Warn("send buffer full, dropping event", "connID", that.id, "action", event.Action)
		return ErrSendBufferFull
	}
}

func (that *Conn) writePump() {
	for event := range that.send {
		_ = that.socket.SetWriteDeadline(time.Now().Add(writeWait))

		if err := that.socket.WriteJSON(event); err != nil {
			that.logger.Debug("failed to write event", "connID", that.id, "error", err)
		}
	}

	_ = that.socket.Close()
}

func (that *Conn) close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}
