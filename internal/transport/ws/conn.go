package ws

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Вместимость исходящего буфера на соединение. Клиент, отставший сильнее,
// считается безнадёжным, и лишние события отбрасываются.
const outboxSize = 64

var (
	errConnClosed = errors.New("ws: connection closed")
	errOutboxFull = errors.New("ws: outbox full")
)

// wsConn буферизует исходящие события: рассылка комнаты лишь ставит
// сообщение в очередь, записью в сокет занимается writeLoop.
type wsConn struct {
	conn      *websocket.Conn
	send      chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn) *wsConn {
	return &wsConn{
		conn:   c,
		send:   make(chan Message, outboxSize),
		closed: make(chan struct{}),
	}
}

// Deliver реализует chat.Sink: события комнаты уходят в сокет как есть.
func (c *wsConn) Deliver(event string, payload any) error {
	return c.Send(Message{Type: event, Payload: payload})
}

// Send никогда не блокируется на медленном сокете.
func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		slog.Debug("ws outbox full, dropping event", "type", msg.Type)
		return errOutboxFull
	}
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })

	return c.conn.Close()
}
