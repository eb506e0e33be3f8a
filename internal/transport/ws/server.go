package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/allez-ride/chat-service/internal/chat"

	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	registry *chat.Registry
	notify   Notifier

	typingIdle time.Duration
	maxMsgLen  int
	pingEvery  time.Duration
}

func NewServer(registry *chat.Registry, notify Notifier, typingIdle time.Duration, maxMsgLen int) *Server {
	return &Server{
		registry: registry,
		notify:   notify,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		typingIdle: typingIdle,
		maxMsgLen:  maxMsgLen,
		pingEvery:  15 * time.Second,
	}
}

// WS endpoint: GET /ws/chat. Идентификация приходит событием join_room,
// а не параметрами URL.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn)
	sess := newSession(c, s.registry, s.notify, s.typingIdle, s.maxMsgLen)

	go s.writeLoop(c)
	s.readLoop(r, c, sess)

	// Транспорт может сигналить закрытие не один раз — Leave идемпотентен.
	sess.Leave()

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "err", err)
	}
}

func (s *Server) readLoop(r *http.Request, c *wsConn, sess *Session) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		sess.Handle(r.Context(), msg)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
