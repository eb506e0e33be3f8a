package ws

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/allez-ride/chat-service/internal/chat"
	"github.com/allez-ride/chat-service/internal/domain"
	"github.com/allez-ride/chat-service/pkg/logger"

	"github.com/google/uuid"
)

type Notifier interface {
	NotifyRecipients(ctx context.Context, m *domain.Message, parts []domain.Participant)
}

// Session — состояние одного подключения: Connecting -> Joined -> Disconnected.
// Всё состояние приватно для соединения; побочные эффекты уходят только
// в его комнату.
type Session struct {
	connID   string
	sink     chat.Sink
	registry *chat.Registry
	notify   Notifier

	typingIdle time.Duration
	maxMsgLen  int

	mu          sync.Mutex
	room        *chat.Room
	participant domain.Participant
	typing      bool
	typingTimer *time.Timer

	leaveOnce sync.Once
}

func newSession(sink chat.Sink, registry *chat.Registry, notify Notifier, typingIdle time.Duration, maxMsgLen int) *Session {
	if typingIdle <= 0 {
		typingIdle = time.Second
	}
	if maxMsgLen <= 0 {
		maxMsgLen = 4000
	}
	return &Session{
		connID:     uuid.NewString(),
		sink:       sink,
		registry:   registry,
		notify:     notify,
		typingIdle: typingIdle,
		maxMsgLen:  maxMsgLen,
	}
}

func (s *Session) Handle(ctx context.Context, msg Message) {
	switch msg.Type {
	case TypeJoinRoom:
		var p JoinPayload
		if decode(msg.Payload, &p) == nil {
			s.handleJoin(ctx, p)
		}
	case TypeSendMessage:
		var p SendPayload
		if decode(msg.Payload, &p) == nil {
			s.handleSend(ctx, p)
		}
	case TypeTypingStart, TypeTypingStop:
		var p TypingEventPayload
		if decode(msg.Payload, &p) == nil {
			s.handleTyping(p.TripID, msg.Type == TypeTypingStart)
		}
	default:
		slog.Debug("ws unknown event", "conn", s.connID, "type", msg.Type)
	}
}

// handleJoin: все три поля обязательны — иначе конфигурационная ошибка,
// соединение не попадает ни в одну комнату.
func (s *Session) handleJoin(ctx context.Context, p JoinPayload) {
	if p.TripID == "" || p.UserID == "" || p.Role == "" {
		s.reject(domain.ErrMissingJoinFields)
		return
	}
	if !p.Role.Valid() {
		s.reject(domain.ErrInvalidRole)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room != nil {
		slog.Debug("ws duplicate join ignored", "conn", s.connID, "trip", p.TripID)
		return
	}

	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		name = p.Role.DefaultName()
	}
	participant := domain.Participant{
		ConnID:      s.connID,
		TripID:      p.TripID,
		UserID:      p.UserID,
		Role:        p.Role,
		DisplayName: name,
	}

	room, err := s.registry.Join(ctx, participant, s.sink)
	if err != nil {
		s.reject(err)
		return
	}
	s.room = room
	s.participant = participant
	logger.With(ctx).Info("ws joined", "conn", s.connID, "trip", p.TripID, "user", p.UserID, "role", p.Role)
}

func (s *Session) handleSend(ctx context.Context, p SendPayload) {
	s.mu.Lock()
	room := s.room
	participant := s.participant
	s.mu.Unlock()

	if room == nil || room.TripID() != p.TripID {
		slog.Debug("ws send without membership", "conn", s.connID, "trip", p.TripID)
		return
	}

	text := strings.TrimSpace(p.Text)
	if text == "" {
		s.reject(domain.ErrEmptyMessage)
		return
	}
	if len(text) > s.maxMsgLen {
		s.reject(domain.ErrMessageTooLong)
		return
	}

	// Отправка выводит из состояния Typing.
	s.handleTyping(p.TripID, false)

	m := &domain.Message{
		ID:          uuid.NewString(),
		TripID:      p.TripID,
		SenderID:    participant.UserID,
		Role:        participant.Role,
		DisplayName: participant.DisplayName,
		Text:        text,
		CreatedAt:   time.Now().UTC(),
		DriverID:    p.DriverID,
		RiderID:     p.RiderID,
	}

	parts, err := room.Send(ctx, m)
	if err != nil {
		slog.Debug("ws send to evicted room", "conn", s.connID, "trip", p.TripID)
		return
	}

	if s.notify != nil {
		s.notify.NotifyRecipients(ctx, m, parts)
	}
}

// handleTyping дебаунсит поток нажатий: наружу уходит только передний
// фронт, затухание — по typing_stop либо по таймеру простоя.
func (s *Session) handleTyping(tripID string, isTyping bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.room
	if room == nil || room.TripID() != tripID {
		slog.Debug("ws typing for unknown trip", "conn", s.connID, "trip", tripID)
		return
	}

	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}

	if isTyping {
		if !s.typing {
			s.typing = true
			room.SetTyping(s.connID, true)
		}
		s.typingTimer = time.AfterFunc(s.typingIdle, s.typingTimeout)
		return
	}

	if s.typing {
		s.typing = false
		room.SetTyping(s.connID, false)
	}
}

func (s *Session) typingTimeout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.room == nil || !s.typing {
		return
	}
	s.typing = false
	s.typingTimer = nil
	s.room.SetTyping(s.connID, false)
}

// Leave идемпотентен: сколько бы раз транспорт ни сигналил закрытие,
// комната увидит ровно один уход, а typing-таймер будет погашен.
func (s *Session) Leave() {
	s.leaveOnce.Do(func() {
		s.mu.Lock()
		if s.typingTimer != nil {
			s.typingTimer.Stop()
			s.typingTimer = nil
		}
		room := s.room
		s.room = nil
		s.mu.Unlock()

		if room != nil {
			s.registry.Leave(room.TripID(), s.connID)
			slog.Info("ws left", "conn", s.connID, "trip", room.TripID())
		}
	})
}

func (s *Session) reject(err error) {
	slog.Debug("ws event rejected", "conn", s.connID, "err", err)
	_ = s.sink.Deliver(TypeError, ErrorPayload{Error: err.Error()})
}
