package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"
)

// Room — источник истины по одной поездке: участники, набор «печатает»,
// ограниченный кэш последних сообщений. Все мутации сериализованы mu;
// разные комнаты независимы.
type Room struct {
	tripID       string
	store        MessageStore
	historyLimit int
	storeTimeout time.Duration

	mu     sync.Mutex
	closed bool
	loaded bool
	parts  map[string]domain.Participant // connID -> участник
	sinks  map[string]Sink               // connID -> канал доставки
	typing map[string]struct{}           // connID, подмножество parts
	recent []domain.Message              // по createdAt по возрастанию, не больше historyLimit
}

func newRoom(tripID string, store MessageStore, historyLimit int, storeTimeout time.Duration) *Room {
	return &Room{
		tripID:       tripID,
		store:        store,
		historyLimit: historyLimit,
		storeTimeout: storeTimeout,
		parts:        make(map[string]domain.Participant),
		sinks:        make(map[string]Sink),
		typing:       make(map[string]struct{}),
	}
}

func (r *Room) TripID() string { return r.tripID }

// join добавляет участника и доставляет ему room_history до того, как
// будет отпущен mu: присоединившийся гарантированно получает историю
// раньше любого последующего broadcast.
func (r *Room) join(ctx context.Context, p domain.Participant, sink Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return domain.ErrRoomNotFound
	}

	if !r.loaded {
		r.loadHistory(ctx)
	}

	r.parts[p.ConnID] = p
	r.sinks[p.ConnID] = sink

	msgs := make([]domain.Message, 0, len(r.recent))
	msgs = append(msgs, r.recent...)
	_ = sink.Deliver(EventRoomHistory, HistoryPayload{
		Messages: msgs,
		Users:    r.participantsLocked(),
	})
	return nil
}

// loadHistory вызывается под mu. Недоступное хранилище — не фатально:
// комната продолжает работать с пустым кэшем, следующий join попробует снова.
func (r *Room) loadHistory(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()

	msgs, err := r.store.Recent(ctx, r.tripID, r.historyLimit)
	if err != nil {
		slog.Warn("room history load failed", "trip", r.tripID, "err", err)
		return
	}
	r.recent = msgs
	r.loaded = true
}

// Leave убирает участника и его typing-флаг. Возвращает true, если комната
// опустела — регистр по этому сигналу планирует отложенную проверку на снос.
func (r *Room) Leave(connID string) (empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.parts, connID)
	delete(r.sinks, connID)
	delete(r.typing, connID)
	return len(r.parts) == 0
}

// Send кэширует, сохраняет и рассылает сообщение всем участникам, включая
// отправителя: его UI сверяется по эху, а не по оптимистичной вставке.
// Ошибка хранилища логируется и не мешает доставке.
func (r *Room) Send(ctx context.Context, m *domain.Message) ([]domain.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, domain.ErrRoomNotFound
	}

	r.recent = append(r.recent, *m)
	if over := len(r.recent) - r.historyLimit; over > 0 {
		r.recent = r.recent[over:]
	}

	saveCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	if err := r.store.Append(saveCtx, m); err != nil {
		slog.Warn("message persist failed", "trip", r.tripID, "msg", m.ID, "err", err)
	}
	cancel()

	for _, sink := range r.sinks {
		_ = sink.Deliver(EventReceiveMessage, *m)
	}
	return r.participantsLocked(), nil
}

// SetTyping обновляет typing-набор и рассылает typing_status всем, кроме
// инициатора; сам инициатор в списке не фигурирует.
func (r *Room) SetTyping(connID string, isTyping bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.parts[connID]; !ok {
		return
	}
	if isTyping {
		r.typing[connID] = struct{}{}
	} else {
		delete(r.typing, connID)
	}

	users := make([]domain.Participant, 0, len(r.typing))
	for id := range r.typing {
		if id == connID {
			continue
		}
		users = append(users, r.parts[id])
	}

	payload := TypingPayload{TypingUsers: users}
	for id, sink := range r.sinks {
		if id == connID {
			continue
		}
		_ = sink.Deliver(EventTypingStatus, payload)
	}
}

// Participants — снапшот текущих участников (для relay-рассылки).
func (r *Room) Participants() []domain.Participant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantsLocked()
}

func (r *Room) participantsLocked() []domain.Participant {
	out := make([]domain.Participant, 0, len(r.parts))
	for _, p := range r.parts {
		out = append(out, p)
	}
	return out
}

func (r *Room) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.parts) == 0
}
