package chat

import (
	"context"

	"github.com/allez-ride/chat-service/internal/domain"
)

// Логические имена событий, которые комната доставляет участникам.
// Транспорт (ws) оборачивает их в свой конверт.
const (
	EventRoomHistory    = "room_history"
	EventReceiveMessage = "receive_message"
	EventTypingStatus   = "typing_status"
)

// Sink — канал доставки одному подключению. Доставка best-effort:
// ошибки записи обрабатывает сам транспорт.
type Sink interface {
	Deliver(event string, payload any) error
}

// MessageStore — долговременное хранилище сообщений поездки.
type MessageStore interface {
	Append(ctx context.Context, m *domain.Message) error
	Recent(ctx context.Context, tripID string, limit int) ([]domain.Message, error)
}

type HistoryPayload struct {
	Messages []domain.Message     `json:"messages"`
	Users    []domain.Participant `json:"users"`
}

type TypingPayload struct {
	TypingUsers []domain.Participant `json:"typingUsers"`
}
