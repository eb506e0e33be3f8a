package ws

import "github.com/allez-ride/chat-service/internal/domain"

// Типы входящих событий соединения. Исходящие (room_history,
// receive_message, typing_status) именует пакет chat.
const (
	TypeJoinRoom    = "join_room"
	TypeSendMessage = "send_message"
	TypeTypingStart = "typing_start"
	TypeTypingStop  = "typing_stop"

	TypeError = "error"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type JoinPayload struct {
	TripID      string      `json:"tripId"`
	UserID      string      `json:"userId"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"displayName,omitempty"`
}

type SendPayload struct {
	TripID string `json:"tripId"`

	// Клиенты дублируют свою идентичность в каждом send_message; сервер
	// доверяет только данным, зафиксированным при join_room.
	UserID      string      `json:"userId"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"displayName,omitempty"`
	Text        string      `json:"message"`

	// Идентификаторы сторон поездки для админских сообщений.
	DriverID string `json:"driverId,omitempty"`
	RiderID  string `json:"riderId,omitempty"`
}

type TypingEventPayload struct {
	TripID string `json:"tripId"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
