package domain

import "time"

type Message struct {
	ID          string    `json:"id,omitempty" db:"id"`
	TripID      string    `json:"tripId" db:"trip_id"`
	SenderID    string    `json:"senderId" db:"user_id"`
	Role        Role      `json:"senderRole" db:"user_type"`
	DisplayName string    `json:"displayName,omitempty" db:"first_name"`
	Text        string    `json:"message" db:"message"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	IsSystem    bool      `json:"isSystem" db:"is_system"`

	// Подсказки для админских уведомлений: идентификаторы сторон поездки,
	// даже если одна из них сейчас не подключена.
	DriverID string `json:"driverId,omitempty" db:"-"`
	RiderID  string `json:"riderId,omitempty" db:"-"`
}
