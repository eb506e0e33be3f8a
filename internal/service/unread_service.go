package service

import (
	"context"
	"log/slog"
	"time"
)

// UnreadStore — срез хранилища, нужный калькулятору.
type UnreadStore interface {
	CountOthersSince(ctx context.Context, tripID, userID string, since time.Time) (int, error)
}

// UnreadService считает «непрочитанные» как количество чужих несистемных
// сообщений поездки за окно lookback. Это приближение без read-receipt-ов:
// известное и принятое упрощение, а не баг.
type UnreadService struct {
	store   UnreadStore
	window  time.Duration
	timeout time.Duration
}

const (
	unreadCap      = 99 // потолок для бейджей UI
	unreadFallback = 1  // чтобы при недоступном хранилище бейджи не замирали
)

func NewUnreadService(store UnreadStore, window, timeout time.Duration) *UnreadService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &UnreadService{store: store, window: window, timeout: timeout}
}

// Count возвращает значение в [0, 99]. Ошибка или таймаут хранилища дают
// fallback 1 — доступность важнее точности, relay должен сработать.
func (s *UnreadService) Count(ctx context.Context, tripID, userID string) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.store.CountOthersSince(ctx, tripID, userID, time.Now().Add(-s.window))
	if err != nil {
		slog.Warn("unread count failed, using fallback", "trip", tripID, "user", userID, "err", err)
		return unreadFallback
	}
	if n < 0 {
		return 0
	}
	if n > unreadCap {
		return unreadCap
	}
	return n
}
