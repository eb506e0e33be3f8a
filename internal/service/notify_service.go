package service

import (
	"context"
	"log/slog"

	"github.com/allez-ride/chat-service/internal/domain"
	"github.com/allez-ride/chat-service/internal/relay"
)

type RelaySender interface {
	Send(ctx context.Context, u relay.CountUpdate) error
}

type UnreadCounter interface {
	Count(ctx context.Context, tripID, userID string) int
}

// NotifyService рассылает count-update всем получателям сообщения.
// Каждый получатель — отдельная горутина с изолированной обработкой
// ошибок: упавший вызов не трогает соседей и не мешает доставке чата.
type NotifyService struct {
	relay  RelaySender
	unread UnreadCounter
}

func NewNotifyService(relay RelaySender, unread UnreadCounter) *NotifyService {
	return &NotifyService{relay: relay, unread: unread}
}

type recipient struct {
	userID string
	role   domain.Role
}

// NotifyRecipients — fire-and-forget относительно запроса отправителя.
// Получатели — участники комнаты, кроме автора; для админских сообщений
// дополнительно водитель и пассажир поездки, даже если их нет в комнате.
func (s *NotifyService) NotifyRecipients(ctx context.Context, m *domain.Message, parts []domain.Participant) {
	recipients := make([]recipient, 0, len(parts)+2)
	seen := make(map[string]struct{}, len(parts)+2)

	add := func(userID string, role domain.Role) {
		if userID == "" || userID == m.SenderID {
			return
		}
		if _, ok := seen[userID]; ok {
			return
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, recipient{userID: userID, role: role})
	}

	for _, p := range parts {
		add(p.UserID, p.Role)
	}
	if m.Role == domain.RoleAdmin {
		add(m.DriverID, domain.RoleDriver)
		add(m.RiderID, domain.RoleRider)
		if m.DriverID == "" || m.RiderID == "" {
			slog.Debug("admin message without full trip party ids", "trip", m.TripID, "msg", m.ID)
		}
	}

	// Отвязываемся от запроса отправителя: дисконнект не отменяет relay.
	ctx = context.WithoutCancel(ctx)
	for _, rcp := range recipients {
		go s.notifyOne(ctx, m, rcp)
	}
}

func (s *NotifyService) notifyOne(ctx context.Context, m *domain.Message, rcp recipient) {
	count := s.unread.Count(ctx, m.TripID, rcp.userID)

	err := s.relay.Send(ctx, relay.CountUpdate{
		TripID:        m.TripID,
		RecipientID:   rcp.userID,
		RecipientType: relay.ExternalRole(rcp.role),
		Count:         count,
		SenderID:      m.SenderID,
		SenderType:    relay.ExternalRole(m.Role),
	})
	if err != nil {
		slog.Warn("count update relay failed", "trip", m.TripID, "recipient", rcp.userID, "err", err)
	}
}
