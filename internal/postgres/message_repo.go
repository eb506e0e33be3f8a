package postgres

import (
	"context"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository — хранилище сообщений поездки. Срок жизни сообщений (ttl)
// учитывается и при чтении, чтобы отставший sweep не поднимал просроченную историю.
type MessageRepository struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewMessageRepository(db *pgxpool.Pool, ttl time.Duration) *MessageRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MessageRepository{db: db, ttl: ttl}
}

func (r *MessageRepository) Append(ctx context.Context, m *domain.Message) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO trip_messages (id, trip_id, user_id, user_type, first_name, message, is_system, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TripID, m.SenderID, string(m.Role), m.DisplayName, m.Text, m.IsSystem, m.CreatedAt)
	return err
}

// Recent возвращает последние limit несистемных сообщений поездки,
// отсортированные от старых к новым.
func (r *MessageRepository) Recent(ctx context.Context, tripID string, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, trip_id, user_id, user_type, first_name, message, is_system, created_at
		FROM (
			SELECT id, trip_id, user_id, user_type, first_name, message, is_system, created_at
			FROM trip_messages
			WHERE trip_id = $1
			  AND NOT is_system
			  AND created_at >= $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC, id ASC
	`, tripID, time.Now().Add(-r.ttl), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var role string
		if err := rows.Scan(&m.ID, &m.TripID, &m.SenderID, &role, &m.DisplayName, &m.Text, &m.IsSystem, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = domain.Role(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountOthersSince считает несистемные сообщения поездки от всех, кроме userID,
// начиная с момента since.
func (r *MessageRepository) CountOthersSince(ctx context.Context, tripID, userID string, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM trip_messages
		WHERE trip_id = $1
		  AND user_id <> $2
		  AND NOT is_system
		  AND created_at >= $3
	`, tripID, userID, since).Scan(&count)
	return count, err
}

// DeleteExpired удаляет сообщения старше ttl. Замена TTL-индекса исходного
// хранилища: вызывается периодически фоновым sweeper-ом.
func (r *MessageRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trip_messages WHERE created_at < $1`, time.Now().Add(-r.ttl))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
