package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"pulsechat/internal/app/db"
	"pulsechat/internal/app/message"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an initialized pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// AppendMessage inserts one message row.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg message.Message) error {
	const q = `
		INSERT INTO messages (id, text, author, avatar, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q, msg.ID, msg.Text, msg.Author, msg.Avatar, msg.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("message %s already persisted: %w", msg.ID, err)
		}
		return fmt.Errorf("failed to append message: %w", err)
	}

	return nil
}

// FetchRecent returns up to limit messages, newest first.
func (s *PostgresStore) FetchRecent(ctx context.Context, limit int) ([]message.Message, error) {
	const q = `
		SELECT id, text, author, avatar, created_at
		FROM messages
		ORDER BY created_at DESC, id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent messages: %w", err)
	}
	defer rows.Close()

	messages := make([]message.Message, 0, limit)
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.Text, &m.Author, &m.Avatar, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read message rows: %w", err)
	}

	return messages, nil
}
