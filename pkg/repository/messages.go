package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ams29/newagent/pkg/domain"
)

type messagesRepository struct {
	db *sql.DB
}

func NewMessagesRepository(db *sql.DB) *messagesRepository {
	return &messagesRepository{db: db}
}

// Insert persists a message and returns it with the store-assigned creation
// timestamp filled in.
func (m *messagesRepository) Insert(ctx context.Context, msg domain.Message) (domain.Message, error) {
	const query = `
		INSERT INTO message (message_id, chat_id, user_id, role, content, "order", "like")
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := m.db.QueryRowContext(ctx, query,
		msg.MessageID, msg.ChatID, msg.UserID, msg.Role, msg.Content, msg.Order, msg.Like).
		Scan(&msg.CreatedAt)
	if err != nil {
		return domain.Message{}, fmt.Errorf("saving message: %w", err)
	}

	return msg, nil
}

// GetByChatAndUser returns all messages of one chat owned by one user, in
// store order. Callers sort by creation time for display.
func (m *messagesRepository) GetByChatAndUser(ctx context.Context, chatID, userID string) ([]domain.Message, error) {
	const query = `
		SELECT message_id, chat_id, user_id, role, content, "order", "like", created_at
		FROM message
		WHERE chat_id = $1 AND user_id = $2
	`

	rows, err := m.db.QueryContext(ctx, query, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("fetching messages by chatID and userID: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(&msg.MessageID, &msg.ChatID, &msg.UserID, &msg.Role,
			&msg.Content, &msg.Order, &msg.Like, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

// UpdateLike overwrites the reaction of a message. Repeating the same value is
// a no-op at the store level.
func (m *messagesRepository) UpdateLike(ctx context.Context, messageID string, like int) error {
	const query = `
		UPDATE message
		SET "like" = $2
		WHERE message_id = $1
	`

	res, err := m.db.ExecContext(ctx, query, messageID, like)
	if err != nil {
		return fmt.Errorf("updating message like: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	return nil
}
