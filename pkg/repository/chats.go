package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ams29/newagent/pkg/domain"
)

type chatsRepository struct {
	db *sql.DB
}

func NewChatsRepository(db *sql.DB) *chatsRepository {
	return &chatsRepository{db: db}
}

func (c *chatsRepository) Insert(ctx context.Context, chat domain.Chat) (domain.Chat, error) {
	const query = `
		INSERT INTO chat (chat_id, user_id, coach_type)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := c.db.QueryRowContext(ctx, query, chat.ChatID, chat.UserID, chat.CoachType).
		Scan(&chat.CreatedAt)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("saving chat: %w", err)
	}

	return chat, nil
}

func (c *chatsRepository) GetByID(ctx context.Context, chatID string) (*domain.Chat, error) {
	const query = `
		SELECT chat_id, user_id, coach_type, created_at
		FROM chat
		WHERE chat_id = $1
	`

	var chat domain.Chat
	err := c.db.QueryRowContext(ctx, query, chatID).
		Scan(&chat.ChatID, &chat.UserID, &chat.CoachType, &chat.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching chat by chatID: %w", err)
	}

	return &chat, nil
}
