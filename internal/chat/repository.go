package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var ErrChatNotFound = errors.New("chat not found")

type Repository interface {
	ListChats(ctx context.Context, limit, offset int) ([]Chat, error)
	// ListMessages returns up to limit messages older than before (when
	// non-zero), newest first.
	ListMessages(ctx context.Context, chatID uuid.UUID, before int64, limit int) ([]Message, error)
	InsertMessage(ctx context.Context, m *Message) error
	SetLastMessage(ctx context.Context, chatID uuid.UUID, content string) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) ListChats(ctx context.Context, limit, offset int) ([]Chat, error) {
	query := `
		SELECT id, order_id, store_id, worker_id, title, last_message, unread_count, created_at, updated_at
		FROM chats
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]Chat, 0)
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.OrderID, &c.StoreID, &c.WorkerID, &c.Title, &c.LastMessage, &c.UnreadCount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan chat: %w", err)
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating chats: %w", err)
	}
	return chats, nil
}

func (r *postgresRepository) ListMessages(ctx context.Context, chatID uuid.UUID, before int64, limit int) ([]Message, error) {
	query := `
		SELECT id, chat_id, sender_id, sender_role, content, message_type, created_at
		FROM chat_messages
		WHERE chat_id = $1 AND ($2::bigint = 0 OR id < $2::bigint)
		ORDER BY id DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, chatID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query messages for chat %s: %w", chatID, err)
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.SenderRole, &m.Content, &m.MessageType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating messages: %w", err)
	}
	return messages, nil
}

func (r *postgresRepository) InsertMessage(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO chat_messages (chat_id, sender_id, sender_role, content, message_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	now := time.Now().UTC()
	err := r.db.QueryRow(ctx, query, m.ChatID, m.SenderID, m.SenderRole, m.Content, m.MessageType, now).Scan(&m.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrChatNotFound
		}
		return fmt.Errorf("repository: failed to insert message into chat %s: %w", m.ChatID, err)
	}
	m.CreatedAt = now
	return nil
}

func (r *postgresRepository) SetLastMessage(ctx context.Context, chatID uuid.UUID, content string) error {
	query := `UPDATE chats SET last_message = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.Exec(ctx, query, content, time.Now().UTC(), chatID); err != nil {
		return fmt.Errorf("repository: failed to update last message of chat %s: %w", chatID, err)
	}
	return nil
}
