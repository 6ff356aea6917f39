package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrRecipientNotFound    = errors.New("recipient not found")
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error)
	Insert(ctx context.Context, n *Notification) error
	// SetRead only touches rows owned by userID.
	SetRead(ctx context.Context, id, userID uuid.UUID, read bool) (*Notification, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const columns = `id, user_id, type, title, body, entity_id, read, created_at`

func scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.EntityID, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Notification, error) {
	query := `SELECT ` + columns + `
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query notifications for %s: %w", userID, err)
	}
	defer rows.Close()

	notifications := make([]Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan notification: %w", err)
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating notifications: %w", err)
	}
	return notifications, nil
}

func (r *postgresRepository) Insert(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate notification id: %w", err)
		}
		n.ID = id
	}
	n.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO notifications (id, user_id, type, title, body, entity_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Body, n.EntityID, n.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return ErrRecipientNotFound
		}
		return fmt.Errorf("repository: failed to insert notification: %w", err)
	}
	n.Read = false
	return nil
}

func (r *postgresRepository) SetRead(ctx context.Context, id, userID uuid.UUID, read bool) (*Notification, error) {
	query := `UPDATE notifications SET read = $1 WHERE id = $2 AND user_id = $3 RETURNING ` + columns

	n, err := scanNotification(r.db.QueryRow(ctx, query, read, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("repository: failed to update notification %s: %w", id, err)
	}
	return n, nil
}
