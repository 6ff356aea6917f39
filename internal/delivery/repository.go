package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var ErrTaskNotFound = errors.New("delivery task not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, filter Filter) ([]Task, error)
	Accept(ctx context.Context, id, driverID uuid.UUID) (*Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Task, error)
	Touch(ctx context.Context, id uuid.UUID) (*Task, error)
	CountDelivered(ctx context.Context, filter EarningsFilter) (int, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const taskColumns = `id, order_id, driver_id, status, created_at, updated_at`

func scanTask(row pgx.Row) (*Task, error) {
	var t Task
	if err := row.Scan(&t.ID, &t.OrderID, &t.DriverID, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := scanTask(r.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM delivery_tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("repository: failed to select delivery task %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM delivery_tasks
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.Limit, db.Offset(filter.Page, filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query delivery tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan delivery task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating delivery tasks: %w", err)
	}
	return tasks, nil
}

func (r *postgresRepository) updateReturning(ctx context.Context, id uuid.UUID, set string, args ...any) (*Task, error) {
	args = append(args, time.Now().UTC(), id)
	query := fmt.Sprintf(`UPDATE delivery_tasks SET %s updated_at = $%d WHERE id = $%d RETURNING %s`,
		set, len(args)-1, len(args), taskColumns)

	t, err := scanTask(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("repository: failed to update delivery task %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresRepository) Accept(ctx context.Context, id, driverID uuid.UUID) (*Task, error) {
	return r.updateReturning(ctx, id, `driver_id = $1, status = $2,`, driverID, string(StatusAssigned))
}

func (r *postgresRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status) (*Task, error) {
	return r.updateReturning(ctx, id, `status = $1,`, string(status))
}

func (r *postgresRepository) Touch(ctx context.Context, id uuid.UUID) (*Task, error) {
	return r.updateReturning(ctx, id, ``)
}

func (r *postgresRepository) CountDelivered(ctx context.Context, filter EarningsFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM delivery_tasks
		WHERE status = $1
			AND ($2::uuid IS NULL OR driver_id = $2)
			AND ($3::timestamptz IS NULL OR updated_at >= $3)
	`
	var count int
	if err := r.db.QueryRow(ctx, query, string(StatusDelivered), filter.DriverID, filter.Since).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count delivered tasks: %w", err)
	}
	return count, nil
}
