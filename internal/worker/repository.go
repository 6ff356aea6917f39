package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var (
	ErrWorkerNotFound = errors.New("worker not found")
	// ErrWorkerUnavailable is returned by Reserve when the worker was taken
	// between the caller's check and the conditional update.
	ErrWorkerUnavailable = errors.New("worker is not available")
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Worker, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Worker, error)
	Create(ctx context.Context, w *Worker) error
	Update(ctx context.Context, w *Worker) error
	Delete(ctx context.Context, id uuid.UUID) error
	Reserve(ctx context.Context, id uuid.UUID, currentTask string) (*Worker, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const workerSelect = `
	SELECT w.id, w.profile_id, w.profile_name, a.name, a.email, w.specialty, w.description,
		w.hourly_rate, w.badges, w.rating, w.completed_jobs, w.is_available, w.current_task,
		w.created_at, w.updated_at
	FROM service_workers w
	LEFT JOIN accounts a ON a.id = w.profile_id`

func scanWorker(row pgx.Row) (*Worker, error) {
	var w Worker
	err := row.Scan(
		&w.ID,
		&w.ProfileID,
		&w.ProfileName,
		&w.AccountName,
		&w.AccountEmail,
		&w.Specialty,
		&w.Description,
		&w.HourlyRate,
		&w.Badges,
		&w.Rating,
		&w.CompletedJobs,
		&w.IsAvailable,
		&w.CurrentTask,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if w.Badges == nil {
		w.Badges = make([]string, 0)
	}
	return &w, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Worker, error) {
	query := workerSelect + `
		WHERE ($1::text = '' OR w.specialty ILIKE '%' || $1::text || '%')
			AND ($2::boolean IS NULL OR w.is_available = $2)
		ORDER BY w.created_at DESC
		LIMIT $3 OFFSET $4`

	var limit *int
	offset := 0
	if filter.Limit > 0 {
		limit = &filter.Limit
		offset = db.Offset(filter.Page, filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, filter.Specialty, filter.Available, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query workers: %w", err)
	}
	defer rows.Close()

	workers := make([]Worker, 0)
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan worker: %w", err)
		}
		workers = append(workers, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating workers: %w", err)
	}
	return workers, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Worker, error) {
	w, err := scanWorker(r.db.QueryRow(ctx, workerSelect+` WHERE w.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("repository: failed to select worker %s: %w", id, err)
	}
	return w, nil
}

func (r *postgresRepository) Create(ctx context.Context, w *Worker) error {
	if w.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate worker id: %w", err)
		}
		w.ID = id
	}
	if w.Badges == nil {
		w.Badges = make([]string, 0)
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO service_workers (id, profile_id, profile_name, specialty, description, hourly_rate,
			badges, is_available, current_task, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`
	_, err := r.db.Exec(ctx, query,
		w.ID,
		w.ProfileID,
		w.ProfileName,
		w.Specialty,
		w.Description,
		w.HourlyRate,
		w.Badges,
		w.IsAvailable,
		w.CurrentTask,
		now,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert worker: %w", err)
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, w *Worker) error {
	now := time.Now().UTC()
	query := `
		UPDATE service_workers
		SET profile_name = $1, specialty = $2, description = $3, hourly_rate = $4, badges = $5,
			is_available = $6, current_task = $7, updated_at = $8
		WHERE id = $9
	`
	cmdTag, err := r.db.Exec(ctx, query,
		w.ProfileName,
		w.Specialty,
		w.Description,
		w.HourlyRate,
		w.Badges,
		w.IsAvailable,
		w.CurrentTask,
		now,
		w.ID,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to update worker %s: %w", w.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		log.Warn().Stringer("worker_id", w.ID).Msg("repository: worker not found for update")
		return ErrWorkerNotFound
	}
	w.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM service_workers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete worker %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrWorkerNotFound
	}
	return nil
}

// Reserve marks an available worker as busy with currentTask. The update is
// conditional on is_available so two assignments cannot book the same worker.
func (r *postgresRepository) Reserve(ctx context.Context, id uuid.UUID, currentTask string) (*Worker, error) {
	query := `
		UPDATE service_workers
		SET is_available = FALSE, current_task = $1, updated_at = $2
		WHERE id = $3 AND is_available
	`
	cmdTag, err := r.db.Exec(ctx, query, currentTask, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to reserve worker %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrWorkerNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, ErrWorkerUnavailable
	}
	return r.GetByID(ctx, id)
}
