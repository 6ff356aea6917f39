package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var (
	ErrJobNotFound    = errors.New("job not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrWorkerNotFound = errors.New("worker not found")
	// ErrJobNotQuotable is returned by Quote when the job has moved past
	// the quoting stage.
	ErrJobNotQuotable = errors.New("job can no longer be quoted")
)

const (
	userConstraint   = "service_jobs_user_id_fkey"
	workerConstraint = "service_jobs_worker_id_fkey"
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Job, error)
	Create(ctx context.Context, j *Job) error
	Quote(ctx context.Context, id, workerID uuid.UUID, price float64) (*Job, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const columns = `id, user_id, worker_id, description, status, quoted_price, created_at, updated_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var status string
	if err := row.Scan(&j.ID, &j.UserID, &j.WorkerID, &j.Description, &status, &j.QuotedPrice, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	j.Status = Status(status)
	return &j, nil
}

// foreignKeyError maps a violated service_jobs constraint to its sentinel.
func foreignKeyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.ForeignKeyViolation {
		return nil
	}
	switch pgErr.ConstraintName {
	case userConstraint:
		return ErrUserNotFound
	case workerConstraint:
		return ErrWorkerNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Job, error) {
	query := `SELECT ` + columns + `
		FROM service_jobs
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.Limit, db.Offset(filter.Page, filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating jobs: %w", err)
	}
	return jobs, nil
}

func (r *postgresRepository) Create(ctx context.Context, j *Job) error {
	if j.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate job id: %w", err)
		}
		j.ID = id
	}
	now := time.Now().UTC()
	j.Status = StatusPending

	query := `
		INSERT INTO service_jobs (id, user_id, worker_id, description, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
	`
	_, err := r.db.Exec(ctx, query, j.ID, j.UserID, j.WorkerID, j.Description, string(j.Status), now)
	if err != nil {
		if fkErr := foreignKeyError(err); fkErr != nil {
			return fkErr
		}
		return fmt.Errorf("repository: failed to insert job: %w", err)
	}
	j.CreatedAt = now
	j.UpdatedAt = now
	return nil
}

// Quote records a worker's price. The update is conditional on the job still
// being open for quotes, so a quote cannot reopen an accepted job.
func (r *postgresRepository) Quote(ctx context.Context, id, workerID uuid.UUID, price float64) (*Job, error) {
	query := `
		UPDATE service_jobs
		SET quoted_price = $1, worker_id = $2, status = $3, updated_at = $4
		WHERE id = $5 AND status IN ($6, $3)
		RETURNING ` + columns

	j, err := scanJob(r.db.QueryRow(ctx, query,
		price,
		workerID,
		string(StatusQuoted),
		time.Now().UTC(),
		id,
		string(StatusPending),
	))
	if err == nil {
		return j, nil
	}
	if fkErr := foreignKeyError(err); fkErr != nil {
		return nil, fkErr
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to quote job %s: %w", id, err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM service_jobs WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("repository: failed to check job %s: %w", id, err)
	}
	if !exists {
		log.Warn().Stringer("job_id", id).Msg("repository: job not found for quote")
		return nil, ErrJobNotFound
	}
	return nil, ErrJobNotQuotable
}
