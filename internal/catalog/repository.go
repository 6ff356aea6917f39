package catalog

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
	ErrNotFound      = errors.New("catalog entry not found")
	ErrDuplicateName = errors.New("catalog entry name already exists")
)

type Repository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBadges(ctx context.Context) ([]Badge, error)
	CreateBadge(ctx context.Context, b *Badge) error
	UpdateBadge(ctx context.Context, b *Badge) error
	DeleteBadge(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func translate(err error, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicateName
	}
	return fmt.Errorf("repository: failed to %s: %w", action, err)
}

func newID() (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to generate id: %w", err)
	}
	return id, nil
}

func (r *postgresRepository) ListCategories(ctx context.Context) ([]Category, error) {
	query := `
		SELECT c.id, c.name, c.description, c.icon, c.created_at,
			(SELECT COUNT(*) FROM stores s WHERE c.id::text = ANY(s.categories))
		FROM store_categories c
		ORDER BY c.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.CreatedAt, &c.StoreCount); err != nil {
			return nil, fmt.Errorf("repository: failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating categories: %w", err)
	}
	return categories, nil
}

func (r *postgresRepository) CreateCategory(ctx context.Context, c *Category) error {
	id, err := newID()
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `INSERT INTO store_categories (id, name, description, icon, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, query, id, c.Name, c.Description, c.Icon, now); err != nil {
		return translate(err, "insert category")
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

func (r *postgresRepository) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE store_categories SET name = $1, description = $2, icon = $3
		WHERE id = $4
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, c.Name, c.Description, c.Icon, c.ID).Scan(&c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return translate(err, "update category")
	}
	return nil
}

func (r *postgresRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM store_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete category %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ListBadges(ctx context.Context) ([]Badge, error) {
	query := `
		SELECT b.id, b.name, b.description, b.color, b.created_at,
			(SELECT COUNT(*) FROM service_workers w WHERE b.id::text = ANY(w.badges))
		FROM badges b
		ORDER BY b.created_at DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := make([]Badge, 0)
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Color, &b.CreatedAt, &b.WorkerCount); err != nil {
			return nil, fmt.Errorf("repository: failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating badges: %w", err)
	}
	return badges, nil
}

func (r *postgresRepository) CreateBadge(ctx context.Context, b *Badge) error {
	id, err := newID()
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	query := `INSERT INTO badges (id, name, description, color, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.Exec(ctx, query, id, b.Name, b.Description, b.Color, now); err != nil {
		return translate(err, "insert badge")
	}
	b.ID = id
	b.CreatedAt = now
	return nil
}

func (r *postgresRepository) UpdateBadge(ctx context.Context, b *Badge) error {
	query := `
		UPDATE badges SET name = $1, description = $2, color = $3
		WHERE id = $4
		RETURNING created_at
	`
	if err := r.db.QueryRow(ctx, query, b.Name, b.Description, b.Color, b.ID).Scan(&b.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return translate(err, "update badge")
	}
	return nil
}

func (r *postgresRepository) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM badges WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete badge %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
