package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

var (
	ErrStoreNotFound   = errors.New("store not found")
	ErrProductNotFound = errors.New("product not found")
)

type Repository interface {
	List(ctx context.Context, filter Filter) ([]Store, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Store, error)
	Create(ctx context.Context, s *Store) error
	Update(ctx context.Context, s *Store) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, storeID uuid.UUID, filter ProductFilter) ([]Product, error)
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const storeColumns = `id, owner_id, name, description, categories, location, phone, is_open, created_at, updated_at`

func scanStore(row pgx.Row) (*Store, error) {
	var s Store
	err := row.Scan(
		&s.ID,
		&s.OwnerID,
		&s.Name,
		&s.Description,
		&s.Categories,
		&s.Location,
		&s.Phone,
		&s.IsOpen,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Categories == nil {
		s.Categories = make([]string, 0)
	}
	return &s, nil
}

func (r *postgresRepository) List(ctx context.Context, filter Filter) ([]Store, int, error) {
	where := `WHERE ($1 = '' OR $1 = ANY(categories)) AND ($2 = '' OR name ILIKE '%' || $2 || '%')`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores `+where, filter.Category, filter.Search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count stores: %w", err)
	}

	query := `SELECT ` + storeColumns + ` FROM stores ` + where + ` ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.db.Query(ctx, query, filter.Category, filter.Search, filter.Limit, db.Offset(filter.Page, filter.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query stores: %w", err)
	}
	defer rows.Close()

	stores := make([]Store, 0)
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan store: %w", err)
		}
		stores = append(stores, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: failed iterating stores: %w", err)
	}
	return stores, total, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Store, error) {
	s, err := scanStore(r.db.QueryRow(ctx, `SELECT `+storeColumns+` FROM stores WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("repository: failed to select store %s: %w", id, err)
	}
	return s, nil
}

func (r *postgresRepository) Create(ctx context.Context, s *Store) error {
	if s.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate store id: %w", err)
		}
		s.ID = id
	}
	if s.Categories == nil {
		s.Categories = make([]string, 0)
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO stores (id, owner_id, name, description, categories, location, phone, is_open, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	_, err := r.db.Exec(ctx, query, s.ID, s.OwnerID, s.Name, s.Description, s.Categories, s.Location, s.Phone, s.IsOpen, now)
	if err != nil {
		return fmt.Errorf("repository: failed to insert store: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Update(ctx context.Context, s *Store) error {
	now := time.Now().UTC()
	query := `
		UPDATE stores
		SET name = $1, description = $2, categories = $3, location = $4, phone = $5, is_open = $6, updated_at = $7
		WHERE id = $8
	`
	cmdTag, err := r.db.Exec(ctx, query, s.Name, s.Description, s.Categories, s.Location, s.Phone, s.IsOpen, now, s.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update store %s: %w", s.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete store %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

func (r *postgresRepository) ListProducts(ctx context.Context, storeID uuid.UUID, filter ProductFilter) ([]Product, error) {
	query := `
		SELECT id, store_id, name, description, price, image, is_available, created_at
		FROM products
		WHERE store_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, storeID, filter.Search, filter.Limit, db.Offset(filter.Page, filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.Image, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating products: %w", err)
	}
	return products, nil
}

func (r *postgresRepository) CreateProduct(ctx context.Context, p *Product) error {
	if p.ID == uuid.Nil {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("repository: failed to generate product id: %w", err)
		}
		p.ID = id
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO products (id, store_id, name, description, price, image, is_available, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.Exec(ctx, query, p.ID, p.StoreID, p.Name, p.Description, p.Price, p.Image, p.IsAvailable, now); err != nil {
		return fmt.Errorf("repository: failed to insert product for store %s: %w", p.StoreID, err)
	}
	p.CreatedAt = now
	return nil
}

func (r *postgresRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	query := `
		SELECT id, store_id, name, description, price, image, is_available, created_at
		FROM products
		WHERE id = $1
	`
	var p Product
	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.StoreID, &p.Name, &p.Description, &p.Price, &p.Image, &p.IsAvailable, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("repository: failed to select product %s: %w", id, err)
	}
	return &p, nil
}

func (r *postgresRepository) UpdateProduct(ctx context.Context, p *Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, image = $4, is_available = $5
		WHERE id = $6
	`
	cmdTag, err := r.db.Exec(ctx, query, p.Name, p.Description, p.Price, p.Image, p.IsAvailable, p.ID)
	if err != nil {
		return fmt.Errorf("repository: failed to update product %s: %w", p.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *postgresRepository) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete product %s: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
