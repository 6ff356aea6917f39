package report

import (
	"context"
	"fmt"

	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

// RecentOrdersLimit is how many of the newest orders a report lists.
const RecentOrdersLimit = 10

type Repository interface {
	OrderRecords(ctx context.Context) ([]OrderRecord, error)
	RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error)
	ProductSales(ctx context.Context) ([]ProductSale, error)
	CountStores(ctx context.Context) (int, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

func (r *postgresRepository) OrderRecords(ctx context.Context) ([]OrderRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, total_amount, type, created_at FROM orders`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to scan orders for report: %w", err)
	}
	defer rows.Close()

	records := make([]OrderRecord, 0)
	for rows.Next() {
		var rec OrderRecord
		if err := rows.Scan(&rec.ID, &rec.TotalAmount, &rec.Type, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order records: %w", err)
	}
	return records, nil
}

func (r *postgresRepository) RecentOrders(ctx context.Context, limit int) ([]RecentOrder, error) {
	query := `
		SELECT id, user_id, total_amount, store_id, worker_id, type, status, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query recent orders: %w", err)
	}
	defer rows.Close()

	orders := make([]RecentOrder, 0, limit)
	for rows.Next() {
		var o RecentOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.StoreID, &o.WorkerID, &o.Type, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("repository: failed to scan recent order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating recent orders: %w", err)
	}
	return orders, nil
}

func (r *postgresRepository) ProductSales(ctx context.Context) ([]ProductSale, error) {
	rows, err := r.db.Query(ctx, `SELECT name, sales, revenue FROM product_sales ORDER BY revenue DESC`)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query product sales: %w", err)
	}
	defer rows.Close()

	sales := make([]ProductSale, 0)
	for rows.Next() {
		var ps ProductSale
		if err := rows.Scan(&ps.Name, &ps.Sales, &ps.Revenue); err != nil {
			return nil, fmt.Errorf("repository: failed to scan product sale: %w", err)
		}
		sales = append(sales, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating product sales: %w", err)
	}
	return sales, nil
}

func (r *postgresRepository) CountStores(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM stores`).Scan(&count); err != nil {
		return 0, fmt.Errorf("repository: failed to count stores: %w", err)
	}
	return count, nil
}
