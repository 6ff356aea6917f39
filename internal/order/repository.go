package order

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
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderNotPending is returned by AssignWorker when the order left
	// pending between the caller's check and the conditional update.
	ErrOrderNotPending = errors.New("order is not pending")
)

type Repository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error)
	AssignWorker(ctx context.Context, id, workerID uuid.UUID, workerName *string) (*Order, error)
}

type postgresRepository struct {
	db db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &postgresRepository{db: conn}
}

const orderColumns = `id, user_id, store_id, worker_id, worker_name, type, status, total_amount,
	delivery_address, delivery_lat, delivery_lng, customer_name, customer_phone, notes, created_at, updated_at`

const itemColumns = `id, order_id, product_id, product_name, quantity, price, image, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.StoreID,
		&o.WorkerID,
		&o.WorkerName,
		&o.Type,
		&o.Status,
		&o.TotalAmount,
		&o.DeliveryAddress,
		&o.DeliveryLat,
		&o.DeliveryLng,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(
		&item.ID,
		&item.OrderID,
		&item.ProductID,
		&item.ProductName,
		&item.Quantity,
		&item.Price,
		&item.Image,
		&item.CreatedAt,
	)
	return item, err
}

func (r *postgresRepository) CreateOrder(ctx context.Context, orderInput *Order) (err error) {
	if orderInput.ID == uuid.Nil {
		genID, genErr := uuid.NewV4()
		if genErr != nil {
			return fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		}
		orderInput.ID = genID
	}
	orderID := orderInput.ID

	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Stringer("order_id_attempted", orderID).Msg("Panic recovered during CreateOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			log.Warn().Err(err).Stringer("order_id_attempted", orderID).Msg("Transaction for CreateOrder failed, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Stringer("order_id_attempted", orderID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	createdAt := time.Now().UTC()

	queryOrder := `
		INSERT INTO orders (id, user_id, store_id, type, status, total_amount, delivery_address,
			delivery_lat, delivery_lng, customer_name, customer_phone, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	`
	_, err = tx.Exec(ctx, queryOrder,
		orderID,
		orderInput.UserID,
		orderInput.StoreID,
		string(orderInput.Type),
		string(orderInput.Status),
		orderInput.TotalAmount,
		orderInput.DeliveryAddress,
		orderInput.DeliveryLat,
		orderInput.DeliveryLng,
		orderInput.CustomerName,
		orderInput.CustomerPhone,
		orderInput.Notes,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert order: %w", err)
	}
	orderInput.CreatedAt = createdAt
	orderInput.UpdatedAt = createdAt

	queryItem := `
		INSERT INTO order_items (id, order_id, product_id, product_name, quantity, price, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for i := range orderInput.Items {
		item := &orderInput.Items[i]

		itemID, genErr := uuid.NewV4()
		if genErr != nil {
			err = fmt.Errorf("repository: failed to generate order item ID: %w", genErr)
			return err
		}
		item.ID = itemID
		item.OrderID = orderID
		item.CreatedAt = createdAt

		_, err = tx.Exec(ctx, queryItem,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.Quantity,
			item.Price,
			item.Image,
			item.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("repository: failed to insert order item for order %s: %w", orderID, err)
		}
	}

	return nil
}

func (r *postgresRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", id, err)
	}

	items, err := r.itemsFor(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = make([]Item, 0)
	}

	return o, nil
}

func (r *postgresRepository) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(filter.Status), filter.Limit, db.Offset(filter.Page, filter.Limit))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	var orderIDs []uuid.UUID
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order: %w", err)
		}
		orders = append(orders, *o)
		orderIDs = append(orderIDs, o.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return orders, nil
	}

	items, err := r.itemsFor(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = make([]Item, 0)
		}
	}

	return orders, nil
}

func (r *postgresRepository) itemsFor(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM order_items WHERE order_id = ANY($1) ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[uuid.UUID][]Item, len(orderIDs))
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order item: %w", err)
		}
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed iterating order items: %w", err)
	}

	return byOrder, nil
}

func (r *postgresRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status Status) (*Order, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRow(ctx, query, string(status), time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Stringer("order_id", id).Stringer("new_status", status).Msg("repository: order not found for status update")
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to update order status %s: %w", id, err)
	}

	return o, nil
}

// AssignWorker binds a worker to a pending order. The update is conditional
// on the pending status so two concurrent assignments cannot both win.
func (r *postgresRepository) AssignWorker(ctx context.Context, id, workerID uuid.UUID, workerName *string) (*Order, error) {
	query := `
		UPDATE orders
		SET worker_id = $1, worker_name = $2, status = $3, updated_at = $4
		WHERE id = $5 AND status = $6
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRow(ctx, query,
		workerID,
		workerName,
		string(StatusConfirmed),
		time.Now().UTC(),
		id,
		string(StatusPending),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotPending
		}
		return nil, fmt.Errorf("repository: failed to assign worker to order %s: %w", id, err)
	}

	return o, nil
}
