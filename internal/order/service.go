package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
)

// allowedTransitions is enforced only when strict transitions are enabled.
// pending -> confirmed is reserved for the assignment service.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusCancelled: true,
	},
	StatusConfirmed: {
		StatusInProgress: true,
		StatusCancelled:  true,
	},
	StatusInProgress: {
		StatusCompleted: true,
	},
	StatusCompleted: {},
	StatusCancelled: {},
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type CreateItemInput struct {
	ProductID   *uuid.UUID
	ProductName string
	Quantity    int
	Price       float64
	Image       *string
}

type CreateInput struct {
	UserID          *uuid.UUID
	StoreID         *uuid.UUID
	Type            Type
	Items           []CreateItemInput
	DeliveryAddress *string
	DeliveryLat     *float64
	DeliveryLng     *float64
	CustomerName    *string
	CustomerPhone   *string
	Notes           *string
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateInput) (*Order, error)
	GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error)
}

type Options struct {
	StrictTransitions bool
}

type service struct {
	orderRepo Repository
	publisher events.Publisher
	opts      Options
}

func NewService(orderRepo Repository, publisher events.Publisher, opts Options) Service {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &service{
		orderRepo: orderRepo,
		publisher: publisher,
		opts:      opts,
	}
}

func (s *service) CreateOrder(ctx context.Context, input CreateInput) (*Order, error) {
	if input.Type == "" {
		input.Type = TypeDelivery
	}
	if !input.Type.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown order type %q", input.Type))
	}
	if input.StoreID == nil && input.Type == TypeDelivery {
		return nil, apperr.Validation("Invalid order payload: store_id is required")
	}
	if len(input.Items) == 0 {
		log.Warn().Msg("service: attempt to create order with no items")
		return nil, apperr.Validation("Invalid order payload: at least one item is required")
	}

	newOrder := &Order{
		UserID:          input.UserID,
		StoreID:         input.StoreID,
		Type:            input.Type,
		Status:          StatusPending,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryLat:     input.DeliveryLat,
		DeliveryLng:     input.DeliveryLng,
		CustomerName:    input.CustomerName,
		CustomerPhone:   input.CustomerPhone,
		Notes:           input.Notes,
		Items:           make([]Item, 0, len(input.Items)),
	}

	totalAmount := 0.0
	for _, in := range input.Items {
		if in.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("order item quantity for %q must be greater than zero", in.ProductName))
		}
		if in.Price < 0 {
			return nil, apperr.Validation(fmt.Sprintf("order item price for %q cannot be negative", in.ProductName))
		}

		newOrder.Items = append(newOrder.Items, Item{
			ProductID:   in.ProductID,
			ProductName: in.ProductName,
			Quantity:    in.Quantity,
			Price:       in.Price,
			Image:       in.Image,
		})
		totalAmount += float64(in.Quantity) * in.Price
	}
	newOrder.TotalAmount = totalAmount

	if err := s.orderRepo.CreateOrder(ctx, newOrder); err != nil {
		log.Error().Err(err).Msg("service: failed to create order in repository")
		return nil, apperr.Internal("Failed to create order", err)
	}

	log.Info().Stringer("order_id", newOrder.ID).Float64("total_amount", newOrder.TotalAmount).Msg("service: order created")
	return newOrder, nil
}

func (s *service) GetOrderByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	o, err := s.orderRepo.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			log.Warn().Stringer("order_id", id).Msg("service: order not found by id")
			return nil, apperr.NotFound("Order not found")
		}
		log.Error().Err(err).Stringer("order_id", id).Msg("service: failed to fetch order by id")
		return nil, apperr.Internal("Failed to fetch order", err)
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown order status %q", filter.Status))
	}
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	orders, err := s.orderRepo.ListOrders(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list orders")
		return nil, apperr.Internal("Failed to fetch orders", err)
	}
	return orders, nil
}

// UpdateOrderStatus is the direct status write used by the lifecycle edges
// other than assignment. Without strict transitions only the value itself is
// validated.
func (s *service) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus Status) (*Order, error) {
	if newStatus == "" {
		return nil, apperr.Validation("No updatable fields provided")
	}
	if !newStatus.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown order status %q", newStatus))
	}

	var oldStatus Status
	if s.opts.StrictTransitions {
		current, err := s.GetOrderByID(ctx, id)
		if err != nil {
			return nil, err
		}
		oldStatus = current.Status

		if current.Status == newStatus {
			log.Info().Stringer("order_id", id).Stringer("status", newStatus).Msg("service: order status is already the same, no update needed")
			return current, nil
		}

		if !allowedTransitions[current.Status][newStatus] {
			log.Warn().
				Stringer("order_id", id).
				Stringer("current_status", current.Status).
				Stringer("new_status", newStatus).
				Msg("service: invalid status transition attempt")
			return nil, apperr.InvalidState(fmt.Sprintf("Order cannot move from %s to %s", current.Status, newStatus))
		}
	}

	updated, err := s.orderRepo.UpdateOrderStatus(ctx, id, newStatus)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, apperr.NotFound("Order not found")
		}
		log.Error().Err(err).Stringer("order_id", id).Stringer("new_status", newStatus).Msg("service: failed to update order status")
		return nil, apperr.Internal("Failed to update order", err)
	}

	log.Info().Stringer("order_id", id).Stringer("old_status", oldStatus).Stringer("new_status", newStatus).Msg("service: order status updated")

	event := events.Event{
		Type:       events.TypeOrderStatusChanged,
		RoutingKey: "order." + newStatus.String(),
		EntityID:   id.String(),
		Payload:    map[string]any{"status": newStatus},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Stringer("order_id", id).Msg("service: failed to publish order status event")
	}

	return updated, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}
