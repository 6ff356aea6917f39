// Package assignment binds an available worker to a pending order.
package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
	"github.com/vasiliy-maslov/marketplace-ops/internal/worker"
	"golang.org/x/sync/errgroup"
)

type Mode string

const (
	// ModeAtomic applies both mutations in one transaction.
	ModeAtomic Mode = "atomic"
	// ModeConcurrent issues both mutations independently and never rolls
	// back the one that succeeded.
	ModeConcurrent Mode = "concurrent"
)

type Result struct {
	Order  *order.Order   `json:"order"`
	Worker *worker.Worker `json:"worker"`
}

type Service interface {
	Assign(ctx context.Context, orderID, workerID string) (*Result, error)
}

type service struct {
	store     Store
	publisher events.Publisher
	mode      Mode
}

func NewService(store Store, publisher events.Publisher, mode Mode) Service {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	if mode == "" {
		mode = ModeAtomic
	}
	return &service{store: store, publisher: publisher, mode: mode}
}

// CurrentTask is the reference written onto a worker busy with orderID.
func CurrentTask(orderID uuid.UUID) string {
	return fmt.Sprintf("Order #%s", orderID)
}

func (s *service) Assign(ctx context.Context, rawOrderID, rawWorkerID string) (*Result, error) {
	rawOrderID, rawWorkerID = strings.TrimSpace(rawOrderID), strings.TrimSpace(rawWorkerID)
	if rawOrderID == "" || rawWorkerID == "" {
		return nil, apperr.Validation("orderId and workerId are required")
	}
	orderID, err := uuid.FromString(rawOrderID)
	if err != nil {
		return nil, apperr.Validation("orderId must be a valid id")
	}
	workerID, err := uuid.FromString(rawWorkerID)
	if err != nil {
		return nil, apperr.Validation("workerId must be a valid id")
	}

	o, err := s.store.Orders().GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			log.Warn().Stringer("order_id", orderID).Msg("assignment: order not found")
			return nil, apperr.NotFound("Order not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("assignment: failed to fetch order")
		return nil, apperr.Internal("Failed to fetch order", err)
	}
	if o.Status != order.StatusPending {
		log.Warn().Stringer("order_id", orderID).Stringer("status", o.Status).Msg("assignment: order is not pending")
		return nil, apperr.InvalidState("Order must be in pending state to assign")
	}

	w, err := s.store.Workers().GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, worker.ErrWorkerNotFound) {
			log.Warn().Stringer("worker_id", workerID).Msg("assignment: worker not found")
			return nil, apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("worker_id", workerID).Msg("assignment: failed to fetch worker")
		return nil, apperr.Internal("Failed to fetch worker", err)
	}
	if !w.IsAvailable {
		log.Warn().Stringer("worker_id", workerID).Msg("assignment: worker is not available")
		return nil, apperr.InvalidState("Worker is not available")
	}

	var result *Result
	if s.mode == ModeConcurrent {
		result, err = s.applyConcurrently(ctx, orderID, w)
	} else {
		result, err = s.applyAtomically(ctx, orderID, w)
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Stringer("order_id", orderID).
		Stringer("worker_id", workerID).
		Str("mode", string(s.mode)).
		Msg("assignment: worker assigned to order")

	event := events.Event{
		Type:     events.TypeOrderAssigned,
		EntityID: orderID.String(),
		Payload: map[string]any{
			"order_id":    orderID,
			"worker_id":   workerID,
			"worker_name": result.Order.WorkerName,
		},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Stringer("order_id", orderID).Msg("assignment: failed to publish order.assigned")
	}

	return result, nil
}

// applyAtomically runs both conditional updates in one transaction. Losing a
// race to another assignment surfaces as INVALID_STATE and nothing is written.
func (s *service) applyAtomically(ctx context.Context, orderID uuid.UUID, w *worker.Worker) (*Result, error) {
	result := &Result{}
	err := s.store.WithinTx(ctx, func(orders order.Repository, workers worker.Repository) error {
		updatedOrder, err := orders.AssignWorker(ctx, orderID, w.ID, w.DisplayName())
		if err != nil {
			return err
		}
		updatedWorker, err := workers.Reserve(ctx, w.ID, CurrentTask(orderID))
		if err != nil {
			return err
		}
		result.Order = updatedOrder
		result.Worker = updatedWorker
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotPending):
			return nil, apperr.InvalidState("Order must be in pending state to assign")
		case errors.Is(err, worker.ErrWorkerUnavailable):
			return nil, apperr.InvalidState("Worker is not available")
		case errors.Is(err, worker.ErrWorkerNotFound):
			return nil, apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("order_id", orderID).Stringer("worker_id", w.ID).Msg("assignment: transaction failed")
		return nil, apperr.Internal("Failed to assign order", err)
	}
	return result, nil
}

// applyConcurrently issues the order and worker mutations side by side and
// reports the first failed one. A mutation that succeeded stays applied.
func (s *service) applyConcurrently(ctx context.Context, orderID uuid.UUID, w *worker.Worker) (*Result, error) {
	orderRepo, workerRepo := s.store.Orders(), s.store.Workers()
	workerName, task := w.DisplayName(), CurrentTask(orderID)

	var (
		g                   errgroup.Group
		updatedOrder        *order.Order
		updatedWorker       *worker.Worker
		orderErr, workerErr error
	)
	g.Go(func() error {
		updatedOrder, orderErr = orderRepo.AssignWorker(ctx, orderID, w.ID, workerName)
		return orderErr
	})
	g.Go(func() error {
		updatedWorker, workerErr = workerRepo.Reserve(ctx, w.ID, task)
		return workerErr
	})
	_ = g.Wait()

	if orderErr != nil {
		log.Error().Err(orderErr).Stringer("order_id", orderID).Bool("worker_updated", workerErr == nil).Msg("assignment: order mutation failed")
		return nil, apperr.Internal("Failed to assign order", orderErr)
	}
	if workerErr != nil {
		log.Error().Err(workerErr).Stringer("worker_id", w.ID).Msg("assignment: worker mutation failed, order stays confirmed")
		return nil, apperr.Internal("Failed to update worker", workerErr)
	}
	return &Result{Order: updatedOrder, Worker: updatedWorker}, nil
}
