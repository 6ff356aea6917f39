package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Service interface {
	GetTask(ctx context.Context, id uuid.UUID) (*Task, error)
	ListTasks(ctx context.Context, filter Filter) ([]Task, error)
	ApplyAction(ctx context.Context, id uuid.UUID, action Action, payload ActionPayload) (*Task, error)
	Earnings(ctx context.Context, driverID *uuid.UUID, period Period) (*Earnings, error)
}

type service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &service{repo: repo, publisher: publisher, now: time.Now}
}

func (s *service) GetTask(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		log.Error().Err(err).Stringer("task_id", id).Msg("delivery: failed to fetch task")
		return nil, apperr.Internal("Failed to fetch delivery task", err)
	}
	return t, nil
}

func (s *service) ListTasks(ctx context.Context, filter Filter) ([]Task, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown delivery task status %q", filter.Status))
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageLimit
	}
	if filter.Limit > MaxPageLimit {
		filter.Limit = MaxPageLimit
	}

	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("delivery: failed to list tasks")
		return nil, apperr.Internal("Failed to fetch delivery tasks", err)
	}
	return tasks, nil
}

// ApplyAction moves a task forward by one named action. Prior status is not
// checked, so accepting an assigned task again overwrites its driver.
func (s *service) ApplyAction(ctx context.Context, id uuid.UUID, action Action, payload ActionPayload) (*Task, error) {
	var (
		task       *Task
		err        error
		failureMsg string
	)

	switch action {
	case "":
		return nil, apperr.Validation("Action required")
	case ActionAccept:
		if payload.DriverID == nil {
			return nil, apperr.Validation("driver_id required")
		}
		task, err = s.repo.Accept(ctx, id, *payload.DriverID)
		failureMsg = "Failed to accept task"
	case ActionPickup:
		task, err = s.repo.SetStatus(ctx, id, StatusPickedUp)
		failureMsg = "Failed to mark pickup"
	case ActionDeliver:
		if payload.DeliveryPhoto != nil || payload.Signature != nil || payload.Notes != nil {
			// TODO: persist proof of delivery once delivery_tasks has columns for it.
			log.Info().Stringer("task_id", id).Msg("delivery: proof of delivery received but not stored")
		}
		task, err = s.repo.SetStatus(ctx, id, StatusDelivered)
		failureMsg = "Failed to mark delivered"
	case ActionLocation:
		if payload.Lat == nil || payload.Lng == nil {
			return nil, apperr.Validation("lat/lng required")
		}
		log.Debug().Stringer("task_id", id).Float64("lat", *payload.Lat).Float64("lng", *payload.Lng).Msg("delivery: location ping")
		task, err = s.repo.Touch(ctx, id)
		failureMsg = "Failed to update location"
	default:
		return nil, apperr.Validation("Unknown action")
	}

	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			log.Warn().Stringer("task_id", id).Str("action", string(action)).Msg("delivery: task not found")
			return nil, apperr.NotFound("Task not found")
		}
		log.Error().Err(err).Stringer("task_id", id).Str("action", string(action)).Msg("delivery: action failed")
		return nil, apperr.Internal(failureMsg, err)
	}

	log.Info().Stringer("task_id", id).Str("action", string(action)).Stringer("status", task.Status).Msg("delivery: action applied")

	if action != ActionLocation {
		event := events.Event{
			Type:       events.TypeDeliveryTaskStatusChanged,
			RoutingKey: "delivery_task." + task.Status.String(),
			EntityID:   id.String(),
			Payload:    map[string]any{"action": action, "status": task.Status, "driver_id": task.DriverID},
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Stringer("task_id", id).Msg("delivery: failed to publish task event")
		}
	}

	return task, nil
}

// Earnings summarises delivered tasks. No charge source exists yet, so
// amounts are zero and only the delivery count is meaningful.
func (s *service) Earnings(ctx context.Context, driverID *uuid.UUID, period Period) (*Earnings, error) {
	if period == "" {
		period = PeriodMonth
	}

	filter := EarningsFilter{DriverID: driverID}
	now := s.now().UTC()
	var since time.Time
	switch period {
	case PeriodDay:
		since = now.AddDate(0, 0, -1)
	case PeriodWeek:
		since = now.AddDate(0, 0, -7)
	case PeriodMonth:
		since = now.AddDate(0, -1, 0)
	case PeriodAll:
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown period %q", period))
	}
	if !since.IsZero() {
		filter.Since = &since
	}

	count, err := s.repo.CountDelivered(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("delivery: failed to count deliveries")
		return nil, apperr.Internal("Failed to fetch deliveries", err)
	}

	earnings := &Earnings{Period: period, CompletedDeliveries: count}
	if count > 0 {
		earnings.AveragePerDelivery = earnings.TotalEarnings / float64(count)
	}
	return earnings, nil
}
