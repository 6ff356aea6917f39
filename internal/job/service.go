package job

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
	"github.com/vasiliy-maslov/marketplace-ops/internal/notification"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// Notifier is the part of the notification service jobs use to tell a
// customer about a quote.
type Notifier interface {
	Notify(ctx context.Context, input notification.CreateInput) error
}

type Service interface {
	ListJobs(ctx context.Context, filter Filter) ([]Job, error)
	CreateJob(ctx context.Context, input CreateInput) (*Job, error)
	QuoteJob(ctx context.Context, id uuid.UUID, input QuoteInput) (*Job, error)
}

type service struct {
	repo      Repository
	notifier  Notifier
	publisher events.Publisher
}

// NewService accepts a nil notifier or publisher; the side effects are then
// skipped.
func NewService(repo Repository, notifier Notifier, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	return &service{repo: repo, notifier: notifier, publisher: publisher}
}

func (s *service) ListJobs(ctx context.Context, filter Filter) ([]Job, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown job status %q", filter.Status))
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

	jobs, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("job: failed to list jobs")
		return nil, apperr.Internal("Failed to fetch jobs", err)
	}
	return jobs, nil
}

func (s *service) CreateJob(ctx context.Context, input CreateInput) (*Job, error) {
	description := strings.TrimSpace(input.Description)
	if input.UserID == nil || *input.UserID == uuid.Nil || description == "" {
		return nil, apperr.Validation("Missing required fields")
	}

	j := &Job{
		UserID:      *input.UserID,
		WorkerID:    input.WorkerID,
		Description: description,
	}
	if err := s.repo.Create(ctx, j); err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return nil, apperr.NotFound("User not found")
		case errors.Is(err, ErrWorkerNotFound):
			return nil, apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("user_id", j.UserID).Msg("job: failed to create job")
		return nil, apperr.Internal("Failed to create job", err)
	}

	log.Info().Stringer("job_id", j.ID).Stringer("user_id", j.UserID).Msg("job: created")
	return j, nil
}

// QuoteJob records the worker's price and moves the job to quoted. The event
// and the customer notification are best-effort.
func (s *service) QuoteJob(ctx context.Context, id uuid.UUID, input QuoteInput) (*Job, error) {
	if input.QuotedPrice == nil || input.WorkerID == nil || *input.WorkerID == uuid.Nil {
		return nil, apperr.Validation("Missing quoted_price or worker_id")
	}
	if *input.QuotedPrice < 0 {
		return nil, apperr.Validation("quoted_price cannot be negative")
	}

	j, err := s.repo.Quote(ctx, id, *input.WorkerID, *input.QuotedPrice)
	if err != nil {
		switch {
		case errors.Is(err, ErrJobNotFound):
			return nil, apperr.NotFound("Job not found")
		case errors.Is(err, ErrWorkerNotFound):
			return nil, apperr.NotFound("Worker not found")
		case errors.Is(err, ErrJobNotQuotable):
			log.Warn().Stringer("job_id", id).Msg("job: quote on closed job")
			return nil, apperr.InvalidState("Job can no longer be quoted")
		}
		log.Error().Err(err).Stringer("job_id", id).Msg("job: failed to submit quote")
		return nil, apperr.Internal("Failed to submit quote", err)
	}

	log.Info().Stringer("job_id", id).Stringer("worker_id", *input.WorkerID).Float64("quoted_price", *input.QuotedPrice).Msg("job: quoted")

	event := events.Event{
		Type:       events.TypeJobQuoted,
		RoutingKey: events.TypeJobQuoted,
		EntityID:   id.String(),
		Payload:    map[string]any{"worker_id": j.WorkerID, "quoted_price": j.QuotedPrice, "user_id": j.UserID},
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Stringer("job_id", id).Msg("job: failed to publish quote event")
	}

	if s.notifier != nil {
		entityID := id.String()
		body := fmt.Sprintf("A worker quoted %.2f for your job.", *input.QuotedPrice)
		err := s.notifier.Notify(ctx, notification.CreateInput{
			UserID:   j.UserID,
			Type:     events.TypeJobQuoted,
			Title:    "New quote for your job",
			Body:     &body,
			EntityID: &entityID,
		})
		if err != nil {
			log.Warn().Err(err).Stringer("job_id", id).Msg("job: customer not notified of quote")
		}
	}

	return j, nil
}
