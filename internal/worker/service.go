package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Service interface {
	ListWorkers(ctx context.Context, filter Filter) ([]Worker, error)
	GetWorker(ctx context.Context, id uuid.UUID) (*Worker, error)
	CreateWorker(ctx context.Context, input CreateInput) (*Worker, error)
	UpdateWorker(ctx context.Context, id uuid.UUID, input UpdateInput) (*Worker, error)
	DeleteWorker(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	accounts identity.Provider
}

// NewService builds the worker service. accounts may be nil, in which case
// profile_email provisioning is rejected.
func NewService(repo Repository, accounts identity.Provider) Service {
	return &service{repo: repo, accounts: accounts}
}

func (s *service) ListWorkers(ctx context.Context, filter Filter) ([]Worker, error) {
	filter.Specialty = strings.TrimSpace(filter.Specialty)
	if filter.Limit > 0 && filter.Page < 1 {
		filter.Page = 1
	}

	workers, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list workers")
		return nil, apperr.Internal("Failed to fetch workers", err)
	}
	return workers, nil
}

func (s *service) GetWorker(ctx context.Context, id uuid.UUID) (*Worker, error) {
	w, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrWorkerNotFound) {
			log.Warn().Stringer("worker_id", id).Msg("service: worker not found by id")
			return nil, apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("worker_id", id).Msg("service: failed to fetch worker")
		return nil, apperr.Internal("Failed to fetch worker", err)
	}
	return w, nil
}

// CreateWorker inserts a worker, optionally provisioning an identity account
// first. If the worker insert fails the provisioned account is deleted again.
func (s *service) CreateWorker(ctx context.Context, input CreateInput) (*Worker, error) {
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, apperr.Validation("hourly_rate cannot be negative")
	}

	w := &Worker{
		ProfileID:   input.ProfileID,
		ProfileName: input.ProfileName,
		Specialty:   input.Specialty,
		Description: input.Description,
		HourlyRate:  input.HourlyRate,
		Badges:      input.Badges,
		IsAvailable: true,
	}
	if input.IsAvailable != nil {
		w.IsAvailable = *input.IsAvailable
	}

	var provisioned *identity.User
	if input.ProfileEmail != nil && *input.ProfileEmail != "" {
		if s.accounts == nil {
			return nil, apperr.Validation("Account provisioning is not available")
		}
		if input.Password == nil || *input.Password == "" {
			return nil, apperr.Validation("password is required when profile_email is set")
		}
		account, err := s.provisionAccount(ctx, input)
		if err != nil {
			return nil, err
		}
		provisioned = account
		w.ProfileID = &account.ID
		w.AccountEmail = &account.Email
		if w.ProfileName == nil {
			w.ProfileName = account.Name
		}
	}

	if err := s.repo.Create(ctx, w); err != nil {
		log.Error().Err(err).Msg("service: failed to create worker")
		if provisioned != nil {
			if delErr := s.accounts.DeleteUser(ctx, provisioned.ID); delErr != nil {
				log.Error().Err(delErr).Stringer("user_id", provisioned.ID).Msg("service: failed to remove account after worker insert failure")
			} else {
				log.Warn().Stringer("user_id", provisioned.ID).Msg("service: removed account after worker insert failure")
			}
		}
		return nil, apperr.Internal("Failed to create worker", err)
	}

	log.Info().Stringer("worker_id", w.ID).Bool("with_account", provisioned != nil).Msg("service: worker created")
	return w, nil
}

func (s *service) provisionAccount(ctx context.Context, input CreateInput) (*identity.User, error) {
	role := identity.RoleServiceWorker
	if input.Role != "" {
		role = identity.Role(input.Role)
	}
	if role != identity.RoleDriver && role != identity.RoleServiceWorker {
		return nil, apperr.Validation(fmt.Sprintf("worker accounts must have role driver or service_worker, got %q", role))
	}

	return s.accounts.CreateUser(ctx, identity.CreateUserInput{
		Email:    *input.ProfileEmail,
		Password: *input.Password,
		Name:     input.ProfileName,
		Role:     role,
	})
}

func (s *service) UpdateWorker(ctx context.Context, id uuid.UUID, input UpdateInput) (*Worker, error) {
	if input.HourlyRate != nil && *input.HourlyRate < 0 {
		return nil, apperr.Validation("hourly_rate cannot be negative")
	}

	w, err := s.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.ProfileName != nil {
		w.ProfileName = input.ProfileName
	}
	if input.Specialty != nil {
		w.Specialty = input.Specialty
	}
	if input.Description != nil {
		w.Description = input.Description
	}
	if input.HourlyRate != nil {
		w.HourlyRate = input.HourlyRate
	}
	if input.Badges != nil {
		w.Badges = input.Badges
	}
	if input.IsAvailable != nil {
		w.IsAvailable = *input.IsAvailable
		if w.IsAvailable {
			w.CurrentTask = nil
		}
	}
	if input.CurrentTask != nil {
		w.CurrentTask = input.CurrentTask
	}

	if err := s.repo.Update(ctx, w); err != nil {
		if errors.Is(err, ErrWorkerNotFound) {
			return nil, apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("worker_id", id).Msg("service: failed to update worker")
		return nil, apperr.Internal("Failed to update worker", err)
	}

	log.Info().Stringer("worker_id", id).Bool("is_available", w.IsAvailable).Msg("service: worker updated")
	return w, nil
}

func (s *service) DeleteWorker(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrWorkerNotFound) {
			return apperr.NotFound("Worker not found")
		}
		log.Error().Err(err).Stringer("worker_id", id).Msg("service: failed to delete worker")
		return apperr.Internal("Failed to delete worker", err)
	}
	log.Info().Stringer("worker_id", id).Msg("service: worker deleted")
	return nil
}
