package notification

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/db"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID, page, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID, read bool) (*Notification, error)
	// Notify stores a notice for input.UserID.
	Notify(ctx context.Context, input CreateInput) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, userID uuid.UUID, page, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	notifications, err := s.repo.List(ctx, userID, limit, db.Offset(page, limit))
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("notification: failed to list")
		return nil, apperr.Internal("Failed to fetch notifications", err)
	}
	return notifications, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID, read bool) (*Notification, error) {
	n, err := s.repo.SetRead(ctx, id, userID, read)
	if err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			log.Warn().Stringer("notification_id", id).Stringer("user_id", userID).Msg("notification: not found for user")
			return nil, apperr.NotFound("Notification not found")
		}
		log.Error().Err(err).Stringer("notification_id", id).Msg("notification: failed to update")
		return nil, apperr.Internal("Failed to update notification", err)
	}
	return n, nil
}

func (s *service) Notify(ctx context.Context, input CreateInput) error {
	title := strings.TrimSpace(input.Title)
	if input.UserID == uuid.Nil || title == "" || input.Type == "" {
		return apperr.Validation("recipient, type and title are required")
	}

	n := &Notification{
		UserID:   input.UserID,
		Type:     input.Type,
		Title:    title,
		Body:     input.Body,
		EntityID: input.EntityID,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		if errors.Is(err, ErrRecipientNotFound) {
			return apperr.NotFound("User not found")
		}
		log.Error().Err(err).Stringer("user_id", input.UserID).Msg("notification: failed to store")
		return apperr.Internal("Failed to create notification", err)
	}

	log.Info().Stringer("notification_id", n.ID).Stringer("user_id", n.UserID).Str("type", n.Type).Msg("notification: stored")
	return nil
}
