// Package catalog manages the store categories and worker badges operators
// tag records with.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
)

type Service interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBadges(ctx context.Context) ([]Badge, error)
	CreateBadge(ctx context.Context, input BadgeInput) (*Badge, error)
	UpdateBadge(ctx context.Context, id uuid.UUID, input BadgeInput) (*Badge, error)
	DeleteBadge(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// mapErr turns a repository failure into the error kind callers see.
func mapErr(err error, what, action string) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(what + " not found")
	case errors.Is(err, ErrDuplicateName):
		return apperr.Validation(what + " name already exists")
	}
	log.Error().Err(err).Str("entity", what).Msg("catalog: failed to " + action)
	return apperr.Internal("Could not "+action, err)
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, mapErr(err, "Category", "fetch categories")
	}
	return categories, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	c := &Category{Name: name, Description: blankToNil(input.Description), Icon: blankToNil(input.Icon)}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, mapErr(err, "Category", "create category")
	}
	log.Info().Stringer("category_id", c.ID).Str("name", c.Name).Msg("catalog: category created")
	return c, nil
}

// UpdateCategory replaces every field; omitted optional fields are cleared.
func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	c := &Category{ID: id, Name: name, Description: blankToNil(input.Description), Icon: blankToNil(input.Icon)}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, mapErr(err, "Category", "update category")
	}
	return c, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return mapErr(err, "Category", "delete category")
	}
	log.Info().Stringer("category_id", id).Msg("catalog: category deleted")
	return nil
}

func (s *service) ListBadges(ctx context.Context) ([]Badge, error) {
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, mapErr(err, "Badge", "fetch badges")
	}
	return badges, nil
}

func badgeFrom(id uuid.UUID, input BadgeInput) (*Badge, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	color := DefaultBadgeColor
	if c := blankToNil(input.Color); c != nil {
		color = *c
	}
	return &Badge{ID: id, Name: name, Description: blankToNil(input.Description), Color: color}, nil
}

func (s *service) CreateBadge(ctx context.Context, input BadgeInput) (*Badge, error) {
	b, err := badgeFrom(uuid.Nil, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateBadge(ctx, b); err != nil {
		return nil, mapErr(err, "Badge", "create badge")
	}
	log.Info().Stringer("badge_id", b.ID).Str("name", b.Name).Msg("catalog: badge created")
	return b, nil
}

func (s *service) UpdateBadge(ctx context.Context, id uuid.UUID, input BadgeInput) (*Badge, error) {
	b, err := badgeFrom(id, input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBadge(ctx, b); err != nil {
		return nil, mapErr(err, "Badge", "update badge")
	}
	return b, nil
}

func (s *service) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteBadge(ctx, id); err != nil {
		return mapErr(err, "Badge", "delete badge")
	}
	log.Info().Stringer("badge_id", id).Msg("catalog: badge deleted")
	return nil
}
