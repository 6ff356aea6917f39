package store

import (
	"context"
	"errors"
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

type Page struct {
	Stores []Store `json:"stores"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

type Service interface {
	ListStores(ctx context.Context, filter Filter) (*Page, error)
	GetStore(ctx context.Context, id uuid.UUID) (*Store, error)
	CreateStore(ctx context.Context, input CreateInput) (*Store, error)
	UpdateStore(ctx context.Context, id uuid.UUID, input UpdateInput) (*Store, error)
	DeleteStore(ctx context.Context, id uuid.UUID) error

	ListProducts(ctx context.Context, storeID uuid.UUID, filter ProductFilter) ([]Product, error)
	CreateProduct(ctx context.Context, storeID uuid.UUID, input ProductInput) (*Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	accounts identity.Provider
}

func NewService(repo Repository, accounts identity.Provider) Service {
	return &service{repo: repo, accounts: accounts}
}

func clampPage(page, limit int) (int, int) {
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

func (s *service) ListStores(ctx context.Context, filter Filter) (*Page, error) {
	filter.Page, filter.Limit = clampPage(filter.Page, filter.Limit)
	filter.Search = strings.TrimSpace(filter.Search)

	stores, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list stores")
		return nil, apperr.Internal("Failed to fetch stores", err)
	}
	return &Page{Stores: stores, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *service) GetStore(ctx context.Context, id uuid.UUID) (*Store, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, apperr.NotFound("Store not found")
		}
		log.Error().Err(err).Stringer("store_id", id).Msg("service: failed to fetch store")
		return nil, apperr.Internal("Failed to fetch store", err)
	}
	return st, nil
}

// CreateStore provisions the owner's store_owner account when Owner is set,
// then inserts the store. A failed insert deletes the new account again.
func (s *service) CreateStore(ctx context.Context, input CreateInput) (*Store, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("Missing required fields: name")
	}
	if input.OwnerID == nil && input.Owner == nil {
		return nil, apperr.Validation("Missing required fields: owner_id or owner_email")
	}

	st := &Store{
		OwnerID:     input.OwnerID,
		Name:        name,
		Description: input.Description,
		Categories:  input.Categories,
		Location:    input.Location,
		Phone:       input.Phone,
		IsOpen:      true,
	}
	if input.IsOpen != nil {
		st.IsOpen = *input.IsOpen
	}

	var owner *identity.User
	if input.OwnerID == nil {
		if s.accounts == nil {
			return nil, apperr.Validation("Account provisioning is not available")
		}
		account, err := s.accounts.CreateUser(ctx, identity.CreateUserInput{
			Email:    input.Owner.Email,
			Password: input.Owner.Password,
			Name:     input.Owner.Name,
			Phone:    input.Owner.Phone,
			Role:     identity.RoleStoreOwner,
		})
		if err != nil {
			return nil, err
		}
		owner = account
		st.OwnerID = &account.ID
	}

	if err := s.repo.Create(ctx, st); err != nil {
		log.Error().Err(err).Msg("service: failed to create store")
		if owner != nil {
			if delErr := s.accounts.DeleteUser(ctx, owner.ID); delErr != nil {
				log.Error().Err(delErr).Stringer("user_id", owner.ID).Msg("service: failed to remove owner account after store insert failure")
			}
		}
		return nil, apperr.Internal("Failed to create store", err)
	}

	log.Info().Stringer("store_id", st.ID).Str("name", st.Name).Msg("service: store created")
	return st, nil
}

func (s *service) UpdateStore(ctx context.Context, id uuid.UUID, input UpdateInput) (*Store, error) {
	st, err := s.GetStore(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Validation("name cannot be empty")
		}
		st.Name = name
	}
	if input.Description != nil {
		st.Description = input.Description
	}
	if input.Categories != nil {
		st.Categories = input.Categories
	}
	if input.Location != nil {
		st.Location = input.Location
	}
	if input.Phone != nil {
		st.Phone = input.Phone
	}
	if input.IsOpen != nil {
		st.IsOpen = *input.IsOpen
	}

	if err := s.repo.Update(ctx, st); err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return nil, apperr.NotFound("Store not found")
		}
		log.Error().Err(err).Stringer("store_id", id).Msg("service: failed to update store")
		return nil, apperr.Internal("Failed to update store", err)
	}
	return st, nil
}

func (s *service) DeleteStore(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrStoreNotFound) {
			return apperr.NotFound("Store not found")
		}
		log.Error().Err(err).Stringer("store_id", id).Msg("service: failed to delete store")
		return apperr.Internal("Failed to delete store", err)
	}
	log.Info().Stringer("store_id", id).Msg("service: store deleted")
	return nil
}

func (s *service) ListProducts(ctx context.Context, storeID uuid.UUID, filter ProductFilter) ([]Product, error) {
	filter.Page, filter.Limit = clampPage(filter.Page, filter.Limit)
	products, err := s.repo.ListProducts(ctx, storeID, filter)
	if err != nil {
		log.Error().Err(err).Stringer("store_id", storeID).Msg("service: failed to list products")
		return nil, apperr.Internal("Failed to fetch products", err)
	}
	return products, nil
}

func (s *service) CreateProduct(ctx context.Context, storeID uuid.UUID, input ProductInput) (*Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price == nil {
		return nil, apperr.Validation("Missing product name or price")
	}
	if *input.Price < 0 {
		return nil, apperr.Validation("price cannot be negative")
	}
	if _, err := s.GetStore(ctx, storeID); err != nil {
		return nil, err
	}

	p := &Product{
		StoreID:     storeID,
		Name:        name,
		Description: input.Description,
		Price:       *input.Price,
		Image:       input.Image,
		IsAvailable: true,
	}
	if input.IsAvailable != nil {
		p.IsAvailable = *input.IsAvailable
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		log.Error().Err(err).Stringer("store_id", storeID).Msg("service: failed to create product")
		return nil, apperr.Internal("Failed to create product", err)
	}
	return p, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			log.Warn().Stringer("product_id", id).Msg("service: product not found by id")
			return nil, apperr.NotFound("Product not found")
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to fetch product")
		return nil, apperr.Internal("Failed to fetch product", err)
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductUpdate) (*Product, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return nil, apperr.Validation("name cannot be empty")
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, apperr.Validation("price cannot be negative")
	}

	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		p.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	if input.Image != nil {
		p.Image = input.Image
	}
	if input.IsAvailable != nil {
		p.IsAvailable = *input.IsAvailable
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, apperr.NotFound("Product not found")
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to update product")
		return nil, apperr.Internal("Failed to update product", err)
	}

	log.Info().Stringer("product_id", id).Msg("service: product updated")
	return p, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return apperr.NotFound("Product not found")
		}
		log.Error().Err(err).Stringer("product_id", id).Msg("service: failed to delete product")
		return apperr.Internal("Failed to delete product", err)
	}
	log.Info().Stringer("product_id", id).Msg("service: product deleted")
	return nil
}
