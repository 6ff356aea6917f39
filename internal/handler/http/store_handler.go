package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/store"
)

type StoreOwnerRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

type CreateStoreRequest struct {
	Name        string             `json:"name" validate:"required"`
	Description *string            `json:"description"`
	Categories  []string           `json:"categories"`
	Location    *string            `json:"location"`
	Phone       *string            `json:"phone"`
	IsOpen      *bool              `json:"is_open"`
	OwnerID     *uuid.UUID         `json:"owner_id"`
	Owner       *StoreOwnerRequest `json:"owner" validate:"omitempty"`
}

type UpdateStoreRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Categories  []string `json:"categories"`
	Location    *string  `json:"location"`
	Phone       *string  `json:"phone"`
	IsOpen      *bool    `json:"is_open"`
}

type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Image       *string  `json:"image"`
	IsAvailable *bool    `json:"is_available"`
}

type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Image       *string  `json:"image"`
	IsAvailable *bool    `json:"is_available"`
}

// StoreHandler serves the operations store management pages and the
// read-only storefront listing.
type StoreHandler struct {
	service  store.Service
	validate *validator.Validate
}

func NewStoreHandler(service store.Service) *StoreHandler {
	return &StoreHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *StoreHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/operation/stores", h.handleListStores)
	router.Post("/api/operation/stores", h.handleCreateStore)
	router.Get("/api/operation/stores/{id}", h.handleGetStore)
	router.Put("/api/operation/stores/{id}", h.handleUpdateStore)
	router.Delete("/api/operation/stores/{id}", h.handleDeleteStore)
	router.Post("/api/operation/stores/{id}/products", h.handleCreateProduct)

	router.Get("/api/v1/stores", h.handleListStores)
	router.Get("/api/v1/stores/{id}", h.handleGetStore)
	router.Get("/api/v1/stores/{id}/products", h.handleListProducts)

	router.Get("/api/v1/products/{id}", h.handleGetProduct)
	router.Put("/api/v1/products/{id}", h.handleUpdateProduct)
	router.Delete("/api/v1/products/{id}", h.handleDeleteProduct)
}

func (h *StoreHandler) handleListStores(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, err := h.service.ListStores(r.Context(), store.Filter{
		Category: query.Get("category"),
		Search:   query.Get("search"),
		Page:     queryInt(r, "page", 1),
		Limit:    queryInt(r, "limit", 0),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, page)
}

func (h *StoreHandler) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	input := store.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Categories:  req.Categories,
		Location:    req.Location,
		Phone:       req.Phone,
		IsOpen:      req.IsOpen,
		OwnerID:     req.OwnerID,
	}
	if req.Owner != nil {
		input.Owner = &store.OwnerInput{
			Email:    req.Owner.Email,
			Password: req.Owner.Password,
			Name:     req.Owner.Name,
			Phone:    req.Owner.Phone,
		}
	}

	created, err := h.service.CreateStore(r.Context(), input)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"store": created})
}

func (h *StoreHandler) handleGetStore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	found, err := h.service.GetStore(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"store": found})
}

func (h *StoreHandler) handleUpdateStore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req UpdateStoreRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateStore(r.Context(), id, store.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Categories:  req.Categories,
		Location:    req.Location,
		Phone:       req.Phone,
		IsOpen:      req.IsOpen,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"store": updated})
}

func (h *StoreHandler) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.DeleteStore(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *StoreHandler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	page, limit := pageParams(r, store.DefaultPageLimit, store.MaxPageLimit)
	products, err := h.service.ListProducts(r.Context(), id, store.ProductFilter{
		Search: r.URL.Query().Get("search"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"products": products, "page": page, "limit": limit})
}

func (h *StoreHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req CreateProductRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), id, store.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"product": created})
}

func (h *StoreHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"product": p})
}

func (h *StoreHandler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req UpdateProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateProduct(r.Context(), id, store.ProductUpdate(req))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"product": updated})
}

func (h *StoreHandler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]bool{"deleted": true})
}
