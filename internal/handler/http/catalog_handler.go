package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/marketplace-ops/internal/catalog"
)

type CategoryRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

type BadgeRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

type CatalogHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/operation/categories", h.handleListCategories)
	router.Post("/api/operation/categories", h.handleCreateCategory)
	router.Put("/api/operation/categories/{id}", h.handleUpdateCategory)
	router.Delete("/api/operation/categories/{id}", h.handleDeleteCategory)

	router.Get("/api/operation/badges", h.handleListBadges)
	router.Post("/api/operation/badges", h.handleCreateBadge)
	router.Put("/api/operation/badges/{id}", h.handleUpdateBadge)
	router.Delete("/api/operation/badges/{id}", h.handleDeleteBadge)
}

func (h *CatalogHandler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"categories": categories})
}

func (h *CatalogHandler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateCategory(r.Context(), catalog.CategoryInput(req))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"category": created})
}

func (h *CatalogHandler) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req CategoryRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateCategory(r.Context(), id, catalog.CategoryInput(req))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"category": updated})
}

func (h *CatalogHandler) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *CatalogHandler) handleListBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.service.ListBadges(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"badges": badges})
}

func (h *CatalogHandler) handleCreateBadge(w http.ResponseWriter, r *http.Request) {
	var req BadgeRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateBadge(r.Context(), catalog.BadgeInput(req))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"badge": created})
}

func (h *CatalogHandler) handleUpdateBadge(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req BadgeRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateBadge(r.Context(), id, catalog.BadgeInput(req))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"badge": updated})
}

func (h *CatalogHandler) handleDeleteBadge(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.DeleteBadge(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]bool{"ok": true})
}
