package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/worker"
)

type CreateWorkerRequest struct {
	ProfileID    *uuid.UUID `json:"profile_id"`
	ProfileName  *string    `json:"profile_name"`
	ProfileEmail *string    `json:"profile_email" validate:"omitempty,email"`
	Password     *string    `json:"password" validate:"omitempty,min=8"`
	Role         string     `json:"role" validate:"omitempty,oneof=driver service_worker"`
	Specialty    *string    `json:"specialty"`
	Description  *string    `json:"description"`
	HourlyRate   *float64   `json:"hourly_rate" validate:"omitempty,gte=0"`
	Badges       []string   `json:"badges"`
	IsAvailable  *bool      `json:"is_available"`
}

type UpdateWorkerRequest struct {
	ProfileName *string  `json:"profile_name"`
	Specialty   *string  `json:"specialty"`
	Description *string  `json:"description"`
	HourlyRate  *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	Badges      []string `json:"badges"`
	IsAvailable *bool    `json:"is_available"`
	CurrentTask *string  `json:"current_task"`
}

type WorkerHandler struct {
	service  worker.Service
	validate *validator.Validate
}

func NewWorkerHandler(service worker.Service) *WorkerHandler {
	return &WorkerHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *WorkerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/operation/workers", h.handleListWorkers)
	router.Post("/api/operation/workers", h.handleCreateWorker)
	router.Get("/api/operation/workers/{id}", h.handleGetWorker)
	router.Put("/api/operation/workers/{id}", h.updateWorker(decodeStrictAndValidate))
	router.Delete("/api/operation/workers/{id}", h.handleDeleteWorker)

	router.Get("/api/v1/workers", h.handleBrowseWorkers)
	router.Get("/api/v1/workers/{id}", h.handleGetWorker)
	router.Put("/api/v1/workers/{id}", h.updateWorker(decodeAndValidate))
}

func (h *WorkerHandler) handleListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.service.ListWorkers(r.Context(), worker.Filter{})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"workers": workers})
}

// handleBrowseWorkers is the paged directory with specialty and
// availability filters.
func (h *WorkerHandler) handleBrowseWorkers(w http.ResponseWriter, r *http.Request) {
	available, err := queryBool(r, "available")
	if err != nil {
		respondWithError(w, err)
		return
	}
	page, limit := pageParams(r, worker.DefaultPageLimit, worker.MaxPageLimit)

	workers, err := h.service.ListWorkers(r.Context(), worker.Filter{
		Specialty: r.URL.Query().Get("specialty"),
		Available: available,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"workers": workers, "page": page, "limit": limit})
}

func (h *WorkerHandler) handleCreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateWorker(r.Context(), worker.CreateInput{
		ProfileID:    req.ProfileID,
		ProfileName:  req.ProfileName,
		ProfileEmail: req.ProfileEmail,
		Password:     req.Password,
		Role:         req.Role,
		Specialty:    req.Specialty,
		Description:  req.Description,
		HourlyRate:   req.HourlyRate,
		Badges:       req.Badges,
		IsAvailable:  req.IsAvailable,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusCreated, map[string]any{"worker": created})
}

func (h *WorkerHandler) handleGetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	found, err := h.service.GetWorker(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"worker": found})
}

func (h *WorkerHandler) updateWorker(decode bodyDecoder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.handleUpdateWorker(w, r, decode)
	}
}

func (h *WorkerHandler) handleUpdateWorker(w http.ResponseWriter, r *http.Request, decode bodyDecoder) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req UpdateWorkerRequest
	if !decode(w, r, h.validate, &req) {
		return
	}

	updated, err := h.service.UpdateWorker(r.Context(), id, worker.UpdateInput{
		ProfileName: req.ProfileName,
		Specialty:   req.Specialty,
		Description: req.Description,
		HourlyRate:  req.HourlyRate,
		Badges:      req.Badges,
		IsAvailable: req.IsAvailable,
		CurrentTask: req.CurrentTask,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"worker": updated})
}

func (h *WorkerHandler) handleDeleteWorker(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.service.DeleteWorker(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]bool{"ok": true})
}
