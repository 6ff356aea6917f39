package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/job"
)

// CreateJobRequest and QuoteJobRequest leave presence checks to the service
// so missing fields get one message.
type CreateJobRequest struct {
	UserID      *uuid.UUID `json:"user_id"`
	WorkerID    *uuid.UUID `json:"worker_id"`
	Description string     `json:"description"`
}

type QuoteJobRequest struct {
	QuotedPrice *float64   `json:"quoted_price"`
	WorkerID    *uuid.UUID `json:"worker_id"`
}

type JobHandler struct {
	service  job.Service
	validate *validator.Validate
}

func NewJobHandler(service job.Service) *JobHandler {
	return &JobHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *JobHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/jobs", h.handleListJobs)
	router.Post("/api/v1/jobs", h.handleCreateJob)
	router.Post("/api/v1/jobs/{id}/quote", h.handleQuoteJob)
}

func (h *JobHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, job.DefaultPageLimit, job.MaxPageLimit)
	jobs, err := h.service.ListJobs(r.Context(), job.Filter{
		Status: job.Status(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"jobs": jobs, "page": page, "limit": limit})
}

func (h *JobHandler) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.service.CreateJob(r.Context(), job.CreateInput{
		UserID:      req.UserID,
		WorkerID:    req.WorkerID,
		Description: req.Description,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"job": created})
}

func (h *JobHandler) handleQuoteJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req QuoteJobRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	quoted, err := h.service.QuoteJob(r.Context(), id, job.QuoteInput{
		QuotedPrice: req.QuotedPrice,
		WorkerID:    req.WorkerID,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"job": quoted})
}
