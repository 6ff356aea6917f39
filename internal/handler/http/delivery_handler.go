package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/delivery"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
)

// TaskActionRequest is the flat body of a delivery task action. Which fields
// matter depends on Action.
type TaskActionRequest struct {
	Action        string     `json:"action"`
	DriverID      *uuid.UUID `json:"driver_id"`
	Lat           *float64   `json:"lat"`
	Lng           *float64   `json:"lng"`
	DeliveryPhoto *string    `json:"delivery_photo"`
	Signature     *string    `json:"signature"`
	Notes         *string    `json:"notes"`
}

type DeliveryHandler struct {
	service  delivery.Service
	validate *validator.Validate
}

func NewDeliveryHandler(service delivery.Service) *DeliveryHandler {
	return &DeliveryHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *DeliveryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/delivery-tasks", h.handleListTasks)
	router.Get("/api/v1/delivery-tasks/{id}", h.handleGetTask)
	router.Post("/api/v1/delivery-tasks/{id}", h.handleTaskAction)
	router.Get("/api/v1/driver/earnings", h.handleEarnings)
}

func (h *DeliveryHandler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r, delivery.DefaultPageLimit, delivery.MaxPageLimit)
	filter := delivery.Filter{
		Status: delivery.Status(r.URL.Query().Get("status")),
		Page:   page,
		Limit:  limit,
	}

	tasks, err := h.service.ListTasks(r.Context(), filter)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"tasks": tasks, "page": page, "limit": limit})
}

func (h *DeliveryHandler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	task, err := h.service.GetTask(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"task": task})
}

func (h *DeliveryHandler) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req TaskActionRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	task, err := h.service.ApplyAction(r.Context(), id, delivery.Action(req.Action), delivery.ActionPayload{
		DriverID:      req.DriverID,
		Lat:           req.Lat,
		Lng:           req.Lng,
		DeliveryPhoto: req.DeliveryPhoto,
		Signature:     req.Signature,
		Notes:         req.Notes,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"task": task})
}

// handleEarnings summarises delivered tasks. Drivers always see their own
// figures; other roles may pass driver_id or get the fleet total.
func (h *DeliveryHandler) handleEarnings(w http.ResponseWriter, r *http.Request) {
	driverID, err := queryUUID(r, "driver_id")
	if err != nil {
		respondWithError(w, err)
		return
	}
	if u, ok := UserFromContext(r.Context()); ok && u.Role == identity.RoleDriver {
		driverID = &u.ID
	}

	earnings, err := h.service.Earnings(r.Context(), driverID, delivery.Period(r.URL.Query().Get("period")))
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, earnings)
}
