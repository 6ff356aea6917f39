package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/notification"
)

type MarkNotificationRequest struct {
	ID       *uuid.UUID `json:"id"`
	MarkRead bool       `json:"mark_read"`
}

// NotificationHandler serves the caller's own notifications, so it must be
// registered behind the auth middleware.
type NotificationHandler struct {
	service  notification.Service
	validate *validator.Validate
}

func NewNotificationHandler(service notification.Service) *NotificationHandler {
	return &NotificationHandler{
		service:  service,
		validate: newValidator(),
	}
}

func (h *NotificationHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/v1/notifications", h.handleListNotifications)
	router.Put("/api/v1/notifications", h.handleMarkNotification)
}

func (h *NotificationHandler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, apperr.Unauthorized("Not authenticated"))
		return
	}

	page, limit := pageParams(r, notification.DefaultPageLimit, notification.MaxPageLimit)
	notifications, err := h.service.List(r.Context(), u.ID, page, limit)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"notifications": notifications, "page": page, "limit": limit})
}

func (h *NotificationHandler) handleMarkNotification(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		respondWithError(w, apperr.Unauthorized("Not authenticated"))
		return
	}

	var req MarkNotificationRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if req.ID == nil {
		respondWithError(w, apperr.Validation("id required"))
		return
	}

	n, err := h.service.MarkRead(r.Context(), u.ID, *req.ID, req.MarkRead)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"notification": n})
}
