package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
	"github.com/vasiliy-maslov/marketplace-ops/internal/report"
)

type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role" validate:"omitempty,oneof=admin operation store_owner driver service_worker user"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin operation store_owner driver service_worker user"`
	Disabled *bool   `json:"disabled"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// ReportHandler serves the operations report page.
type ReportHandler struct {
	reports     report.Aggregator
	defaultDays int
}

func NewReportHandler(reports report.Aggregator, defaultDays int) *ReportHandler {
	if defaultDays <= 0 {
		defaultDays = report.DefaultDays
	}
	return &ReportHandler{reports: reports, defaultDays: defaultDays}
}

func (h *ReportHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/operation/reports", h.handleReport)
}

func (h *ReportHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.Build(r.Context(), queryInt(r, "days", h.defaultDays))
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, rep)
}

// AdminHandler serves account management and the admin overview. Its routes
// must sit behind RequireRole(identity.RoleAdmin).
type AdminHandler struct {
	accounts identity.Provider
	reports  report.Aggregator
	validate *validator.Validate
}

func NewAdminHandler(accounts identity.Provider, reports report.Aggregator) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		reports:  reports,
		validate: newValidator(),
	}
}

func (h *AdminHandler) RegisterRoutes(router chi.Router) {
	router.Get("/api/admin/stats", h.handleStats)
	router.Get("/api/admin/users", h.handleListUsers)
	router.Post("/api/admin/users", h.handleCreateUser)
	router.Put("/api/admin/users/{id}", h.handleUpdateUser)
	router.Delete("/api/admin/users/{id}", h.handleDeleteUser)
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reports.AdminStats(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, stats)
}

func (h *AdminHandler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"users": users})
}

func (h *AdminHandler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	created, err := h.accounts.CreateUser(r.Context(), identity.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     identity.Role(req.Role),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"user": created})
}

func (h *AdminHandler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	var req UpdateUserRequest
	if !decodeStrictAndValidate(w, r, h.validate, &req) {
		return
	}

	input := identity.UpdateUserInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Disabled: req.Disabled,
		Password: req.Password,
	}
	if req.Role != nil {
		role := identity.Role(*req.Role)
		input.Role = &role
	}

	updated, err := h.accounts.UpdateUser(r.Context(), id, input)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"user": updated})
}

func (h *AdminHandler) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.accounts.DeleteUser(r.Context(), id); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]bool{"deleted": true})
}
