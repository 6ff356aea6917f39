package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
)

type RouteRegistrar interface {
	RegisterRoutes(router chi.Router)
}

// Handlers groups the route registrars by the access they require.
type Handlers struct {
	Auth *AuthHandler
	// Protected require any signed-in account.
	Protected []RouteRegistrar
	// Admin additionally require the admin role.
	Admin []RouteRegistrar
}

func NewRouter(auth *Authenticator, handlers Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondWithData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if handlers.Auth != nil {
		handlers.Auth.RegisterRoutes(router)
	}

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		for _, h := range handlers.Protected {
			h.RegisterRoutes(r)
		}
	})

	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(RequireRole(identity.RoleAdmin))
		for _, h := range handlers.Admin {
			h.RegisterRoutes(r)
		}
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, apperr.NotFound("Route not found"))
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondWithJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: ErrorBody{
			Code:    "METHOD_NOT_ALLOWED",
			Message: "Method not allowed",
		}})
	})

	return router
}
