package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/identity"
)

type contextKey string

const userContextKey contextKey = "ops-user"

// UserFromContext returns the account resolved by the auth middleware.
func UserFromContext(ctx context.Context) (*identity.User, bool) {
	u, ok := ctx.Value(userContextKey).(*identity.User)
	return u, ok && u != nil
}

func withUser(ctx context.Context, u *identity.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// Authenticator gates routes on a valid session token taken from the
// Authorization header or, failing that, the session cookie.
type Authenticator struct {
	accounts   identity.Provider
	cookieName string
}

func NewAuthenticator(accounts identity.Provider, cookieName string) *Authenticator {
	return &Authenticator{accounts: accounts, cookieName: cookieName}
}

func (a *Authenticator) token(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(a.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.token(r)
		if token == "" {
			respondWithError(w, apperr.Unauthorized("Missing access token"))
			return
		}

		u, err := a.accounts.GetUser(r.Context(), token)
		if err != nil {
			respondWithError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

// RequireRole must run after Middleware.
func RequireRole(roles ...identity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				respondWithError(w, apperr.Unauthorized("Not authenticated"))
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondWithError(w, apperr.Forbidden("Insufficient role"))
		})
	}
}

type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the self-service sign-up form. Staff roles are granted
// through the admin API only.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"omitempty,email"`
	Password string  `json:"password" validate:"omitempty,min=8"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	Role     string  `json:"role" validate:"omitempty,oneof=user driver service_worker store_owner"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type SessionRequest struct {
	AccessToken string `json:"access_token" validate:"required"`
}

type AuthHandler struct {
	accounts identity.Provider
	auth     *Authenticator
	cookie   CookieOptions
	validate *validator.Validate
}

func NewAuthHandler(accounts identity.Provider, auth *Authenticator, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		auth:     auth,
		cookie:   cookie,
		validate: newValidator(),
	}
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/api/v1/auth/register", h.handleRegister)
	router.Post("/api/v1/auth/login", h.handleLogin)
	router.Post("/api/v1/auth/refresh", h.handleRefresh)
	router.Post("/api/auth/session", h.handleSetSession)
	router.Delete("/api/auth/session", h.handleClearSession)

	router.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)
		r.Post("/api/v1/auth/logout", h.handleLogout)
		r.Get("/api/auth/me", h.handleMe)
		r.Get("/api/v1/users/me", h.handleGetProfile)
		r.Put("/api/v1/users/me", h.handleUpdateProfile)
	})
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondWithError(w, apperr.Validation("Email and password are required"))
		return
	}

	created, err := h.accounts.CreateUser(r.Context(), identity.CreateUserInput{
		Email:    strings.TrimSpace(req.Email),
		Password: req.Password,
		Name:     req.FullName,
		Phone:    req.Phone,
		Role:     identity.Role(req.Role),
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusCreated, map[string]any{"user": created})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"session": session})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	if err := h.accounts.InvalidateSessions(r.Context(), u.ID); err != nil {
		respondWithError(w, err)
		return
	}

	h.clearCookie(w)
	respondWithData(w, http.StatusOK, map[string]bool{"logged_out": true})
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	session, err := h.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithData(w, http.StatusOK, map[string]any{"session": session})
}

// handleSetSession stores a verified access token in an HttpOnly cookie so
// server-rendered pages can authenticate without the Authorization header.
func (h *AuthHandler) handleSetSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, err := h.accounts.GetUser(r.Context(), req.AccessToken)
	if err != nil {
		respondWithError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    req.AccessToken,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithData(w, http.StatusOK, map[string]any{"ok": true, "user": u})
}

func (h *AuthHandler) handleClearSession(w http.ResponseWriter, r *http.Request) {
	h.clearCookie(w)
	respondWithData(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	respondWithData(w, http.StatusOK, map[string]any{"user": u})
}

func (h *AuthHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	respondWithData(w, http.StatusOK, map[string]any{"profile": u})
}

// handleUpdateProfile lets an account edit its own contact fields. Role and
// status changes stay with the admin API.
func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	updated, err := h.accounts.UpdateUser(r.Context(), u.ID, identity.UpdateUserInput{
		Name:  req.FullName,
		Phone: req.Phone,
	})
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithData(w, http.StatusOK, map[string]any{"profile": updated})
}

func (h *AuthHandler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
