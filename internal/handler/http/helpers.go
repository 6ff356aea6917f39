package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
)

type DataResponse struct {
	Data any `json:"data"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondWithJSON writes payload as is.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"INTERNAL_ERROR","message":"Failed to marshal JSON response","details":null}}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithData(w http.ResponseWriter, code int, data any) {
	respondWithJSON(w, code, DataResponse{Data: data})
}

// respondWithError renders err as the error envelope with the status of its kind.
func respondWithError(w http.ResponseWriter, err error) {
	appErr := apperr.From(err)
	status := apperr.HTTPStatus(appErr.Kind)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("code", appErr.Kind.String()).Msg("request failed")
	}
	respondWithJSON(w, status, ErrorResponse{Error: ErrorBody{
		Code:    appErr.Kind.String(),
		Message: appErr.Message,
		Details: appErr.Details,
	}})
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			details[field] = "is required"
		case "email":
			details[field] = "must be a valid email address"
		case "min":
			details[field] = fmt.Sprintf("must be at least %s", fe.Param())
		case "max":
			details[field] = fmt.Sprintf("must be at most %s", fe.Param())
		case "oneof":
			details[field] = fmt.Sprintf("must be one of: %s", fe.Param())
		case "gt":
			details[field] = fmt.Sprintf("must be greater than %s", fe.Param())
		case "gte":
			details[field] = fmt.Sprintf("must be greater than or equal to %s", fe.Param())
		default:
			details[field] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
	}
	return details
}

func newValidator() *validator.Validate {
	validate := validator.New()
	// Report JSON field names instead of Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

type bodyDecoder func(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// Keys dst does not declare are ignored. It writes the error response itself
// and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	return decodeBody(w, r, validate, dst, false)
}

// decodeStrictAndValidate is decodeAndValidate for management forms, where an
// unknown key means the caller and the server disagree on the schema.
func decodeStrictAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	return decodeBody(w, r, validate, dst, true)
}

func decodeBody(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any, strict bool) bool {
	decoder := json.NewDecoder(r.Body)
	if strict {
		decoder.DisallowUnknownFields()
	}

	if err := decoder.Decode(dst); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to decode request body")
		appErr := apperr.Validation("Invalid request payload")
		appErr.Details = err.Error()
		respondWithError(w, appErr)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			appErr := apperr.Validation("Validation failed")
			appErr.Details = formatValidationErrors(validationErrors)
			respondWithError(w, appErr)
		} else {
			log.Error().Err(err).Type("validation_error_type", err).Msg("Unexpected error type during validation")
			respondWithError(w, apperr.Internal("Internal validation error", err))
		}
		return false
	}
	return true
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("Invalid %s format", name))
	}
	return id, nil
}

// queryInt returns the named query parameter, or fallback when it is absent
// or not a positive integer.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// pageParams reads page and limit, clamping limit to maxLimit.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	page = queryInt(r, "page", 1)
	limit = queryInt(r, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// queryBool returns nil when the parameter is absent.
func queryBool(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("%s must be true or false", name))
	}
	return &v, nil
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("Invalid %s format", name))
	}
	return &id, nil
}
