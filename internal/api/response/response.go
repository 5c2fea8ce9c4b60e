// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tripguard/tripguard/internal/api/middleware"
	"github.com/tripguard/tripguard/internal/api/models"
	"github.com/tripguard/tripguard/internal/livedata"
	"github.com/tripguard/tripguard/internal/profile"
	"github.com/tripguard/tripguard/internal/travelrisk"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	setRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 Created response with Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter, r *http.Request) {
	setRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}

// Error writes a Problem+JSON error response.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// BadRequest writes a 400 Bad Request error response.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	traceID := middleware.GetRequestID(r.Context())
	Error(w, r, models.NewBadRequest(traceID, detail, errors))
}

// NotFound writes a 404 Not Found error response.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := middleware.GetRequestID(r.Context())
	Error(w, r, models.NewNotFound(traceID, detail))
}

// InternalError writes a 500 Internal Server Error response.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := middleware.GetRequestID(r.Context())
	Error(w, r, models.NewInternalError(traceID, detail))
}

// ServiceUnavailable writes a 503 Service Unavailable error response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := middleware.GetRequestID(r.Context())
	Error(w, r, models.NewServiceUnavailable(traceID, detail))
}

// FromError maps a domain error to a problem response:
//
//	*travelrisk.ValidationError            400 with field errors
//	profile.ErrProfileNotFound             404
//	livedata.ErrNoDataForDistrict          404
//	livedata.ErrProviderUnavailable        503
//	anything else                          500, logged
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *travelrisk.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(w, r, "request validation failed", FieldErrors(verr))
	case errors.Is(err, profile.ErrProfileNotFound):
		NotFound(w, r, "profile not found")
	case errors.Is(err, livedata.ErrNoDataForDistrict):
		NotFound(w, r, err.Error())
	case errors.Is(err, livedata.ErrProviderUnavailable):
		ServiceUnavailable(w, r, "live conditions are temporarily unavailable")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		InternalError(w, r, "an unexpected error occurred")
	}
}

// FieldErrors converts validation failures to API field errors.
func FieldErrors(verr *travelrisk.ValidationError) []models.FieldError {
	out := make([]models.FieldError, 0, len(verr.Errors))
	for _, fe := range verr.Errors {
		code := models.CodeInvalid
		if fe.Message == "is required" {
			code = models.CodeRequired
		}
		out = append(out, models.FieldError{Field: fe.Field, Message: fe.Message, Code: code})
	}
	return out
}
