// Package response provides utilities for HTTP response handling.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/bookdrop/bookdrop/internal/api/middleware"
	"github.com/bookdrop/bookdrop/internal/api/models"
)

// JSON writes a JSON response with the given status code.
// Includes X-Request-Id header for correlation.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Message writes a `{"message": ...}` body with the given status code.
func Message(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, models.Message{Message: message})
}

// NotFound writes a 404 Not Found message response.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Message(w, r, http.StatusNotFound, message)
}

// Forbidden writes a 403 Forbidden message response.
func Forbidden(w http.ResponseWriter, r *http.Request, message string) {
	Message(w, r, http.StatusForbidden, message)
}

// UnprocessableEntity writes a 422 message response for validation failures.
func UnprocessableEntity(w http.ResponseWriter, r *http.Request, message string) {
	Message(w, r, http.StatusUnprocessableEntity, message)
}

// InternalError writes a 500 Internal Server Error message response.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	Message(w, r, http.StatusInternalServerError, message)
}

// ServiceUnavailable writes a 503 Service Unavailable message response.
func ServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	Message(w, r, http.StatusServiceUnavailable, message)
}

// Created writes a 201 Created response with no body.
// Includes X-Request-Id header for correlation.
func Created(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	w.WriteHeader(http.StatusCreated)
}

// SeeOther writes a 303 See Other redirect to the given location.
func SeeOther(w http.ResponseWriter, r *http.Request, location string) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
