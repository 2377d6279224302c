// Seedmap - Collaborative Map Markers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/seedmap

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/seedmap/internal/logging"
	"github.com/tomtom215/seedmap/internal/validation"
)

// APIResponse is the envelope for every JSON response.
//
// Data may be set on errors too: a failed delete still reports {ok:false}.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError is the error part of the envelope.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta carries request tracing data.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeStoreError         = "STORE_ERROR"
)

// ResponseWriter writes enveloped JSON responses for one request.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a response writer for r.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{
		w:         w,
		r:         r,
		startTime: time.Now(),
	}
}

// Success writes a 200 response with data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.write(http.StatusOK, data, nil)
}

// Created writes a 201 response with data.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.write(http.StatusCreated, data, nil)
}

// Error writes an error response.
func (rw *ResponseWriter) Error(statusCode int, code, message string) {
	rw.ErrorWithDetails(statusCode, code, message, nil)
}

// ErrorWithDetails writes an error response with details.
func (rw *ResponseWriter) ErrorWithDetails(statusCode int, code, message string, details interface{}) {
	rw.ErrorWithData(statusCode, code, message, details, nil)
}

// ErrorWithData writes an error response that also carries a data payload.
func (rw *ResponseWriter) ErrorWithData(statusCode int, code, message string, details, data interface{}) {
	rw.write(statusCode, data, &APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// BadRequest writes a 400 error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// NotFound writes a 404 error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// InternalError writes a 500 error.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternalError, message)
}

// ServiceUnavailable writes a 503 error.
func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// ValidationError writes a 400 error listing the failed fields.
func (rw *ResponseWriter) ValidationError(verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}

// StoreError logs err and writes a 500.
func (rw *ResponseWriter) StoreError(err error) {
	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Store error")
	rw.Error(http.StatusInternalServerError, ErrCodeStoreError, "A storage error occurred")
}

func (rw *ResponseWriter) write(statusCode int, data interface{}, apiErr *APIError) {
	requestID := logging.RequestIDFromContext(rw.r.Context())
	if apiErr != nil {
		apiErr.RequestID = requestID
	}

	rw.writeJSON(statusCode, APIResponse{
		Success: apiErr == nil,
		Data:    data,
		Error:   apiErr,
		Meta: &APIMeta{
			RequestID:  requestID,
			Timestamp:  time.Now(),
			DurationMs: time.Since(rw.startTime).Milliseconds(),
		},
	})
}

func (rw *ResponseWriter) writeJSON(statusCode int, body interface{}) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.Header().Set("Cache-Control", "no-store")
	rw.w.WriteHeader(statusCode)

	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
