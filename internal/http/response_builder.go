// This file builds JSON responses and maps domain errors to status codes.

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"teddy/internal/advisor"
	"teddy/internal/core"
	"teddy/internal/log"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

func NewJSONResponse(payload any) *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
		payload:    payload,
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the response. A nil payload writes only the status.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

// ErrorResponse creates an error response with a machine-readable code.
func ErrorResponse(statusCode int, code, message string) *JSONResponseBuilder {
	return NewJSONResponse(ErrorBody{Error: message, Code: code}).Status(statusCode)
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "validation_failed", message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, "internal", message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
}

// Validation messages shown to the user.
var validationMessages = []struct {
	err error
	msg string
}{
	{core.ErrInvalidAmount, "Please enter a valid amount"},
	{core.ErrInvalidCategory, "Please choose a category"},
	{core.ErrInvalidDate, "Please enter a valid date"},
	{core.ErrDescriptionTooLong, "Description must be at most 200 characters"},
	{advisor.ErrEmptyMessage, "Please type a message"},
}

// writeError maps err to a response. fallback is the user-facing message for
// unexpected failures.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		ErrorResponse(http.StatusRequestEntityTooLarge, "too_large", "Request body is too large").Write(w)
		return
	case errors.Is(err, errBadBody):
		BadRequestError("Malformed request body").Write(w)
		return
	case errors.Is(err, core.ErrTransactionNotFound):
		NotFoundError("Transaction not found").Write(w)
		return
	}
	for _, v := range validationMessages {
		if errors.Is(err, v.err) {
			UnprocessableEntityError(v.msg).Write(w)
			return
		}
	}

	log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
		log.FieldPath, r.URL.Path, log.FieldError, err)
	InternalServerError(fallback).Write(w)
}
