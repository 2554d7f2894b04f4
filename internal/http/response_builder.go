// Package http serves the recurring-rule and ledger API.
//
// This file implements the Builder Pattern for JSON responses so every
// handler writes the same envelope.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NotificationType tells a client how to present a response message.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Envelope is the body of every API response.
type Envelope struct {
	Message string           `json:"message,omitempty"`
	Level   NotificationType `json:"level,omitempty"`
	Data    any              `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   Envelope
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.envelope.Data = v
	return b
}

// Notify attaches a message the client should show.
func (b *ResponseBuilder) Notify(level NotificationType, message string) *ResponseBuilder {
	b.envelope.Level = level
	b.envelope.Message = message
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.statusCode == http.StatusNoContent {
		return
	}
	if err := json.NewEncoder(w).Encode(b.envelope); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	b := NewResponse().Status(statusCode)
	b.envelope.Error = message
	return b
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// BadGatewayError reports a backend that could not be reached.
func BadGatewayError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadGateway, message)
}
