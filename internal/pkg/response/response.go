package response

import (
	"encoding/json"
	"net/http"

	"github.com/futig/lessonplan-backend/internal/entity"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent, nothing more can be reported
			return
		}
	}
}

// Error writes the failure envelope understood by the web client
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, entity.ErrorResponse{Message: message})
}

// TypedError writes a failure envelope carrying a machine-readable error type
func TypedError(w http.ResponseWriter, status int, errorType, message string) {
	JSON(w, status, entity.ErrorResponse{ErrorType: errorType, Message: message})
}

// Success writes a success response
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 Created response
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
