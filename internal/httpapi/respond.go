package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"ragnotes/internal/domain"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// statusFor maps pipeline failures to HTTP statuses.
func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidArgument, domain.KindDimensionMismatch:
		return http.StatusBadRequest
	case domain.KindEmptyIndex:
		return http.StatusConflict
	case domain.KindEmbeddingFailure, domain.KindCompletionFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with a status derived from its kind.
func WriteError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	resp := ErrorResponse{Error: string(domain.KindOf(err)), Message: err.Error()}
	if resp.Error == "" {
		resp.Error = http.StatusText(status)
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		resp.Details = derr.Details
	}
	_ = WriteJSON(w, status, resp)
}
