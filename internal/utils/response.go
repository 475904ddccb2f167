package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ms-gallery/internal/models"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

func WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// StatusForError maps domain errors onto an HTTP status and a stable error code.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrStateConflict):
		return http.StatusConflict, "state_conflict"
	case errors.Is(err, models.ErrToggleInFlight):
		return http.StatusConflict, "toggle_in_flight"
	case errors.Is(err, models.ErrBucketNotFound):
		return http.StatusServiceUnavailable, "bucket_not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func WriteError(w http.ResponseWriter, message string, err error) {
	status, code := StatusForError(err)
	resp := ErrorResponse(message, err.Error())
	resp.Code = code
	if code == "bucket_not_found" {
		resp.Message = message + "; image upload is unavailable, submit an external image URL instead"
	}
	WriteJSON(w, status, resp)
}
