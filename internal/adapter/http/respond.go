package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string            `json:"error"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, message string, statusCode int, validationErrors []ValidationError) {
	respondJSON(w, statusCode, ErrorResponse{
		Error:  message,
		Errors: validationErrors,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes. Anything unknown is
// an internal error and its text is not shown to the client.
func statusFor(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrTableRequired):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "User already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrGiftCardBalanceChanged),
		errors.Is(err, domain.ErrInvalidStatusTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrInvalidTableCode),
		errors.Is(err, domain.ErrGiftCardExpired),
		errors.Is(err, domain.ErrInvalidGiftCardAmount),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Request cancelled"
	}
	return http.StatusInternalServerError, "Internal server error"
}

// fail writes the mapped error response. Internal errors are logged.
func fail(w http.ResponseWriter, r *http.Request, lgr logger.Logger, action string, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		lgr.Error(action, "Request failed", RequestID(r.Context()), map[string]interface{}{
			"path": r.URL.Path,
		}, err)
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		respondError(w, message, status, []ValidationError{{Field: verr.Field, Message: verr.Message}})
		return
	}
	respondError(w, message, status, nil)
}
