// Package response defines the versioned JSON envelope every endpoint answers with.
package response

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// Version is the envelope format version sent as "v".
const Version = 1

// Envelope provides a consistent JSON response structure.
//
// Successful responses carry Data. Failed responses carry Error (the
// human-readable message, kept for older clients) plus Code, Message and
// optional Details.
type Envelope struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

// OK wraps data in a success envelope.
func OK(data any) Envelope {
	return Envelope{V: Version, Success: true, Data: data}
}

// Fail builds an error envelope.
func Fail(code, message string, details any) Envelope {
	return Envelope{
		V:       Version,
		Success: false,
		Error:   message,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// JSON writes an envelope with the given status code.
func JSON(w http.ResponseWriter, status int, envelope Envelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		if logger != nil {
			logger.Error("failed to encode JSON response", "error", err)
		}
	}
}

// Success writes a successful JSON response (200 OK).
func Success(w http.ResponseWriter, data any, logger *slog.Logger) {
	JSON(w, http.StatusOK, OK(data), logger)
}

// Error writes an error envelope with the given status and code.
func Error(w http.ResponseWriter, status int, code domainerrors.Code, message string, logger *slog.Logger) {
	JSON(w, status, Fail(string(code), message, nil), logger)
}

// Forbidden writes a 403 Forbidden response.
func Forbidden(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusForbidden, domainerrors.CodeForbidden, message, logger)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	w.Header().Set("Retry-After", "60")
	Error(w, http.StatusTooManyRequests, CodeRateLimited, message, logger)
}

// CodeRateLimited is the code sent with 429 responses. It is transport-only,
// services never produce it.
const CodeRateLimited domainerrors.Code = "RATE_LIMITED"

// HandleError writes an appropriate HTTP response based on the error type.
// Domain and store errors keep their status, unknown errors become 500.
func HandleError(w http.ResponseWriter, err error, logger *slog.Logger) {
	status, envelope := FromError(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.Error("unhandled error", "error", err)
	}
	JSON(w, status, envelope, logger)
}

// FromError maps err to a status and error envelope.
func FromError(err error) (int, Envelope) {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.HTTPStatus(), Fail(string(domainErr.Code), domainErr.Message, domainErr.Details)
	}

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		return storeErr.HTTPCode(), Fail(string(StatusCode(storeErr.HTTPCode())), storeErr.Message, nil)
	}

	return http.StatusInternalServerError, Fail(string(domainerrors.CodeInternal), "internal server error", nil)
}

// StatusCode maps HTTP status codes to error codes.
func StatusCode(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domainerrors.CodeValidation
	case http.StatusUnauthorized:
		return domainerrors.CodeUnauthorized
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusConflict:
		return domainerrors.CodeConflict
	case http.StatusTooManyRequests:
		return CodeRateLimited
	case http.StatusServiceUnavailable:
		return domainerrors.CodeUnavailable
	default:
		return domainerrors.CodeInternal
	}
}
