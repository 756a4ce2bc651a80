package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/digitalrsvp/rsvp-server/internal/errors"
	"github.com/digitalrsvp/rsvp-server/internal/http/response"
	"github.com/digitalrsvp/rsvp-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		var fieldErrors map[string]string

		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    string(response.StatusCode(storeErr.HTTPCode())),
					Message: storeErr.Message,
				}
			}

			// Request parsing failures from huma itself.
			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				if fieldErrors == nil {
					fieldErrors = make(map[string]string)
				}
				fieldErrors[detail.Location] = detail.Message
			}
		}

		// Huma rejects malformed bodies with 422; clients see them as validation failures.
		if status == 422 {
			status = 400
		}

		apiErr := &APIError{
			status:  status,
			Code:    string(response.StatusCode(status)),
			Message: message,
		}
		if fieldErrors != nil {
			apiErr.Details = fieldErrors
		}
		return apiErr
	}
}
