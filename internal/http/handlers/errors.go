// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP
// responses (via the `fail()` helper in this package) and the translation of
// domain errors into those responses (`failFromErr`).
//
// Conventions:
//   - Codes are lowercase, snake_case, and stable across releases.
//   - Generic codes (e.g., bad_request, unauthorized, not_found) mirror common
//     HTTP status semantics to aid interoperability.
//   - Vault-specific codes (upload_failed, unavailable) describe failures of
//     the attachment store or the message store.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "upload_failed",
//	  "message": "attachment could not be stored"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-time-vault/internal/domain"
	"github.com/tbourn/go-time-vault/internal/services"
)

const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeUnauthorized    = "unauthorized"
	ErrCodeNotFound        = "not_found"
	ErrCodeRateLimited     = "too_many_requests"
	ErrCodeInternal        = "internal_error"
	ErrCodePayloadTooLarge = "payload_too_large"

	// Domain-specific:
	ErrCodeUploadFailed     = "upload_failed"
	ErrCodeUnavailable      = "unavailable"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

// failFromErr maps an error from the service layer onto the error envelope.
//
// Validation messages are safe to echo. Upload and store failures carry
// driver details, so clients get a fixed message and the cause goes to the
// request log through fail().
func failFromErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAttachmentTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "resource not found")
	case errors.Is(err, domain.ErrUploadFailed):
		_ = c.Error(err)
		fail(c, http.StatusBadGateway, ErrCodeUploadFailed, "attachment could not be stored")
	case errors.Is(err, domain.ErrUnavailable):
		_ = c.Error(err)
		fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "message store unavailable")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
