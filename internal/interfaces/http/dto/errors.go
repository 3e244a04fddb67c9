package dto

import (
	"net/http"

	"github.com/shopsync/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStore is used when the canonical store failed
	ErrCodeStore = "ERR_STORE"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeNotPublished = "ERR_NOT_PUBLISHED"
	ErrCodeConflict     = "ERR_CONFLICT"
	// ErrCodeDuplicateRequest is used when an idempotency key was already seen
	ErrCodeDuplicateRequest = "ERR_DUPLICATE_REQUEST"
)

// Business rule error codes
const (
	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeConfirmationRequired = "ERR_CONFIRMATION_REQUIRED"
)

// Input error codes
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeInvalidSite     = "ERR_INVALID_SITE"
	ErrCodeInvalidSKU      = "ERR_INVALID_SKU"
	ErrCodeInvalidFields   = "ERR_INVALID_FIELDS"
	ErrCodeInvalidMode     = "ERR_INVALID_MODE"
	ErrCodeInvalidDraft    = "ERR_INVALID_DRAFT"
	ErrCodeInvalidOrder    = "ERR_INVALID_ORDER"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Storefront error codes
const (
	// ErrCodeSiteUnavailable is used when a storefront kept failing transiently
	ErrCodeSiteUnavailable = "ERR_SITE_UNAVAILABLE"
	// ErrCodeSiteRejected is used when a storefront refused the request
	ErrCodeSiteRejected = "ERR_SITE_REJECTED"
	// ErrCodeSchedulerUnavailable is used when the sweep scheduler cannot take jobs
	ErrCodeSchedulerUnavailable = "ERR_SCHEDULER_UNAVAILABLE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeStore:    http.StatusInternalServerError,

	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeNotPublished:     http.StatusUnprocessableEntity,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeDuplicateRequest: http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeConfirmationRequired: http.StatusPreconditionRequired,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidSite:     http.StatusBadRequest,
	ErrCodeInvalidSKU:      http.StatusBadRequest,
	ErrCodeInvalidFields:   http.StatusBadRequest,
	ErrCodeInvalidMode:     http.StatusBadRequest,
	ErrCodeInvalidDraft:    http.StatusBadRequest,
	ErrCodeInvalidOrder:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeSiteUnavailable:      http.StatusServiceUnavailable,
	ErrCodeSiteRejected:         http.StatusBadGateway,
	ErrCodeSchedulerUnavailable: http.StatusServiceUnavailable,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to API error codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"CONFLICT":              ErrCodeConflict,
	"CONFIRMATION_REQUIRED": ErrCodeConfirmationRequired,
	"INVALID_SITE":          ErrCodeInvalidSite,
	"INVALID_SITES":         ErrCodeInvalidSite,
	"INVALID_SKU":           ErrCodeInvalidSKU,
	"INVALID_SKUS":          ErrCodeInvalidSKU,
	"INVALID_FIELDS":        ErrCodeInvalidFields,
	"INVALID_MODE":          ErrCodeInvalidMode,
	"INVALID_DRAFT":         ErrCodeInvalidDraft,
	"INVALID_ORDER_ID":      ErrCodeInvalidOrder,
	"INVALID_STATUS":        ErrCodeInvalidOrder,
	"INVALID_NOTE":          ErrCodeInvalidOrder,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}

// CodeForKind maps the kind of a failed unit of work to an API error code
func CodeForKind(kind shared.ErrorKind) string {
	switch kind {
	case shared.ErrorKindTransient:
		return ErrCodeSiteUnavailable
	case shared.ErrorKindFatal:
		return ErrCodeSiteRejected
	case shared.ErrorKindNotFound:
		return ErrCodeNotFound
	case shared.ErrorKindNotPublished:
		return ErrCodeNotPublished
	case shared.ErrorKindStore:
		return ErrCodeStore
	case shared.ErrorKindInvalidInput:
		return ErrCodeInvalidInput
	default:
		return ErrCodeInternal
	}
}
