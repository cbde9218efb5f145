package dto

import "net/http"

// Error codes returned in the error envelope.
// Format: ERR_{CATEGORY}_{SPECIFIC}

// General errors
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation errors
const (
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeInvalidItem = "ERR_INVALID_ITEM"
)

// Request errors
const (
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON     = "ERR_INVALID_JSON"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// Resource and state errors
const (
	ErrCodeNotFound        = "ERR_NOT_FOUND"
	ErrCodeProductNotFound = "ERR_PRODUCT_NOT_FOUND"
	ErrCodeInvalidState    = "ERR_INVALID_STATE"
	ErrCodeCartEmpty       = "ERR_CART_EMPTY"
)

// Infrastructure errors
const (
	ErrCodeStorageUnavailable = "ERR_STORAGE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeInvalidItem: http.StatusBadRequest,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,

	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeProductNotFound: http.StatusNotFound,
	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeCartEmpty:       http.StatusUnprocessableEntity,

	ErrCodeStorageUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps domain error codes to API error codes
var domainErrorCodes = map[string]string{
	"NOT_FOUND":           ErrCodeNotFound,
	"INVALID_INPUT":       ErrCodeInvalidInput,
	"INVALID_STATE":       ErrCodeInvalidState,
	"INVALID_ITEM":        ErrCodeInvalidItem,
	"PRODUCT_NOT_FOUND":   ErrCodeProductNotFound,
	"CART_EMPTY":          ErrCodeCartEmpty,
	"STORAGE_UNAVAILABLE": ErrCodeStorageUnavailable,
}

// NormalizeErrorCode converts a domain error code to its ERR_ form.
// Codes already in that form are returned unchanged.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainErrorCodes[code]; ok {
		return mapped
	}
	return code
}
