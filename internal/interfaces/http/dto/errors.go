package dto

import (
	"net/http"

	"github.com/fintrack/backend/internal/domain/shared"
)

// Transport-level error codes for failures that never reach the domain
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain and transport error codes to HTTP
// status codes. Domain codes come from the shared error catalogue;
// anything unknown falls back to 500.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeDuplicateKey: http.StatusConflict,

	// Authenticated but not allowed
	shared.CodeUnauthorized: http.StatusForbidden,

	// Rejected before any state change
	shared.CodeInvalidInput:  http.StatusBadRequest,
	shared.CodeInvalidAmount: http.StatusBadRequest,

	// Valid input, but the aggregate state forbids the operation
	shared.CodeIllegalTransition: http.StatusUnprocessableEntity,
	shared.CodeOutOfOrder:        http.StatusUnprocessableEntity,
	shared.CodeAlreadyTerminal:   http.StatusUnprocessableEntity,
	shared.CodeInsufficientFunds: http.StatusUnprocessableEntity,

	shared.CodeConcurrentModification: http.StatusConflict,

	ErrCodeBadRequest: http.StatusBadRequest,
	// ErrCodeUnauthorized shares the "UNAUTHORIZED" string with
	// shared.CodeUnauthorized (mapped above); its call sites set the
	// 401 status directly and never look it up here.
	ErrCodeForbidden: http.StatusForbidden,
	ErrCodeInternal:  http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not known.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
