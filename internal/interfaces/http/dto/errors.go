package dto

import (
	"net/http"
	"strings"
)

// API error codes, format ERR_<CATEGORY>[_<DESCRIPTION>]
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState  = "ERR_INVALID_STATE"
	ErrCodeInvalidInput  = "ERR_INVALID_INPUT"
	ErrCodePlanLimit     = "ERR_PLAN_LIMIT_EXCEEDED"
	ErrCodeUpstream      = "ERR_UPSTREAM_UNAVAILABLE"
	ErrCodeRateLimited   = "ERR_RATE_LIMITED"
	ErrCodeBodyTooLarge  = "ERR_REQUEST_TOO_LARGE"
	ErrCodeQueueFull     = "ERR_QUEUE_FULL"
	ErrCodeAccountLocked = "ERR_ACCOUNT_LOCKED"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,
	ErrCodeTokenRevoked: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:  http.StatusUnprocessableEntity,
	ErrCodeInvalidInput:  http.StatusBadRequest,
	ErrCodePlanLimit:     http.StatusPaymentRequired,
	ErrCodeUpstream:      http.StatusServiceUnavailable,
	ErrCodeRateLimited:   http.StatusTooManyRequests,
	ErrCodeBodyTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeQueueFull:     http.StatusServiceUnavailable,
	ErrCodeAccountLocked: http.StatusLocked,
}

// GetHTTPStatus returns the HTTP status code for an API error code.
// Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes maps the domain error codes that have an API code of their own
var domainCodes = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"INVALID_CREDENTIALS":   ErrCodeUnauthorized,
	"INVALID_REFRESH_TOKEN": ErrCodeTokenInvalid,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"PLAN_LIMIT_EXCEEDED":   ErrCodePlanLimit,
	"UPSTREAM_UNAVAILABLE":  ErrCodeUpstream,
	"ATA_QUEUE_FULL":        ErrCodeQueueFull,
	"ACCOUNT_LOCKED":        ErrCodeAccountLocked,
}

// conflictSuffixes mark domain codes that report a duplicate or a race
var conflictSuffixes = []string{"_ALREADY_EXISTS", "_IN_PROGRESS", "_IN_USE", "_ALREADY_CONVERTED"}

// FromDomainCode returns the API code and status for a domain error code.
// Codes without an explicit mapping are passed through with a status
// derived from their prefix or suffix; the rest are business rules (422).
func FromDomainCode(code string) (string, int) {
	if api, ok := domainCodes[code]; ok {
		return api, GetHTTPStatus(api)
	}
	switch {
	case strings.HasPrefix(code, "FORBIDDEN_"), strings.HasPrefix(code, "ACCOUNT_"), code == "ORGANIZATION_SUSPENDED":
		return code, http.StatusForbidden
	case strings.HasPrefix(code, "INVALID_"):
		return code, http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return code, http.StatusNotFound
	}
	for _, s := range conflictSuffixes {
		if strings.HasSuffix(code, s) {
			return code, http.StatusConflict
		}
	}
	if strings.HasSuffix(code, "_TOO_LARGE") {
		return code, http.StatusRequestEntityTooLarge
	}
	return code, http.StatusUnprocessableEntity
}
