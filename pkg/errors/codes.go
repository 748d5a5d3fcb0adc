package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are namespaced by module: "<MODULE>_<NNN>".
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Entity Module Error Codes
const (
	ErrCodeInvalidDefinition  ErrorCode = "ENT_001"
	ErrCodeInvalidPattern     ErrorCode = "ENT_002"
	ErrCodeExtractionFailed   ErrorCode = "ENT_003"
	ErrCodeUtteranceTooLong   ErrorCode = "ENT_004"
	ErrCodeEntityNotFound     ErrorCode = "ENT_005"
	ErrCodeCatalogLoadFailed  ErrorCode = "ENT_006"
	ErrCodeUnknownTolerance   ErrorCode = "ENT_007"
	ErrCodeEmptyUtterance     ErrorCode = "ENT_008"
)

// Infrastructure Error Codes
const (
	ErrCodeMessagingError ErrorCode = "INFRA_001"
	ErrCodeStorageError   ErrorCode = "INFRA_002"
	ErrCodeConfigError    ErrorCode = "INFRA_003"
)

// Sentinel codes used by the chain helpers.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidDefinition: http.StatusUnprocessableEntity,
	ErrCodeInvalidPattern:    http.StatusUnprocessableEntity,
	ErrCodeExtractionFailed:  http.StatusInternalServerError,
	ErrCodeUtteranceTooLong:  http.StatusRequestEntityTooLarge,
	ErrCodeEntityNotFound:    http.StatusNotFound,
	ErrCodeCatalogLoadFailed: http.StatusInternalServerError,
	ErrCodeUnknownTolerance:  http.StatusBadRequest,
	ErrCodeEmptyUtterance:    http.StatusBadRequest,

	ErrCodeMessagingError: http.StatusBadGateway,
	ErrCodeStorageError:   http.StatusBadGateway,
	ErrCodeConfigError:    http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to their default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeCacheError:         "cache error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidDefinition: "invalid entity definition",
	ErrCodeInvalidPattern:    "invalid pattern",
	ErrCodeExtractionFailed:  "entity extraction failed",
	ErrCodeUtteranceTooLong:  "utterance exceeds maximum length",
	ErrCodeEntityNotFound:    "entity definition not found",
	ErrCodeCatalogLoadFailed: "failed to load entity catalog",
	ErrCodeUnknownTolerance:  "unknown fuzzy tolerance",
	ErrCodeEmptyUtterance:    "utterance is empty",

	ErrCodeMessagingError: "message broker error",
	ErrCodeStorageError:   "object storage error",
	ErrCodeConfigError:    "configuration error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
