package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.  Codes
// follow the MODULE_NNN convention.
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
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by call sites that predate the numbered codes.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Depiction Module Error Codes
const (
	ErrCodeInvalidGraph     ErrorCode = "DEP_001"
	ErrCodeInvalidOption    ErrorCode = "DEP_002"
	ErrCodeGraphTooLarge    ErrorCode = "DEP_003"
	ErrCodeAnnotationFailed ErrorCode = "DEP_004"
	ErrCodeEmptyRequest     ErrorCode = "DEP_005"
)

// Job Module Error Codes
const (
	ErrCodeJobInvalid        ErrorCode = "JOB_001"
	ErrCodeResultStoreFailed ErrorCode = "JOB_002"
	ErrCodePublishFailed     ErrorCode = "JOB_003"
	ErrCodeConsumeFailed     ErrorCode = "JOB_004"
	ErrCodeJobNotFound       ErrorCode = "JOB_005"
	ErrCodeJobTransition     ErrorCode = "JOB_006"
)

// Infrastructure aliases.
const (
	CodeMessageQueueError = ErrCodePublishFailed
	CodeStorageError      = ErrCodeResultStoreFailed
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
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidGraph:     http.StatusBadRequest,
	ErrCodeInvalidOption:    http.StatusBadRequest,
	ErrCodeGraphTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeAnnotationFailed: http.StatusInternalServerError,
	ErrCodeEmptyRequest:     http.StatusBadRequest,

	ErrCodeJobInvalid:        http.StatusBadRequest,
	ErrCodeResultStoreFailed: http.StatusInternalServerError,
	ErrCodePublishFailed:     http.StatusInternalServerError,
	ErrCodeConsumeFailed:     http.StatusInternalServerError,
	ErrCodeJobNotFound:       http.StatusNotFound,
	ErrCodeJobTransition:     http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
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
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidGraph:     "invalid molecular graph",
	ErrCodeInvalidOption:    "invalid depiction option",
	ErrCodeGraphTooLarge:    "molecular graph exceeds the atom limit",
	ErrCodeAnnotationFailed: "annotation failed",
	ErrCodeEmptyRequest:     "request carries neither a molecule nor a reaction",

	ErrCodeJobInvalid:        "invalid annotation job",
	ErrCodeResultStoreFailed: "failed to store annotation result",
	ErrCodePublishFailed:     "failed to publish event",
	ErrCodeConsumeFailed:     "failed to consume message",
	ErrCodeJobNotFound:       "annotation job not found",
	ErrCodeJobTransition:     "illegal job status transition",
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
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
