package errors

import (
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeBadRequest      ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_005"
	ErrCodeTimeout         ErrorCode = "COMMON_009"
	ErrCodeValidation      ErrorCode = "COMMON_010"
	ErrCodeSerialization   ErrorCode = "COMMON_011"
	ErrCodeDatabaseError   ErrorCode = "COMMON_012"
	ErrCodeCacheError      ErrorCode = "COMMON_013"
	ErrCodeExternalService ErrorCode = "COMMON_014"
	ErrCodeNotImplemented  ErrorCode = "COMMON_016"
)

// Generative pipeline error codes
const (
	ErrCodeConfiguration       ErrorCode = "GEN_001"
	ErrCodeLookup              ErrorCode = "GEN_002"
	ErrCodeNumericalDegeneracy ErrorCode = "GEN_003"
	ErrCodeArtifactNotFound    ErrorCode = "GEN_004"
	ErrCodeArtifactLoad        ErrorCode = "GEN_005"
	ErrCodeComponentBuild      ErrorCode = "GEN_006"
)

// Dataset source error codes
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_004"
)

// Aliases for backward compatibility
const (
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeNotImplemented = ErrCodeNotImplemented
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeBadRequest:      "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeTimeout:         "timeout",
	ErrCodeValidation:      "validation failed",
	ErrCodeSerialization:   "serialization failed",
	ErrCodeDatabaseError:   "database error",
	ErrCodeCacheError:      "cache error",
	ErrCodeExternalService: "external service error",
	ErrCodeNotImplemented:  "not implemented",

	ErrCodeConfiguration:       "invalid configuration",
	ErrCodeLookup:              "value not observed during fitting",
	ErrCodeNumericalDegeneracy: "numerically degenerate input",
	ErrCodeArtifactNotFound:    "artifact not found",
	ErrCodeArtifactLoad:        "failed to load artifact",
	ErrCodeComponentBuild:      "failed to build model component",

	ErrCodeDataSourceUnavailable: "data source unavailable",
	ErrCodeDataSourceParseError:  "failed to parse data source response",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsFatalAtSetup reports whether errors carrying code must abort pipeline
// construction.  Lookup misses are the only sampling-time failure.
func IsFatalAtSetup(code ErrorCode) bool {
	switch code {
	case ErrCodeConfiguration, ErrCodeArtifactNotFound, ErrCodeArtifactLoad, ErrCodeComponentBuild:
		return true
	default:
		return false
	}
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
