package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrTransientFailure = errors.New("transient failure")
	ErrInvalidRegion    = errors.New("invalid region")
)

const (
	CodeOK               = "ok"
	CodePermissionDenied = "permission_denied"
	CodeTransientFailure = "transient_failure"
	CodeInvalidRegion    = "invalid_region"
	CodeUnknown          = "unknown"
)

// ErrorCode maps err to the stable code used on the wire, in metrics and in
// the operation ledger.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrTransientFailure):
		return CodeTransientFailure
	case errors.Is(err, ErrInvalidRegion):
		return CodeInvalidRegion
	default:
		return CodeUnknown
	}
}

// ParseErrorCode rebuilds an error from a code and a free-form reason.
// Unknown codes are treated as transient.
func ParseErrorCode(code, reason string) error {
	var base error
	switch code {
	case CodeOK, "":
		return nil
	case CodePermissionDenied:
		base = ErrPermissionDenied
	case CodeInvalidRegion:
		base = ErrInvalidRegion
	default:
		base = ErrTransientFailure
	}
	if reason == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, reason)
}
