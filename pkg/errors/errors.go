// Package errors provides the unified error type and factory functions for
// KeyIP-Depict.  Every layer (domain, application, infrastructure, interfaces)
// reports failures as *AppError so that HTTP responses, CLI output and worker
// dead-letter records carry the same code.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

// captureStack returns a formatted call-stack string starting two frames above
// the caller (skipping captureStack itself and New/Wrap).
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the structured error type used throughout the service.  It
// supports errors.Is / errors.As / errors.Unwrap through Unwrap.
//
// Usage:
//
//	return errors.New(errors.ErrCodeInvalidGraph, "bond references unknown atom")
//	return errors.Wrap(err, errors.ErrCodeResultStoreFailed, "put result").
//	           WithDetail("key=results/" + jobID + ".json")
type AppError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is safe to return to API callers.
	Message string

	// Detail carries supplementary context (indices, keys, option values).
	Detail string

	// Cause is the underlying error, if any.
	Cause error

	// Stack is the call stack captured at creation.  It is never part of
	// Error() output.
	Stack string
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>"; the detail segment is omitted when
// Detail is empty.
func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Message, e.Detail)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail returns a shallow copy of the receiver with Detail set.  It is
// safe to call on a nil pointer (returns nil).
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a shallow copy of the receiver with Cause set to err.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// New constructs a fresh AppError with the given code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Wrap constructs an AppError around err.  A nil err yields nil.  When err
// already is an *AppError and code is CodeUnknown the original code is kept.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any error in err's chain is an *AppError with the
// given code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err's chain carries CodeNotFound.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// GetCode extracts the ErrorCode from the first *AppError in err's chain.
// A nil error yields CodeOK and a foreign error CodeUnknown.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// ── Convenience factories ────────────────────────────────────────────────────

// NotFound constructs a CodeNotFound AppError.
func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Stack: captureStack(1)}
}

// InvalidParam constructs a CodeInvalidParam AppError.
func InvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message, Stack: captureStack(1)}
}

// InvalidGraph constructs an ErrCodeInvalidGraph AppError.
func InvalidGraph(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidGraph, Message: message, Stack: captureStack(1)}
}

// InvalidOption constructs an ErrCodeInvalidOption AppError.
func InvalidOption(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidOption, Message: message, Stack: captureStack(1)}
}

// Internal constructs a CodeInternal AppError.  Log the underlying cause
// before or after calling Internal.
func Internal(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Stack: captureStack(1)}
}

// Conflict constructs a CodeConflict AppError.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, Stack: captureStack(1)}
}

//Personal.AI order the ending
