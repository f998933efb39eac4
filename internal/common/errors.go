package common

import (
	"errors"
	"fmt"
)

// Error codes carried by AppError.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeDecode          = "DECODE_ERROR"
	CodeInvalidSelector = "INVALID_SELECTOR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeWrite           = "WRITE_ERROR"
	CodeConfig          = "CONFIG_ERROR"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel registered for e.Code, so callers
// can match on the taxonomy with errors.Is without losing the cause chain.
func (e *AppError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Taxonomy sentinels
var (
	ErrNotFound        = errors.New("resource not found")
	ErrDecode          = errors.New("decode failed")
	ErrInvalidSelector = errors.New("invalid page selector")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrWrite           = errors.New("write failed")
	ErrConfig          = errors.New("invalid configuration")
)

var sentinels = map[string]error{
	CodeNotFound:        ErrNotFound,
	CodeDecode:          ErrDecode,
	CodeInvalidSelector: ErrInvalidSelector,
	CodeInvalidArgument: ErrInvalidArgument,
	CodeWrite:           ErrWrite,
	CodeConfig:          ErrConfig,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func NotFoundError(message string, cause error) error {
	return NewAppError(CodeNotFound, message, cause)
}

func DecodeError(message string, cause error) error {
	return NewAppError(CodeDecode, message, cause)
}

func InvalidSelectorError(message string) error {
	return NewAppError(CodeInvalidSelector, message, nil)
}

func InvalidArgumentError(message string) error {
	return NewAppError(CodeInvalidArgument, message, nil)
}

func WriteError(message string, cause error) error {
	return NewAppError(CodeWrite, message, cause)
}

func InvalidSelectorErrorf(format string, args ...interface{}) error {
	return InvalidSelectorError(fmt.Sprintf(format, args...))
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// CodeOf returns the AppError code found in err's chain, or "" if none.
func CodeOf(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
