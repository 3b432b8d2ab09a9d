package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes carried by AppError.
const (
	CodeConversion = "CONVERSION_FAILED"
	CodeConfig     = "CONFIG_ERROR"
	CodeStorage    = "STORAGE_ERROR"
	CodeInput      = "INVALID_INPUT"
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

// Common application errors
var (
	ErrConversion   = errors.New("document conversion failed")
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("database error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ConversionError reports that a document could not be turned into text.
// The result matches both ErrConversion and the underlying cause.
func ConversionError(cause error) *AppError {
	return &AppError{
		Code:    CodeConversion,
		Message: "Failed to parse PDF: " + cause.Error(),
		Cause:   fmt.Errorf("%w: %w", ErrConversion, cause),
	}
}

// UserMessage returns the message meant for API clients.
func UserMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

// StatusFromError maps application errors onto gRPC status errors.
func StatusFromError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput):
		return InvalidArgumentError(UserMessage(err))
	case errors.Is(err, ErrNotFound):
		return NotFoundError(UserMessage(err))
	default:
		return InternalError(UserMessage(err))
	}
}
