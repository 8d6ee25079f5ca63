package domain

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrInvalidID    = errors.New("invalid id")
	ErrValidation   = errors.New("validation failed")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrRoleNotFound       = errors.New("role not found")
)

// Token verification failure categories.
const (
	TokenExpired   = "TokenExpiredError"
	TokenMalformed = "JsonWebTokenError"
	TokenNotBefore = "NotBeforeError"
)

// TokenError reports why a bearer token failed verification.
type TokenError struct {
	Category string
	Err      error
}

func (e *TokenError) Error() string {
	return e.Category + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// Category names the class of a write failure so it can be reported to a
// client without exposing the underlying cause. It returns "" when err is
// not a recognised write failure.
func Category(err error) string {
	switch {
	case errors.Is(err, ErrDuplicateKey):
		return "DuplicateKeyError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	case errors.Is(err, ErrInvalidID):
		return "CastError"
	}
	return ""
}

// AppError is a failure that already carries the HTTP status and the message
// the client should see.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func Unauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

func BadRequest(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: msg}
}
