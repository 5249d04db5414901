package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Error kinds returned by the services. Match them with errors.Is.
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// AppError is a failure that can be shown to the client
type AppError struct {
	Kind    error
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

// Is lets errors.Is match an AppError against its kind
func (e *AppError) Is(target error) bool {
	return e.Kind == target
}

func newAppError(kind error, code, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func invalid(code, format string, args ...interface{}) *AppError {
	return newAppError(ErrInvalidRequest, code, format, args...)
}

func forbidden(format string, args ...interface{}) *AppError {
	return newAppError(ErrForbidden, "FORBIDDEN", format, args...)
}

func notFound(code, format string, args ...interface{}) *AppError {
	return newAppError(ErrNotFound, code, format, args...)
}

func insufficientStock(productName string) *AppError {
	return newAppError(ErrInsufficientStock, "INSUFFICIENT_STOCK", "Insufficient stock for %s", productName)
}

// isDuplicateKey reports a unique constraint violation, whether or not the
// dialect translated it into gorm.ErrDuplicatedKey
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
