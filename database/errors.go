package database

import (
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/modelfixture/errors"
)

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"i/o timeout",
		"no route to host",
		"network is unreachable",
		"connection closed",
		"driver: bad connection",
		"invalid connection",
		"database is locked",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// IsNotFoundError checks if the error is a GORM record-not-found error.
func IsNotFoundError(err error) bool {
	return stderrors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError checks if the error is a GORM duplicate-key violation.
func IsDuplicateError(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}

// FromDatabase converts a database error to a new AppError that keeps err as
// its cause, so callers can still match the original driver error. An
// AppError returned by a hook keeps its code but is never modified.
func FromDatabase(err error, resource string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	var top *apperrors.AppError
	if stderrors.As(err, &top) {
		if top == err {
			return top.Clone()
		}
		wrapped := apperrors.New(top.Code, top.Message).WithCause(err)
		wrapped.Retryable = top.Retryable
		return wrapped
	}

	switch {
	case IsNotFoundError(err):
		return apperrors.NotFound(resource, "").WithCause(err)
	case IsDuplicateError(err):
		return apperrors.AlreadyExists(resource).WithCause(err)
	case IsConnectionError(err):
		return apperrors.ConnectionFailed(resource).WithCause(err)
	default:
		return apperrors.DatabaseError(err).WithDetail("resource", resource)
	}
}
