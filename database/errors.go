package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/kbukum/ledgerflow/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"driver: bad connection",
	"database is closed",
	"unable to open database file",
}

var transientPatterns = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"deadlock",
}

func containsAny(err error, patterns []string) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsConnectionError reports whether err means the database could not be reached.
func IsConnectionError(err error) bool {
	return err != nil && containsAny(err, connectionPatterns)
}

// IsRetryableError reports whether err may succeed on a later attempt.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return IsConnectionError(err) || containsAny(err, transientPatterns)
}

// FromDatabase converts a GORM or driver error into an AppError. Only
// connection and lock errors stay retryable; constraint and syntax errors
// would fail the same way again.
func FromDatabase(err error, operation string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	appErr := apperrors.DatabaseError(err).WithDetail("operation", operation)
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		appErr.Retryable = false
	case IsRetryableError(err):
		appErr.Retryable = true
	default:
		appErr.Retryable = false
	}
	return appErr
}
