package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error types classify an AppError for logging and HTTP mapping.
const (
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeUpstreamFailure     = "UPSTREAM_FAILURE"
	ErrorTypeUnavailable         = "SERVICE_UNAVAILABLE"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

// UniqueViolationCode is the SQLSTATE Postgres, and the hosted stores built
// on it, report when an insert collides with a unique index.
const UniqueViolationCode = "23505"

// AppError carries a client-safe Message next to the internal cause.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(ErrorTypeConflict, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

// NewUpstreamError marks a failure of a dependency this service calls out
// to, such as a hosted datastore or document database.
func NewUpstreamError(message string, err error) *AppError {
	return NewAppError(ErrorTypeUpstreamFailure, message, err)
}

func NewUnavailableError(message string, err error) *AppError {
	return NewAppError(ErrorTypeUnavailable, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

// GetErrorType returns the type of the first AppError in err's chain,
// ErrorTypeUnknown when there is none and "" for a nil error.
func GetErrorType(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// PostgresErrorCode returns the SQLSTATE carried anywhere in err's chain, or "".
func PostgresErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// sqliteUniquePrefix opens the message SQLite gives a UNIQUE index clash.
const sqliteUniquePrefix = "UNIQUE constraint failed: "

// IsDuplicateKeyError recognises unique violations from Postgres (by
// SQLSTATE), SQLite (by its constraint message) and AppErrors of type
// conflict. Other text that merely mentions duplicates does not count.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if PostgresErrorCode(err) == UniqueViolationCode || GetErrorType(err) == ErrorTypeConflict {
		return true
	}
	return strings.HasPrefix(err.Error(), sqliteUniquePrefix)
}
