package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{NewNotFoundError("x", nil), http.StatusNotFound},
		{NewInvalidRequestError("x", nil), http.StatusBadRequest},
		{NewConflictError("x", nil), http.StatusConflict},
		{NewDatabaseError("x", nil), http.StatusInternalServerError},
		{NewUpstreamError("x", nil), http.StatusBadGateway},
		{NewUnavailableError("x", nil), http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", NewUpstreamError("x", nil)), http.StatusBadGateway},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), "%v", tt.err)
	}
}

func TestGetHumanReadableMessage(t *testing.T) {
	assert.Equal(t, "Join page not found", GetHumanReadableMessage(NewNotFoundError("Join page not found", errors.New("stat /srv/x: no such file"))))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(errors.New("pq: password authentication failed")))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(nil))
}

func TestAppErrorUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := NewUpstreamError("store unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeUpstreamFailure, GetErrorType(err))
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(cause))
	assert.Empty(t, GetErrorType(nil))
}

func TestIsDuplicateKeyError(t *testing.T) {
	pgDup := &pgconn.PgError{Code: UniqueViolationCode, Message: "duplicate key value violates unique constraint \"waitlist_email_key\""}

	assert.True(t, IsDuplicateKeyError(pgDup))
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("insert: %w", pgDup)))
	assert.True(t, IsDuplicateKeyError(errors.New("UNIQUE constraint failed: waitlist.email")))
	assert.True(t, IsDuplicateKeyError(NewConflictError("already there", nil)))
	assert.False(t, IsDuplicateKeyError(&pgconn.PgError{Code: "23502"}))
	assert.False(t, IsDuplicateKeyError(errors.New("connection refused")))
	assert.False(t, IsDuplicateKeyError(errors.New("dial tcp: lookup duplicate-replica.db.internal: no such host")))
	assert.False(t, IsDuplicateKeyError(errors.New("unique constraint check skipped")))
	assert.False(t, IsDuplicateKeyError(nil))

	assert.Equal(t, UniqueViolationCode, PostgresErrorCode(fmt.Errorf("x: %w", pgDup)))
	assert.Empty(t, PostgresErrorCode(errors.New("x")))
}

type localeRequest struct {
	Locale string `json:"locale" validate:"required,oneof=en mn"`
	Note   string `json:"note,omitempty" validate:"max=3"`
}

func TestFormatValidationErrors(t *testing.T) {
	err := validator.New().Struct(localeRequest{Locale: "fr", Note: "toolong"})
	require.Error(t, err)

	got := FormatValidationErrors(err, &localeRequest{})

	assert.Equal(t, []ValidationErrorResponse{
		{Field: "locale", Message: "Must be one of: en, mn"},
		{Field: "note", Message: "Must not exceed 3 characters"},
	}, got)

	assert.Nil(t, FormatValidationErrors(errors.New("EOF"), nil))
	assert.Nil(t, FormatValidationErrors(nil, nil))
}
