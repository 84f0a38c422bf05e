package waitlist

import (
	"errors"
	"fmt"

	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
)

// StoreError is a structured rejection from the waitlist store. Any other
// error a store returns is treated as a transport fault.
type StoreError struct {
	Code string
	// Message is client-safe text from the store, empty when the store has
	// nothing worth showing.
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("waitlist store: code=%s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("waitlist store: code=%s: %s", e.Code, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newUniqueViolation(err error) *StoreError {
	return &StoreError{Code: apperrors.UniqueViolationCode, Err: err}
}

func IsUniqueViolation(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr) && storeErr.Code == apperrors.UniqueViolationCode
}
