package errors

import (
	"errors"
	"net/http"
)

const genericClientMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeNotFound:        http.StatusNotFound,
	ErrorTypeInvalidRequest:  http.StatusBadRequest,
	ErrorTypeConflict:        http.StatusConflict,
	ErrorTypeUpstreamFailure: http.StatusBadGateway,
	ErrorTypeUnavailable:     http.StatusServiceUnavailable,
}

// HTTPStatusCode maps err's AppError type onto a status. Database faults,
// internal errors and foreign errors are all 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError's own message. Anything else
// gets a generic message so driver and stack details stay server-side.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return genericClientMessage
}
