package router

import (
	"net/http"

	"github.com/akeren/mandarin-waitlist/internal/log"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"github.com/gin-gonic/gin"
)

type (
	RequestContext  = gin.Context
	MiddlewareFunc  = gin.HandlerFunc
	HandlerFunction func(*RequestContext) *ServiceResult
)

// ServiceResult is the {code, data, message} envelope every JSON handler
// answers with. StatusCode doubles as the HTTP status.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

func (result *ServiceResult) ToJSON() gin.H {
	return gin.H{"code": result.StatusCode, "data": result.Data, "message": result.Message}
}

// GetLogger returns the request-scoped logger installed by the router, or a
// fresh correlated one for contexts that bypassed it.
func GetLogger(ctx *RequestContext) *log.Logger {
	if l, ok := ctx.Request.Context().Value(log.LoggerKeyForContext).(*log.Logger); ok {
		return l
	}
	return log.NewLoggerWithJSONOutput().WithCorrelationID(ctx.Request.Context())
}

func newResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return newResult(statusCode, message, data)
}

func OKResult(data any, message string) *ServiceResult {
	return newResult(http.StatusOK, message, data)
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return newResult(http.StatusBadRequest, message, payload)
}

func NotFoundResult(message string) *ServiceResult {
	return newResult(http.StatusNotFound, message, nil)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return newResult(http.StatusInternalServerError, message, nil)
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return newResult(http.StatusTooManyRequests, "Too Many Requests", data)
}

// AppErrorResult maps err onto its HTTP status. Only an *AppError's own
// message reaches the client.
func AppErrorResult(err error) *ServiceResult {
	return ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), nil)
}
