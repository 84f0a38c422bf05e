package waitlist

import (
	"time"

	"github.com/akeren/mandarin-waitlist/config/router"
	"github.com/akeren/mandarin-waitlist/internal/locale"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/pkg/constants"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"github.com/akeren/mandarin-waitlist/pkg/factory"
	"github.com/akeren/mandarin-waitlist/pkg/ratelimit"
)

func NewWaitlistController(
	repository WaitlistRepository,
	logger *log.Logger,
	rateLimiters factory.RateLimiterFactory,
) *router.RESTController {

	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			var observers []SubmissionObserver

			submissionMetrics, err := NewSubmissionMetrics(rs.MetricsRegisterer())
			if err != nil {
				logger.Error("Failed to register waitlist metrics", "error", err)
			} else {
				observers = append(observers, submissionMetrics)
			}

			service := NewWaitlistService(logger, repository, observers...)

			rs.AddPostHandler(c, createSubmissionRateLimiter(rateLimiters), "", submitHandler(service))
		},
	)
}

func createSubmissionRateLimiter(rateLimiters factory.RateLimiterFactory) ratelimit.RateLimiter {
	if rateLimiters != nil {
		return rateLimiters.CreateRateLimiter(constants.WaitlistRequestsPerMinute, time.Minute, "waitlist")
	}

	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: constants.WaitlistRequestsPerMinute,
		Window:   time.Minute,
	})
}

func submitHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinWaitlistRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Error("Failed to bind request", "error", err)

			validationErrors := apperrors.FormatValidationErrors(err, &req)
			if len(validationErrors) > 0 {
				return router.BadRequestResult("Invalid request payload", validationErrors)
			}

			return router.BadRequestResult("Invalid request body", nil)
		}

		tag := locale.Resolve(req.Locale, ctx.Query("lang"), ctx.GetHeader("Accept-Language"))
		result := service.Submit(locale.WithLocale(ctx.Request.Context(), tag), req.Email)

		return ToServiceResult(result, tag)
	}
}
