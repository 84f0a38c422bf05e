package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/mandarin-waitlist/internal/locale"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/akeren/mandarin-waitlist/internal/models"
	apperrors "github.com/akeren/mandarin-waitlist/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/akeren/mandarin-waitlist/domain/waitlist"

type WaitlistService interface {
	// Submit validates candidate and stores it. It never fails: every
	// error is folded into the returned Result.
	Submit(ctx context.Context, candidate string) Result
}

// SubmissionObserver is notified once per Submit with its outcome.
type SubmissionObserver interface {
	ObserveSubmission(outcome Outcome)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	observers  []SubmissionObserver
	tracer     trace.Tracer
}

func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, observers ...SubmissionObserver) WaitlistService {
	return &waitlistService{
		logger:     logger,
		repository: repository,
		observers:  observers,
		tracer:     otel.Tracer(tracerName),
	}
}

func (s *waitlistService) Submit(ctx context.Context, candidate string) Result {
	ctx, span := s.tracer.Start(ctx, "waitlist.Submit")
	defer span.End()

	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)
	messages := locale.MessagesFor(locale.FromContext(ctx))

	result := s.submit(ctx, logger, messages, NormalizeEmail(candidate))

	span.SetAttributes(attribute.String("waitlist.outcome", result.Outcome.String()))
	if result.Outcome == SubmissionFailed {
		span.SetStatus(codes.Error, "submission failed")
	}

	for _, o := range s.observers {
		o.ObserveSubmission(result.Outcome)
	}

	return result
}

func (s *waitlistService) submit(ctx context.Context, logger *log.Logger, messages locale.Messages, email string) Result {
	if !IsValidEmail(email) {
		logger.Info("Waitlist submission rejected: invalid email format")
		return Result{Outcome: InvalidFormat, Message: messages.InvalidEmail}
	}

	err := s.repository.Insert(ctx, &models.WaitlistEntry{Email: email})
	if err == nil {
		logger.Info("Waitlist entry stored")
		return Result{Outcome: Accepted, Message: messages.Success}
	}

	if IsUniqueViolation(err) {
		logger.Info("Waitlist entry already present; treating as accepted")
		return Result{Outcome: Accepted, Message: messages.Success}
	}

	logger.Error("Failed to store waitlist entry", "error", err, "error_type", apperrors.GetErrorType(err))

	// A structured rejection shows the store's message, or the inline text
	// when it carried none. Anything else is a fault worth retrying later.
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		if storeErr.Message != "" {
			return Result{Outcome: SubmissionFailed, Message: storeErr.Message}
		}
		return Result{Outcome: SubmissionFailed, Message: messages.ErrorInline}
	}
	return Result{Outcome: SubmissionFailed, Message: messages.ErrorLater}
}
