package waitlist

import (
	"net/http"

	"github.com/akeren/mandarin-waitlist/config/router"
	"golang.org/x/text/language"
)

// Email is not validated by the binder: an empty or malformed address is a
// normal InvalidFormat outcome, not a bad request.
type JoinWaitlistRequest struct {
	Email  string `json:"email"`
	Locale string `json:"locale" binding:"omitempty,oneof=en mn"`
}

type SubmissionResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	Locale  string `json:"locale"`
}

func statusForOutcome(outcome Outcome) int {
	switch outcome {
	case Accepted:
		return http.StatusOK
	case InvalidFormat:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

func ToServiceResult(result Result, tag language.Tag) *router.ServiceResult {
	return &router.ServiceResult{
		StatusCode: statusForOutcome(result.Outcome),
		Data: SubmissionResponse{
			Outcome: result.Outcome.String(),
			Message: result.Message,
			Locale:  tag.String(),
		},
		Message: result.Message,
	}
}
