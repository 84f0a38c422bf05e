package waitlist

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type SubmissionMetrics struct {
	total *prometheus.CounterVec
}

// NewSubmissionMetrics registers waitlist_submissions_total on reg. A nil
// reg leaves the counter unregistered, which keeps it usable in tests.
func NewSubmissionMetrics(reg prometheus.Registerer) (*SubmissionMetrics, error) {
	total := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_submissions_total",
			Help: "Waitlist submissions by outcome.",
		},
		[]string{"outcome"},
	)

	if reg != nil {
		if err := reg.Register(total); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			total = existing
		}
	}

	for _, o := range []Outcome{InvalidFormat, Accepted, SubmissionFailed} {
		total.WithLabelValues(o.String())
	}

	return &SubmissionMetrics{total: total}, nil
}

func (m *SubmissionMetrics) ObserveSubmission(outcome Outcome) {
	m.total.WithLabelValues(outcome.String()).Inc()
}
