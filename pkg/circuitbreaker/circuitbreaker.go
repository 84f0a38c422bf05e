// Package circuitbreaker stops calling a failing dependency for a recovery
// period, then lets a single probe through to decide whether to resume.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

type CircuitState int

const (
	Closed CircuitState = iota
	Open
	HalfOpen
)

var stateNames = [...]string{Closed: "closed", Open: "open", HalfOpen: "half-open"}

func (s CircuitState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ErrCircuitOpen is returned without running the guarded call.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitBreaker interface {
	Call(func() error) error
	State() CircuitState
	Metrics() Metrics
	Reset()
}

type Config struct {
	Name string
	// FailureThreshold consecutive failures open the circuit. Default 5.
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open. Default 30s.
	RecoveryTimeout time.Duration
	// SuccessThreshold probe successes close a half-open circuit. Default 2.
	SuccessThreshold int

	// IsFailure decides which errors count against the circuit. Defaults to
	// every non-nil error.
	IsFailure func(error) bool
	// OnStateChange runs outside the lock after every transition.
	OnStateChange func(name string, from, to CircuitState)
}

type Metrics struct {
	State        CircuitState
	FailureCount int
	SuccessCount int
	LastFailure  time.Time
	NextAttempt  time.Time
}

type circuitBreaker struct {
	cfg Config
	now func() time.Time

	mu sync.Mutex
	m  Metrics
	// probing is set while a half-open probe is in flight; other callers are
	// rejected until it reports.
	probing bool
}

// NewCircuitBreaker returns a closed breaker; a nil config uses the defaults.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 30 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	return &circuitBreaker{cfg: cfg, now: now}
}

func (cb *circuitBreaker) Call(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}

	err := fn()
	cb.report(err != nil && cb.isFailure(err))
	return err
}

func (cb *circuitBreaker) admit() bool {
	cb.mu.Lock()
	from := cb.m.State

	if cb.m.State == Open && !cb.now().Before(cb.m.NextAttempt) {
		cb.m.State = HalfOpen
		cb.m.SuccessCount = 0
	}

	ok := cb.m.State == Closed || (cb.m.State == HalfOpen && !cb.probing)
	if ok && cb.m.State == HalfOpen {
		cb.probing = true
	}
	to := cb.m.State
	cb.mu.Unlock()

	cb.notify(from, to)
	return ok
}

func (cb *circuitBreaker) report(failed bool) {
	cb.mu.Lock()
	from := cb.m.State
	cb.probing = false

	if failed {
		cb.m.FailureCount++
		cb.m.LastFailure = cb.now()
		if cb.m.State == HalfOpen || cb.m.FailureCount >= cb.cfg.FailureThreshold {
			cb.trip()
		}
	} else {
		cb.m.FailureCount = 0
		if cb.m.State == HalfOpen {
			cb.m.SuccessCount++
			if cb.m.SuccessCount >= cb.cfg.SuccessThreshold {
				cb.m.State = Closed
				cb.m.SuccessCount = 0
			}
		}
	}

	to := cb.m.State
	cb.mu.Unlock()

	cb.notify(from, to)
}

// trip opens the circuit; the caller holds mu.
func (cb *circuitBreaker) trip() {
	cb.m.State = Open
	cb.m.NextAttempt = cb.now().Add(cb.cfg.RecoveryTimeout)
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.m.State
}

func (cb *circuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.m
}

func (cb *circuitBreaker) Reset() {
	cb.mu.Lock()
	from := cb.m.State
	cb.m = Metrics{}
	cb.probing = false
	cb.mu.Unlock()

	cb.notify(from, Closed)
}

func (cb *circuitBreaker) isFailure(err error) bool {
	return cb.cfg.IsFailure == nil || cb.cfg.IsFailure(err)
}

func (cb *circuitBreaker) notify(from, to CircuitState) {
	if from != to && cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
