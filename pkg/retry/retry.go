// Package retry re-runs an operation with exponential backoff while its
// error looks transient.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type Config struct {
	// MaxAttempts counts the first call. Default 5; values below 1 mean 1.
	MaxAttempts int
	BaseDelay   time.Duration
	// MaxDelay caps a single wait; zero leaves it uncapped.
	MaxDelay   time.Duration
	Multiplier float64

	// Retryable decides whether an error is worth another attempt. Defaults
	// to IsTransient.
	Retryable func(error) bool
	// OnRetry runs before each wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2,
	}
}

type ExponentialBackoff struct {
	cfg   Config
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExponentialBackoff copies config; a nil config uses DefaultConfig.
func NewExponentialBackoff(config *Config) *ExponentialBackoff {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	cfg.MaxAttempts = max(cfg.MaxAttempts, 1)
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	if cfg.Retryable == nil {
		cfg.Retryable = IsTransient
	}
	return &ExponentialBackoff{cfg: cfg, sleep: sleepContext}
}

// Execute runs fn until it succeeds, fails permanently, runs out of
// attempts or ctx ends. Exhausting the attempts yields a
// *MaxRetriesExceededError wrapping the last error; a cancelled wait
// returns the last error itself.
func (eb *ExponentialBackoff) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	delay := eb.cfg.BaseDelay
	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		switch {
		case err == nil:
			return nil
		case attempt == eb.cfg.MaxAttempts:
			return &MaxRetriesExceededError{LastError: err, MaxAttempts: eb.cfg.MaxAttempts}
		case !eb.cfg.Retryable(err):
			return err
		}

		wait := delay
		if eb.cfg.MaxDelay > 0 {
			wait = min(wait, eb.cfg.MaxDelay)
		}
		if eb.cfg.OnRetry != nil {
			eb.cfg.OnRetry(attempt, wait, err)
		}
		if eb.sleep(ctx, wait) != nil {
			return err
		}
		delay = time.Duration(float64(delay) * eb.cfg.Multiplier)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var transientMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"timeout",
	"temporary failure",
	"the database system is starting up",
	"service unavailable",
}

// IsTransient reports whether err looks like a connection-level hiccup
// rather than a misconfiguration.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientMessages {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

type MaxRetriesExceededError struct {
	LastError   error
	MaxAttempts int
}

func (e *MaxRetriesExceededError) Error() string {
	if e.LastError == nil {
		return "max retries exceeded"
	}
	return "max retries exceeded: " + e.LastError.Error()
}

func (e *MaxRetriesExceededError) Unwrap() error {
	return e.LastError
}

func IsMaxRetriesExceeded(err error) bool {
	var target *MaxRetriesExceededError
	return errors.As(err, &target)
}
