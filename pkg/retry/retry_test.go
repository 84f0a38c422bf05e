package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newInstantBackoff(cfg *Config) *ExponentialBackoff {
	eb := NewExponentialBackoff(cfg)
	eb.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return eb
}

func TestExecute_RetriesTransientUntilSuccess(t *testing.T) {
	eb := newInstantBackoff(&Config{MaxAttempts: 4, BaseDelay: time.Millisecond, Multiplier: 2})

	calls := 0
	err := eb.Execute(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_StopsOnPermanentError(t *testing.T) {
	eb := newInstantBackoff(&Config{MaxAttempts: 4})

	calls := 0
	permanent := errors.New("password authentication failed")
	err := eb.Execute(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.False(t, IsMaxRetriesExceeded(err))
	assert.Equal(t, 1, calls)
}

func TestExecute_ExhaustsAttempts(t *testing.T) {
	var delays []time.Duration
	eb := newInstantBackoff(&Config{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    15 * time.Millisecond,
		Multiplier:  2,
		OnRetry:     func(_ int, d time.Duration, _ error) { delays = append(delays, d) },
	})

	transient := errors.New("i/o timeout")
	err := eb.Execute(context.Background(), func(context.Context) error { return transient })

	assert.True(t, IsMaxRetriesExceeded(err))
	assert.ErrorIs(t, err, transient)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 15 * time.Millisecond}, delays)
}

func TestExecute_CancelledContext(t *testing.T) {
	eb := newInstantBackoff(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := eb.Execute(ctx, func(context.Context) error {
		calls++
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
	assert.True(t, IsTransient(fmt.Errorf("connect: %w", syscall.ECONNRESET)))
	assert.True(t, IsTransient(errors.New("FATAL: the database system is starting up")))
	assert.False(t, IsTransient(errors.New("FATAL: password authentication failed")))
}
