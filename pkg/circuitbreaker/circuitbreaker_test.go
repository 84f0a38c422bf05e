package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 2, RecoveryTimeout: time.Second, SuccessThreshold: 1}, clock.now)

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, Closed, cb.State())

	assert.ErrorIs(t, cb.Call(func() error { return errBoom }), errBoom)
	assert.Equal(t, Open, cb.State())

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the guarded call")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 1}, clock.now)

	_ = cb.Call(func() error { return errBoom })
	require.Equal(t, Open, cb.State())

	clock.advance(2 * time.Second)

	require.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 2}, clock.now)

	_ = cb.Call(func() error { return errBoom })
	clock.advance(2 * time.Second)

	_ = cb.Call(func() error { return errBoom })
	assert.Equal(t, Open, cb.State())
	assert.Equal(t, 2, cb.Metrics().FailureCount)
}

func TestCircuitBreaker_IsFailureFiltersErrors(t *testing.T) {
	benign := errors.New("duplicate")
	cb := NewCircuitBreaker(&Config{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, benign) },
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return benign }), benign)
	}
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(&Config{
		Name:             "store",
		FailureThreshold: 1,
		OnStateChange: func(name string, from, to CircuitState) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	_ = cb.Call(func() error { return errBoom })
	cb.Reset()

	assert.Equal(t, []string{"store:closed->open", "store:open->closed"}, transitions)
}

func TestCircuitBreaker_SingleHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := newCircuitBreaker(&Config{FailureThreshold: 1, RecoveryTimeout: time.Second, SuccessThreshold: 1}, clock.now)

	_ = cb.Call(func() error { return errBoom })
	clock.advance(2 * time.Second)

	var inner error
	err := cb.Call(func() error {
		inner = cb.Call(func() error { return nil })
		return nil
	})

	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrCircuitOpen, "a second caller must wait for the probe")
	assert.Equal(t, Closed, cb.State())
}

func TestCircuitStateString(t *testing.T) {
	assert.Equal(t, "half-open", HalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(7).String())
}
