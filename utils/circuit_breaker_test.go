package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) now() time.Time { return c.current }

func newTestBreaker(t *testing.T) (*CircuitBreaker, *fakeClock) {
	t.Helper()
	clock := &fakeClock{current: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "test_" + t.Name(),
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          time.Minute,
		MaxRequests:      1,
	}, nil)
	cb.now = clock.now
	return cb, clock
}

func fail(ctx context.Context) error    { return errUpstream }
func succeed(ctx context.Context) error { return nil }

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb, _ := newTestBreaker(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, cb.Execute(context.Background(), succeed))
	}

	stats := cb.GetStats()
	assert.Equal(t, StateClosed, stats.State)
	assert.Equal(t, int64(5), stats.TotalRequests)
	assert.Equal(t, int64(5), stats.TotalSuccesses)
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
	}
	assert.Equal(t, StateOpen, cb.GetState())

	called := false
	err := cb.Execute(ctx, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
	assert.False(t, called)
	assert.Equal(t, int64(1), cb.GetStats().TotalRejections)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(t)
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	require.NoError(t, cb.Execute(ctx, succeed))
	_ = cb.Execute(ctx, fail)

	assert.Equal(t, StateClosed, cb.GetState())
	assert.Equal(t, 1, cb.GetStats().FailureCount)
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	tests := map[string]struct {
		probes        []func(context.Context) error
		expectedState CircuitBreakerState
	}{
		"two successful probes close the circuit": {
			probes:        []func(context.Context) error{succeed, succeed},
			expectedState: StateClosed,
		},
		"one success keeps probing": {
			probes:        []func(context.Context) error{succeed},
			expectedState: StateHalfOpen,
		},
		"failed probe re-opens": {
			probes:        []func(context.Context) error{succeed, fail},
			expectedState: StateOpen,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cb, clock := newTestBreaker(t)
			ctx := context.Background()
			for i := 0; i < 3; i++ {
				_ = cb.Execute(ctx, fail)
			}
			require.Equal(t, StateOpen, cb.GetState())

			clock.current = clock.current.Add(2 * time.Minute)
			for _, probe := range tc.probes {
				_ = cb.Execute(ctx, probe)
			}
			assert.Equal(t, tc.expectedState, cb.GetState())
		})
	}
}

func TestCircuitBreaker_IsFailurePredicate(t *testing.T) {
	errClient := errors.New("bad request")
	cb := NewCircuitBreaker(&CircuitBreakerConfig{
		Name:             "predicate",
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
		MaxRequests:      1,
		IsFailure: func(err error) bool {
			return !errors.Is(err, errClient)
		},
	}, nil)

	err := cb.Execute(context.Background(), func(ctx context.Context) error { return errClient })
	assert.ErrorIs(t, err, errClient)
	assert.Equal(t, StateClosed, cb.GetState())

	_ = cb.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreaker_ContextCancellationIsNotAFailure(t *testing.T) {
	cb, _ := newTestBreaker(t)

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return context.Canceled })
	}
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(t)
	for i := 0; i < 3; i++ {
		_ = cb.Execute(context.Background(), fail)
	}
	require.Equal(t, StateOpen, cb.GetState())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.GetState())
	assert.NoError(t, cb.Execute(context.Background(), succeed))
}
