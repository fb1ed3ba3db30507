package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy builds a fresh backoff schedule for one Retrying run
type RetryPolicy func() backoff.BackOff

// DefaultRetryPolicy retries up to three times with exponential backoff
func DefaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = time.Minute
	return backoff.WithMaxRetries(b, 3)
}

// Retrying wraps single-shot operations: each attempt runs a new operation
// built by the factory. Errors for which retryable returns false end the
// retry loop immediately.
type Retrying struct {
	Base

	factory   func(attempt int) Operation
	policy    RetryPolicy
	retryable func(error) bool
	logger    *slog.Logger

	mu       sync.Mutex
	last     Operation
	attempts int
}

// NewRetrying creates a retry wrapper. A nil policy uses DefaultRetryPolicy and
// a nil retryable treats every error except cancellation as retryable.
func NewRetrying(name string, factory func(attempt int) Operation, policy RetryPolicy, retryable func(error) bool, logger *slog.Logger) *Retrying {
	if policy == nil {
		policy = DefaultRetryPolicy
	}
	if retryable == nil {
		retryable = func(err error) bool {
			return !errors.Is(err, ErrCancelled) && !errors.Is(err, context.Canceled)
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrying{
		Base:      NewBase(name),
		factory:   factory,
		policy:    policy,
		retryable: retryable,
		logger:    logger,
	}
}

// Run executes attempts until one succeeds, the error is not retryable,
// the policy gives up or ctx ends.
func (r *Retrying) Run(ctx context.Context) {
	if !r.MarkStarted() {
		r.logger.Error("Retrying operation started twice", "operation", r.Name(), "assertion", true)
		return
	}

	attempt := func() error {
		if r.IsCancelled() {
			return backoff.Permanent(ErrCancelled)
		}

		r.mu.Lock()
		r.attempts++
		n := r.attempts
		r.mu.Unlock()

		op := r.factory(n)
		r.mu.Lock()
		r.last = op
		r.mu.Unlock()

		err := Start(ctx, op)
		if err != nil && !r.retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.logger.Warn("Operation attempt failed, retrying",
			"operation", r.Name(),
			"attempt", r.Attempts(),
			"retry_in", wait.String(),
			"error", err)
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(r.policy(), ctx), notify)
	if err != nil {
		err = fmt.Errorf("after %d attempts: %w", r.Attempts(), err)
	}
	r.DidFinish(err)
}

// Last returns the operation built for the most recent attempt, nil before Run
func (r *Retrying) Last() Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Attempts returns how many attempts have been started
func (r *Retrying) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}
