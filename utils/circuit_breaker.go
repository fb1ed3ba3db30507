// ABOUTME: Circuit breaker guarding calls to the Feedly API
// ABOUTME: Opens after consecutive failures, probes again after a cool-down

package utils

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// CircuitBreakerState represents the current state of the circuit breaker
type CircuitBreakerState int

const (
	StateClosed   CircuitBreakerState = iota // requests pass through
	StateOpen                                // requests are rejected
	StateHalfOpen                            // a limited number of probe requests pass
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrCircuitBreakerOpen is returned when the circuit breaker rejects a call
var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // half-open successes that close it again
	Timeout          time.Duration // time spent open before probing
	MaxRequests      int           // concurrent probes while half-open

	// IsFailure decides whether an error counts against the circuit.
	// nil counts every error except context cancellation.
	IsFailure func(err error) bool
}

// DefaultCircuitBreakerConfig returns a default circuit breaker configuration
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             "feedly_api",
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
		MaxRequests:      1,
	}
}

// CircuitBreakerStats holds counters for monitoring
type CircuitBreakerStats struct {
	State           CircuitBreakerState
	FailureCount    int
	TotalRequests   int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalRejections int64
	LastFailureTime time.Time
}

// CircuitBreaker implements the circuit breaker pattern for API resilience
type CircuitBreaker struct {
	config *CircuitBreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu               sync.Mutex
	state            CircuitBreakerState
	failureCount     int
	successCount     int
	halfOpenRequests int
	openedUntil      time.Time
	stats            CircuitBreakerStats
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	cb := &CircuitBreaker{
		config: config,
		logger: logger,
		now:    time.Now,
		state:  StateClosed,
	}
	CircuitBreakerStateGauge.WithLabelValues(cb.name()).Set(float64(StateClosed))
	return cb
}

func (cb *CircuitBreaker) name() string {
	if cb.config.Name == "" {
		return "default"
	}
	return cb.config.Name
}

// Execute runs fn if the circuit allows it and records the outcome
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if !cb.allowRequest() {
		cb.logger.Debug("Circuit breaker rejected request",
			"circuit", cb.name(),
			"state", cb.GetState().String())
		return ErrCircuitBreakerOpen
	}

	err := fn(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allowRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
	case StateOpen:
		if cb.now().Before(cb.openedUntil) {
			cb.stats.TotalRejections++
			return false
		}
		cb.setState(StateHalfOpen)
		cb.halfOpenRequests++
	case StateHalfOpen:
		if cb.halfOpenRequests >= cb.config.MaxRequests {
			cb.stats.TotalRejections++
			return false
		}
		cb.halfOpenRequests++
	}

	cb.stats.TotalRequests++
	return true
}

func (cb *CircuitBreaker) isFailure(err error) bool {
	if err == nil {
		return false
	}
	if cb.config.IsFailure != nil {
		return cb.config.IsFailure(err)
	}
	return !errors.Is(err, context.Canceled)
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen && cb.halfOpenRequests > 0 {
		cb.halfOpenRequests--
	}

	if !cb.isFailure(err) {
		cb.stats.TotalSuccesses++
		switch cb.state {
		case StateClosed:
			cb.failureCount = 0
		case StateHalfOpen:
			cb.successCount++
			if cb.successCount >= cb.config.SuccessThreshold {
				cb.logger.Info("Circuit breaker closing after successful probes",
					"circuit", cb.name(),
					"success_count", cb.successCount)
				cb.setState(StateClosed)
			}
		}
		return
	}

	cb.stats.TotalFailures++
	cb.stats.LastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.logger.Warn("Circuit breaker opening due to failures",
				"circuit", cb.name(),
				"failure_count", cb.failureCount,
				"error", err)
			cb.setState(StateOpen)
		}
	case StateHalfOpen:
		cb.logger.Warn("Circuit breaker re-opening after failed probe",
			"circuit", cb.name(),
			"error", err)
		cb.setState(StateOpen)
	}
}

// setState must be called with mu held
func (cb *CircuitBreaker) setState(state CircuitBreakerState) {
	from := cb.state
	cb.state = state
	cb.successCount = 0
	cb.halfOpenRequests = 0

	switch state {
	case StateClosed:
		cb.failureCount = 0
	case StateOpen:
		cb.openedUntil = cb.now().Add(cb.config.Timeout)
	}

	CircuitBreakerStateGauge.WithLabelValues(cb.name()).Set(float64(state))
	cb.logger.Info("Circuit breaker state transition",
		"circuit", cb.name(),
		"from", from.String(),
		"to", state.String())
}

// GetState returns the current state
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetStats returns a snapshot of the counters
func (cb *CircuitBreaker) GetStats() CircuitBreakerStats {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	stats := cb.stats
	stats.State = cb.state
	stats.FailureCount = cb.failureCount
	return stats
}

// Reset closes the circuit and clears the failure count
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.setState(StateClosed)
}
