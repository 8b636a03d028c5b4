package ai

import (
	"fmt"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// breaker wraps calls returning T with a circuit breaker. A nil breaker
// runs calls directly.
type breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripPolicy decides when a breaker opens
type tripPolicy struct {
	minRequests      uint32
	failureThreshold float64
}

func newBreaker[T any](name, operation string, cfg config.CircuitBreakerConfig, policy tripPolicy, logger *errors.Logger) *breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= policy.minRequests && failureRatio >= policy.failureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operation,
				"from", from.String(),
				"to", to.String(),
				"max_requests", cfg.MaxRequests,
				"failure_threshold", policy.failureThreshold)
		},
	}

	return &breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// newOperationBreaker guards content generation with the configured policy
func newOperationBreaker[T any](operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-%s", operation), operation, cfg.CircuitBreaker, tripPolicy{
		minRequests:      cfg.CircuitBreaker.MinRequests,
		failureThreshold: cfg.CircuitBreaker.FailureThreshold,
	}, logger)
}

// newModelBreaker guards model info lookups. Health checks are less
// critical, so it trips later.
func newModelBreaker[T any](operation string, cfg *config.OperationAIConfig, logger *errors.Logger) *breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-Model-%s", operation), operation, cfg.CircuitBreaker, tripPolicy{
		minRequests:      5,
		failureThreshold: 0.8,
	}, logger)
}

// Execute runs fn with circuit breaker protection
func (b *breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns circuit breaker statistics
func (b *breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A missing breaker is
// always healthy.
func (b *breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}
