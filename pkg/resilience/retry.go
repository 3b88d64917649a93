package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
)

// RetryConfig holds the backoff schedule
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns the store retry schedule
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     DefaultRetryMaxAttempts,
		InitialDelay:    DefaultRetryInitialDelay,
		MaxDelay:        DefaultRetryMaxDelay,
		BackoffFactor:   DefaultRetryBackoffFactor,
		RetryableErrors: IsRetryable,
	}
}

// Operation describes a unit of work handed to the Retrier.
// Only idempotent operations, or those carrying an idempotency key, are retried.
type Operation struct {
	Name           string
	Idempotent     bool
	IdempotencyKey string
}

// Idempotent builds an operation that is safe to repeat as-is
func Idempotent(name string) Operation {
	return Operation{Name: name, Idempotent: true}
}

// Keyed builds an operation that is safe to repeat because the store dedupes on key
func Keyed(name, key string) Operation {
	return Operation{Name: name, IdempotencyKey: key}
}

// Retryable reports whether the operation may run more than once
func (o Operation) Retryable() bool {
	return o.Idempotent || o.IdempotencyKey != ""
}

// AttemptHook observes every failed attempt
type AttemptHook func(op Operation, attempt int, err error)

// Retrier runs operations with bounded exponential backoff, optionally behind a circuit breaker
type Retrier struct {
	config  *RetryConfig
	breaker *CircuitBreaker
	logger  *slog.Logger
	onFail  AttemptHook
	sleep   func(ctx context.Context, d time.Duration) error
}

// RetrierOption configures a Retrier
type RetrierOption func(*Retrier)

// WithCircuitBreaker guards every attempt with cb
func WithCircuitBreaker(cb *CircuitBreaker) RetrierOption {
	return func(r *Retrier) {
		r.breaker = cb
	}
}

// WithAttemptHook registers a callback for failed attempts
func WithAttemptHook(hook AttemptHook) RetrierOption {
	return func(r *Retrier) {
		r.onFail = hook
	}
}

// NewRetrier creates a Retrier. A nil config uses DefaultRetryConfig.
func NewRetrier(config *RetryConfig, logger *slog.Logger, opts ...RetrierOption) *Retrier {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.RetryableErrors == nil {
		config.RetryableErrors = IsRetryable
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Retrier{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do executes fn, retrying transient failures when op allows it.
// The final error wraps the last cause.
func (r *Retrier) Do(ctx context.Context, op Operation, fn func(ctx context.Context) error) error {
	maxAttempts := r.config.MaxAttempts
	if !op.Retryable() {
		maxAttempts = 1
	}

	delay := r.config.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := r.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		r.logger.Warn("Operation attempt failed",
			"operation", op.Name,
			"attempt", attempt,
			"maxAttempts", maxAttempts,
			"error", err,
		)
		if r.onFail != nil {
			r.onFail(op, attempt, err)
		}

		if !r.config.RetryableErrors(err) || errors.Is(err, ErrCircuitOpen) {
			return err
		}

		if attempt == maxAttempts {
			break
		}

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}

		delay = time.Duration(float64(delay) * r.config.BackoffFactor)
		if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}

	if maxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op.Name, maxAttempts, lastErr)
}

func (r *Retrier) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.breaker == nil {
		return fn(ctx)
	}
	return r.breaker.Execute(ctx, fn)
}

// DoWithResult executes fn through r and returns its result
func DoWithResult[T any](ctx context.Context, r *Retrier, op Operation, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, op, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// IsRetryable reports whether err is worth another attempt.
// Context errors and client-side AppErrors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if appErr, ok := apperrors.AsAppError(err); ok {
		return !appErr.IsClientError()
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
