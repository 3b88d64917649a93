package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/errors"
)

func newTestRetrier(delays *[]time.Duration, opts ...RetrierOption) *Retrier {
	r := NewRetrier(DefaultRetryConfig(), nil, opts...)
	r.sleep = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return r
}

func TestRetrier_SucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)

	calls := 0
	err := r.Do(context.Background(), Idempotent("get_all_items"), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestRetrier_ExhaustedWrapsOriginalError(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)
	cause := errors.New("store unreachable")

	calls := 0
	err := r.Do(context.Background(), Idempotent("save_item"), func(ctx context.Context) error {
		calls++
		return cause
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, DefaultRetryMaxAttempts, calls)
	// no sleep after the final attempt
	assert.Len(t, delays, DefaultRetryMaxAttempts-1)
}

func TestRetrier_NonIdempotentRunsOnce(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)
	cause := errors.New("timeout")

	calls := 0
	err := r.Do(context.Background(), Operation{Name: "append_history"}, func(ctx context.Context) error {
		calls++
		return cause
	})

	assert.Same(t, cause, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestRetrier_KeyedOperationIsRetried(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)

	calls := 0
	err := r.Do(context.Background(), Keyed("create_order", "order-1"), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("socket closed")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetrier_ClientErrorsAreFinal(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)

	calls := 0
	err := r.Do(context.Background(), Idempotent("cancel_order"), func(ctx context.Context) error {
		calls++
		return apperrors.ErrNotFound("order")
	})

	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	assert.Equal(t, 1, calls)
}

func TestRetrier_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRetrier(&RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour, BackoffFactor: 2}, nil)

	calls := 0
	err := r.Do(ctx, Idempotent("get_orders"), func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetrier_AttemptHookSeesEveryFailure(t *testing.T) {
	var delays []time.Duration
	var seen []int
	r := newTestRetrier(&delays, WithAttemptHook(func(op Operation, attempt int, err error) {
		assert.Equal(t, "count_orders", op.Name)
		seen = append(seen, attempt)
	}))

	_ = r.Do(context.Background(), Idempotent("count_orders"), func(ctx context.Context) error {
		return errors.New("boom")
	})

	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestDoWithResult(t *testing.T) {
	var delays []time.Duration
	r := newTestRetrier(&delays)

	calls := 0
	got, err := DoWithResult(context.Background(), r, Idempotent("count_orders"), func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, fmt.Errorf("flaky")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestRetrier_OpenBreakerFailsFast(t *testing.T) {
	cfg := DefaultCircuitBreakerConfig("inventory-store")
	cfg.FailureThreshold = 1
	cb := NewCircuitBreaker(cfg, nil)

	var delays []time.Duration
	r := newTestRetrier(&delays, WithCircuitBreaker(cb))

	calls := 0
	err := r.Do(context.Background(), Idempotent("get_item"), func(ctx context.Context) error {
		calls++
		return errors.New("no reachable servers")
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "open", cb.State().String())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("io"), true},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
		{"validation", apperrors.ErrValidation("bad"), false},
		{"unavailable", apperrors.ErrServiceUnavailable("store"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
