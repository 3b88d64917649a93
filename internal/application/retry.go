package application

import (
	"context"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/resilience"
)

// execute runs a store call through the retry policy. Domain failures are
// classified inside the attempt so they are never retried.
func execute(ctx context.Context, r *resilience.Retrier, op resilience.Operation, fn func(ctx context.Context) error) error {
	err := r.Do(ctx, op, func(ctx context.Context) error {
		return domainError(fn(ctx))
	})
	return storeError(op.Name, err)
}

// query is execute for calls that return a value
func query[T any](ctx context.Context, r *resilience.Retrier, op resilience.Operation, fn func(ctx context.Context) (T, error)) (T, error) {
	v, err := resilience.DoWithResult(ctx, r, op, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		return v, domainError(err)
	})
	return v, storeError(op.Name, err)
}
