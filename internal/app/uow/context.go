package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

// ContextWithUnitOfWork stores the provided unit of work in context.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves a unit of work from context if present.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// Require returns the unit of work from context, beginning one from the
// factory when absent. The returned release func rolls back a unit this call
// started and is a no-op otherwise.
func Require(ctx context.Context, factory UoWFactory, opts TxOptions) (context.Context, UnitOfWork, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return ctx, unit, func() {}, nil
	}
	if factory == nil {
		return ctx, nil, nil, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return ctx, nil, nil, err
	}
	ctx = ContextWithUnitOfWork(ctx, unit)
	return ctx, unit, func() { _ = unit.Rollback(ctx) }, nil
}
