package router

import "context"

// Middleware wraps every transition a router runs. It must call next to let
// the transition proceed; it may inspect t after next returns to observe the
// outcome.
type Middleware interface {
	Handle(ctx context.Context, t *Transition, next func(context.Context) error) error
}

// MiddlewareFunc is a function adapter for Middleware.
type MiddlewareFunc func(ctx context.Context, t *Transition, next func(context.Context) error) error

// Handle implements Middleware.
func (f MiddlewareFunc) Handle(ctx context.Context, t *Transition, next func(context.Context) error) error {
	return f(ctx, t, next)
}

// ComposeMiddleware builds a handler chain from middleware and a final handler.
// Middleware is executed in order (first to last), with the handler at the end.
func ComposeMiddleware(ctx context.Context, t *Transition, mw []Middleware, handler func(context.Context) error) error {
	if len(mw) == 0 {
		return handler(ctx)
	}

	chain := handler
	for i := len(mw) - 1; i >= 0; i-- {
		m := mw[i]
		next := chain
		chain = func(ctx context.Context) error {
			return m.Handle(ctx, t, next)
		}
	}

	return chain(ctx)
}

// Chain creates a middleware that combines multiple middleware in order.
func Chain(middleware ...Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, t *Transition, next func(context.Context) error) error {
		return ComposeMiddleware(ctx, t, middleware, next)
	})
}

// Skip bypasses mw for transitions where condition is true.
func Skip(condition func(t *Transition) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, t *Transition, next func(context.Context) error) error {
		if condition(t) {
			return next(ctx)
		}
		return mw.Handle(ctx, t, next)
	})
}

// Only runs mw for transitions where condition is true.
func Only(condition func(t *Transition) bool, mw Middleware) Middleware {
	return MiddlewareFunc(func(ctx context.Context, t *Transition, next func(context.Context) error) error {
		if !condition(t) {
			return next(ctx)
		}
		return mw.Handle(ctx, t, next)
	})
}
