package core

import (
	"context"
	"time"
)

// Invocable is the uniform calling convention of a method designated for invocation.
// Registration code adapts concrete method signatures to it.
type Invocable func(ctx context.Context, args ...any) (any, error)

// InvokeInterceptor defines a middleware-style interface around a single invocation.
// Components may implement it and pass themselves as Target.Interceptor.
// Typical use cases include argument validation, auditing and result transformation.
type InvokeInterceptor interface {
	// BeforeInvoke runs before the marked method. Any error aborts the invocation.
	BeforeInvoke(ctx context.Context, entry Entry, args []any) error
	// AfterInvoke runs after a successful invocation and may replace the result.
	AfterInvoke(ctx context.Context, result *Result) (*Result, error)
}

type Awaitable interface {
	WaitWithContext(context.Context) (*Result, error)
	Wait(time.Duration) (*Result, error)
}
