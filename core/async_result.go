package core

import (
	"context"
	"fmt"
	"time"
)

// AsyncResult represents an invocation running in the background.
//
// Fields (valid once the invocation completed, i.e. after Wait returns):
//   - Component: The invoked component
//   - Ctx: The context the invocation was started with
//   - Success: True if the invocation completed without error
//   - Err: The error that occurred during the invocation (nil if successful)
type AsyncResult struct {
	Component string
	Ctx       context.Context
	Success   bool
	Err       error

	result *Result
	done   chan struct{}
}

func newAsyncResult(ctx context.Context, component string) *AsyncResult {
	return &AsyncResult{
		Component: component,
		Ctx:       ctx,
		done:      make(chan struct{}),
	}
}

func (ar *AsyncResult) complete(res *Result, err error) {
	ar.result = res
	ar.Err = err
	ar.Success = err == nil
	close(ar.done)
}

// Done returns a channel closed when the invocation completes.
func (ar *AsyncResult) Done() <-chan struct{} {
	return ar.done
}

// IsSuccess returns true if the invocation already completed successfully.
func (ar *AsyncResult) IsSuccess() bool {
	select {
	case <-ar.done:
		return ar.Success
	default:
		return false
	}
}

// IsFailed returns true if the invocation already completed with an error.
func (ar *AsyncResult) IsFailed() bool {
	select {
	case <-ar.done:
		return !ar.Success
	default:
		return false
	}
}

// Wait blocks until the invocation completes or the timeout elapses.
//
// Parameters:
//   - timeout: Maximum duration to wait (ar.Ctx cancellation is honored as well)
//
// Returns:
//   - *Result: The invocation result (may be non-nil together with an error, e.g. on return type mismatch)
//   - error: The invocation error or a timeout error
func (ar *AsyncResult) Wait(timeout time.Duration) (*Result, error) {
	parent := ar.Ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	return ar.WaitWithContext(ctx)
}

// WaitWithContext blocks until the invocation completes or ctx is done.
func (ar *AsyncResult) WaitWithContext(ctx context.Context) (*Result, error) {
	select {
	case <-ar.done:
		return ar.result, ar.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for invocation of '%s': %w", ar.Component, ctx.Err())
	}
}
