package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokeAsync_Success(t *testing.T) {
	invoker, _ := newTestInvoker(t, nil)

	ar := invoker.InvokeAsync(context.Background(), "Baz")
	res, err := ar.Wait(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Value)
	assert.True(t, ar.IsSuccess())
	assert.False(t, ar.IsFailed())
}

func TestInvokeAsync_Failure(t *testing.T) {
	invoker, _ := newTestInvoker(t, nil)

	ar := invoker.InvokeAsync(context.Background(), "Missing")
	<-ar.Done()
	assert.True(t, ar.IsFailed())
	assert.True(t, IsNotFoundErr(ar.Err))
}

func TestAsyncResult_WaitTimeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	registry := NewRegistry(nil)
	registry.MustRegister(Target{Component: "Blocking", Method: "Run", Fn: Supplier(func() int {
		<-release
		return 1
	})})
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)

	ar := invoker.InvokeAsync(context.Background(), "Blocking")
	assert.False(t, ar.IsSuccess())
	assert.False(t, ar.IsFailed())

	_, err = ar.Wait(10 * time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ar.WaitWithContext(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
