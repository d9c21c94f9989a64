package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestInvoker(t *testing.T, config *RegistryConfig) (*Invoker, *baz) {
	t.Helper()
	registry, b := newFooBazRegistry(t, config)
	registry.Seal()
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)
	return invoker, b
}

func TestInvoker_Invoke(t *testing.T) {
	invoker, _ := newTestInvoker(t, nil)

	res, err := invoker.Invoke(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, "bar", res.Value)
	assert.Equal(t, "Foo", res.Component)
	assert.Equal(t, "Bar", res.Method)
	assert.True(t, res.ReturnType.IsAny())
	assert.NotEqual(t, [16]byte{}, [16]byte(res.InvocationID))

	res, err = invoker.Invoke(context.Background(), "Baz")
	require.NoError(t, err)
	v, ok := ValueAs[int](res)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestInvoker_ReturnTypeMismatch(t *testing.T) {
	invoker, b := newTestInvoker(t, &RegistryConfig{CheckReturnType: true})
	b.value = "not an int"

	res, err := invoker.Invoke(context.Background(), "Baz")
	require.Error(t, err)
	assert.True(t, IsReturnTypeMismatchErr(err))

	var mismatch *ReturnTypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "Baz", mismatch.Component)
	assert.Equal(t, "Qux", mismatch.Method)
	assert.Equal(t, "int", mismatch.Expected.Name())
	assert.Equal(t, "string", mismatch.Actual)

	require.NotNil(t, res, "the raw result is kept for inspection")
	assert.Equal(t, "not an int", res.Value)
}

func TestInvoker_ReturnTypeNotCheckedWhenDisabled(t *testing.T) {
	invoker, b := newTestInvoker(t, &RegistryConfig{CheckReturnType: false})
	b.value = "not an int"

	res, err := invoker.Invoke(context.Background(), "Baz")
	require.NoError(t, err)
	assert.Equal(t, "not an int", res.Value)
}

func TestInvoker_AnyObjectAcceptsEverything(t *testing.T) {
	registry := NewRegistry(&RegistryConfig{CheckReturnType: true})
	values := []any{nil, 1, "x", []int{1}, struct{}{}}
	for i, v := range values {
		v := v
		registry.MustRegister(Target{
			Component: string(rune('A' + i)),
			Method:    "Run",
			Fn:        Supplier(func() any { return v }),
		})
	}
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)

	for _, component := range registry.Components() {
		_, err := invoker.Invoke(context.Background(), component)
		assert.NoError(t, err, component)
	}
}

func TestInvoker_Errors(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry(nil)
	registry.MustRegister(Target{Component: "Failing", Method: "Run", Fn: Action(func(context.Context) error { return boom })})
	registry.MustRegister(Target{Component: "Panicking", Method: "Run", Fn: Supplier(func() int { panic("kaput") })})
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)

	t.Run("unknown component", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "Nope")
		assert.True(t, IsNotFoundErr(err))
		res, err := IgnoreNotFound(invoker.Invoke(context.Background(), "Nope"))
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := invoker.InvokeMethod(context.Background(), "Failing", "Other")
		var nfErr *NotFoundError
		require.True(t, errors.As(err, &nfErr))
		assert.Equal(t, "Other", nfErr.Method)
	})

	t.Run("method error", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "Failing")
		assert.True(t, IsInvocationErr(err))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panic", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "Panicking")
		var invErr *InvocationError
		require.True(t, errors.As(err, &invErr))
		assert.Equal(t, "kaput", invErr.Panic)
		assert.Contains(t, invErr.Error(), "panicked")
	})

	t.Run("unexpected arguments", func(t *testing.T) {
		_, err := invoker.Invoke(context.Background(), "Failing", 1, 2)
		assert.ErrorIs(t, err, ErrUnexpectedArgument)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := invoker.Invoke(ctx, "Failing")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

type auditInterceptor struct {
	before []string
	reject bool
}

func (a *auditInterceptor) BeforeInvoke(_ context.Context, entry Entry, args []any) error {
	a.before = append(a.before, entry.Key())
	if a.reject {
		return errors.New("rejected by interceptor")
	}
	return nil
}

func (a *auditInterceptor) AfterInvoke(_ context.Context, result *Result) (*Result, error) {
	result.Value = result.Value.(int) * 10
	return result, nil
}

func TestInvoker_Interceptors(t *testing.T) {
	interceptor := &auditInterceptor{}
	var hookCalls int32
	config := &RegistryConfig{
		BeforeInvokeFn: func(_ context.Context, entry Entry, args []any) error {
			atomic.AddInt32(&hookCalls, 1)
			return nil
		},
		AfterInvokeFn: func(_ context.Context, result *Result) (*Result, error) {
			result.Value = result.Value.(int) + 1
			return result, nil
		},
	}
	registry := NewRegistry(config)
	registry.MustRegister(Target{
		Component:   "Counter",
		Method:      "Next",
		Fn:          Supplier(func() int { return 4 }),
		Interceptor: interceptor,
	}, Returns[int]())
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)

	res, err := invoker.Invoke(context.Background(), "Counter")
	require.NoError(t, err)
	assert.Equal(t, 41, res.Value, "interceptor runs before the config hook")
	assert.Equal(t, []string{"Counter.Next"}, interceptor.before)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls))

	interceptor.reject = true
	_, err = invoker.Invoke(context.Background(), "Counter")
	assert.EqualError(t, err, "rejected by interceptor")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hookCalls), "config hook is skipped when interceptor rejects")
}

func TestInvoker_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	invoker, b := newTestInvoker(t, &RegistryConfig{CheckReturnType: true, MetricsRegisterer: reg})

	_, err := invoker.Invoke(context.Background(), "Baz")
	require.NoError(t, err)
	b.value = 1.5
	_, err = invoker.Invoke(context.Background(), "Baz")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(invoker.metrics.invocations.WithLabelValues("Baz", "Qux", StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(invoker.metrics.invocations.WithLabelValues("Baz", "Qux", StatusMismatch)))
	assert.Equal(t, 1.0, testutil.ToFloat64(invoker.metrics.mismatches.WithLabelValues("Baz", "Qux", "int")))

	// A second invoker on the same registerer reuses the collectors.
	second, err := NewInvoker(invoker.Registry())
	require.NoError(t, err)
	_, err = second.Invoke(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(invoker.metrics.invocations.WithLabelValues("Foo", "Bar", StatusOK)))
}

func TestInvoker_Tracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	invoker, _ := newTestInvoker(t, &RegistryConfig{Tracer: provider.Tracer("test")})
	_, err := invoker.Invoke(context.Background(), "Foo")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "invoke Foo.Bar", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "Foo", attrs["invoke.component"])
	assert.Equal(t, "any", attrs["invoke.return_type"])
	assert.Equal(t, StatusOK, attrs["invoke.status"])
}

func TestInvoker_Serialize(t *testing.T) {
	var inside, maxInside int32
	registry := NewRegistry(&RegistryConfig{Serialize: true})
	registry.MustRegister(Target{Component: "Slow", Method: "Run", Fn: Supplier(func() int {
		n := atomic.AddInt32(&inside, 1)
		for {
			m := atomic.LoadInt32(&maxInside)
			if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inside, -1)
		return 0
	})})
	invoker, err := NewInvoker(registry)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := invoker.Invoke(context.Background(), "Slow")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInside))
}

func TestNewInvoker_NilRegistry(t *testing.T) {
	_, err := NewInvoker(nil)
	assert.Error(t, err)
}
