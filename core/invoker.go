package core

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Result is the outcome of invoking a marked method.
type Result struct {
	InvocationID uuid.UUID     `json:"invocation_id"`
	Component    string        `json:"component"`
	Method       string        `json:"method"`
	ReturnType   ReturnType    `json:"return_type"`
	Value        any           `json:"value"`
	Duration     time.Duration `json:"duration"`
}

// ValueAs returns the result value as T.
func ValueAs[T any](res *Result) (T, bool) {
	var zero T
	if res == nil {
		return zero, false
	}
	v, ok := res.Value.(T)
	return v, ok
}

// Invoker calls the methods registered in a Registry.
type Invoker struct {
	registry *Registry
	config   *RegistryConfig
	logger   *zap.Logger
	tracer   trace.Tracer
	metrics  *Metrics
	locker   *KeyLocker
	// verbose logs every invocation at info level (INVOKE_LOG=debug).
	verbose bool
}

// NewInvoker creates an invoker on top of a registry. The registry configuration
// controls return type checking, serialization, hooks and observability.
func NewInvoker(registry *Registry) (*Invoker, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	config := registry.Config()
	metrics, err := NewMetrics(config.MetricsRegisterer)
	if err != nil {
		return nil, fmt.Errorf("failed to register invocation metrics: %w", err)
	}
	return &Invoker{
		registry: registry,
		config:   config,
		logger:   config.Logger.Named("invoker"),
		tracer:   config.Tracer,
		metrics:  metrics,
		locker:   NewKeyLocker(),
		verbose:  strings.EqualFold(os.Getenv(EnvLogLevel), "debug"),
	}, nil
}

// Registry returns the registry the invoker reads from.
func (i *Invoker) Registry() *Registry {
	return i.registry
}

// Invoke calls the method marked for invocation on component.
func (i *Invoker) Invoke(ctx context.Context, component string, args ...any) (*Result, error) {
	entry, err := i.registry.lookup(component, "")
	if err != nil {
		return nil, err
	}
	return i.invoke(ctx, entry, args)
}

// InvokeMethod calls a specific marked method. It is required when a component
// has several marked methods (AllowMultiplePerComponent).
func (i *Invoker) InvokeMethod(ctx context.Context, component, method string, args ...any) (*Result, error) {
	entry, err := i.registry.lookup(component, method)
	if err != nil {
		return nil, err
	}
	return i.invoke(ctx, entry, args)
}

// InvokeEntry calls an entry obtained from the registry.
func (i *Invoker) InvokeEntry(ctx context.Context, entry Entry, args ...any) (*Result, error) {
	return i.invoke(ctx, entry, args)
}

// InvokeAsync starts the invocation in a goroutine and returns immediately.
func (i *Invoker) InvokeAsync(ctx context.Context, component string, args ...any) *AsyncResult {
	ar := newAsyncResult(ctx, component)
	go func() {
		res, err := i.Invoke(ctx, component, args...)
		ar.complete(res, err)
	}()
	return ar
}

func (i *Invoker) invoke(ctx context.Context, entry Entry, args []any) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i.config.Serialize {
		unlock := i.locker.Lock(entry.Component, entry.Method)
		defer unlock()
	}

	res := &Result{
		InvocationID: uuid.New(),
		Component:    entry.Component,
		Method:       entry.Method,
		ReturnType:   entry.ReturnType(),
	}
	ctx, span := i.tracer.Start(ctx, "invoke "+entry.Key(), trace.WithAttributes(
		attribute.String("invoke.component", entry.Component),
		attribute.String("invoke.method", entry.Method),
		attribute.String("invoke.return_type", entry.ReturnType().Name()),
		attribute.String("invoke.id", res.InvocationID.String()),
	))
	defer span.End()

	log := i.logger.With(
		zap.Stringer("invocation_id", res.InvocationID),
		zap.String("component", entry.Component),
		zap.String("method", entry.Method),
	)
	start := time.Now()
	finish := func(status string, err error) {
		res.Duration = time.Since(start)
		i.metrics.RecordInvocation(entry, status, res.Duration)
		span.SetAttributes(attribute.String("invoke.status", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	if err := i.doBeforeInvoke(ctx, entry, args); err != nil {
		finish(StatusRejected, err)
		log.Debug("invocation rejected", zap.Error(err))
		return nil, err
	}

	value, err := call(ctx, entry, args)
	res.Value = value
	if err != nil {
		finish(StatusError, err)
		log.Error("invocation failed", zap.Error(err))
		return res, err
	}

	if i.config.CheckReturnType && !entry.ReturnType().Matches(value) {
		mismatch := &ReturnTypeMismatchError{
			Component: entry.Component,
			Method:    entry.Method,
			Expected:  entry.ReturnType(),
			Actual:    fmt.Sprintf("%T", value),
		}
		i.metrics.RecordMismatch(entry)
		finish(StatusMismatch, mismatch)
		log.Warn("return type mismatch",
			zap.Stringer("expected", mismatch.Expected),
			zap.String("actual", mismatch.Actual))
		return res, mismatch
	}

	res, err = i.doAfterInvoke(ctx, entry, res)
	if err != nil {
		finish(StatusError, err)
		log.Error("after invoke hook failed", zap.Error(err))
		return res, err
	}
	finish(StatusOK, nil)
	if i.verbose {
		log.Info("invocation completed", zap.Duration("duration", res.Duration), zap.Any("value", res.Value))
	} else {
		log.Debug("invocation completed", zap.Duration("duration", res.Duration))
	}
	return res, nil
}

// call runs the callable, converting panics and errors into InvocationError.
func call(ctx context.Context, entry Entry, args []any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = &InvocationError{
				Component: entry.Component,
				Method:    entry.Method,
				Err:       fmt.Errorf("%v\n%s", r, debug.Stack()),
				Panic:     r,
			}
		}
	}()
	value, err = entry.Fn(ctx, args...)
	if err != nil {
		return value, &InvocationError{Component: entry.Component, Method: entry.Method, Err: err}
	}
	return value, nil
}
