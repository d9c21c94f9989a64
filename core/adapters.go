package core

import (
	"context"
	"fmt"
	"reflect"
)

// Supplier adapts a method without parameters returning a single value.
func Supplier[R any](fn func() R) Invocable {
	if fn == nil {
		return nil
	}
	return func(_ context.Context, args ...any) (any, error) {
		if err := CheckArity(args, 0); err != nil {
			return nil, err
		}
		return fn(), nil
	}
}

// Func adapts a context-aware method returning a value and an error.
func Func[R any](fn func(context.Context) (R, error)) Invocable {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, args ...any) (any, error) {
		if err := CheckArity(args, 0); err != nil {
			return nil, err
		}
		return fn(ctx)
	}
}

// Action adapts a context-aware method that only returns an error. The invocation value is nil.
func Action(fn func(context.Context) error) Invocable {
	if fn == nil {
		return nil
	}
	return func(ctx context.Context, args ...any) (any, error) {
		if err := CheckArity(args, 0); err != nil {
			return nil, err
		}
		return nil, fn(ctx)
	}
}

// CheckArity verifies the number of invocation arguments.
func CheckArity(args []any, want int) error {
	if len(args) != want {
		return &ArgumentError{Want: want, Got: len(args)}
	}
	return nil
}

// Arg extracts the argument at index as T.
// A nil argument yields the zero value when T is nillable.
func Arg[T any](args []any, index int) (T, error) {
	var zero T
	if index < 0 || index >= len(args) {
		return zero, &ArgumentError{Want: index + 1, Got: len(args)}
	}
	if v, ok := args[index].(T); ok {
		return v, nil
	}
	expected := reflect.TypeOf((*T)(nil)).Elem()
	if args[index] == nil && isNillable(expected.Kind()) {
		return zero, nil
	}
	return zero, &ArgumentError{
		Index:    index,
		Expected: expected.String(),
		Actual:   fmt.Sprintf("%T", args[index]),
	}
}
