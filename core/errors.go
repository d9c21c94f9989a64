package core

import (
	"errors"
	"fmt"
)

var (
	ErrRegistrySealed     = errors.New("registry is sealed")
	ErrNilCallable        = errors.New("callable is nil")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrUnexpectedArgument = errors.New("unexpected argument")
)

type NotFoundError struct {
	Component string
	Method    string
}

func (e *NotFoundError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("no method to invoke registered for component '%s'", e.Component)
	}
	return fmt.Sprintf("method '%s' of component '%s' is not registered for invocation", e.Method, e.Component)
}

// DuplicateMarkerError is returned when the same method is marked more than once.
type DuplicateMarkerError struct {
	Component string
	Method    string
}

func (e *DuplicateMarkerError) Error() string {
	return fmt.Sprintf("method '%s.%s' is already marked for invocation", e.Component, e.Method)
}

// MultipleMarkersError is returned when a component has more than one marked method
// while only one is allowed, or when a component with several marked methods is
// invoked without naming the method.
type MultipleMarkersError struct {
	Component string
	Methods   []string
}

func (e *MultipleMarkersError) Error() string {
	return fmt.Sprintf("component '%s' has more than one method marked for invocation: %v", e.Component, e.Methods)
}

// ReturnTypeMismatchError is returned by the invoker when return type checking is enabled
// and the invoked method produced a value of a different type than declared.
type ReturnTypeMismatchError struct {
	Component string
	Method    string
	Expected  ReturnType
	Actual    string
}

func (e *ReturnTypeMismatchError) Error() string {
	return fmt.Sprintf("method '%s.%s' returned %s, expected %s", e.Component, e.Method, e.Actual, e.Expected)
}

// InvocationError wraps a failure raised by the invoked method itself.
type InvocationError struct {
	Component string
	Method    string
	Err       error
	// Panic holds the recovered value when the method panicked.
	Panic any
}

func (e *InvocationError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("method '%s.%s' panicked: %v", e.Component, e.Method, e.Panic)
	}
	return fmt.Sprintf("method '%s.%s' failed: %v", e.Component, e.Method, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// ArgumentError describes invocation arguments that do not fit the method signature.
type ArgumentError struct {
	Index    int
	Expected string
	Actual   string
	Want     int
	Got      int
}

func (e *ArgumentError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("%v: want %d argument(s), got %d", ErrUnexpectedArgument, e.Want, e.Got)
	}
	return fmt.Sprintf("%v: argument %d must be %s, got %s", ErrUnexpectedArgument, e.Index, e.Expected, e.Actual)
}

func (e *ArgumentError) Unwrap() error {
	return ErrUnexpectedArgument
}

func IsNotFoundErr(err error) bool {
	var nfErr *NotFoundError
	return errors.As(err, &nfErr)
}

func IsDuplicateMarkerErr(err error) bool {
	var dupErr *DuplicateMarkerError
	return errors.As(err, &dupErr)
}

func IsMultipleMarkersErr(err error) bool {
	var multiErr *MultipleMarkersError
	return errors.As(err, &multiErr)
}

func IsReturnTypeMismatchErr(err error) bool {
	var mismatchErr *ReturnTypeMismatchError
	return errors.As(err, &mismatchErr)
}

func IsInvocationErr(err error) bool {
	var invErr *InvocationError
	return errors.As(err, &invErr)
}

// IgnoreNotFound drops NotFoundError so callers can treat unknown components as a no-op.
func IgnoreNotFound(res *Result, err error) (*Result, error) {
	if IsNotFoundErr(err) {
		return res, nil
	}
	return res, err
}
