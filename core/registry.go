package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
)

// Target identifies a method to register together with its callable.
type Target struct {
	Component string // e.g., "Foo" or "orders.Processor"
	Method    string // e.g., "Bar"
	Fn        Invocable
	// Interceptor is optional. Components usually pass themselves when they implement InvokeInterceptor.
	Interceptor InvokeInterceptor
}

// Entry is a registered method to invoke.
type Entry struct {
	Component    string
	Method       string
	Marker       MethodMarker
	Fn           Invocable
	Interceptor  InvokeInterceptor
	RegisteredAt time.Time
}

// ReturnType returns the declared return type of the entry.
func (e Entry) ReturnType() ReturnType {
	return e.Marker.ReturnType
}

// Key returns "Component.Method".
func (e Entry) Key() string {
	return e.Component + "." + e.Method
}

// Registry maps components to the methods marked for invocation.
//
// A registry is filled during a discovery pass at startup (explicit registration calls,
// usually emitted by the code generator) and then sealed. Lookups are safe for
// concurrent use at any time.
type Registry struct {
	config *RegistryConfig
	logger *zap.Logger

	mu sync.RWMutex
	// Key is component name, value is map of method name to entry
	entries map[string]map[string]Entry
	sealed  bool
}

// NewRegistry creates an empty registry. A nil config means DefaultConfig().
func NewRegistry(config *RegistryConfig) *Registry {
	if config == nil {
		config = DefaultConfig()
	}
	_ = config.Validate(WithDefaultLogger, WithDefaultTracer)
	return &Registry{
		config:  config,
		logger:  config.Logger.Named("registry"),
		entries: make(map[string]map[string]Entry),
	}
}

// Config returns the registry configuration.
func (r *Registry) Config() *RegistryConfig {
	return r.config
}

// Register attaches a method marker to the target method.
//
// Registration fails when the registry is sealed, the target is incomplete, the method
// is already marked, or the component already has a marked method and
// AllowMultiplePerComponent is off.
func (r *Registry) Register(target Target, opts ...MarkerOption) error {
	if err := validateTarget(target); err != nil {
		return err
	}
	marker := NewMethodMarker(opts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("register %s.%s: %w", target.Component, target.Method, ErrRegistrySealed)
	}
	methods := r.entries[target.Component]
	if _, exists := methods[target.Method]; exists {
		return &DuplicateMarkerError{Component: target.Component, Method: target.Method}
	}
	if len(methods) > 0 && !r.config.AllowMultiplePerComponent {
		return &MultipleMarkersError{
			Component: target.Component,
			Methods:   append(sortedMethodNames(methods), target.Method),
		}
	}
	if methods == nil {
		methods = make(map[string]Entry)
		r.entries[target.Component] = methods
	}
	methods[target.Method] = Entry{
		Component:    target.Component,
		Method:       target.Method,
		Marker:       marker,
		Fn:           target.Fn,
		Interceptor:  target.Interceptor,
		RegisteredAt: time.Now(),
	}
	r.logger.Debug("method marked for invocation",
		zap.String("component", target.Component),
		zap.String("method", target.Method),
		zap.Stringer("return_type", marker.ReturnType))
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(target Target, opts ...MarkerOption) {
	if err := r.Register(target, opts...); err != nil {
		panic(err)
	}
}

// Seal ends the discovery pass. Further registrations fail with ErrRegistrySealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed {
		r.sealed = true
		r.logger.Info("registry sealed", zap.Int("entries", r.lenLocked()))
	}
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Resolve returns the single method to invoke of a component.
// It returns false when the component has no marked method or has several of them.
func (r *Registry) Resolve(component string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := r.entries[component]
	if len(methods) != 1 {
		return Entry{}, false
	}
	for _, entry := range methods {
		return entry, true
	}
	return Entry{}, false
}

// ResolveMethod returns the entry of a specific marked method.
func (r *Registry) ResolveMethod(component, method string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[component][method]
	return entry, ok
}

// lookup is Resolve with descriptive errors.
func (r *Registry) lookup(component, method string) (Entry, error) {
	if method != "" {
		if entry, ok := r.ResolveMethod(component, method); ok {
			return entry, nil
		}
		return Entry{}, &NotFoundError{Component: component, Method: method}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	methods := r.entries[component]
	switch len(methods) {
	case 0:
		return Entry{}, &NotFoundError{Component: component}
	case 1:
		for _, entry := range methods {
			return entry, nil
		}
	}
	return Entry{}, &MultipleMarkersError{Component: component, Methods: sortedMethodNames(methods)}
}

// List returns all entries ordered by component and method.
func (r *Registry) List() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry, 0, r.lenLocked())
	for _, methods := range r.entries {
		for _, entry := range methods {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Component != result[j].Component {
			return result[i].Component < result[j].Component
		}
		return result[i].Method < result[j].Method
	})
	return result
}

// Components returns the sorted component names.
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lenLocked()
}

func (r *Registry) lenLocked() int {
	n := 0
	for _, methods := range r.entries {
		n += len(methods)
	}
	return n
}

func validateTarget(target Target) error {
	if !isValidIdentifier(target.Component) {
		return fmt.Errorf("%w: component %q", ErrInvalidIdentifier, target.Component)
	}
	if !isValidIdentifier(target.Method) {
		return fmt.Errorf("%w: method %q", ErrInvalidIdentifier, target.Method)
	}
	if target.Fn == nil {
		return fmt.Errorf("%s.%s: %w", target.Component, target.Method, ErrNilCallable)
	}
	return nil
}

func isValidIdentifier(id string) bool {
	if id == "" || strings.HasPrefix(id, ".") || strings.HasSuffix(id, ".") {
		return false
	}
	for _, c := range id {
		if unicode.IsSpace(c) || unicode.IsControl(c) {
			return false
		}
	}
	return true
}

func sortedMethodNames(methods map[string]Entry) []string {
	names := make([]string, 0, len(methods))
	for name := range methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ######################################################
//
//	PROCESS-WIDE REGISTRY
//
// ######################################################

var (
	defaultMu       sync.RWMutex
	defaultRegistry = NewRegistry(nil)
)

// DefaultRegistry returns the process-wide registry used by generated registration code.
func DefaultRegistry() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

// RegisterMethodToInvoke registers a target in the process-wide registry.
func RegisterMethodToInvoke(target Target, opts ...MarkerOption) error {
	return DefaultRegistry().Register(target, opts...)
}

// ResetDefaultRegistry replaces the process-wide registry with an empty one.
// A nil config means DefaultConfig().
func ResetDefaultRegistry(config *RegistryConfig) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = NewRegistry(config)
}
