package core

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RegistryConfig represents the configuration of a method registry and the invokers built on it.
type RegistryConfig struct {
	// CheckReturnType enables checking invocation results against the declared return type.
	// When false results are passed through untouched. AnyObject accepts every value either way.
	CheckReturnType bool
	// AllowMultiplePerComponent permits more than one marked method per component.
	// By default a second marked method on the same component is rejected at registration time.
	AllowMultiplePerComponent bool
	// Serialize runs invocations of the same method one at a time.
	Serialize bool

	// Logger receives structured registration and invocation logs. Defaults to a no-op logger.
	Logger *zap.Logger
	// Tracer creates a span per invocation. Defaults to the global OpenTelemetry tracer.
	Tracer trace.Tracer
	// MetricsRegisterer enables Prometheus metrics when set.
	MetricsRegisterer prometheus.Registerer

	// BeforeInvokeFn is an optional hook executed before every invocation.
	//
	// Parameters:
	//   - ctx: The invocation context.
	//   - entry: The registry entry being invoked.
	//   - args: The invocation arguments.
	//
	// Return:
	//   - error: Any error returned will abort the invocation.
	BeforeInvokeFn func(ctx context.Context, entry Entry, args []any) error

	// AfterInvokeFn is an optional hook executed after a successful invocation.
	// It may inspect or replace the result.
	AfterInvokeFn func(ctx context.Context, result *Result) (*Result, error)
}

// ConfigFunc defines a function that can modify or validate a RegistryConfig.
type ConfigFunc func(*RegistryConfig) error

// DefaultConfig returns a configuration with return type checking disabled,
// a single marked method per component and no-op observability.
func DefaultConfig() *RegistryConfig {
	config := &RegistryConfig{}
	_ = config.Validate(WithDefaultLogger, WithDefaultTracer)
	return config
}

// Validate applies the given ConfigFunc validators to the config and returns the first error.
func (config *RegistryConfig) Validate(validators ...ConfigFunc) error {
	for _, fn := range validators {
		if err := fn(config); err != nil {
			return err
		}
	}
	return nil
}

// WithDefaultLogger installs a no-op logger if none is provided.
func WithDefaultLogger(config *RegistryConfig) error {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return nil
}

// WithDefaultTracer installs the global OpenTelemetry tracer if none is provided.
func WithDefaultTracer(config *RegistryConfig) error {
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(TracerName)
	}
	return nil
}

// WithLogger returns a ConfigFunc that sets the logger.
func WithLogger(logger *zap.Logger) ConfigFunc {
	return func(config *RegistryConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		config.Logger = logger
		return nil
	}
}

// WithCheckReturnType returns a ConfigFunc that toggles return type checking.
func WithCheckReturnType(enabled bool) ConfigFunc {
	return func(config *RegistryConfig) error {
		config.CheckReturnType = enabled
		return nil
	}
}

// WithMetrics returns a ConfigFunc that enables Prometheus metrics on the given registerer.
func WithMetrics(registerer prometheus.Registerer) ConfigFunc {
	return func(config *RegistryConfig) error {
		if registerer == nil {
			return errors.New("metrics registerer cannot be nil")
		}
		config.MetricsRegisterer = registerer
		return nil
	}
}
