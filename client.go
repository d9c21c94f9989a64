package invoke

import (
	"github.com/vast-data/go-invoke/core"
	"github.com/vast-data/go-invoke/discovery"
)

type (
	ReturnType     = core.ReturnType
	MethodMarker   = core.MethodMarker
	MarkerOption   = core.MarkerOption
	Invocable      = core.Invocable
	Target         = core.Target
	Entry          = core.Entry
	Registry       = core.Registry
	RegistryConfig = core.RegistryConfig
	ConfigFunc     = core.ConfigFunc
	Invoker        = core.Invoker
	Result         = core.Result
	AsyncResult    = core.AsyncResult
	Declaration    = discovery.Declaration
)

// AnyObject is the default return type of a marked method.
var AnyObject = core.AnyObject

// NewRegistry creates a registry. A nil config uses DefaultConfig.
func NewRegistry(config *RegistryConfig) *Registry {
	return core.NewRegistry(config)
}

// NewInvoker creates an invoker reading from registry.
func NewInvoker(registry *Registry) (*Invoker, error) {
	return core.NewInvoker(registry)
}

// DefaultConfig returns the default registry configuration.
func DefaultConfig() *RegistryConfig {
	return core.DefaultConfig()
}

// Returns declares T as the return type of a marked method.
func Returns[T any]() MarkerOption {
	return core.Returns[T]()
}

// WithReturnType declares rt as the return type of a marked method.
func WithReturnType(rt ReturnType) MarkerOption {
	return core.WithReturnType(rt)
}

// ParseReturnType resolves a return type written in a marker.
func ParseReturnType(name string) ReturnType {
	return core.ParseReturnType(name)
}

// Scan lists the methods marked for invocation in dir, and in its sub directories when recursive.
func Scan(dir string, recursive bool) ([]Declaration, error) {
	scanner, err := discovery.NewScanner(&discovery.Config{Recursive: recursive})
	if err != nil {
		return nil, err
	}
	return scanner.ScanDir(dir)
}

// Version returns the library version.
func Version() string {
	return core.Version()
}
