package markers

import (
	"github.com/vast-data/go-invoke/core"
)

// MethodToInvokeName is the marker designating a method to invoke.
const MethodToInvokeName = core.MarkerName

// MethodToInvoke is the parsed form of
//
//	// +invoke:method
//	// +invoke:method:returnType=int
//	// +invoke:method=int
type MethodToInvoke struct {
	ReturnType string `marker:"returnType,optional"`
}

// Marker converts the parsed marker into a core.MethodMarker.
// An omitted returnType yields core.AnyObject.
func (m MethodToInvoke) Marker() core.MethodMarker {
	return core.NewMethodMarker(core.WithReturnType(core.ParseReturnType(m.ReturnType)))
}

// NewInvokeRegistry returns a marker registry knowing the method to invoke marker.
func NewInvokeRegistry() *Registry {
	registry := NewRegistry()
	registry.MustRegister(MethodToInvokeName, DescribesMethod, MethodToInvoke{},
		"designates the method of a component to invoke; returnType defaults to any")
	return registry
}
