package markers

import (
	"go/ast"
	"go/token"
	"reflect"
)

// TargetType describes which kind of Go construct a marker can be applied to.
type TargetType int

const (
	// DescribesPackage indicates that a marker is associated with a package.
	DescribesPackage TargetType = iota
	// DescribesType indicates that a marker is associated with a type declaration.
	DescribesType
	// DescribesField indicates that a marker is associated with a struct field.
	DescribesField
	// DescribesValue indicates that a marker is associated with a var or const declaration.
	DescribesValue
	// DescribesFunc indicates that a marker is associated with a function without receiver.
	DescribesFunc
	// DescribesMethod indicates that a marker is associated with a method.
	DescribesMethod

	// Detached is the target of a marker comment that documents no declaration.
	Detached TargetType = -1
)

func (t TargetType) String() string {
	switch t {
	case DescribesPackage:
		return "package"
	case DescribesType:
		return "type"
	case DescribesField:
		return "field"
	case DescribesValue:
		return "value"
	case DescribesFunc:
		return "func"
	case DescribesMethod:
		return "method"
	case Detached:
		return "detached comment"
	default:
		return "unknown"
	}
}

// ArgumentType represents the type of marker arguments.
type ArgumentType int

const (
	InvalidType ArgumentType = iota
	StringType
	IntType
	BoolType
	SliceType
	MapType
	// AnyType matches any type (interface{}).
	AnyType
)

// Argument describes the type and properties of a marker argument.
type Argument struct {
	Type     ArgumentType
	Optional bool
	// ItemType is the type of slice items or map values.
	ItemType *Argument
}

// Definition defines how to parse a specific marker.
type Definition struct {
	// Name is the marker's name (e.g., "invoke:method").
	Name string
	// Target indicates which Go construct this marker can be applied to.
	Target TargetType
	// OutputType is the Go type that this marker parses into.
	OutputType reflect.Type
	// Fields maps argument names to their types (for struct outputs).
	Fields map[string]Argument
	// FieldNames maps argument names to struct field names.
	FieldNames map[string]string
	Help       string
}

// MarkerValue is a parsed marker together with the declaration it documents.
type MarkerValue struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
	// Node is *ast.File, *ast.GenDecl, *ast.TypeSpec, *ast.ValueSpec, *ast.Field or *ast.FuncDecl.
	Node     ast.Node       `json:"-"`
	Target   TargetType     `json:"target"`
	Position token.Position `json:"position"`
}

// FuncDecl returns the function or method declaration the marker documents, if any.
func (mv MarkerValue) FuncDecl() (*ast.FuncDecl, bool) {
	fn, ok := mv.Node.(*ast.FuncDecl)
	return fn, ok
}

// MarkerValues maps marker names to their parsed values.
type MarkerValues map[string][]interface{}

// Get returns the first value for the given marker name, or nil if not found.
func (v MarkerValues) Get(name string) interface{} {
	vals := v[name]
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

func (v MarkerValues) GetAll(name string) []interface{} {
	return v[name]
}

// Has returns true if the marker name exists (even with empty values).
func (v MarkerValues) Has(name string) bool {
	_, exists := v[name]
	return exists
}

// Group indexes marker values by name.
func Group(values []MarkerValue) MarkerValues {
	out := make(MarkerValues)
	for _, mv := range values {
		out[mv.Name] = append(out[mv.Name], mv.Value)
	}
	return out
}
