package discovery

import (
	"fmt"
	"go/token"
	"strings"

	"github.com/vast-data/go-invoke/core"
)

// Param is a method parameter as written in source.
type Param struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Type string `json:"type" yaml:"type" msgpack:"type"`
}

// Declaration is a method marked for invocation found in source code.
type Declaration struct {
	// Package is the Go package name, Dir the directory holding it.
	Package    string
	Dir        string
	Component  string
	Method     string
	ReturnType core.ReturnType
	Params     []Param
	// Results are the result types as written in source.
	Results         []string
	PointerReceiver bool
	// Generic is set for methods of generic types.
	Generic bool
	// Imports are the imports of the file declaring the method.
	Imports []Import
	Pos     token.Position
}

// Import is an import spec of a source file.
type Import struct {
	// Name is the explicit import name, "" when the package is imported unnamed.
	Name string
	Path string
}

// PackageName returns the name the file refers to the package by. For unnamed
// imports it is guessed from the path: "gopkg.in/yaml.v3" -> "yaml",
// "github.com/vmihailenco/msgpack/v5" -> "msgpack", "github.com/hashicorp/go-version" -> "version".
func (i Import) PackageName() string {
	if i.Name != "" {
		return i.Name
	}
	elems := strings.Split(i.Path, "/")
	name := elems[len(elems)-1]
	if len(elems) > 1 && isMajorVersion(name) {
		name = elems[len(elems)-2]
	}
	if idx := strings.Index(name, "."); idx > 0 {
		name = name[:idx]
	}
	name = strings.TrimPrefix(name, "go-")
	return strings.ReplaceAll(name, "-", "_")
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ImportOf returns the import the declaring file refers to as qualifier.
// Blank and dot imports are never returned.
func (d Declaration) ImportOf(qualifier string) (Import, bool) {
	for _, imp := range d.Imports {
		if imp.Name == "_" || imp.Name == "." {
			continue
		}
		if imp.PackageName() == qualifier {
			return imp, true
		}
	}
	return Import{}, false
}

// Marker returns the runtime marker equivalent of the declaration.
func (d Declaration) Marker() core.MethodMarker {
	return core.NewMethodMarker(core.WithReturnType(d.ReturnType))
}

func (d Declaration) Key() string {
	return d.Component + "." + d.Method
}

// String implements fmt.Stringer.
func (d Declaration) String() string {
	return fmt.Sprintf("(%s, %s, %s)", d.Component, d.Method, d.ReturnType)
}

// TakesContext reports whether the first parameter is a context.Context.
func (d Declaration) TakesContext() bool {
	return len(d.Params) > 0 && d.Params[0].Type == "context.Context"
}

// ReturnsError reports whether the last result is an error.
func (d Declaration) ReturnsError() bool {
	return len(d.Results) > 0 && d.Results[len(d.Results)-1] == "error"
}

// ResultType returns the type of the value result, or "" when the method
// returns nothing but an optional error.
func (d Declaration) ResultType() string {
	switch {
	case len(d.Results) == 0:
		return ""
	case len(d.Results) == 1 && d.ReturnsError():
		return ""
	default:
		return d.Results[0]
	}
}

// Consistent reports whether the declared return type agrees with the value
// result of the method signature. A declaration without declared type is always consistent.
func (d Declaration) Consistent() bool {
	if d.ReturnType.IsAny() {
		return true
	}
	result := d.ResultType()
	if result == "" {
		return false
	}
	return core.ParseReturnType(result).Equal(d.ReturnType)
}
