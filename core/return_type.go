package core

import (
	"fmt"
	"go/parser"
	"go/types"
	"reflect"
	"strings"
)

var anyType = reflect.TypeOf((*any)(nil)).Elem()

// AnyObject is the universal "any object" return type.
// It is used whenever a marker does not declare a return type.
var AnyObject = ReturnType{name: AnyTypeName, typ: anyType}

// ReturnType describes the type of value a marked method is expected to return.
//
// A ReturnType is either backed by a reflect.Type (built with TypeOf, ReturnTypeOf or
// resolved by ParseReturnType for builtin names) or carries only a type name
// (NamedReturnType), which is the case for user types discovered in source code
// that cannot be resolved without loading the package.
//
// The zero value is equivalent to AnyObject.
type ReturnType struct {
	name string
	typ  reflect.Type
}

// TypeOf returns the ReturnType for the type parameter T.
//
// Example:
//
//	core.TypeOf[int]()            // int
//	core.TypeOf[*Order]()         // *orders.Order
//	core.TypeOf[any]()            // AnyObject
func TypeOf[T any]() ReturnType {
	return fromReflectType(reflect.TypeOf((*T)(nil)).Elem())
}

// ReturnTypeOf returns the ReturnType of the dynamic type of v.
// A nil value yields AnyObject.
func ReturnTypeOf(v any) ReturnType {
	if v == nil {
		return AnyObject
	}
	return fromReflectType(reflect.TypeOf(v))
}

// NamedReturnType returns a ReturnType known only by its name.
// Values are matched against it by comparing their printed type name.
func NamedReturnType(name string) ReturnType {
	name = NormalizeTypeName(name)
	if isAnyName(name) {
		return AnyObject
	}
	return ReturnType{name: name}
}

// ParseReturnType resolves a type name as written in a marker comment.
// Builtin names resolve to a reflect.Type; everything else becomes a NamedReturnType.
func ParseReturnType(name string) ReturnType {
	name = NormalizeTypeName(name)
	if isAnyName(name) {
		return AnyObject
	}
	if typ, ok := builtinTypes[name]; ok {
		return fromReflectType(typ)
	}
	return ReturnType{name: name}
}

// NormalizeTypeName prints a Go type expression in canonical form, keeping the
// spaces the syntax requires ("chan  int" -> "chan int", "interface { }" -> "interface{}").
// Text that is not a type expression is only trimmed.
func NormalizeTypeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	expr, err := parser.ParseExpr(name)
	if err != nil {
		return name
	}
	return types.ExprString(expr)
}

func fromReflectType(typ reflect.Type) ReturnType {
	if typ == nil || typ == anyType {
		return AnyObject
	}
	return ReturnType{name: typ.String(), typ: typ}
}

// Name returns the printable name of the type.
func (rt ReturnType) Name() string {
	if rt.name == "" {
		return AnyTypeName
	}
	return rt.name
}

// String implements fmt.Stringer.
func (rt ReturnType) String() string {
	return rt.Name()
}

// Type returns the backing reflect.Type, or nil for a NamedReturnType.
func (rt ReturnType) Type() reflect.Type {
	if rt.IsAny() {
		return anyType
	}
	return rt.typ
}

// IsAny reports whether rt is the universal "any object" type.
func (rt ReturnType) IsAny() bool {
	return rt.typ == anyType || (rt.typ == nil && rt.name == "") || rt.name == AnyTypeName
}

// IsNamed reports whether rt is known only by name.
func (rt ReturnType) IsNamed() bool {
	return !rt.IsAny() && rt.typ == nil
}

// Equal reports whether two return types describe the same type.
func (rt ReturnType) Equal(other ReturnType) bool {
	if rt.IsAny() || other.IsAny() {
		return rt.IsAny() && other.IsAny()
	}
	if rt.typ != nil && other.typ != nil {
		return rt.typ == other.typ
	}
	return rt.Name() == other.Name()
}

// Matches reports whether value satisfies the return type.
//
// AnyObject matches every value including nil. A nil value matches types whose
// zero value is nil (pointers, interfaces, slices, maps, funcs and channels).
// Interface types match values implementing them; other types require an
// assignable dynamic type, so an int64 does not match int.
func (rt ReturnType) Matches(value any) bool {
	if rt.IsAny() {
		return true
	}
	if rt.typ == nil {
		if value == nil {
			return true
		}
		return typeNameMatches(fmt.Sprintf("%T", value), rt.name)
	}
	if value == nil {
		return isNillable(rt.typ.Kind())
	}
	actual := reflect.TypeOf(value)
	if rt.typ.Kind() == reflect.Interface {
		return actual.Implements(rt.typ)
	}
	return actual.AssignableTo(rt.typ)
}

// MarshalText encodes the return type as its name.
func (rt ReturnType) MarshalText() ([]byte, error) {
	return []byte(rt.Name()), nil
}

// UnmarshalText decodes a return type name using ParseReturnType.
func (rt *ReturnType) UnmarshalText(text []byte) error {
	*rt = ParseReturnType(string(text))
	return nil
}

// typeNameMatches compares a printed dynamic type ("*orders.Order") with a declared
// name that may or may not carry a package qualifier ("Order", "orders.Order", "*Order").
func typeNameMatches(actual, declared string) bool {
	if actual == declared {
		return true
	}
	actualPtr := strings.HasPrefix(actual, "*")
	declaredPtr := strings.HasPrefix(declared, "*")
	if actualPtr != declaredPtr {
		return false
	}
	actual = strings.TrimPrefix(actual, "*")
	declared = strings.TrimPrefix(declared, "*")
	if strings.Contains(declared, ".") {
		return actual == declared
	}
	if idx := strings.LastIndex(actual, "."); idx >= 0 {
		actual = actual[idx+1:]
	}
	return actual == declared
}

func isAnyName(name string) bool {
	switch name {
	case "", AnyTypeName, "interface{}":
		return true
	}
	return false
}

func isNillable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return true
	}
	return false
}

var builtinTypes = map[string]reflect.Type{
	"bool":                   reflect.TypeOf(false),
	"string":                 reflect.TypeOf(""),
	"int":                    reflect.TypeOf(int(0)),
	"int8":                   reflect.TypeOf(int8(0)),
	"int16":                  reflect.TypeOf(int16(0)),
	"int32":                  reflect.TypeOf(int32(0)),
	"int64":                  reflect.TypeOf(int64(0)),
	"uint":                   reflect.TypeOf(uint(0)),
	"uint8":                  reflect.TypeOf(uint8(0)),
	"uint16":                 reflect.TypeOf(uint16(0)),
	"uint32":                 reflect.TypeOf(uint32(0)),
	"uint64":                 reflect.TypeOf(uint64(0)),
	"uintptr":                reflect.TypeOf(uintptr(0)),
	"byte":                   reflect.TypeOf(byte(0)),
	"rune":                   reflect.TypeOf(rune(0)),
	"float32":                reflect.TypeOf(float32(0)),
	"float64":                reflect.TypeOf(float64(0)),
	"complex64":              reflect.TypeOf(complex64(0)),
	"complex128":             reflect.TypeOf(complex128(0)),
	"error":                  reflect.TypeOf((*error)(nil)).Elem(),
	"[]byte":                 reflect.TypeOf([]byte(nil)),
	"[]string":               reflect.TypeOf([]string(nil)),
	"[]int":                  reflect.TypeOf([]int(nil)),
	"[]any":                  reflect.TypeOf([]any(nil)),
	"[]interface{}":          reflect.TypeOf([]any(nil)),
	"map[string]any":         reflect.TypeOf(map[string]any(nil)),
	"map[string]interface{}": reflect.TypeOf(map[string]any(nil)),
	"map[string]string":      reflect.TypeOf(map[string]string(nil)),
}
