package core

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

type order struct{ ID int }

func TestReturnType_ZeroValueIsAny(t *testing.T) {
	var rt ReturnType
	if !rt.IsAny() {
		t.Fatal("zero ReturnType should be AnyObject")
	}
	if rt.Name() != AnyTypeName {
		t.Errorf("Name() = %q, want %q", rt.Name(), AnyTypeName)
	}
	if !rt.Equal(AnyObject) {
		t.Error("zero ReturnType should equal AnyObject")
	}
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name     string
		rt       ReturnType
		wantName string
		wantAny  bool
	}{
		{name: "int", rt: TypeOf[int](), wantName: "int"},
		{name: "string", rt: TypeOf[string](), wantName: "string"},
		{name: "pointer", rt: TypeOf[*order](), wantName: "*core.order"},
		{name: "slice", rt: TypeOf[[]string](), wantName: "[]string"},
		{name: "any", rt: TypeOf[any](), wantName: AnyTypeName, wantAny: true},
		{name: "error", rt: TypeOf[error](), wantName: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rt.Name(); got != tt.wantName {
				t.Errorf("Name() = %q, want %q", got, tt.wantName)
			}
			if got := tt.rt.IsAny(); got != tt.wantAny {
				t.Errorf("IsAny() = %v, want %v", got, tt.wantAny)
			}
		})
	}
}

func TestParseReturnType(t *testing.T) {
	tests := []struct {
		input     string
		wantName  string
		wantAny   bool
		wantNamed bool
	}{
		{input: "", wantName: "any", wantAny: true},
		{input: "any", wantName: "any", wantAny: true},
		{input: "interface{}", wantName: "any", wantAny: true},
		{input: "interface { }", wantName: "any", wantAny: true},
		{input: "Object", wantName: "Object", wantNamed: true},
		{input: "chan int", wantName: "chan int", wantNamed: true},
		{input: "chan  int", wantName: "chan int", wantNamed: true},
		{input: "<-chan string", wantName: "<-chan string", wantNamed: true},
		{input: "func() error", wantName: "func() error", wantNamed: true},
		{input: "func(a int) string", wantName: "func(a int) string", wantNamed: true},
		{input: "map[string]chan int", wantName: "map[string]chan int", wantNamed: true},
		{input: "int", wantName: "int"},
		{input: " float64 ", wantName: "float64"},
		{input: "map[string]any", wantName: "map[string]interface {}"},
		{input: "Order", wantName: "Order", wantNamed: true},
		{input: "*orders.Order", wantName: "*orders.Order", wantNamed: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			rt := ParseReturnType(tt.input)
			if rt.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", rt.Name(), tt.wantName)
			}
			if rt.IsAny() != tt.wantAny {
				t.Errorf("IsAny() = %v, want %v", rt.IsAny(), tt.wantAny)
			}
			if rt.IsNamed() != tt.wantNamed {
				t.Errorf("IsNamed() = %v, want %v", rt.IsNamed(), tt.wantNamed)
			}
		})
	}
}

func TestReturnType_Matches(t *testing.T) {
	tests := []struct {
		name  string
		rt    ReturnType
		value any
		want  bool
	}{
		{name: "any accepts int", rt: AnyObject, value: 1, want: true},
		{name: "any accepts nil", rt: AnyObject, value: nil, want: true},
		{name: "int accepts int", rt: TypeOf[int](), value: 42, want: true},
		{name: "int rejects int64", rt: TypeOf[int](), value: int64(42), want: false},
		{name: "int rejects string", rt: TypeOf[int](), value: "42", want: false},
		{name: "int rejects nil", rt: TypeOf[int](), value: nil, want: false},
		{name: "pointer accepts nil", rt: TypeOf[*order](), value: nil, want: true},
		{name: "pointer accepts pointer", rt: TypeOf[*order](), value: &order{}, want: true},
		{name: "pointer rejects value", rt: TypeOf[*order](), value: order{}, want: false},
		{name: "interface accepts implementation", rt: TypeOf[error](), value: errors.New("x"), want: true},
		{name: "interface rejects non implementation", rt: TypeOf[io.Reader](), value: 1, want: false},
		{name: "named unqualified", rt: NamedReturnType("order"), value: order{}, want: true},
		{name: "named qualified", rt: NamedReturnType("core.order"), value: order{}, want: true},
		{name: "named pointer", rt: NamedReturnType("*order"), value: &order{}, want: true},
		{name: "named pointer mismatch", rt: NamedReturnType("order"), value: &order{}, want: false},
		{name: "named other package", rt: NamedReturnType("orders.order"), value: order{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rt.Matches(tt.value); got != tt.want {
				t.Errorf("Matches(%s) = %v, want %v", fmt.Sprintf("%T", tt.value), got, tt.want)
			}
		})
	}
}

func TestReturnType_TextRoundTrip(t *testing.T) {
	text, err := TypeOf[int]().MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	var rt ReturnType
	if err := rt.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if !rt.Equal(TypeOf[int]()) {
		t.Errorf("round trip = %s, want int", rt)
	}
}
