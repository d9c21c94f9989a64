package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type foo struct{}

func (f *foo) Bar() any { return "bar" }

// Unmarked is never registered.
func (f *foo) Unmarked() any { return "unmarked" }

type baz struct{ value any }

func (b *baz) Qux() any { return b.value }

func newFooBazRegistry(t *testing.T, config *RegistryConfig) (*Registry, *baz) {
	t.Helper()
	registry := NewRegistry(config)
	f := &foo{}
	b := &baz{value: 7}
	require.NoError(t, registry.Register(Target{Component: "Foo", Method: "Bar", Fn: Supplier(f.Bar)}))
	require.NoError(t, registry.Register(Target{Component: "Baz", Method: "Qux", Fn: Supplier(b.Qux)}, Returns[int]()))
	return registry, b
}

func TestRegistry_DiscoveryListsMarkedMethods(t *testing.T) {
	registry, _ := newFooBazRegistry(t, nil)

	entries := registry.List()
	require.Len(t, entries, 2)

	assert.Equal(t, "(Baz, Qux, int)", entries[0].String())
	assert.Equal(t, "(Foo, Bar, any)", entries[1].String())
	assert.True(t, entries[1].ReturnType().IsAny())
	assert.True(t, entries[0].ReturnType().Equal(TypeOf[int]()))
}

func TestRegistry_UnmarkedMethodIsNotDiscoverable(t *testing.T) {
	registry, _ := newFooBazRegistry(t, nil)

	_, ok := registry.ResolveMethod("Foo", "Unmarked")
	assert.False(t, ok)
	_, ok = registry.Resolve("Unknown")
	assert.False(t, ok)
	for _, entry := range registry.List() {
		assert.NotEqual(t, "Unmarked", entry.Method)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	registry, _ := newFooBazRegistry(t, nil)

	entry, ok := registry.Resolve("Foo")
	require.True(t, ok)
	assert.Equal(t, "Bar", entry.Method)
	assert.Equal(t, "Foo.Bar", entry.Key())
	assert.False(t, entry.RegisteredAt.IsZero())
	assert.Equal(t, []string{"Baz", "Foo"}, registry.Components())
	assert.Equal(t, 2, registry.Len())
}

func TestRegistry_Register_Errors(t *testing.T) {
	noop := Supplier(func() any { return nil })

	tests := []struct {
		name    string
		setup   func(r *Registry)
		target  Target
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "empty component",
			target: Target{Method: "Bar", Fn: noop},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
			},
		},
		{
			name:   "method with whitespace",
			target: Target{Component: "Foo", Method: "Ba r", Fn: noop},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrInvalidIdentifier)
			},
		},
		{
			name:   "nil callable",
			target: Target{Component: "Foo", Method: "Bar"},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNilCallable)
			},
		},
		{
			name: "same method twice",
			setup: func(r *Registry) {
				r.MustRegister(Target{Component: "Foo", Method: "Bar", Fn: noop})
			},
			target: Target{Component: "Foo", Method: "Bar", Fn: noop},
			checkFn: func(t *testing.T, err error) {
				assert.True(t, IsDuplicateMarkerErr(err), "got %v", err)
			},
		},
		{
			name: "second method on component",
			setup: func(r *Registry) {
				r.MustRegister(Target{Component: "Foo", Method: "Bar", Fn: noop})
			},
			target: Target{Component: "Foo", Method: "Other", Fn: noop},
			checkFn: func(t *testing.T, err error) {
				var multiErr *MultipleMarkersError
				require.True(t, errors.As(err, &multiErr), "got %v", err)
				assert.Equal(t, []string{"Bar", "Other"}, multiErr.Methods)
			},
		},
		{
			name:   "sealed registry",
			setup:  func(r *Registry) { r.Seal() },
			target: Target{Component: "Foo", Method: "Bar", Fn: noop},
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrRegistrySealed)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry(nil)
			if tt.setup != nil {
				tt.setup(registry)
			}
			err := registry.Register(tt.target)
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestRegistry_AllowMultiplePerComponent(t *testing.T) {
	registry := NewRegistry(&RegistryConfig{AllowMultiplePerComponent: true})
	noop := Supplier(func() any { return nil })

	require.NoError(t, registry.Register(Target{Component: "Foo", Method: "Bar", Fn: noop}))
	require.NoError(t, registry.Register(Target{Component: "Foo", Method: "Other", Fn: noop}))

	_, ok := registry.Resolve("Foo")
	assert.False(t, ok, "Resolve must not pick one of several marked methods")

	_, err := registry.lookup("Foo", "")
	assert.True(t, IsMultipleMarkersErr(err))

	entry, err := registry.lookup("Foo", "Other")
	require.NoError(t, err)
	assert.Equal(t, "Other", entry.Method)

	assert.True(t, IsDuplicateMarkerErr(registry.Register(Target{Component: "Foo", Method: "Bar", Fn: noop})))
}

func TestRegistry_MustRegisterPanics(t *testing.T) {
	registry := NewRegistry(nil)
	assert.Panics(t, func() {
		registry.MustRegister(Target{Component: "Foo", Method: "Bar"})
	})
}

func TestRegistry_ConcurrentLookups(t *testing.T) {
	registry, _ := newFooBazRegistry(t, nil)
	registry.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := registry.Resolve("Foo"); !ok {
					t.Error("Resolve(Foo) failed")
					return
				}
				_ = registry.List()
			}
		}()
	}
	wg.Wait()
	assert.True(t, registry.Sealed())
}

func TestRegistry_Render(t *testing.T) {
	registry, _ := newFooBazRegistry(t, nil)
	out := registry.Render()
	for _, want := range []string{"component", "Foo", "Bar", "Baz", "Qux", "int", "any"} {
		assert.True(t, strings.Contains(out, want), "table should contain %q:\n%s", want, out)
	}
	assert.Equal(t, "<no methods to invoke>", NewRegistry(nil).Render())
}

func TestDefaultRegistry(t *testing.T) {
	ResetDefaultRegistry(nil)
	t.Cleanup(func() { ResetDefaultRegistry(nil) })

	err := RegisterMethodToInvoke(Target{
		Component: "Foo",
		Method:    "Bar",
		Fn:        Func(func(context.Context) (string, error) { return "bar", nil }),
	})
	require.NoError(t, err)

	entry, ok := DefaultRegistry().Resolve("Foo")
	require.True(t, ok)
	assert.True(t, entry.ReturnType().IsAny())

	ResetDefaultRegistry(nil)
	assert.Equal(t, 0, DefaultRegistry().Len())
}
