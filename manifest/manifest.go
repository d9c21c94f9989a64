// Package manifest describes the methods to invoke of a module in a portable
// document that can be stored, diffed and exported as an OpenAPI schema.
package manifest

import (
	"fmt"
	"sort"

	"github.com/bndr/gotabulate"
	"github.com/vast-data/go-invoke/core"
	"github.com/vast-data/go-invoke/discovery"
)

// Manifest lists the methods to invoke of a module.
type Manifest struct {
	Version string  `json:"version" yaml:"version" msgpack:"version"`
	Module  string  `json:"module,omitempty" yaml:"module,omitempty" msgpack:"module,omitempty"`
	Entries []Entry `json:"entries" yaml:"entries" msgpack:"entries"`
}

// Entry is a single method to invoke.
type Entry struct {
	Package    string            `json:"package,omitempty" yaml:"package,omitempty" msgpack:"package,omitempty"`
	Component  string            `json:"component" yaml:"component" msgpack:"component"`
	Method     string            `json:"method" yaml:"method" msgpack:"method"`
	ReturnType string            `json:"return_type" yaml:"return_type" msgpack:"return_type"`
	Params     []discovery.Param `json:"params,omitempty" yaml:"params,omitempty" msgpack:"params,omitempty"`
	Results    []string          `json:"results,omitempty" yaml:"results,omitempty" msgpack:"results,omitempty"`
	Position   string            `json:"position,omitempty" yaml:"position,omitempty" msgpack:"position,omitempty"`
}

func (e Entry) Key() string {
	if e.Package == "" {
		return e.Component + "." + e.Method
	}
	return e.Package + "." + e.Component + "." + e.Method
}

// Marker returns the runtime marker of the entry.
func (e Entry) Marker() core.MethodMarker {
	return core.NewMethodMarker(core.WithReturnType(core.ParseReturnType(e.ReturnType)))
}

// String implements fmt.Stringer.
func (e Entry) String() string {
	return fmt.Sprintf("(%s, %s, %s)", e.Component, e.Method, e.Marker().ReturnType)
}

// New creates an empty manifest of the current format version.
func New(module string) *Manifest {
	return &Manifest{Version: FormatVersion, Module: module}
}

// FromDeclarations builds a manifest from scanned declarations.
func FromDeclarations(module string, decls []discovery.Declaration) *Manifest {
	m := New(module)
	for _, decl := range decls {
		m.Entries = append(m.Entries, Entry{
			Package:    decl.Package,
			Component:  decl.Component,
			Method:     decl.Method,
			ReturnType: decl.ReturnType.Name(),
			Params:     decl.Params,
			Results:    decl.Results,
			Position:   decl.Pos.String(),
		})
	}
	m.Sort()
	return m
}

// FromRegistry builds a manifest from a runtime registry.
func FromRegistry(module string, r *core.Registry) *Manifest {
	m := New(module)
	for _, entry := range r.List() {
		m.Entries = append(m.Entries, Entry{
			Component:  entry.Component,
			Method:     entry.Method,
			ReturnType: entry.ReturnType().Name(),
		})
	}
	m.Sort()
	return m
}

// Sort orders entries by package, component and method.
func (m *Manifest) Sort() {
	sort.SliceStable(m.Entries, func(i, j int) bool {
		a, b := m.Entries[i], m.Entries[j]
		if a.Package != b.Package {
			return a.Package < b.Package
		}
		if a.Component != b.Component {
			return a.Component < b.Component
		}
		return a.Method < b.Method
	})
}

// Validate checks entries are complete and unique.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Entries))
	for i, e := range m.Entries {
		if e.Component == "" || e.Method == "" {
			return fmt.Errorf("entry %d: component and method are required", i)
		}
		if seen[e.Key()] {
			return &core.DuplicateMarkerError{Component: e.Component, Method: e.Method}
		}
		seen[e.Key()] = true
	}
	return nil
}

// Register binds the entries to callables returned by resolve and registers them.
//
// Every entry is resolved before any is registered: an entry resolve does not know
// is reported as *core.NotFoundError and leaves the registry untouched. An error
// returned by the registry itself (sealed registry, duplicate or multiple markers)
// stops registration, keeping the entries registered before it.
func (m *Manifest) Register(r *core.Registry, resolve func(Entry) core.Invocable) error {
	targets := make([]core.Target, 0, len(m.Entries))
	for _, e := range m.Entries {
		fn := resolve(e)
		if fn == nil {
			return &core.NotFoundError{Component: e.Component, Method: e.Method}
		}
		targets = append(targets, core.Target{Component: e.Component, Method: e.Method, Fn: fn})
	}
	for i, target := range targets {
		if err := r.Register(target, core.WithReturnType(m.Entries[i].Marker().ReturnType)); err != nil {
			return err
		}
	}
	return nil
}

// Render prints the entries as a grid table.
func (m *Manifest) Render() string {
	if len(m.Entries) == 0 {
		return "<no methods to invoke>"
	}
	rows := make([][]any, 0, len(m.Entries))
	for _, e := range m.Entries {
		rows = append(rows, []any{e.Package, e.Component, e.Method, e.Marker().ReturnType.Name(), e.Position})
	}
	t := gotabulate.Create(rows)
	t.SetHeaders([]string{"package", "component", "method", "return type", "position"})
	t.SetAlign("left")
	t.SetEmptyString("-")
	return t.Render("grid")
}
