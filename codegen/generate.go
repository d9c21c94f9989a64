// Package codegen emits the registration code binding methods marked for
// invocation to a core.Registry, so no reflection is needed at runtime.
package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"os"
	"sort"
	"strings"
	"text/template"

	"github.com/vast-data/go-invoke/discovery"
)

// Header is the first line of every generated file.
const Header = "// Code generated by invokectl. DO NOT EDIT."

// DefaultFileName is the conventional name of the generated file.
const DefaultFileName = "zz_generated.invoke.go"

const corePath = "github.com/vast-data/go-invoke/core"

type componentData struct {
	Name    string
	Methods []methodData
}

type methodData struct {
	Name       string
	Arity      int
	Args       []argData
	Call       string
	Shape      string
	ReturnType string
}

type argData struct {
	Var   string
	Type  string
	Index int
}

// Result shapes of a marked method.
const (
	shapeNone       = "none"
	shapeValue      = "value"
	shapeError      = "error"
	shapeValueError = "value_error"
)

var funcs = template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}

var fileTemplate = template.Must(template.New("invoke").Funcs(funcs).Parse(Header + `

package {{.Package}}

import (
	"context"
{{- range .StdImports}}
	{{.}}
{{- end}}

	"github.com/vast-data/go-invoke/core"
{{- range .Imports}}
	{{.}}
{{- end}}
)
{{range .Components}}{{$component := .Name}}
// Register{{.Name}}MethodToInvoke registers the methods of {{.Name}} marked for invocation.
func Register{{.Name}}MethodToInvoke(r *core.Registry, c *{{.Name}}) error {
{{- range .Methods}}
	if err := r.Register(core.Target{
		Component: {{quote $component}},
		Method:    {{quote .Name}},
		Fn: func(ctx context.Context, args ...any) (any, error) {
			if err := core.CheckArity(args, {{.Arity}}); err != nil {
				return nil, err
			}
{{- range .Args}}
			{{.Var}}, err := core.Arg[{{.Type}}](args, {{.Index}})
			if err != nil {
				return nil, err
			}
{{- end}}
{{- if eq .Shape "none"}}
			{{.Call}}
			return nil, nil
{{- else if eq .Shape "value"}}
			return {{.Call}}, nil
{{- else if eq .Shape "error"}}
			return nil, {{.Call}}
{{- else}}
			return {{.Call}}
{{- end}}
		},
	}{{if .ReturnType}}, core.WithReturnType({{.ReturnType}}){{end}}); err != nil {
		return err
	}
{{- end}}
	return nil
}
{{end}}`))

// Generate renders the gofmt'ed registration file of package pkg for decls.
//
// Every declaration must belong to pkg. Methods of generic types and results
// other than (), (T), (error) and (T, error) are rejected.
func Generate(pkg string, decls []discovery.Declaration) ([]byte, error) {
	if pkg == "" {
		return nil, fmt.Errorf("package name cannot be empty")
	}
	if len(decls) == 0 {
		return nil, fmt.Errorf("no methods to invoke in package %s", pkg)
	}
	byComponent := make(map[string]*componentData)
	imports := newImportSet()
	for _, decl := range decls {
		if decl.Package != pkg {
			return nil, fmt.Errorf("%s: %s belongs to package %s, not %s", decl.Pos, decl.Key(), decl.Package, pkg)
		}
		method, err := buildMethod(decl, imports)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", decl.Pos, decl.Key(), err)
		}
		cmp, ok := byComponent[decl.Component]
		if !ok {
			cmp = &componentData{Name: decl.Component}
			byComponent[decl.Component] = cmp
		}
		cmp.Methods = append(cmp.Methods, method)
	}

	data := struct {
		Package    string
		StdImports []string
		Imports    []string
		Components []*componentData
	}{Package: pkg}
	data.StdImports, data.Imports = imports.specs()
	for _, cmp := range byComponent {
		sort.Slice(cmp.Methods, func(i, j int) bool { return cmp.Methods[i].Name < cmp.Methods[j].Name })
		data.Components = append(data.Components, cmp)
	}
	sort.Slice(data.Components, func(i, j int) bool { return data.Components[i].Name < data.Components[j].Name })

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w", err)
	}
	return src, nil
}

// GenerateFile writes the registration file to path.
func GenerateFile(path, pkg string, decls []discovery.Declaration) error {
	src, err := Generate(pkg, decls)
	if err != nil {
		return err
	}
	return os.WriteFile(path, src, 0o644)
}

func buildMethod(decl discovery.Declaration, imports *importSet) (methodData, error) {
	if decl.Generic {
		return methodData{}, fmt.Errorf("methods of generic types are not supported")
	}
	for _, p := range decl.Params {
		if err := imports.require(decl, p.Type); err != nil {
			return methodData{}, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}
	m := methodData{Name: decl.Method, ReturnType: returnTypeExpr(decl, imports)}

	var callArgs []string
	params := decl.Params
	if decl.TakesContext() {
		callArgs = append(callArgs, "ctx")
		params = params[1:]
	}
	for i, p := range params {
		arg := argData{Var: fmt.Sprintf("a%d", i), Type: p.Type, Index: i}
		call := arg.Var
		if strings.HasPrefix(p.Type, "...") {
			if i != len(params)-1 {
				return methodData{}, fmt.Errorf("variadic parameter must be last")
			}
			arg.Type = "[]" + strings.TrimPrefix(p.Type, "...")
			call += "..."
		}
		m.Args = append(m.Args, arg)
		callArgs = append(callArgs, call)
	}
	m.Arity = len(m.Args)
	m.Call = fmt.Sprintf("c.%s(%s)", decl.Method, strings.Join(callArgs, ", "))

	switch {
	case len(decl.Results) == 0:
		m.Shape = shapeNone
	case len(decl.Results) == 1 && decl.ReturnsError():
		m.Shape = shapeError
	case len(decl.Results) == 1:
		m.Shape = shapeValue
	case len(decl.Results) == 2 && decl.ReturnsError():
		m.Shape = shapeValueError
	default:
		return methodData{}, fmt.Errorf("unsupported results (%s): want (), (T), (error) or (T, error)",
			strings.Join(decl.Results, ", "))
	}
	return m, nil
}

// returnTypeExpr returns the expression declaring the return type, or "" for any.
// Types whose packages the declaring file imports are declared with core.TypeOf;
// other qualified names are declared by name.
func returnTypeExpr(decl discovery.Declaration, imports *importSet) string {
	rt := decl.ReturnType
	if rt.IsAny() {
		return ""
	}
	if _, err := parser.ParseExpr(rt.Name()); err != nil {
		return fmt.Sprintf("core.NamedReturnType(%q)", rt.Name())
	}
	if err := imports.require(decl, rt.Name()); err != nil {
		return fmt.Sprintf("core.NamedReturnType(%q)", rt.Name())
	}
	return fmt.Sprintf("core.TypeOf[%s]()", rt.Name())
}

// Identifiers declared by the generated code that an import name would shadow or be shadowed by.
var generatedIdents = map[string]bool{"r": true, "c": true, "ctx": true, "args": true, "err": true}

// importSet collects the imports the generated file needs besides context and core.
type importSet struct {
	// paths maps package qualifiers to import paths.
	paths map[string]string
}

func newImportSet() *importSet {
	return &importSet{paths: make(map[string]string)}
}

// require adds the imports of the packages typeExpr refers to, as resolved from
// the file declaring decl. Nothing is added when an error is returned.
func (s *importSet) require(decl discovery.Declaration, typeExpr string) error {
	qualifiers, err := typeQualifiers(typeExpr)
	if err != nil {
		return err
	}
	resolved := make(map[string]string, len(qualifiers))
	for _, q := range qualifiers {
		imp, ok := decl.ImportOf(q)
		if !ok {
			return fmt.Errorf("type %s: no import of package %s found in the declaring file", typeExpr, q)
		}
		switch {
		case q == "context" || q == "core":
			want := map[string]string{"context": "context", "core": corePath}[q]
			if imp.Path != want {
				return fmt.Errorf("type %s: package name %s refers to %s, import it under another name", typeExpr, q, imp.Path)
			}
			continue
		case generatedIdents[q] || isArgIdent(q):
			return fmt.Errorf("type %s: package name %s collides with generated code, import it under another name", typeExpr, q)
		}
		if path, ok := s.paths[q]; ok && path != imp.Path {
			return fmt.Errorf("type %s: package name %s refers to both %s and %s", typeExpr, q, path, imp.Path)
		}
		resolved[q] = imp.Path
	}
	for q, path := range resolved {
		s.paths[q] = path
	}
	return nil
}

// specs returns the import specs, standard library packages first.
func (s *importSet) specs() (std, other []string) {
	qualifiers := make([]string, 0, len(s.paths))
	for q := range s.paths {
		qualifiers = append(qualifiers, q)
	}
	sort.Slice(qualifiers, func(i, j int) bool { return s.paths[qualifiers[i]] < s.paths[qualifiers[j]] })
	for _, q := range qualifiers {
		path := s.paths[q]
		spec := fmt.Sprintf("%q", path)
		if (discovery.Import{Path: path}).PackageName() != q {
			spec = q + " " + spec
		}
		if first, _, _ := strings.Cut(path, "/"); !strings.Contains(first, ".") {
			std = append(std, spec)
		} else {
			other = append(other, spec)
		}
	}
	return std, other
}

// typeQualifiers lists the package names a type expression refers to
// ("map[string]*http.Request" -> ["http"]).
func typeQualifiers(typeExpr string) ([]string, error) {
	expr, err := parser.ParseExpr(strings.TrimPrefix(typeExpr, "..."))
	if err != nil {
		return nil, fmt.Errorf("invalid type %s: %w", typeExpr, err)
	}
	seen := make(map[string]bool)
	var out []string
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if id, ok := sel.X.(*ast.Ident); ok && !seen[id.Name] {
			seen[id.Name] = true
			out = append(out, id.Name)
		}
		return false
	})
	return out, nil
}

// isArgIdent reports whether name has the form of a generated argument variable (a0, a1, ...).
func isArgIdent(name string) bool {
	if len(name) < 2 || name[0] != 'a' {
		return false
	}
	for _, r := range name[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
