package discovery

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vast-data/go-invoke/core"
	"github.com/vast-data/go-invoke/markers"
	"go.uber.org/zap"
)

// Config controls a Scanner.
type Config struct {
	// MarkerName overrides the marker designating methods to invoke.
	MarkerName string
	// AllowMultiplePerComponent accepts several marked methods per component.
	AllowMultiplePerComponent bool
	// Recursive descends into sub directories in ScanDir.
	Recursive bool
	// ExcludeDirs are directory base names skipped by ScanDir in addition to
	// vendor, testdata and names starting with "." or "_".
	ExcludeDirs []string
	// IncludeTests scans _test.go files too.
	IncludeTests bool
	Logger       *zap.Logger
}

// Scanner finds methods marked for invocation in Go source code.
type Scanner struct {
	config    Config
	collector *markers.Collector
	logger    *zap.Logger
}

// NewScanner creates a scanner. A nil config scans a single directory for
// the default marker with one marked method per component.
func NewScanner(config *Config) (*Scanner, error) {
	var c Config
	if config != nil {
		c = *config
	}
	if c.MarkerName == "" {
		c.MarkerName = core.MarkerName
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	registry := markers.NewRegistry()
	if err := registry.Register(c.MarkerName, markers.DescribesMethod, markers.MethodToInvoke{},
		"designates the method of a component to invoke"); err != nil {
		return nil, err
	}
	return &Scanner{
		config:    c,
		collector: markers.NewCollector(registry),
		logger:    c.Logger.Named("discovery"),
	}, nil
}

// ScanSource scans a single file given as source text.
func (s *Scanner) ScanSource(filename, src string) ([]Declaration, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	return s.scanFiles(fset, filepath.Dir(filename), []*ast.File{file})
}

// ScanFile scans a single Go file.
func (s *Scanner) ScanFile(filename string) ([]Declaration, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}
	return s.scanFiles(fset, filepath.Dir(filename), []*ast.File{file})
}

// ScanDir scans the Go packages in dir, and in its sub directories when Recursive is set.
//
// Declarations are returned sorted by directory, component and method, together with
// every error found, so callers can report all problems of a tree at once.
func (s *Scanner) ScanDir(dir string) ([]Declaration, error) {
	var (
		decls []Declaration
		errs  ScanErrors
	)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (!s.config.Recursive || s.excluded(d.Name())) {
			return filepath.SkipDir
		}
		found, err := s.scanPackageDir(path)
		decls = append(decls, found...)
		var scanErrs ScanErrors
		if errors.As(err, &scanErrs) {
			errs = append(errs, scanErrs...)
		} else if err != nil {
			errs = append(errs, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sortDeclarations(decls)
	s.logger.Debug("scan completed",
		zap.String("dir", dir),
		zap.Int("declarations", len(decls)),
		zap.Int("errors", len(errs)))
	return decls, errs.errOrNil()
}

func (s *Scanner) excluded(name string) bool {
	if name == "vendor" || name == "testdata" || strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return true
	}
	for _, ex := range s.config.ExcludeDirs {
		if ex == name {
			return true
		}
	}
	return false
}

// scanPackageDir parses the Go files directly in dir. Files are grouped by
// package name so external test packages stay separate.
func (s *Scanner) scanPackageDir(dir string) ([]Declaration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	byPkg := make(map[string][]*ast.File)
	var errs ScanErrors
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if strings.HasSuffix(name, "_test.go") && !s.config.IncludeTests {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ParseComments)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		byPkg[file.Name.Name] = append(byPkg[file.Name.Name], file)
	}

	pkgNames := make([]string, 0, len(byPkg))
	for name := range byPkg {
		pkgNames = append(pkgNames, name)
	}
	sort.Strings(pkgNames)

	var decls []Declaration
	for _, name := range pkgNames {
		found, err := s.scanFiles(fset, dir, byPkg[name])
		decls = append(decls, found...)
		var scanErrs ScanErrors
		if errors.As(err, &scanErrs) {
			errs = append(errs, scanErrs...)
		} else if err != nil {
			errs = append(errs, err)
		}
	}
	return decls, errs.errOrNil()
}

// scanFiles collects the declarations of the files of one package and enforces
// marker cardinality across them.
func (s *Scanner) scanFiles(fset *token.FileSet, dir string, files []*ast.File) ([]Declaration, error) {
	var (
		decls []Declaration
		errs  ScanErrors
		seen  = make(map[string]Declaration)
		byCmp = make(map[string][]string)
	)
	for _, file := range files {
		values, markerErrs := s.collector.ParseAST(fset, file)
		errs = append(errs, markerErrs...)

		for _, mv := range values {
			fn, ok := mv.FuncDecl()
			if !ok {
				continue
			}
			parsed, ok := mv.Value.(markers.MethodToInvoke)
			if !ok {
				continue
			}
			decl := newDeclaration(file, dir, fn, parsed, mv.Position)

			if _, dup := seen[decl.Key()]; dup {
				errs = append(errs, &PositionError{
					Pos: decl.Pos.String(),
					Err: &core.DuplicateMarkerError{Component: decl.Component, Method: decl.Method},
				})
				continue
			}
			seen[decl.Key()] = decl
			byCmp[decl.Component] = append(byCmp[decl.Component], decl.Method)
			decls = append(decls, decl)

			if !decl.Consistent() {
				s.logger.Warn("declared return type differs from method result",
					zap.String("declaration", decl.String()),
					zap.String("result", decl.ResultType()),
					zap.String("pos", decl.Pos.String()))
			}
		}
	}

	if !s.config.AllowMultiplePerComponent {
		components := make([]string, 0, len(byCmp))
		for component := range byCmp {
			components = append(components, component)
		}
		sort.Strings(components)
		for _, component := range components {
			methods := byCmp[component]
			if len(methods) < 2 {
				continue
			}
			first := seen[component+"."+methods[0]]
			errs = append(errs, &PositionError{
				Pos: first.Pos.String(),
				Err: &core.MultipleMarkersError{Component: component, Methods: methods},
			})
		}
	}

	sortDeclarations(decls)
	return decls, errs.errOrNil()
}

func newDeclaration(file *ast.File, dir string, fn *ast.FuncDecl, parsed markers.MethodToInvoke, pos token.Position) Declaration {
	decl := Declaration{
		Package:    file.Name.Name,
		Dir:        dir,
		Component:  markers.ReceiverName(fn),
		Method:     fn.Name.Name,
		ReturnType: parsed.Marker().ReturnType,
		Pos:        pos,
	}
	recv := fn.Recv.List[0].Type
	if star, ok := recv.(*ast.StarExpr); ok {
		decl.PointerReceiver = true
		recv = star.X
	}
	switch recv.(type) {
	case *ast.IndexExpr, *ast.IndexListExpr:
		decl.Generic = true
	}
	for _, field := range fn.Type.Params.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			decl.Params = append(decl.Params, Param{Type: typ})
			continue
		}
		for _, name := range field.Names {
			decl.Params = append(decl.Params, Param{Name: name.Name, Type: typ})
		}
	}
	for _, spec := range file.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := Import{Path: path}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		decl.Imports = append(decl.Imports, imp)
	}
	if fn.Type.Results != nil {
		for _, field := range fn.Type.Results.List {
			typ := types.ExprString(field.Type)
			n := len(field.Names)
			if n == 0 {
				n = 1
			}
			for i := 0; i < n; i++ {
				decl.Results = append(decl.Results, typ)
			}
		}
	}
	return decl
}

func sortDeclarations(decls []Declaration) {
	sort.SliceStable(decls, func(i, j int) bool {
		if decls[i].Dir != decls[j].Dir {
			return decls[i].Dir < decls[j].Dir
		}
		if decls[i].Component != decls[j].Component {
			return decls[i].Component < decls[j].Component
		}
		return decls[i].Method < decls[j].Method
	})
}

// Register adds the declarations to a runtime registry, binding each one to the
// callable returned by resolve. Declarations resolve does not know are skipped.
func Register(r *core.Registry, decls []Declaration, resolve func(Declaration) core.Invocable) error {
	var errs ScanErrors
	for _, decl := range decls {
		fn := resolve(decl)
		if fn == nil {
			continue
		}
		if err := r.Register(core.Target{Component: decl.Component, Method: decl.Method, Fn: fn},
			core.WithReturnType(decl.ReturnType)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.errOrNil()
}
