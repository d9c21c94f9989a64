package markers

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"sort"
	"strings"
	"sync"
)

// Collector collects and parses marker comments from Go source code.
type Collector struct {
	Registry *Registry

	// cache holds parsed results by file path
	cache map[string]fileResult
	mu    sync.RWMutex
}

type fileResult struct {
	markers []MarkerValue
	err     error
}

func NewCollector(registry *Registry) *Collector {
	return &Collector{
		Registry: registry,
		cache:    make(map[string]fileResult),
	}
}

// ParseFile parses all markers in a Go source file.
//
// Markers are returned even when the file holds misplaced or malformed markers;
// those are reported together in the returned Errors.
func (c *Collector) ParseFile(filename string) ([]MarkerValue, error) {
	c.mu.RLock()
	if cached, exists := c.cache[filename]; exists {
		c.mu.RUnlock()
		return cached.markers, cached.err
	}
	c.mu.RUnlock()

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, nil, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filename, err)
	}
	markers, errs := c.ParseAST(fset, file)
	res := fileResult{markers: markers, err: errs.ErrOrNil()}

	c.mu.Lock()
	c.cache[filename] = res
	c.mu.Unlock()

	return res.markers, res.err
}

// ParseSource parses markers from Go source code provided as a string.
func (c *Collector) ParseSource(filename string, src string) ([]MarkerValue, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	markers, errs := c.ParseAST(fset, file)
	return markers, errs.ErrOrNil()
}

// ParseDirectory parses the non-test Go files of a directory and returns markers grouped by file.
func (c *Collector) ParseDirectory(dir string) (map[string][]MarkerValue, error) {
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, dir, func(fi fs.FileInfo) bool {
		return !strings.HasSuffix(fi.Name(), "_test.go")
	}, parser.ParseComments)
	if err != nil {
		return nil, fmt.Errorf("failed to parse directory %s: %w", dir, err)
	}

	result := make(map[string][]MarkerValue)
	var errs Errors
	for _, pkg := range pkgs {
		for filename, file := range pkg.Files {
			markers, fileErrs := c.ParseAST(fset, file)
			errs = append(errs, fileErrs...)
			if len(markers) > 0 {
				result[filename] = markers
			}
		}
	}
	sortErrors(errs)
	return result, errs.ErrOrNil()
}

// ParseAST collects the markers of an already parsed file, ordered by position.
func (c *Collector) ParseAST(fset *token.FileSet, file *ast.File) ([]MarkerValue, Errors) {
	var (
		markers  []MarkerValue
		errs     Errors
		attached = make(map[token.Pos]bool)
	)

	for _, nc := range collectNodeMarkers(file) {
		for _, comment := range nc.comments {
			attached[comment.Pos()] = true
			mv, err := c.parseComment(fset, comment, nc.node, nc.target)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if mv != nil {
				markers = append(markers, *mv)
			}
		}
	}

	// Registered markers not documenting any declaration.
	for _, group := range file.Comments {
		for _, comment := range group.List {
			if attached[comment.Pos()] || !isMarkerComment(comment.Text) {
				continue
			}
			if def := c.Registry.Find(extractMarkerText(comment.Text)); def != nil {
				errs = append(errs, &MisplacedMarkerError{
					Name:     def.Name,
					Found:    Detached,
					Allowed:  def.Target,
					Position: fset.Position(comment.Pos()),
				})
			}
		}
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Position.Offset < markers[j].Position.Offset
	})
	sortErrors(errs)
	return markers, errs
}

func (c *Collector) parseComment(fset *token.FileSet, comment *ast.Comment, node ast.Node, target TargetType) (*MarkerValue, error) {
	text := extractMarkerText(comment.Text)
	def := c.Registry.Find(text)
	if def == nil {
		// Unknown marker, owned by another tool.
		return nil, nil
	}
	pos := fset.Position(comment.Pos())
	if def.Target != target {
		return nil, &MisplacedMarkerError{Name: def.Name, Found: target, Allowed: def.Target, Position: pos}
	}
	value, err := def.Parse(text)
	if err != nil {
		return nil, &MarkerSyntaxError{Name: def.Name, Text: text, Position: pos, Err: err}
	}
	return &MarkerValue{
		Name:     def.Name,
		Value:    value,
		Node:     node,
		Target:   target,
		Position: pos,
	}, nil
}

type nodeComments struct {
	node     ast.Node
	target   TargetType
	comments []*ast.Comment
}

// collectNodeMarkers associates marker comments with the declarations they document.
func collectNodeMarkers(file *ast.File) []nodeComments {
	var out []nodeComments
	add := func(node ast.Node, target TargetType, doc *ast.CommentGroup) {
		if doc == nil {
			return
		}
		var comments []*ast.Comment
		for _, comment := range doc.List {
			if isMarkerComment(comment.Text) {
				comments = append(comments, comment)
			}
		}
		if len(comments) > 0 {
			out = append(out, nodeComments{node: node, target: target, comments: comments})
		}
	}

	add(file, DescribesPackage, file.Doc)
	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			if node.Recv != nil && len(node.Recv.List) > 0 {
				add(node, DescribesMethod, node.Doc)
			} else {
				add(node, DescribesFunc, node.Doc)
			}
		case *ast.GenDecl:
			switch node.Tok {
			case token.TYPE:
				add(node, DescribesType, node.Doc)
			case token.VAR, token.CONST:
				add(node, DescribesValue, node.Doc)
			}
		case *ast.TypeSpec:
			add(node, DescribesType, node.Doc)
		case *ast.ValueSpec:
			add(node, DescribesValue, node.Doc)
		case *ast.Field:
			add(node, DescribesField, node.Doc)
		}
		return true
	})
	return out
}

// ReceiverName returns the receiver type name of a method declaration without
// pointer and type parameters ("func (f *Foo[T]) Bar()" -> "Foo").
func ReceiverName(fn *ast.FuncDecl) string {
	if fn == nil || fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	expr := fn.Recv.List[0].Type
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return ""
		}
	}
}

func sortErrors(errs Errors) {
	sort.SliceStable(errs, func(i, j int) bool {
		pi, pj := errorPosition(errs[i]), errorPosition(errs[j])
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		return pi.Offset < pj.Offset
	})
}

func errorPosition(err error) token.Position {
	switch e := err.(type) {
	case *MisplacedMarkerError:
		return e.Position
	case *MarkerSyntaxError:
		return e.Position
	}
	return token.Position{}
}

// ClearCache clears the internal cache of parsed files.
func (c *Collector) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]fileResult)
}
