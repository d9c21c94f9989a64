package markers

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Registry holds the registered marker definitions.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]*Definition
}

func NewRegistry() *Registry {
	return &Registry{
		definitions: make(map[string]*Definition),
	}
}

// Register adds a marker definition to the registry.
//
// Parameters:
//   - name: the marker name without the leading "+" (e.g. "invoke:method")
//   - target: the Go construct the marker can be applied to
//   - outputType: a value of the Go type the marker parses into
//   - help: help text for the marker
func (r *Registry) Register(name string, target TargetType, outputType interface{}, help string) error {
	name = strings.TrimPrefix(strings.TrimSpace(name), "+")
	if name == "" || strings.ContainsAny(name, "= \t") {
		return fmt.Errorf("invalid marker name %q", name)
	}
	if outputType == nil {
		return fmt.Errorf("marker %s: output type cannot be nil", name)
	}
	def := &Definition{
		Name:       name,
		Target:     target,
		OutputType: reflect.TypeOf(outputType),
		Fields:     make(map[string]Argument),
		FieldNames: make(map[string]string),
		Help:       help,
	}
	if err := analyzeOutputType(def); err != nil {
		return fmt.Errorf("failed to analyze output type for marker %s: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.definitions[name]; exists {
		return fmt.Errorf("marker %s is already registered", name)
	}
	r.definitions[name] = def
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, target TargetType, outputType interface{}, help string) {
	if err := r.Register(name, target, outputType, help); err != nil {
		panic(err)
	}
}

// Lookup finds a marker definition by marker text and target type.
func (r *Registry) Lookup(markerText string, target TargetType) *Definition {
	def := r.Find(markerText)
	if def == nil || def.Target != target {
		return nil
	}
	return def
}

// Find finds a marker definition by marker text regardless of its target.
//
// The name is the longest registered prefix of the text before "=" made of whole
// colon separated segments, so "+invoke:method:returnType=int" resolves to
// "invoke:method".
func (r *Registry) Find(markerText string) *Definition {
	name, _ := splitNameAndArgs(markerText)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for name != "" {
		if def, ok := r.definitions[name]; ok {
			return def
		}
		idx := strings.LastIndex(name, ":")
		if idx < 0 {
			break
		}
		name = name[:idx]
	}
	return nil
}

// GetDefinition returns a marker definition by name.
func (r *Registry) GetDefinition(name string) *Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.definitions[name]
}

// ListDefinitions returns all registered marker definitions sorted by name.
func (r *Registry) ListDefinitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// splitNameAndArgs returns the text before and after the first "=".
// "+invoke:method:returnType=int" -> ("invoke:method:returnType", "int")
func splitNameAndArgs(markerText string) (string, string) {
	markerText = strings.TrimPrefix(strings.TrimSpace(markerText), "+")
	name, args, _ := strings.Cut(markerText, "=")
	return strings.TrimSpace(name), strings.TrimSpace(args)
}

func analyzeOutputType(def *Definition) error {
	if def.OutputType.Kind() != reflect.Struct {
		argType, err := argumentFromType(def.OutputType)
		if err != nil {
			return err
		}
		def.Fields[""] = argType
		def.FieldNames[""] = ""
		return nil
	}

	for i := 0; i < def.OutputType.NumField(); i++ {
		field := def.OutputType.Field(i)
		if !field.IsExported() {
			continue
		}

		argName := fieldToArgName(field.Name)
		optional := false
		if markerTag, ok := field.Tag.Lookup("marker"); ok {
			parts := strings.Split(markerTag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				argName = parts[0]
			}
			for _, part := range parts[1:] {
				if part == "optional" {
					optional = true
				}
			}
		}

		argType, err := argumentFromType(field.Type)
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
		argType.Optional = argType.Optional || optional

		def.Fields[argName] = argType
		def.FieldNames[argName] = field.Name
	}
	return nil
}

func argumentFromType(typ reflect.Type) (Argument, error) {
	arg := Argument{}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		arg.Optional = true
	}

	switch typ.Kind() {
	case reflect.String:
		arg.Type = StringType
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		arg.Type = IntType
	case reflect.Bool:
		arg.Type = BoolType
	case reflect.Slice:
		itemType, err := argumentFromType(typ.Elem())
		if err != nil {
			return Argument{}, fmt.Errorf("slice element type: %w", err)
		}
		arg.Type = SliceType
		arg.ItemType = &itemType
	case reflect.Map:
		if typ.Key().Kind() != reflect.String {
			return Argument{}, fmt.Errorf("map keys must be strings, got %s", typ.Key().Kind())
		}
		valueType, err := argumentFromType(typ.Elem())
		if err != nil {
			return Argument{}, fmt.Errorf("map value type: %w", err)
		}
		arg.Type = MapType
		arg.ItemType = &valueType
	case reflect.Interface:
		if typ.NumMethod() != 0 {
			return Argument{}, fmt.Errorf("unsupported interface type: %s", typ)
		}
		arg.Type = AnyType
	case reflect.Struct:
		if typ.NumField() != 0 {
			return Argument{}, fmt.Errorf("nested struct %s is not supported", typ)
		}
		// Flag marker without arguments.
		arg.Type = InvalidType
	default:
		return Argument{}, fmt.Errorf("unsupported type: %s", typ.Kind())
	}
	return arg, nil
}

// fieldToArgName converts PascalCase to camelCase ("ReturnType" -> "returnType").
func fieldToArgName(fieldName string) string {
	if fieldName == "" {
		return ""
	}
	runes := []rune(fieldName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
