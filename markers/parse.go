package markers

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Parse parses a marker text into a value of the definition's output type.
//
// Accepted forms:
//
//	+name
//	+name=value              single anonymous argument
//	+name=key=value,k2=v2    named arguments
//	+name:key=value,k2=v2    named arguments
//	+name:flag               boolean argument set to true
func (d *Definition) Parse(markerText string) (interface{}, error) {
	text := strings.TrimPrefix(strings.TrimSpace(markerText), "+")
	if !strings.HasPrefix(text, d.Name) {
		return nil, fmt.Errorf("marker name mismatch: expected %s, got %s", d.Name, text)
	}
	rest := text[len(d.Name):]

	out := reflect.New(d.OutputType).Elem()
	if rest == "" {
		return out.Interface(), nil
	}
	sep, args := rest[0], strings.TrimSpace(rest[1:])
	if sep != '=' && sep != ':' {
		return nil, fmt.Errorf("marker name mismatch: expected %s, got %s", d.Name, text)
	}
	if args == "" {
		return out.Interface(), nil
	}
	if len(d.Fields) == 0 {
		return nil, fmt.Errorf("marker %s takes no arguments", d.Name)
	}

	var err error
	if sep == '=' && !hasTopLevel(args, '=') {
		err = d.parseAnonymous(args, out)
	} else {
		err = d.parseNamed(args, out)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments of %s: %w", d.Name, err)
	}
	return out.Interface(), nil
}

func (d *Definition) parseAnonymous(args string, out reflect.Value) error {
	if len(d.Fields) != 1 {
		return fmt.Errorf("expected named arguments")
	}
	for key, argType := range d.Fields {
		target, err := d.fieldValue(key, out)
		if err != nil {
			return err
		}
		return parseValue(unquote(args), argType, target)
	}
	return nil
}

func (d *Definition) parseNamed(args string, out reflect.Value) error {
	seen := make(map[string]bool)
	for _, pair := range splitTopLevel(args, ',') {
		key, value, hasValue := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		argType, exists := d.Fields[key]
		if !exists {
			return fmt.Errorf("unknown argument: %s", key)
		}
		if seen[key] {
			return fmt.Errorf("argument %s given more than once", key)
		}
		seen[key] = true
		if !hasValue {
			if argType.Type != BoolType {
				return fmt.Errorf("argument %s: missing value", key)
			}
			value = "true"
		}
		target, err := d.fieldValue(key, out)
		if err != nil {
			return err
		}
		if err := parseValue(unquote(strings.TrimSpace(value)), argType, target); err != nil {
			return fmt.Errorf("argument %s: %w", key, err)
		}
	}
	for key, argType := range d.Fields {
		if !seen[key] && !argType.Optional && key != "" {
			return fmt.Errorf("missing required argument: %s", key)
		}
	}
	return nil
}

func (d *Definition) fieldValue(key string, out reflect.Value) (reflect.Value, error) {
	fieldName := d.FieldNames[key]
	if fieldName == "" {
		return out, nil
	}
	field := out.FieldByName(fieldName)
	if !field.IsValid() {
		return reflect.Value{}, fmt.Errorf("field %s not found", fieldName)
	}
	return field, nil
}

func parseValue(value string, argType Argument, out reflect.Value) error {
	if out.Kind() == reflect.Ptr {
		if value == "" {
			return nil
		}
		ptr := reflect.New(out.Type().Elem())
		if err := parseValue(value, Argument{Type: argType.Type, ItemType: argType.ItemType}, ptr.Elem()); err != nil {
			return err
		}
		out.Set(ptr)
		return nil
	}

	switch argType.Type {
	case StringType:
		out.SetString(value)
	case IntType:
		if out.Kind() >= reflect.Uint && out.Kind() <= reflect.Uint64 {
			u, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid unsigned integer: %s", value)
			}
			out.SetUint(u)
			return nil
		}
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer: %s", value)
		}
		out.SetInt(i)
	case BoolType:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %s", value)
		}
		out.SetBool(b)
	case SliceType:
		return parseSlice(value, argType, out)
	case MapType:
		return parseMap(value, argType, out)
	case AnyType:
		out.Set(reflect.ValueOf(guessValue(value)))
	default:
		return fmt.Errorf("unsupported argument type: %v", argType.Type)
	}
	return nil
}

// parseSlice parses "{a,b,c}" or "a;b;c".
func parseSlice(value string, argType Argument, out reflect.Value) error {
	var items []string
	if inner, ok := braced(value); ok {
		items = splitTopLevel(inner, ',')
	} else {
		items = strings.Split(value, ";")
	}

	slice := reflect.MakeSlice(out.Type(), 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		elem := reflect.New(out.Type().Elem()).Elem()
		if err := parseValue(unquote(item), *argType.ItemType, elem); err != nil {
			return fmt.Errorf("slice item: %w", err)
		}
		slice = reflect.Append(slice, elem)
	}
	out.Set(slice)
	return nil
}

// parseMap parses "{key1:value1,key2:value2}".
func parseMap(value string, argType Argument, out reflect.Value) error {
	inner, ok := braced(value)
	if !ok {
		return fmt.Errorf("map values must be in {key:value,key:value} format")
	}
	m := reflect.MakeMap(out.Type())
	for _, pair := range splitTopLevel(inner, ',') {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, found := strings.Cut(pair, ":")
		if !found {
			return fmt.Errorf("invalid map pair: %s (expected key:value)", pair)
		}
		key := reflect.New(out.Type().Key()).Elem()
		key.SetString(strings.TrimSpace(k))
		val := reflect.New(out.Type().Elem()).Elem()
		if err := parseValue(unquote(strings.TrimSpace(v)), *argType.ItemType, val); err != nil {
			return fmt.Errorf("map value for key %s: %w", key.String(), err)
		}
		m.SetMapIndex(key, val)
	}
	out.Set(m)
	return nil
}

func guessValue(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

func braced(value string) (string, bool) {
	if len(value) >= 2 && value[0] == '{' && value[len(value)-1] == '}' {
		return value[1 : len(value)-1], true
	}
	return "", false
}

func unquote(value string) string {
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		if s, err := strconv.Unquote(value); err == nil {
			return s
		}
	}
	return value
}

// splitTopLevel splits s on sep outside of quotes, braces, brackets and parentheses.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth, start, inQuotes := 0, 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"' && (i == 0 || s[i-1] != '\\'):
			inQuotes = !inQuotes
		case inQuotes:
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func hasTopLevel(s string, c byte) bool {
	return len(splitTopLevel(s, c)) > 1
}

// isMarkerComment reports whether a line comment is a marker ("// +...").
func isMarkerComment(comment string) bool {
	if !strings.HasPrefix(comment, "//") {
		return false
	}
	text := strings.TrimSpace(comment[2:])
	return len(text) > 1 && text[0] == '+'
}

func extractMarkerText(comment string) string {
	return strings.TrimSpace(strings.TrimPrefix(comment, "//"))
}
