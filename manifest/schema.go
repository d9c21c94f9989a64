package manifest

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/vast-data/go-invoke/core"
)

// GoTypeExtension carries the Go type name on generated schemas.
const GoTypeExtension = "x-go-type"

// Schema builds an OpenAPI document describing the methods to invoke.
//
// Every entry gets a component schema named "<Component>.<Method>" describing
// its declared return type, and a POST operation at /invoke/<Component>/<Method>
// whose 200 response references that schema.
func Schema(m *Manifest) *openapi3.T {
	title := m.Module
	if title == "" {
		title = "methods to invoke"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   title,
			Version: m.Version,
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	for _, e := range m.Entries {
		name := e.Component + "." + e.Method
		rt := e.Marker().ReturnType
		schema := SchemaForType(rt.Name())
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", schema)

		ref := openapi3.NewSchemaRef("#/components/schemas/"+name, schema)
		response := openapi3.NewResponse().
			WithDescription("value returned by " + name).
			WithJSONSchemaRef(ref)
		op := &openapi3.Operation{
			OperationID: "invoke" + e.Component + e.Method,
			Summary:     "Invoke " + name,
			Tags:        []string{e.Component},
			Responses:   openapi3.NewResponses(openapi3.WithStatus(200, &openapi3.ResponseRef{Value: response})),
		}
		doc.Paths.Set("/invoke/"+e.Component+"/"+e.Method, &openapi3.PathItem{Post: op})
	}
	return doc
}

// SchemaForType maps a Go type name to a JSON schema.
func SchemaForType(name string) *openapi3.Schema {
	name = core.NormalizeTypeName(name)
	switch name {
	case "", "any", "interface{}":
		return openapi3.NewSchema()
	case "string", "error":
		return openapi3.NewStringSchema()
	case "bool":
		return openapi3.NewBoolSchema()
	case "int", "int64", "uint", "uint64", "uintptr":
		return openapi3.NewInt64Schema()
	case "int8", "int16", "int32", "uint8", "uint16", "uint32", "rune", "byte":
		return openapi3.NewInt32Schema()
	case "float32", "float64":
		return openapi3.NewFloat64Schema()
	case "[]byte":
		return openapi3.NewBytesSchema()
	case "time.Time":
		return openapi3.NewDateTimeSchema()
	case "time.Duration":
		return withGoType(openapi3.NewInt64Schema(), name)
	}

	switch {
	case strings.HasPrefix(name, "*"):
		schema := SchemaForType(name[1:])
		schema.Nullable = true
		return schema
	case strings.HasPrefix(name, "[]"):
		return openapi3.NewArraySchema().WithItems(SchemaForType(name[2:]))
	case strings.HasPrefix(name, "["):
		if end := strings.Index(name, "]"); end > 0 {
			return openapi3.NewArraySchema().WithItems(SchemaForType(name[end+1:]))
		}
	case strings.HasPrefix(name, "map["):
		if key, value, ok := splitMapType(name); ok && key == "string" {
			return openapi3.NewObjectSchema().WithAdditionalProperties(SchemaForType(value))
		}
	}
	return withGoType(openapi3.NewObjectSchema(), name)
}

func withGoType(schema *openapi3.Schema, name string) *openapi3.Schema {
	if schema.Extensions == nil {
		schema.Extensions = make(map[string]any)
	}
	schema.Extensions[GoTypeExtension] = name
	return schema
}

// splitMapType splits "map[K]V" honoring nested brackets in K.
func splitMapType(name string) (string, string, bool) {
	depth := 0
	for i := len("map"); i < len(name); i++ {
		switch name[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return name[len("map["):i], name[i+1:], true
			}
		}
	}
	return "", "", false
}
