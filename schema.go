package rpc

import (
	"reflect"
	"strconv"
	"strings"
	"time"
)

// JSONSchema represents a JSON Schema object (subset for OpenAPI 3.1).
type JSONSchema struct {
	Type        string                `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string                `json:"format,omitempty" yaml:"format,omitempty"`
	Properties  map[string]JSONSchema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *JSONSchema           `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string              `json:"required,omitempty" yaml:"required,omitempty"`
	Description string                `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string              `json:"enum,omitempty" yaml:"enum,omitempty"`
	Default     string                `json:"default,omitempty" yaml:"default,omitempty"`

	MinLength *int     `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	MinItems  *int     `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems  *int     `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`

	// AdditionalProperties can be true (any) or a schema.
	AdditionalProperties *JSONSchema `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
}

// typeToSchema converts a reflect.Type to a JSONSchema.
func typeToSchema(t reflect.Type) JSONSchema {
	if t.Kind() == reflect.Pointer {
		return typeToSchema(t.Elem())
	}

	switch t {
	case reflect.TypeFor[time.Time]():
		return JSONSchema{Type: "string", Format: "date-time"}
	case reflect.TypeFor[time.Duration]():
		return JSONSchema{Type: "string", Format: "duration"}
	case reflect.TypeFor[Void]():
		return JSONSchema{}
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.String:
		return JSONSchema{Type: "string"}
	case reflect.Bool:
		return JSONSchema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return JSONSchema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return JSONSchema{Type: "number"}
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return JSONSchema{Type: "string", Format: "byte"}
		}
		items := typeToSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Array:
		items := typeToSchema(t.Elem())
		return JSONSchema{Type: "array", Items: &items}
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return JSONSchema{Type: "object"}
		}
		valSchema := typeToSchema(t.Elem())
		return JSONSchema{Type: "object", AdditionalProperties: &valSchema}
	case reflect.Struct:
		return structToSchema(t)
	default:
		return JSONSchema{}
	}
}

// structToSchema converts a struct type to a JSONSchema with properties.
// Parameter fields are not part of a body and are skipped.
func structToSchema(t reflect.Type) JSONSchema {
	schema := JSONSchema{
		Type:       "object",
		Properties: make(map[string]JSONSchema),
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || isParamField(f) || f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}

		name := jsonFieldName(f)
		if name == "-" {
			continue
		}

		schema.Properties[name] = fieldSchema(f)
		if f.Tag.Get("required") == "true" {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

// fieldSchema builds the schema of one field, applying doc, default and
// constraint tags.
func fieldSchema(f reflect.StructField) JSONSchema {
	s := typeToSchema(f.Type)
	if doc := f.Tag.Get("doc"); doc != "" {
		s.Description = doc
	}
	if def := f.Tag.Get("default"); def != "" {
		s.Default = def
	}
	applyConstraintTags(&s, f.Tag)
	return s
}

// applyConstraintTags copies validation constraints from struct tags.
func applyConstraintTags(s *JSONSchema, tag reflect.StructTag) {
	intTag := func(name string) *int {
		if n, err := strconv.Atoi(tag.Get(name)); err == nil {
			return &n
		}
		return nil
	}
	floatTag := func(name string) *float64 {
		if n, err := strconv.ParseFloat(tag.Get(name), 64); err == nil {
			return &n
		}
		return nil
	}

	s.MinLength = intTag("minLength")
	s.MaxLength = intTag("maxLength")
	s.MinItems = intTag("minItems")
	s.MaxItems = intTag("maxItems")
	s.Minimum = floatTag("minimum")
	s.Maximum = floatTag("maximum")
	s.Pattern = tag.Get("pattern")
	if enum := tag.Get("enum"); enum != "" {
		s.Enum = strings.Split(enum, ",")
	}
}

// jsonFieldName returns the JSON field name for a struct field.
func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// querySchema describes the query-tagged fields of a request type, or nil
// when there are none.
func querySchema(t reflect.Type) *JSONSchema {
	fields := taggedFields(t, "query")
	if len(fields) == 0 {
		return nil
	}
	s := &JSONSchema{Type: "object", Properties: make(map[string]JSONSchema, len(fields))}
	for _, f := range fields {
		name := f.Tag.Get("query")
		s.Properties[name] = fieldSchema(f)
		if f.Tag.Get("required") == "true" {
			s.Required = append(s.Required, name)
		}
	}
	return s
}

// bodyType returns the type decoded from the request body, if any.
func bodyType(t reflect.Type, method string) (reflect.Type, bool) {
	st, ok := structType(t)
	if !ok || st == reflect.TypeFor[Void]() {
		return nil, false
	}
	if f, ok := st.FieldByName("Body"); ok && f.IsExported() {
		return f.Type, true
	}
	if hasParamTags(st) || hasRawRequest(st) {
		return nil, false
	}
	switch method {
	case "POST", "PUT", "PATCH":
		return st, true
	}
	return nil, false
}

// typeRef renders a Go type reference such as "[]example.com/posts.Post".
// Anonymous and generic named types have no reference.
func typeRef(t reflect.Type) string {
	if t == nil {
		return ""
	}

	//exhaustive:ignore
	switch t.Kind() {
	case reflect.Pointer:
		if inner := typeRef(t.Elem()); inner != "" {
			return "*" + inner
		}
		return ""
	case reflect.Slice:
		if t.Name() == "" {
			if inner := typeRef(t.Elem()); inner != "" {
				return "[]" + inner
			}
			return ""
		}
	case reflect.Map:
		if t.Name() == "" {
			if inner := typeRef(t.Elem()); inner != "" && t.Key().Kind() == reflect.String {
				return "map[string]" + inner
			}
			return ""
		}
	}

	name := t.Name()
	if name == "" || strings.Contains(name, "[") {
		return ""
	}
	if t.PkgPath() == "" {
		return name
	}
	return t.PkgPath() + "." + name
}
