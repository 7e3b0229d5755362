package rpc

import "reflect"

// paramTags are the struct tags used for binding request parameters.
var paramTags = []string{"path", "query", "header", "cookie"}

// structType unwraps pointers and reports whether the result is a struct.
func structType(t reflect.Type) (reflect.Type, bool) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, t != nil && t.Kind() == reflect.Struct
}

// hasParamTags reports whether the given type has any fields with
// parameter binding tags (path, query, header, cookie).
func hasParamTags(t reflect.Type) bool {
	t, ok := structType(t)
	if !ok {
		return false
	}
	for i := range t.NumField() {
		if f := t.Field(i); f.IsExported() && isParamField(f) {
			return true
		}
	}
	return false
}

// hasRawRequest reports whether the given type embeds a RawRequest field.
func hasRawRequest(t reflect.Type) bool {
	t, ok := structType(t)
	if !ok {
		return false
	}
	for i := range t.NumField() {
		if t.Field(i).Type == reflect.TypeFor[RawRequest]() {
			return true
		}
	}
	return false
}

// hasBodyField reports whether the given type has an exported "Body" field.
func hasBodyField(t reflect.Type) bool {
	t, ok := structType(t)
	if !ok {
		return false
	}
	f, ok := t.FieldByName("Body")
	return ok && f.IsExported()
}

// isParamField reports whether a struct field has parameter binding tags.
func isParamField(f reflect.StructField) bool {
	for _, tag := range paramTags {
		if f.Tag.Get(tag) != "" {
			return true
		}
	}
	return false
}

// taggedFields returns the exported fields carrying tag, in declaration order.
func taggedFields(t reflect.Type, tag string) []reflect.StructField {
	t, ok := structType(t)
	if !ok {
		return nil
	}
	var out []reflect.StructField
	for i := range t.NumField() {
		f := t.Field(i)
		if f.IsExported() && f.Tag.Get(tag) != "" {
			out = append(out, f)
		}
	}
	return out
}
