package rpc

import (
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// validateConstraints checks the constraint tags of v's fields (required,
// minLength, maxLength, pattern, minimum, maximum, enum, minItems,
// maxItems) and returns a 400 ProblemDetail listing every violation.
func validateConstraints(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	var errs []ValidationError
	collectViolations(rv, "", &errs)
	if len(errs) == 0 {
		return nil
	}
	return &ProblemDetail{
		Type:   "about:blank",
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: fmt.Sprintf("%d constraint violation(s)", len(errs)),
		Errors: errs,
	}
}

func collectViolations(rv reflect.Value, prefix string, errs *[]ValidationError) {
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type == reflect.TypeFor[RawRequest]() {
			continue
		}

		name := fieldPath(f)
		if name == "-" {
			continue
		}
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}

		fv := rv.Field(i)
		if f.Name == "Body" && !isParamField(f) {
			for fv.Kind() == reflect.Pointer && !fv.IsNil() {
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				collectViolations(fv, "body", errs)
			}
			continue
		}

		for _, c := range constraints {
			if msg, ok := c(f.Tag, fv); !ok {
				*errs = append(*errs, ValidationError{Field: path, Message: msg, Value: display(fv)})
			}
		}

		if fv.Kind() == reflect.Struct && !isParamField(f) && fv.Type() != reflect.TypeFor[Void]() {
			collectViolations(fv, path, errs)
		}
	}
}

// fieldPath names a field by its binding tag, falling back to its JSON name.
func fieldPath(f reflect.StructField) string {
	for _, tag := range paramTags {
		if name := f.Tag.Get(tag); name != "" {
			return name
		}
	}
	return jsonFieldName(f)
}

// constraint reports whether fv satisfies one tag rule, with a message
// when it does not.
type constraint func(tag reflect.StructTag, fv reflect.Value) (string, bool)

var constraints = []constraint{
	checkRequired,
	checkLength,
	checkPattern,
	checkRange,
	checkEnum,
	checkItems,
}

func checkRequired(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	if tag.Get("required") == "true" && fv.IsZero() {
		return "is required", false
	}
	return "", true
}

func checkLength(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	if fv.Kind() != reflect.String {
		return "", true
	}
	n := len(fv.String())
	if lo, ok := intTag(tag, "minLength"); ok && n < lo {
		return fmt.Sprintf("must be at least %d characters", lo), false
	}
	if hi, ok := intTag(tag, "maxLength"); ok && n > hi {
		return fmt.Sprintf("must be at most %d characters", hi), false
	}
	return "", true
}

var patterns sync.Map // string -> *regexp.Regexp

func checkPattern(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	expr := tag.Get("pattern")
	if expr == "" || fv.Kind() != reflect.String {
		return "", true
	}
	re, ok := patterns.Load(expr)
	if !ok {
		compiled, err := regexp.Compile(expr)
		if err != nil {
			return "", true
		}
		re, _ = patterns.LoadOrStore(expr, compiled)
	}
	if !re.(*regexp.Regexp).MatchString(fv.String()) { //nolint:forcetypeassert // only *regexp.Regexp is stored
		return "must match pattern " + expr, false
	}
	return "", true
}

func checkRange(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	n, ok := numeric(fv)
	if !ok {
		return "", true
	}
	if lo := tag.Get("minimum"); lo != "" {
		if bound, err := strconv.ParseFloat(lo, 64); err == nil && n < bound {
			return "must be at least " + lo, false
		}
	}
	if hi := tag.Get("maximum"); hi != "" {
		if bound, err := strconv.ParseFloat(hi, 64); err == nil && n > bound {
			return "must be at most " + hi, false
		}
	}
	return "", true
}

// checkEnum accepts the empty string so optional fields may be omitted.
func checkEnum(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	enum := tag.Get("enum")
	if enum == "" || fv.Kind() != reflect.String || fv.String() == "" {
		return "", true
	}
	if !slices.Contains(strings.Split(enum, ","), fv.String()) {
		return fmt.Sprintf("must be one of [%s]", enum), false
	}
	return "", true
}

func checkItems(tag reflect.StructTag, fv reflect.Value) (string, bool) {
	if fv.Kind() != reflect.Slice && fv.Kind() != reflect.Array {
		return "", true
	}
	n := fv.Len()
	if lo, ok := intTag(tag, "minItems"); ok && n < lo {
		return fmt.Sprintf("must have at least %d items", lo), false
	}
	if hi, ok := intTag(tag, "maxItems"); ok && n > hi {
		return fmt.Sprintf("must have at most %d items", hi), false
	}
	return "", true
}

func intTag(tag reflect.StructTag, name string) (int, bool) {
	n, err := strconv.Atoi(tag.Get(name))
	return n, err == nil
}

func numeric(v reflect.Value) (float64, bool) {
	//exhaustive:ignore
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

// display returns the value reported with a violation.
func display(v reflect.Value) any {
	switch {
	case v.Kind() == reflect.String:
		return v.String()
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		return v.Len()
	}
	if n, ok := numeric(v); ok {
		return n
	}
	return nil
}
