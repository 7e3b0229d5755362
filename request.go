package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"time"
)

// requestCategory describes how a request type should be decoded.
type requestCategory int

const (
	catVoid     requestCategory = iota // Void — no params, no body
	catBodyOnly                        // entire struct is the body (no param tags, no Body field)
	catParams                          // has param tags but no Body field
	catMixed                           // has Body field (params from tagged fields, body from Body)
)

// classifyRequest determines how a request type should be decoded.
func classifyRequest(t reflect.Type) requestCategory {
	if t == reflect.TypeFor[Void]() {
		return catVoid
	}
	if hasBodyField(t) {
		return catMixed
	}
	if hasParamTags(t) || hasRawRequest(t) {
		return catParams
	}
	return catBodyOnly
}

// decodeRequest creates a new Req value and populates it from the HTTP request.
func decodeRequest[Req any](r *http.Request) (*Req, error) {
	req := new(Req)
	cat := classifyRequest(reflect.TypeFor[Req]())

	if cat == catVoid {
		return req, nil
	}

	if reflect.TypeFor[Req]().Kind() == reflect.Struct {
		if err := bindParams(req, r); err != nil {
			return nil, err
		}
	}

	switch cat {
	case catBodyOnly:
		if err := decodeBody(r, req); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBindBody, err)
		}
	case catMixed:
		bodyPtr := reflect.ValueOf(req).Elem().FieldByName("Body").Addr().Interface()
		if err := decodeBody(r, bodyPtr); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBindBody, err)
		}
	case catVoid, catParams:
	}

	return req, nil
}

// bindParams binds path, query, header, and cookie values to struct fields.
func bindParams(target any, r *http.Request) error {
	v := reflect.ValueOf(target)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	t := v.Type()
	query := r.URL.Query()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Name == "Body" {
			continue
		}

		field := v.Field(i)

		if f.Type == reflect.TypeFor[RawRequest]() {
			field.Set(reflect.ValueOf(RawRequest{Request: r}))
			continue
		}

		if name := f.Tag.Get("path"); name != "" {
			if val := r.PathValue(name); val != "" {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindPath, name, err)
				}
			}
		}

		if name := f.Tag.Get("query"); name != "" {
			if err := bindQuery(field, f, name, query[name]); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrBindQuery, name, err)
			}
		}

		if name := f.Tag.Get("header"); name != "" {
			val := r.Header.Get(name)
			if val == "" {
				val = f.Tag.Get("default")
			}
			if val != "" {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindHeader, name, err)
				}
			}
		}

		if name := f.Tag.Get("cookie"); name != "" {
			var val string
			if c, err := r.Cookie(name); err == nil {
				val = c.Value
			}
			if val == "" {
				val = f.Tag.Get("default")
			}
			if val != "" {
				if err := setFieldValue(field, val); err != nil {
					return fmt.Errorf("%w: %s: %w", ErrBindCookie, name, err)
				}
			}
		}
	}

	return nil
}

// bindQuery sets a query field. Slice fields take every value; scalars take
// the first, falling back to the default tag.
func bindQuery(field reflect.Value, f reflect.StructField, name string, vals []string) error {
	if field.Kind() == reflect.Slice && field.Type().Elem().Kind() != reflect.Uint8 {
		out := reflect.MakeSlice(field.Type(), len(vals), len(vals))
		for i, s := range vals {
			if err := setFieldValue(out.Index(i), s); err != nil {
				return err
			}
		}
		field.Set(out)
		return nil
	}

	val := ""
	if len(vals) > 0 {
		val = vals[0]
	}
	if val == "" {
		val = f.Tag.Get("default")
	}
	if val == "" {
		return nil
	}
	return setFieldValue(field, val)
}

// setFieldValue sets a reflect.Value from a string, supporting common types.
func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == reflect.TypeFor[time.Duration]() {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(d))
		return nil
	}

	//exhaustive:ignore
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Pointer:
		ptr := reflect.New(field.Type().Elem())
		if err := setFieldValue(ptr.Elem(), value); err != nil {
			return err
		}
		field.Set(ptr)
	default:
		return fmt.Errorf("unsupported type: %s", field.Type())
	}
	return nil
}

// decodeBody decodes the request body as JSON into target.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(target)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
