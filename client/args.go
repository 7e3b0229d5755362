package client

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"slices"

	"github.com/bjaus/rpc"
)

// Args are the arguments of one call. Params must name exactly the
// parameters of the target pattern. Query accepts url.Values,
// map[string]string, map[string][]string, map[string]any, or a struct
// with query tags. A nil Body sends no body.
type Args struct {
	Params map[string]string
	Query  any
	Header http.Header
	Body   any
}

// FromRequest derives call arguments from a server request type, using
// the same tags the router binds: path fields become Params, query fields
// the Query, header fields the Header, and the Body field the body. A
// struct with no binding tags and no Body field is sent whole as the body.
// Zero-valued query and header fields are omitted so server defaults apply.
func FromRequest(req any) Args {
	switch v := req.(type) {
	case nil:
		return Args{}
	case Args:
		return v
	case *Args:
		if v == nil {
			return Args{}
		}
		return *v
	}

	rv := reflect.ValueOf(req)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Args{}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Args{Body: req}
	}
	if rv.Type() == reflect.TypeFor[rpc.Void]() {
		return Args{}
	}

	var (
		args  Args
		query url.Values
		bound bool
	)
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() || f.Type == reflect.TypeFor[rpc.RawRequest]() {
			continue
		}
		fv := rv.Field(i)

		if name := f.Tag.Get("path"); name != "" {
			bound = true
			if args.Params == nil {
				args.Params = make(map[string]string)
			}
			if s, ok := scalar(fv); ok {
				args.Params[name] = s
			}
			continue
		}
		if name := f.Tag.Get("query"); name != "" {
			bound = true
			if query == nil {
				query = make(url.Values)
			}
			addQuery(query, name, fv)
			continue
		}
		if name := f.Tag.Get("header"); name != "" {
			bound = true
			if s, ok := scalar(fv); ok && !fv.IsZero() {
				if args.Header == nil {
					args.Header = make(http.Header)
				}
				args.Header.Set(name, s)
			}
			continue
		}
		if f.Tag.Get("cookie") != "" {
			bound = true
			continue
		}
		if f.Name == "Body" {
			bound = true
			args.Body = fv.Interface()
		}
	}

	if !bound {
		return Args{Body: req}
	}
	if len(query) > 0 {
		args.Query = query
	}
	return args
}

// encodeQuery normalizes Args.Query to url.Values.
func encodeQuery(q any) (url.Values, error) {
	switch v := q.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return v, nil
	case map[string][]string:
		return url.Values(v), nil
	case map[string]string:
		out := make(url.Values, len(v))
		for k, s := range v {
			out.Set(k, s)
		}
		return out, nil
	case map[string]any:
		out := make(url.Values, len(v))
		for k, a := range v {
			if a != nil {
				addQuery(out, k, reflect.ValueOf(a))
			}
		}
		return out, nil
	}

	rv := reflect.ValueOf(q)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedQuery, q)
	}
	out := make(url.Values)
	t := rv.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		if name := f.Tag.Get("query"); name != "" && f.IsExported() {
			addQuery(out, name, rv.Field(i))
		}
	}
	return out, nil
}

// addQuery adds fv under name, one value per element for slices. Zero
// scalars are skipped.
func addQuery(q url.Values, name string, fv reflect.Value) {
	if (fv.Kind() == reflect.Slice || fv.Kind() == reflect.Array) && fv.Type().Elem().Kind() != reflect.Uint8 {
		for i := range fv.Len() {
			if s, ok := scalar(fv.Index(i)); ok {
				q.Add(name, s)
			}
		}
		return
	}
	if fv.IsZero() {
		return
	}
	if s, ok := scalar(fv); ok {
		q.Add(name, s)
	}
}

// scalar formats a value the way the router parses it back. Nil pointers
// have no value.
func scalar(fv reflect.Value) (string, bool) {
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return "", false
		}
		fv = fv.Elem()
	}
	if s, ok := fv.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	return fmt.Sprint(fv.Interface()), true
}

// paramNames returns the sorted keys of params.
func paramNames(params map[string]string) []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}
