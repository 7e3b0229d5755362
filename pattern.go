package rpc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParamMarker prefixes a path segment that names a parameter, as in
// "/posts/:postId".
const ParamMarker = ':'

// ErrMalformedPattern is returned when a path pattern contains a parameter
// marker with no name after it, or a segment containing '{' or '}'.
var ErrMalformedPattern = errors.New("malformed pattern")

// segment is one "/"-delimited component of a path pattern.
type segment struct {
	text  string // literal text, or the parameter name without its marker
	param bool
}

// pathPattern is a parsed path pattern. Segment order is significant.
type pathPattern struct {
	segments []segment
}

// ParsePattern returns the ordered parameter names of a path pattern with
// the marker stripped. Literal segments are ignored and empty segments
// (leading, trailing or doubled slashes) are dropped. Duplicate names are
// not rejected.
func ParsePattern(pattern string) ([]string, error) {
	p, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return p.params(), nil
}

func parsePattern(pattern string) (pathPattern, error) {
	var p pathPattern
	for part := range strings.SplitSeq(pattern, "/") {
		if part == "" {
			continue
		}
		if strings.ContainsAny(part, "{}") {
			return pathPattern{}, fmt.Errorf("%w: %q: braces are not allowed", ErrMalformedPattern, pattern)
		}
		if part[0] != ParamMarker {
			p.segments = append(p.segments, segment{text: part})
			continue
		}
		name := part[1:]
		if name == "" {
			return pathPattern{}, fmt.Errorf("%w: %q: empty parameter name", ErrMalformedPattern, pattern)
		}
		p.segments = append(p.segments, segment{text: name, param: true})
	}
	return p, nil
}

// params returns the parameter names in left-to-right order.
func (p pathPattern) params() []string {
	names := make([]string, 0, len(p.segments))
	for _, s := range p.segments {
		if s.param {
			names = append(names, s.text)
		}
	}
	return names
}

// String renders the canonical marker form, e.g. "/a/:x".
func (p pathPattern) String() string {
	return p.render(func(_ int, s segment) string {
		return string(ParamMarker) + s.text
	})
}

// openAPIPath renders the OpenAPI form, e.g. "/a/{x}".
func (p pathPattern) openAPIPath() string {
	return p.render(func(_ int, s segment) string {
		return "{" + s.text + "}"
	})
}

// muxPath renders the ServeMux form with positional wildcards, e.g.
// "/a/{p0}". Parameter names never reach the mux, so any name is legal and
// two patterns with the same shape map to the same mux slot.
func (p pathPattern) muxPath() string {
	if len(p.segments) == 0 {
		return "/{$}"
	}
	return p.render(func(i int, _ segment) string {
		return "{" + wildcard(i) + "}"
	})
}

func (p pathPattern) render(param func(i int, s segment) string) string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	n := 0
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.param {
			b.WriteString(param(n, s))
			n++
			continue
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// join appends q's segments to p.
func (p pathPattern) join(q pathPattern) pathPattern {
	segs := make([]segment, 0, len(p.segments)+len(q.segments))
	segs = append(segs, p.segments...)
	segs = append(segs, q.segments...)
	return pathPattern{segments: segs}
}

func wildcard(i int) string {
	return "p" + strconv.Itoa(i)
}
