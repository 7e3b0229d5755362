package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// ContractFormat identifies the contract document layout.
const ContractFormat = "rpc/v1"

// ErrInvalidContract is returned when a contract document fails validation.
var ErrInvalidContract = errors.New("invalid contract")

// RouteKey identifies a route by HTTP method and marker-form pattern.
type RouteKey struct {
	Method  string `json:"method" yaml:"method"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

func (k RouteKey) String() string { return k.Method + " " + k.Pattern }

// TypeRefs name the Go types behind a route, e.g.
// "example.com/posts.GetPostReq". Empty when the type is anonymous.
type TypeRefs struct {
	Request  string `json:"request,omitempty" yaml:"request,omitempty"`
	Response string `json:"response,omitempty" yaml:"response,omitempty"`
}

// RouteDescriptor is the contract entry of one route.
type RouteDescriptor struct {
	Method      string      `json:"method" yaml:"method"`
	Pattern     string      `json:"pattern" yaml:"pattern"`
	Params      []string    `json:"params" yaml:"params"`
	Query       *JSONSchema `json:"query,omitempty" yaml:"query,omitempty"`
	Body        *JSONSchema `json:"body,omitempty" yaml:"body,omitempty"`
	Response    *JSONSchema `json:"response,omitempty" yaml:"response,omitempty"`
	Status      int         `json:"status,omitempty" yaml:"status,omitempty"`
	Summary     string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags,omitempty"`
	Deprecated  bool        `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	OperationID string      `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Types       TypeRefs    `json:"types,omitzero" yaml:"types,omitempty"`
}

// Key returns the descriptor's route key.
func (d RouteDescriptor) Key() RouteKey {
	return RouteKey{Method: d.Method, Pattern: d.Pattern}
}

// Contract is a snapshot of the route table. It is safe to share; later
// registrations on the router do not change an existing snapshot.
type Contract struct {
	Format  string            `json:"contract" yaml:"contract"`
	Title   string            `json:"title,omitempty" yaml:"title,omitempty"`
	Version string            `json:"version,omitempty" yaml:"version,omitempty"`
	Routes  []RouteDescriptor `json:"routes" yaml:"routes"`
}

// Contract returns a snapshot of every registered route, sorted by pattern
// then method.
func (r *Router) Contract() Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := Contract{
		Format:  ContractFormat,
		Title:   r.title,
		Version: r.version,
		Routes:  make([]RouteDescriptor, 0, len(r.order)),
	}
	for _, slot := range r.order {
		c.Routes = append(c.Routes, describe(r.entries[slot]))
	}
	c.sort()
	return c
}

// describe builds the contract entry of a route.
func describe(ri *routeInfo) RouteDescriptor {
	d := RouteDescriptor{
		Method:      ri.method,
		Pattern:     ri.pattern.String(),
		Params:      ri.pattern.params(),
		Status:      ri.status,
		Summary:     ri.summary,
		Description: ri.desc,
		Tags:        slices.Clone(ri.tags),
		Deprecated:  ri.deprecated,
		OperationID: ri.operationID,
	}

	if ri.reqType != nil {
		d.Query = querySchema(ri.reqType)
		if bt, ok := bodyType(ri.reqType, ri.method); ok {
			s := typeToSchema(bt)
			d.Body = &s
		}
		d.Types.Request = typeRef(ri.reqType)
	}

	if rt := ri.responseType(); rt != nil && rt != reflect.TypeFor[Void]() {
		s := typeToSchema(rt)
		d.Response = &s
		d.Types.Response = typeRef(rt)
	}

	return d
}

func (c *Contract) sort() {
	slices.SortFunc(c.Routes, func(a, b RouteDescriptor) int {
		if n := strings.Compare(a.Pattern, b.Pattern); n != 0 {
			return n
		}
		return strings.Compare(a.Method, b.Method)
	})
}

// Len returns the number of routes.
func (c Contract) Len() int { return len(c.Routes) }

// Lookup returns the route registered under method and pattern. The
// pattern is normalized, so "/posts/:id/" finds "/posts/:id".
func (c Contract) Lookup(method, pattern string) (RouteDescriptor, bool) {
	p, err := parsePattern(pattern)
	if err != nil {
		return RouteDescriptor{}, false
	}
	key := RouteKey{Method: strings.ToUpper(method), Pattern: p.String()}
	for _, d := range c.Routes {
		if d.Key() == key {
			return d, true
		}
	}
	return RouteDescriptor{}, false
}

// Validate checks the document format, that the version is a semantic
// version, and that every route is well formed and unique.
func (c Contract) Validate() error {
	if c.Format != ContractFormat {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidContract, c.Format)
	}
	if c.Version != "" {
		if _, err := semver.NewVersion(c.Version); err != nil {
			return fmt.Errorf("%w: version %q: %w", ErrInvalidContract, c.Version, err)
		}
	}

	seen := make(map[RouteKey]bool, len(c.Routes))
	for _, d := range c.Routes {
		p, err := parsePattern(d.Pattern)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidContract, err)
		}
		if !slices.Equal(p.params(), d.Params) {
			return fmt.Errorf("%w: %s: params %v do not match pattern", ErrInvalidContract, d.Key(), d.Params)
		}
		if seen[d.Key()] {
			return fmt.Errorf("%w: duplicate route %s", ErrInvalidContract, d.Key())
		}
		seen[d.Key()] = true
	}
	return nil
}

// SemVer parses the contract version.
func (c Contract) SemVer() (*semver.Version, error) {
	return semver.NewVersion(c.Version)
}

// ReadContract decodes a JSON or YAML contract document and validates it.
func ReadContract(rd io.Reader) (Contract, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return Contract{}, fmt.Errorf("read contract: %w", err)
	}

	var c Contract
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &c)
	} else {
		err = yaml.Unmarshal(data, &c)
	}
	if err != nil {
		return Contract{}, fmt.Errorf("%w: %w", ErrInvalidContract, err)
	}

	if err := c.Validate(); err != nil {
		return Contract{}, err
	}
	c.sort()
	return c, nil
}
