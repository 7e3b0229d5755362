package rpc

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"gopkg.in/yaml.v3"
)

// docFormat is the encoding of a served document.
type docFormat int

const (
	formatJSON docFormat = iota
	formatYAML
)

func (f docFormat) contentType() string {
	if f == formatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// encodeDocument writes v to w. JSON output is indented when pretty is set.
func encodeDocument(w io.Writer, f docFormat, v any, pretty bool) error {
	if f == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// serveDocument mounts a GET endpoint that renders doc on every request.
// Document endpoints bypass the route table and are not part of the
// contract.
func (r *Router) serveDocument(pattern string, f docFormat, doc func() any) {
	r.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", f.contentType())
		if err := encodeDocument(w, f, doc(), false); err != nil {
			r.logger.WarnContext(req.Context(), "document encode failed",
				slog.String("path", pattern),
				slog.Any("err", err),
			)
		}
	})
}

// ServeSpec registers a GET handler at the given path that serves
// the OpenAPI spec as JSON.
func (r *Router) ServeSpec(pattern string) {
	r.serveDocument(pattern, formatJSON, func() any { return r.Spec() })
}

// ServeSpecYAML registers a GET handler at the given path that serves
// the OpenAPI spec as YAML.
func (r *Router) ServeSpecYAML(pattern string) {
	r.serveDocument(pattern, formatYAML, func() any { return r.Spec() })
}

// WriteSpec writes the OpenAPI spec as indented JSON to w.
func (r *Router) WriteSpec(w io.Writer) error {
	return encodeDocument(w, formatJSON, r.Spec(), true)
}

// WriteSpecYAML writes the OpenAPI spec as YAML to w.
func (r *Router) WriteSpecYAML(w io.Writer) error {
	return encodeDocument(w, formatYAML, r.Spec(), true)
}

// ServeContract registers a GET handler at the given path that serves the
// contract as JSON.
func (r *Router) ServeContract(pattern string) {
	r.serveDocument(pattern, formatJSON, func() any { return r.Contract() })
}

// ServeContractYAML registers a GET handler at the given path that serves
// the contract as YAML.
func (r *Router) ServeContractYAML(pattern string) {
	r.serveDocument(pattern, formatYAML, func() any { return r.Contract() })
}

// WriteContract writes the contract as indented JSON to w.
func (r *Router) WriteContract(w io.Writer) error {
	return encodeDocument(w, formatJSON, r.Contract(), true)
}

// WriteContractYAML writes the contract as YAML to w.
func (r *Router) WriteContractYAML(w io.Writer) error {
	return encodeDocument(w, formatYAML, r.Contract(), true)
}
