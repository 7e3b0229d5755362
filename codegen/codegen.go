// Package codegen turns a contract into a typed Go client: one method per
// route, each a thin wrapper over client.Do with the request and response
// types the contract names.
package codegen

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/tools/imports"

	"github.com/bjaus/rpc"
)

// ErrNoPackage is returned when Options.Package is empty.
var ErrNoPackage = errors.New("package name required")

const (
	rpcImport    = "github.com/bjaus/rpc"
	clientImport = "github.com/bjaus/rpc/client"
)

// Options controls the generated file.
type Options struct {
	Package  string // package clause of the generated file
	TypeName string // client type name (default "Client")
	Source   string // where the contract came from, noted in the header
}

type fileData struct {
	Package  string
	TypeName string
	Source   string
	Title    string
	Version  string
	Client   string // alias of the client package
	Void     string // rpc.Void under its alias
	Imports  []importSpec
	Methods  []methodData
}

type methodData struct {
	Name       string
	Method     string
	Pattern    string
	Summary    string
	Deprecated bool
	ReqType    string // empty when the route takes no input
	RespType   string // empty when the route returns no body
}

// title upper-cases the first letter of s and keeps the rest. A Caser
// holds state, so each call gets its own.
func title(s string) string {
	return cases.Title(language.Und, cases.NoLower).String(s)
}

var fileTemplate = template.Must(template.New("client").Parse(`// Code generated by rpcgen{{with .Source}} from {{.}}{{end}}. DO NOT EDIT.

package {{.Package}}

import (
	"context"
{{range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
)

// {{.TypeName}} calls the {{with .Title}}{{.}} {{end}}API{{with .Version}} (contract version {{.}}){{end}}.
type {{.TypeName}} struct {
	c *{{.Client}}.Client
}

// New{{.TypeName}} wraps a dynamic client.
func New{{.TypeName}}(c *{{.Client}}.Client) *{{.TypeName}} {
	return &{{.TypeName}}{c: c}
}
{{range .Methods}}
// {{.Name}} calls {{.Method}} {{.Pattern}}.{{with .Summary}} {{.}}{{end}}
{{- if .Deprecated}}
//
// Deprecated: the route is marked deprecated.
{{- end}}
func (x *{{$.TypeName}}) {{.Name}}(ctx context.Context{{if .ReqType}}, req {{.ReqType}}{{end}}) {{if .RespType}}(*{{.RespType}}, error){{else}}error{{end}} {
{{- if .RespType}}
	return {{$.Client}}.Do[{{.RespType}}](ctx, x.c, "{{.Method}}", "{{.Pattern}}", {{if .ReqType}}req{{else}}nil{{end}})
{{- else}}
	_, err := {{$.Client}}.Do[{{$.Void}}](ctx, x.c, "{{.Method}}", "{{.Pattern}}", {{if .ReqType}}req{{else}}nil{{end}})
	return err
{{- end}}
}
{{end}}`))

// Generate renders the client for c. The output is gofmt-formatted with
// imports resolved.
func Generate(c rpc.Contract, opts Options) ([]byte, error) {
	if opts.Package == "" {
		return nil, ErrNoPackage
	}
	if opts.TypeName == "" {
		opts.TypeName = "Client"
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	imps := newImportSet()

	data := fileData{
		Package:  opts.Package,
		TypeName: opts.TypeName,
		Source:   opts.Source,
		Title:    c.Title,
		Version:  c.Version,
		Client:   imps.add(clientImport),
	}

	names := make(map[string]int, len(c.Routes))
	for _, d := range c.Routes {
		if !isMethod(d.Method) {
			continue
		}
		m := methodData{
			Name:       uniqueName(names, methodName(d)),
			Method:     d.Method,
			Pattern:    d.Pattern,
			Summary:    sentence(d.Summary),
			Deprecated: d.Deprecated,
		}

		switch ref := d.Types.Request; {
		case ref == rpcImport+".Void":
		case ref != "":
			m.ReqType = "*" + imps.expr(ref)
		case len(d.Params) > 0 || d.Query != nil || d.Body != nil:
			m.ReqType = "any"
		}

		switch ref := d.Types.Response; {
		case ref != "":
			m.RespType = imps.expr(ref)
		case d.Response != nil:
			m.RespType = imps.add("encoding/json") + ".RawMessage"
		default:
			data.Void = imps.add(rpcImport) + ".Void"
		}

		data.Methods = append(data.Methods, m)
	}
	data.Imports = imps.list()

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render client: %w", err)
	}

	out, err := imports.Process("client_gen.go", buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format client: %w", err)
	}
	return out, nil
}

// methodName derives a Go method name from the operation ID, or from the
// HTTP method and path otherwise: GET /posts/:postId becomes
// GetPostsByPostId.
func methodName(d rpc.RouteDescriptor) string {
	if d.OperationID != "" {
		return identifier(d.OperationID)
	}

	var b strings.Builder
	b.WriteString(title(strings.ToLower(d.Method)))
	params := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		params[p] = true
	}
	for seg := range strings.SplitSeq(strings.Trim(d.Pattern, "/"), "/") {
		if seg == "" {
			continue
		}
		name, isParam := strings.CutPrefix(seg, string(rpc.ParamMarker))
		if isParam && params[name] {
			b.WriteString("By")
		}
		b.WriteString(identifier(name))
	}
	return b.String()
}

// identifier turns a path segment or operation ID into an exported Go
// identifier.
func identifier(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title(w))
	}
	name := b.String()
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		name = "X" + name
	}
	return name
}

func uniqueName(seen map[string]int, name string) string {
	seen[name]++
	if n := seen[name]; n > 1 {
		return fmt.Sprintf("%s%d", name, n)
	}
	return name
}

// sentence joins s onto one line ending in a period.
func sentence(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || strings.HasSuffix(s, ".") {
		return s
	}
	return s + "."
}

// isMethod reports whether the client can call routes with method s.
func isMethod(s string) bool {
	switch s {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
