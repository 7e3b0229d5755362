package rpc

import (
	"html/template"
	"net/http"
)

// DocsOption configures the docs UI.
type DocsOption func(*docsPage)

type docsPage struct {
	Title       string
	SpecURL     string
	ContractURL string
}

// WithDocsTitle sets the page title for the docs UI.
func WithDocsTitle(title string) DocsOption {
	return func(p *docsPage) {
		p.Title = title
	}
}

// WithDocsSpec sets the URL of the OpenAPI document (default "/openapi.json").
func WithDocsSpec(url string) DocsOption {
	return func(p *docsPage) {
		p.SpecURL = url
	}
}

// WithDocsContract links the contract document from the docs page.
func WithDocsContract(url string) DocsOption {
	return func(p *docsPage) {
		p.ContractURL = url
	}
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
</head>
<body>
{{- if .ContractURL}}
  <p><a href="{{.ContractURL}}">contract</a></p>
{{- end}}
  <elements-api apiDescriptionUrl="{{.SpecURL}}" router="hash" layout="sidebar"></elements-api>
</body>
</html>`))

// ServeDocs serves an interactive API documentation page at the given path,
// rendered from the router's OpenAPI document. Like the document endpoints
// it is not part of the contract.
func (r *Router) ServeDocs(path string, opts ...DocsOption) {
	page := &docsPage{
		Title:   r.title,
		SpecURL: "/openapi.json",
	}
	for _, opt := range opts {
		opt(page)
	}

	r.mux.HandleFunc("GET "+path, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Security-Policy", "default-src 'self' https://unpkg.com 'unsafe-inline'")
		if err := docsTemplate.Execute(w, page); err != nil {
			r.logger.WarnContext(req.Context(), "docs render failed", "err", err)
		}
	})
}
