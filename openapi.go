package rpc

import (
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// OpenAPISpec is the top-level OpenAPI 3.1 document.
type OpenAPISpec struct {
	OpenAPI string              `json:"openapi" yaml:"openapi"`
	Info    OpenAPIInfo         `json:"info" yaml:"info"`
	Paths   map[string]PathItem `json:"paths" yaml:"paths"`
}

// OpenAPIInfo holds API metadata.
type OpenAPIInfo struct {
	Title   string `json:"title" yaml:"title"`
	Version string `json:"version" yaml:"version"`
}

// PathItem maps HTTP methods to operations.
type PathItem map[string]Operation

// Operation describes a single API operation on a path.
type Operation struct {
	Summary     string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	OperationID string        `json:"operationId,omitempty" yaml:"operationId,omitempty"`
	Parameters  []Parameter   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	RequestBody *RequestBody  `json:"requestBody,omitempty" yaml:"requestBody,omitempty"`
	Responses   OperationResp `json:"responses" yaml:"responses"`
	Deprecated  bool          `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
}

// Parameter describes a single operation parameter.
type Parameter struct {
	Name        string     `json:"name" yaml:"name"`
	In          string     `json:"in" yaml:"in"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      JSONSchema `json:"schema" yaml:"schema"`
}

// RequestBody describes the request body.
type RequestBody struct {
	Required bool                `json:"required" yaml:"required"`
	Content  map[string]MediaObj `json:"content" yaml:"content"`
}

// MediaObj is a media type object with an optional schema.
type MediaObj struct {
	Schema *JSONSchema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// OperationResp maps HTTP status codes to response objects.
type OperationResp map[string]ResponseObj

// ResponseObj describes a single response.
type ResponseObj struct {
	Description string              `json:"description" yaml:"description"`
	Content     map[string]MediaObj `json:"content,omitempty" yaml:"content,omitempty"`
}

// Spec generates the OpenAPI 3.1 document from the route table.
func (r *Router) Spec() OpenAPISpec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec := OpenAPISpec{
		OpenAPI: "3.1.0",
		Info: OpenAPIInfo{
			Title:   r.title,
			Version: r.version,
		},
		Paths: make(map[string]PathItem),
	}

	for _, slot := range r.order {
		ri := r.entries[slot]
		path := ri.pattern.openAPIPath()
		if spec.Paths[path] == nil {
			spec.Paths[path] = make(PathItem)
		}
		spec.Paths[path][strings.ToLower(ri.method)] = buildOperation(ri)
	}

	return spec
}

// buildOperation creates an Operation from a routeInfo.
func buildOperation(ri *routeInfo) Operation {
	op := Operation{
		Summary:     ri.summary,
		Description: ri.desc,
		Tags:        ri.tags,
		OperationID: ri.operationID,
		Deprecated:  ri.deprecated,
		Parameters:  extractParameters(ri),
		Responses:   make(OperationResp),
	}

	if bt, ok := bodyType(ri.reqType, ri.method); ok {
		schema := typeToSchema(bt)
		op.RequestBody = &RequestBody{
			Required: true,
			Content: map[string]MediaObj{
				"application/json": {Schema: &schema},
			},
		}
	}

	status := ri.status
	if status == 0 {
		status = http.StatusOK
	}

	switch rt := ri.responseType(); rt {
	case nil:
		op.Responses[strconv.Itoa(status)] = ResponseObj{Description: "Successful response"}
	case reflect.TypeFor[Void]():
		op.Responses[strconv.Itoa(status)] = ResponseObj{Description: "No content"}
	default:
		schema := typeToSchema(rt)
		op.Responses[strconv.Itoa(status)] = ResponseObj{
			Description: "Successful response",
			Content: map[string]MediaObj{
				"application/json": {Schema: &schema},
			},
		}
	}

	problem := typeToSchema(reflect.TypeFor[ProblemDetail]())
	for _, code := range errorCodes(ri) {
		op.Responses[strconv.Itoa(code)] = ResponseObj{
			Description: http.StatusText(code),
			Content: map[string]MediaObj{
				"application/problem+json": {Schema: &problem},
			},
		}
	}

	return op
}

// errorCodes lists the error statuses a route can answer with: 400 when it
// binds input, 404 when it has path parameters, 500 always, plus declared ones.
func errorCodes(ri *routeInfo) []int {
	var codes []int
	if ri.reqType != nil && ri.reqType != reflect.TypeFor[Void]() {
		codes = append(codes, http.StatusBadRequest)
	}
	if len(ri.pattern.params()) > 0 {
		codes = append(codes, http.StatusNotFound)
	}
	codes = append(codes, http.StatusInternalServerError)
	codes = append(codes, ri.errors...)
	slices.Sort(codes)
	return slices.Compact(codes)
}

// extractParameters builds OpenAPI parameters from param-tagged fields of
// the request type. Path parameters the type does not declare are added
// as strings so every pattern parameter is documented.
func extractParameters(ri *routeInfo) []Parameter {
	var params []Parameter
	declared := make(map[string]bool)

	for _, tagName := range paramTags {
		for _, f := range taggedFields(ri.reqType, tagName) {
			name := f.Tag.Get(tagName)
			p := Parameter{
				Name:        name,
				In:          tagName,
				Description: f.Tag.Get("doc"),
				Schema:      fieldSchema(f),
				Required:    f.Tag.Get("required") == "true" || tagName == "path",
			}
			p.Schema.Description = ""
			if tagName == "path" {
				declared[name] = true
			}
			params = append(params, p)
		}
	}

	for _, name := range ri.pattern.params() {
		if declared[name] {
			continue
		}
		params = append(params, Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   JSONSchema{Type: "string"},
		})
	}

	return params
}
