package rpc

// Test-only exports for internal functions.
var (
	HasParamTags = hasParamTags
	HasBodyField = hasBodyField

	TypeToSchema   = typeToSchema
	StructToSchema = structToSchema
	JSONFieldName  = jsonFieldName
	TypeRef        = typeRef

	ValidateConstraints = validateConstraints
)

// PatternForms renders a pattern in its canonical, OpenAPI and ServeMux forms.
func PatternForms(pattern string) (canonical, openAPI, mux string, err error) {
	p, err := parsePattern(pattern)
	if err != nil {
		return "", "", "", err
	}
	return p.String(), p.openAPIPath(), p.muxPath(), nil
}
