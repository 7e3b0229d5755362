package codegen

var (
	MethodName = methodName
	AliasFor   = aliasFor
)

// TypeExpr renders ref and returns the imports it needed.
func TypeExpr(ref string) (string, []string) {
	s := newImportSet()
	expr := s.expr(ref)
	var paths []string
	for _, imp := range s.list() {
		paths = append(paths, imp.Alias+" "+imp.Path)
	}
	return expr, paths
}
