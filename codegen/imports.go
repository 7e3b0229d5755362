package codegen

import (
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

type importSpec struct {
	Alias string
	Path  string
}

// importSet assigns each imported package a unique alias.
type importSet struct {
	byPath  map[string]string
	aliases map[string]bool
}

func newImportSet() *importSet {
	return &importSet{
		byPath:  make(map[string]string),
		aliases: map[string]bool{"context": true, "x": true, "req": true, "ctx": true, "err": true},
	}
}

// add imports pkg and returns its alias.
func (s *importSet) add(pkg string) string {
	if alias, ok := s.byPath[pkg]; ok {
		return alias
	}

	base := aliasFor(pkg)
	alias := base
	for n := 2; s.aliases[alias]; n++ {
		alias = base + strconv.Itoa(n)
	}
	s.byPath[pkg] = alias
	s.aliases[alias] = true
	return alias
}

// expr renders a contract type reference such as
// "[]example.com/posts.Post" as a Go type expression, importing its
// package.
func (s *importSet) expr(ref string) string {
	var prefix strings.Builder
	for done := false; !done; {
		switch {
		case strings.HasPrefix(ref, "*"):
			prefix.WriteString("*")
			ref = ref[1:]
		case strings.HasPrefix(ref, "[]"):
			prefix.WriteString("[]")
			ref = ref[2:]
		case strings.HasPrefix(ref, "map[string]"):
			prefix.WriteString("map[string]")
			ref = ref[len("map[string]"):]
		default:
			done = true
		}
	}

	i := strings.LastIndex(ref, ".")
	if i < 0 {
		return prefix.String() + ref
	}
	return prefix.String() + s.add(ref[:i]) + "." + ref[i+1:]
}

func (s *importSet) list() []importSpec {
	out := make([]importSpec, 0, len(s.byPath))
	for p, alias := range s.byPath {
		out = append(out, importSpec{Alias: alias, Path: p})
	}
	slices.SortFunc(out, func(a, b importSpec) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// aliasFor derives a package identifier from an import path, e.g.
// "gopkg.in/yaml.v3" becomes "yaml".
func aliasFor(pkg string) string {
	base := path.Base(pkg)
	if i := strings.IndexAny(base, ".-"); i > 0 {
		base = base[:i]
	}
	base = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return unicode.ToLower(r)
		}
		return -1
	}, base)
	if base == "" || !unicode.IsLetter(rune(base[0])) {
		base = "pkg" + base
	}
	return base
}
