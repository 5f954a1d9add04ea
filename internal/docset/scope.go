package docset

import (
	"path"
	"strings"
)

// Scope answers build-scope membership for root-relative paths. The real
// matcher is glob-based and owned by configuration loading; the build core
// only depends on this interface.
type Scope interface {
	Contains(relPath string) bool
}

// GlobScope matches paths against shell-style glob patterns. A path is in
// scope when it matches at least one include pattern and no exclude pattern.
// Within a segment path.Match semantics apply; a "**" segment matches any
// number of directories, including none.
type GlobScope struct {
	Includes []string
	Excludes []string
}

// NewGlobScope builds a scope from include and exclude pattern lists.
// An empty include list means "everything".
func NewGlobScope(includes, excludes []string) *GlobScope {
	return &GlobScope{Includes: includes, Excludes: excludes}
}

// Contains implements Scope.
func (g *GlobScope) Contains(relPath string) bool {
	relPath = NormalizePath(relPath)
	if EscapesRoot(relPath) {
		return false
	}
	for _, pat := range g.Excludes {
		if globMatch(pat, relPath) {
			return false
		}
	}
	if len(g.Includes) == 0 {
		return true
	}
	for _, pat := range g.Includes {
		if globMatch(pat, relPath) {
			return true
		}
	}
	return false
}

func globMatch(pattern, p string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(p, "/"))
}

func matchSegments(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		// Match zero or more leading segments.
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	if ok, _ := path.Match(pat[0], segs[0]); !ok {
		return false
	}
	return matchSegments(pat[1:], segs[1:])
}
