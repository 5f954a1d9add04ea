// Package docset defines document identity and build-scope types shared by
// the redirection resolver, the markdown engine, and the page builder.
package docset

import (
	"path"
	"strings"
)

// FileOrigin tags where a document identity came from. Identities with the
// same path but different origins are distinct documents.
type FileOrigin string

const (
	// OriginSource is a document discovered in the source tree.
	OriginSource FileOrigin = "source"

	// OriginRedirection is an identity synthesized from a redirect declaration.
	OriginRedirection FileOrigin = "redirection"
)

// Identity is a normalized relative path plus an origin tag. Immutable once
// created; usable as a map key.
type Identity struct {
	Path   string
	Origin FileOrigin
}

// NewIdentity creates an identity with a slash-normalized path.
func NewIdentity(p string, origin FileOrigin) Identity {
	return Identity{Path: NormalizePath(p), Origin: origin}
}

// String returns the identity path (origin omitted; paths are unique per
// origin in diagnostics output).
func (id Identity) String() string { return id.Path }

// NormalizePath converts p to a clean, slash-separated relative path.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	cleaned := path.Clean(p)
	if cleaned == "." {
		return ""
	}
	return cleaned
}

// Rebase re-expresses relPath (declared relative to fromDir) as a path
// relative to the docset root. fromDir is itself root-relative; an empty
// fromDir means the root. The result may escape the root ("../..."), which
// callers detect with EscapesRoot.
func Rebase(relPath, fromDir string) string {
	if fromDir == "" || fromDir == "." {
		return NormalizePath(relPath)
	}
	return NormalizePath(path.Join(fromDir, relPath))
}

// EscapesRoot reports whether a rebased path points outside the docset root.
func EscapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}
