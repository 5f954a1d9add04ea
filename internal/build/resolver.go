package build

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/frontmatter"
	"git.home.luguber.info/inful/docset/internal/redirect"
	"git.home.luguber.info/inful/docset/internal/registry"
)

// Xref is one cross-reference target: a uid declared by a document.
type Xref struct {
	UID     string
	Href    string
	Display string
	Doc     docset.Identity
}

// dependencyResolver implements markdown.Resolver: it resolves file links
// against the build scope and the redirect map, cross references against the
// uid table, and include references against the source tree.
type dependencyResolver struct {
	root      string
	scope     docset.Scope
	registry  registry.Registry
	redirects *redirect.Resolver
	xrefs     map[string]Xref
}

// ResolveLink resolves a relative or site link found in doc. Links landing
// on a redirected document return the redirect target; links landing on a
// build-scope document return its site URL. Anything else passes through.
func (r *dependencyResolver) ResolveLink(doc docset.Identity, href string, loc diagnostics.Location) (string, *docset.Identity) {
	relPath, suffix, ok := r.toDocsetPath(doc, href)
	if !ok {
		return href, nil
	}

	redirected := docset.NewIdentity(relPath, docset.OriginRedirection)
	if r.redirects.Contains(redirected) {
		return r.redirects.GetRedirectUrl(redirected) + suffix, &redirected
	}

	if r.scope.Contains(relPath) {
		target := docset.NewIdentity(relPath, docset.OriginSource)
		return r.registry.SiteURL(target) + suffix, &target
	}
	return href, nil
}

// ResolveXref resolves a cross reference by uid. Unknown uids return empty
// strings; the engine reports the diagnostic.
func (r *dependencyResolver) ResolveXref(doc docset.Identity, uid string, loc diagnostics.Location) (string, string, *docset.Identity) {
	x, ok := r.xrefs[uid]
	if !ok {
		return "", "", nil
	}
	href := x.Href
	if href == "" {
		href = r.registry.SiteURL(x.Doc)
	}
	return href, x.Display, &x.Doc
}

// ResolveContent loads the raw body of an included document. Front matter on
// the included file is dropped: only the body participates in the host page.
func (r *dependencyResolver) ResolveContent(doc docset.Identity, href string, loc diagnostics.Location) ([]byte, *docset.Identity) {
	relPath, _, ok := r.toDocsetPath(doc, href)
	if !ok {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(relPath))) // #nosec G304 -- confined to the docset root
	if err != nil {
		return nil, nil
	}
	_, body, _, err := frontmatter.Split(data)
	if err != nil {
		body = data
	}
	included := docset.NewIdentity(relPath, docset.OriginSource)
	return body, &included
}

// toDocsetPath converts a link target into a root-relative document path.
// The returned suffix preserves any query/fragment. ok is false for external
// links, bare fragments, and paths escaping the docset root.
func (r *dependencyResolver) toDocsetPath(doc docset.Identity, href string) (relPath, suffix string, ok bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "//") || strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") {
		return "", "", false
	}

	p := href
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		suffix = p[i:]
		p = p[:i]
	}
	if p == "" {
		return "", "", false
	}

	switch {
	case strings.HasPrefix(p, "~/"):
		// Docset-root-relative.
		p = strings.TrimPrefix(p, "~/")
	case strings.HasPrefix(p, "/"):
		// Site-absolute links address published URLs, not source files.
		return "", "", false
	default:
		p = path.Join(path.Dir(doc.Path), p)
	}

	p = docset.NormalizePath(p)
	if docset.EscapesRoot(p) {
		return "", "", false
	}
	return p, suffix, true
}
