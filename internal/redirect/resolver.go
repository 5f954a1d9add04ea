package redirect

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/moniker"
	"git.home.luguber.info/inful/docset/internal/registry"
)

// maxRenameHops bounds GetOriginalFile's backward walk. Rename chains are
// short in practice; the cap only matters if a defensive cycle slips in.
const maxRenameHops = 1000

// Deps wires the collaborators the resolver needs. ScopeFiles must enumerate
// the complete build scope; rename-candidate lookup depends on it.
type Deps struct {
	HostName   string
	Scope      docset.Scope
	Registry   registry.Registry
	Monikers   moniker.Service
	ScopeFiles []docset.Identity
	Log        *diagnostics.Log
}

// Resolver holds the redirect URL map and the rename-history graph. Both are
// built once by NewResolver and are safe for unsynchronized concurrent reads.
type Resolver struct {
	deps        Deps
	urlMap      map[docset.Identity]string
	renamedFrom map[docset.Identity]docset.Identity
}

// NewResolver builds the redirect URL map and rename history from the given
// declaration items. Construction must complete before parallel page builds
// start: the rename history needs the full build scope.
func NewResolver(items []Item, deps Deps) *Resolver {
	r := &Resolver{
		deps:        deps,
		urlMap:      make(map[docset.Identity]string),
		renamedFrom: make(map[docset.Identity]docset.Identity),
	}
	renames := r.buildURLMap(items)
	r.buildRenameHistory(renames)
	return r
}

// Contains reports whether doc is redirected.
func (r *Resolver) Contains(doc docset.Identity) bool {
	_, ok := r.urlMap[doc]
	return ok
}

// GetRedirectUrl returns the redirect target for doc. Callers must check
// Contains first; asking for a non-member is a programming error.
func (r *Resolver) GetRedirectUrl(doc docset.Identity) string {
	u, ok := r.urlMap[doc]
	if !ok {
		panic(fmt.Sprintf("redirect: GetRedirectUrl called for non-redirected document %q", doc.Path))
	}
	return u
}

// GetOriginalFile follows rename-history edges backward until no further
// edge exists and returns the oldest known identity. The walk is iterative
// and cycle-guarded; a document with no rename history maps to itself.
func (r *Resolver) GetOriginalFile(doc docset.Identity) docset.Identity {
	visited := map[docset.Identity]bool{doc: true}
	current := doc
	for i := 0; i < maxRenameHops; i++ {
		prev, ok := r.renamedFrom[current]
		if !ok {
			return current
		}
		if visited[prev] {
			return current
		}
		visited[prev] = true
		current = prev
	}
	return current
}

// RedirectedDocuments returns every identity in the redirect URL map, in
// unspecified order. Used to mark redirected documents in the registry.
func (r *Resolver) RedirectedDocuments() []docset.Identity {
	out := make([]docset.Identity, 0, len(r.urlMap))
	for doc := range r.urlMap {
		out = append(out, doc)
	}
	return out
}

// buildURLMap applies the skip/diagnostic ladder to each item in sorted order
// and returns the rename items that made it into the map.
func (r *Resolver) buildURLMap(items []Item) []Item {
	var renames []Item
	for _, item := range items {
		if item.SourcePath == "" || item.RedirectURL == "" {
			r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRedirectionNullOrEmpty,
				"redirection source path or target URL is null or empty",
				diagnostics.Location{File: item.SourcePath}))
			continue
		}
		if !r.deps.Scope.Contains(item.SourcePath) {
			continue
		}

		doc := docset.NewIdentity(item.SourcePath, docset.OriginRedirection)
		if ct := r.deps.Registry.ContentType(doc); ct != docset.ContentPage {
			r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRedirectionInvalid,
				fmt.Sprintf("cannot redirect %s document %s", ct, item.SourcePath),
				diagnostics.Location{File: item.SourcePath}))
			continue
		}

		resolved := item.RedirectURL
		if item.RedirectDocumentID {
			resolved = r.resolveRenameURL(doc, item.RedirectURL)
		}

		if _, exists := r.urlMap[doc]; exists {
			r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRedirectionConflict,
				fmt.Sprintf("%s is redirected more than once; keeping the first declaration", item.SourcePath),
				diagnostics.Location{File: item.SourcePath}))
			continue
		}
		r.urlMap[doc] = resolved
		if item.RedirectDocumentID {
			item.RedirectURL = resolved
			renames = append(renames, item)
		}
	}
	return renames
}

// resolveRenameURL interprets a rename target as one of three link kinds:
// relative (resolved against the source document's site URL), site-absolute
// (as-is), or external (self-links collapse to a bare site path).
func (r *Resolver) resolveRenameURL(doc docset.Identity, target string) string {
	switch linkKindOf(target) {
	case linkRelative:
		base, err := url.Parse(r.deps.Registry.SiteURL(doc))
		if err != nil {
			break
		}
		ref, err := url.Parse(target)
		if err != nil {
			break
		}
		return base.ResolveReference(ref).Path
	case linkSiteAbsolute:
		return target
	case linkExternal:
		u, err := url.Parse(target)
		if err != nil {
			break
		}
		if !strings.EqualFold(u.Host, r.deps.HostName) {
			return target
		}
		p := u.Path
		if p == "" {
			p = "/"
		}
		return stripLocaleSegment(p)
	}

	r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRedirectUrlUnresolvable,
		fmt.Sprintf("cannot resolve redirect URL %q", target),
		diagnostics.Location{File: doc.Path}))
	return target
}

type linkKind int

const (
	linkUnknown linkKind = iota
	linkRelative
	linkSiteAbsolute
	linkExternal
)

// linkKindOf inspects the URL string itself; no registry lookup is involved.
func linkKindOf(raw string) linkKind {
	if raw == "" {
		return linkUnknown
	}
	if strings.HasPrefix(raw, "//") {
		return linkUnknown
	}
	if strings.HasPrefix(raw, "/") {
		return linkSiteAbsolute
	}
	u, err := url.Parse(raw)
	if err != nil {
		return linkUnknown
	}
	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		return linkExternal
	case u.Scheme != "":
		// mailto:, ftp:, etc. are not representable as document targets.
		return linkUnknown
	default:
		return linkRelative
	}
}

// stripLocaleSegment removes a leading locale path segment ("/en-us/foo" →
// "/foo"). A segment counts as a locale only if it is a hyphenated BCP 47
// tag that parses cleanly.
func stripLocaleSegment(p string) string {
	trimmed := strings.TrimPrefix(p, "/")
	seg, rest, found := strings.Cut(trimmed, "/")
	if !isLocaleCode(seg) {
		return p
	}
	if !found {
		return "/"
	}
	return "/" + rest
}

func isLocaleCode(seg string) bool {
	if !strings.Contains(seg, "-") {
		return false
	}
	_, err := language.Parse(seg)
	return err == nil
}

// buildRenameHistory groups every document known to the build by normalized
// site URL and records a "renamed from" edge for each rename target that
// shares the rename source's monikers.
func (r *Resolver) buildRenameHistory(renames []Item) {
	byURL := make(map[string][]docset.Identity)
	add := func(doc docset.Identity) {
		key := normalizeURLKey(r.deps.Registry.SiteURL(doc))
		byURL[key] = append(byURL[key], doc)
	}
	for _, doc := range r.deps.ScopeFiles {
		add(doc)
	}
	for doc := range r.urlMap {
		add(doc)
	}

	for _, rename := range renames {
		source := docset.NewIdentity(rename.SourcePath, docset.OriginRedirection)
		if !r.Contains(source) {
			continue
		}

		key := normalizeURLKey(rename.RedirectURL)
		sourceMonikers, err := r.deps.Monikers.Monikers(source)
		if err != nil {
			r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRenameTargetNotFound,
				fmt.Sprintf("cannot resolve monikers for renamed document %s: %v", source.Path, err),
				diagnostics.Location{File: source.Path}))
			continue
		}

		matched := false
		for _, candidate := range byURL[key] {
			candidateMonikers, err := r.deps.Monikers.Monikers(candidate)
			if err != nil {
				continue
			}
			if len(sourceMonikers) == 0 {
				if len(candidateMonikers) != 0 {
					continue
				}
			} else if !sourceMonikers.Intersects(candidateMonikers) {
				continue
			}
			matched = true

			if prior, exists := r.renamedFrom[candidate]; exists {
				if prior != source {
					r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRenameConflict,
						fmt.Sprintf("%s is renamed from both %s and %s; keeping the first", candidate.Path, prior.Path, source.Path),
						diagnostics.Location{File: candidate.Path}))
				}
				continue
			}
			r.renamedFrom[candidate] = source
		}
		if !matched {
			r.deps.Log.Add(diagnostics.Warning(diagnostics.CodeRenameTargetNotFound,
				fmt.Sprintf("rename target %q does not match any document in the build", rename.RedirectURL),
				diagnostics.Location{File: source.Path}))
		}
	}
}

// normalizeURLKey canonicalizes a site URL for candidate grouping: trailing
// "/index" collapses to the directory form and comparison is case-insensitive.
func normalizeURLKey(u string) string {
	u = strings.ToLower(u)
	if strings.HasSuffix(u, "/index") {
		u = strings.TrimSuffix(u, "index")
	}
	return u
}
