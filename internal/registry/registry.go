// Package registry maps document identities to their canonical site URLs,
// content types, and stable document ids.
package registry

import (
	"path"
	"strings"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/docset"
)

// Registry answers identity-level questions for documents known to the
// build. Implementations must be safe for concurrent reads once constructed.
type Registry interface {
	// SiteURL returns the canonical site-absolute URL for a document,
	// e.g. "/widgets/getting-started".
	SiteURL(doc docset.Identity) string

	// ContentType classifies the document's output.
	ContentType(doc docset.Identity) docset.ContentType

	// DocumentID returns the stable id and version-independent id pair.
	DocumentID(doc docset.Identity) (id string, versionIndependentID string)
}

// idNamespace seeds stable document ids; fixed across builds.
var idNamespace = uuid.MustParse("6f1cc8e0-84a2-5a8f-9a6b-2d6c3f1e4b7a")

// Docset is the default Registry backed by the build scope and the site
// configuration. Redirected documents are reported as ContentRedirection
// once the redirect map is installed.
type Docset struct {
	cfg        *config.Config
	redirected map[docset.Identity]bool
}

// NewDocset creates a registry for the configured docset.
func NewDocset(cfg *config.Config) *Docset {
	return &Docset{cfg: cfg, redirected: make(map[docset.Identity]bool)}
}

// MarkRedirected records that doc resolves to a redirect rather than built
// content. Called during redirect-map construction, before parallel builds.
func (d *Docset) MarkRedirected(doc docset.Identity) {
	d.redirected[doc] = true
}

// SiteURL implements Registry.
func (d *Docset) SiteURL(doc docset.Identity) string {
	return d.cfg.BasePath + "/" + SitePath(doc.Path)
}

// ContentType implements Registry.
func (d *Docset) ContentType(doc docset.Identity) docset.ContentType {
	if d.redirected[doc] {
		return docset.ContentRedirection
	}
	if docset.IsTOC(doc.Path) {
		return docset.ContentTableOfContents
	}
	switch strings.ToLower(path.Ext(doc.Path)) {
	case ".md", ".markdown", ".yml", ".yaml", ".json":
		return docset.ContentPage
	default:
		return docset.ContentAsset
	}
}

// DocumentID implements Registry. The id hashes the site URL so renamed
// documents that keep their URL keep their id; the version-independent id
// additionally drops the base path so the same page shares an id across
// docset relocations.
func (d *Docset) DocumentID(doc docset.Identity) (string, string) {
	sitePath := SitePath(doc.Path)
	id := uuid.NewSHA1(idNamespace, []byte(d.cfg.BasePath+"/"+sitePath)).String()
	viid := uuid.NewSHA1(idNamespace, []byte(sitePath)).String()
	return id, viid
}

// SitePath converts a root-relative file path into its site path: the
// extension is dropped and index/readme files collapse to their directory.
func SitePath(relPath string) string {
	p := docset.NormalizePath(relPath)
	ext := path.Ext(p)
	p = strings.TrimSuffix(p, ext)

	base := strings.ToLower(path.Base(p))
	if base == "index" || base == "readme" {
		dir := path.Dir(p)
		if dir == "." {
			return ""
		}
		return dir + "/"
	}
	return p
}
