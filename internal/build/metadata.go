package build

import (
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/moniker"
	"git.home.luguber.info/inful/docset/internal/registry"
	"git.home.luguber.info/inful/docset/internal/util/sets"
)

// computeMetadata derives the output metadata record. Each step is
// independent: failures append diagnostics and leave the field empty, they
// never abort the build.
func (b *Builder) computeMetadata(doc Document, load *loadResult, bag *diagnostics.Bag) *OutputMetadata {
	cfg := b.deps.Config
	meta := &OutputMetadata{
		Locale:           cfg.Locale,
		SiteName:         cfg.SiteName,
		Bilingual:        cfg.Bilingual,
		SearchProduct:    cfg.ProductName,
		SearchDocsetName: cfg.DocsetName,
		Title:            load.input.Title,
		WordCount:        load.stats.WordCount,
	}
	if meta.Title == "" {
		meta.Title = load.stats.Title
	}

	// Breadcrumb: resolve the front-matter reference through the link resolver.
	if bc := load.input.BreadcrumbPath; bc != "" {
		resolved, target := b.resolver.ResolveLink(doc.ID, bc, diagnostics.Location{File: doc.ID.Path})
		if target == nil {
			bag.Add(diagnostics.Warning(diagnostics.CodeBreadcrumbNotFound,
				fmt.Sprintf("breadcrumb reference %q does not resolve to a document", bc),
				diagnostics.Location{File: doc.ID.Path}))
		}
		meta.Breadcrumb = resolved
	}

	// Table of contents: explicit override, else derived from the toc map.
	meta.TOCRel = load.input.TOCRel
	if meta.TOCRel == "" {
		meta.TOCRel = b.toc.RelPath(doc.ID)
	}

	meta.CanonicalURL = cfg.SiteURLPrefix() + "/" + registry.SitePath(doc.ID.Path)

	// Monikers and the derived group.
	monikerSet, err := b.deps.Monikers.Monikers(doc.ID)
	if err != nil {
		slog.Debug("Moniker lookup failed", "document", doc.ID.Path, "error", err)
		monikerSet = sets.New[string]()
	}
	meta.Monikers = sets.SortedStrings(monikerSet)
	meta.MonikerGroup = moniker.Group(monikerSet)

	// Document id pair: a known rename target inherits the original
	// document's id through the rename history.
	idSource := b.deps.Redirects.GetOriginalFile(doc.ID)
	meta.DocumentID, meta.DocumentVersionIndependentID = b.deps.Registry.DocumentID(idSource)

	// Contribution data, keyed by the declared author override.
	contrib, err := b.deps.Contribution.Contribution(doc.ID.Path, load.input.Author)
	if err != nil {
		slog.Debug("Contribution lookup failed", "document", doc.ID.Path, "error", err)
	}
	meta.Author = contrib.Author
	meta.UpdatedAt = contrib.UpdatedAt
	meta.ContentGitURL = contrib.ContentGitURL
	meta.OriginalContentGitURL = contrib.OriginalContentGitURL

	meta.OutputPath = outputPathFor(registry.SitePath(doc.ID.Path), cfg.OutputJSON || load.dataPage)
	meta.CanonicalURLPrefix = cfg.SiteURLPrefix() + "/"

	if cfg.PDF {
		base := cfg.PDFBasePath
		if base == "" {
			base = strings.TrimPrefix(cfg.BasePath, "/")
		}
		meta.PDFURLTemplate = fmt.Sprintf("https://%s/pdfstore/%s/%s/{branchName}{pdfName}",
			cfg.HostName, cfg.Locale, base)
	}

	return meta
}

// outputPathFor maps a site path to its output-relative file path.
func outputPathFor(sitePath string, jsonOutput bool) string {
	p := sitePath
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	if jsonOutput {
		return p + ".raw.page.json"
	}
	return p + ".html"
}
