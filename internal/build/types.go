// Package build orchestrates per-document page builds: load, compute output
// metadata, apply template, publish. Each invocation is self-contained and
// safe to run concurrently across documents.
package build

import (
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/markdown"
)

// Document is one page-build work item.
type Document struct {
	ID     docset.Identity
	Format docset.Format
}

// NewDocument creates a work item for a source-tree path.
func NewDocument(relPath string) Document {
	return Document{
		ID:     docset.NewIdentity(relPath, docset.OriginSource),
		Format: docset.FormatOf(relPath),
	}
}

// InputMetadata is the author-supplied front matter consumed while building
// output metadata. Unrecognized fields stay in the merged metadata map.
type InputMetadata struct {
	Title          string
	BreadcrumbPath string
	TOCRel         string
	Author         string
}

// parseInputMetadata picks the typed fields out of merged metadata.
func parseInputMetadata(fields map[string]any) InputMetadata {
	str := func(key string) string {
		if v, ok := fields[key].(string); ok {
			return v
		}
		return ""
	}
	return InputMetadata{
		Title:          str("title"),
		BreadcrumbPath: str("breadcrumb_path"),
		TOCRel:         str("toc_rel"),
		Author:         str("author"),
	}
}

// OutputMetadata is the derived, per-document record handed to the template
// stage and the publish manifest. Created fresh per build, never mutated
// after creation.
type OutputMetadata struct {
	Monikers                     []string  `json:"monikers"`
	MonikerGroup                 string    `json:"moniker_group,omitempty"`
	CanonicalURL                 string    `json:"canonical_url"`
	DocumentID                   string    `json:"document_id"`
	DocumentVersionIndependentID string    `json:"document_version_independent_id"`
	Breadcrumb                   string    `json:"breadcrumb_path,omitempty"`
	Locale                       string    `json:"locale"`
	TOCRel                       string    `json:"toc_rel,omitempty"`
	SiteName                     string    `json:"site_name,omitempty"`
	Bilingual                    bool      `json:"is_bilingual"`
	Author                       string    `json:"author,omitempty"`
	UpdatedAt                    time.Time `json:"updated_at,omitempty"`
	ContentGitURL                string    `json:"content_git_url,omitempty"`
	OriginalContentGitURL        string    `json:"original_content_git_url,omitempty"`
	SearchProduct                string    `json:"search.product,omitempty"`
	SearchDocsetName             string    `json:"search.docset_name,omitempty"`
	OutputPath                   string    `json:"output_path"`
	CanonicalURLPrefix           string    `json:"canonical_url_prefix"`
	PDFURLTemplate               string    `json:"pdf_url_template,omitempty"`
	Title                        string    `json:"title,omitempty"`
	WordCount                    int64     `json:"word_count,omitempty"`
}

// Map converts the metadata record into the generic object shape the
// template engine consumes.
func (m *OutputMetadata) Map() (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal output metadata: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshal output metadata: %w", err)
	}
	return out, nil
}

// loadResult is the product of the load stage.
type loadResult struct {
	model    map[string]any
	metadata map[string]any
	input    InputMetadata
	stats    markdown.PageStats

	// conceptual marks Markdown-origin pages and landing-page structured
	// documents; they flow through the conceptual template mode.
	conceptual bool

	// landing marks landing-page structured documents (legacy secondary
	// render path).
	landing bool

	// dataPage marks pure data pages: the loaded model is published verbatim
	// with no template application and no metadata sidecar.
	dataPage bool
}

// MetadataProvider merges file-level metadata with docset-wide defaults.
// The external implementation may layer per-directory metadata files; the
// default layers a single global map under the file's own fields.
type MetadataProvider interface {
	Merge(doc docset.Identity, fileMetadata map[string]any) map[string]any
}

// GlobalMetadata is the default MetadataProvider: global fields first, file
// fields override.
type GlobalMetadata struct {
	Global map[string]any
}

// Merge implements MetadataProvider.
func (g GlobalMetadata) Merge(doc docset.Identity, fileMetadata map[string]any) map[string]any {
	out := make(map[string]any, len(g.Global)+len(fileMetadata))
	for k, v := range g.Global {
		out[k] = v
	}
	for k, v := range fileMetadata {
		out[k] = v
	}
	return out
}
