package build

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/frontmatter"
	"git.home.luguber.info/inful/docset/internal/markdown"
	"git.home.luguber.info/inful/docset/internal/schema"
)

// conflictMarkers are the version-control merge markers that indicate an
// unresolved merge in source content.
var conflictMarkers = [][]byte{
	[]byte("<<<<<<<"),
	[]byte(">>>>>>>"),
}

// loadMarkdown reads, renders, and post-processes a Markdown document.
func (b *Builder) loadMarkdown(ctx context.Context, doc Document, bag *diagnostics.Bag) (*loadResult, error) {
	data, err := b.readSource(doc)
	if err != nil {
		return nil, err
	}

	if line := findConflictMarker(data); line > 0 {
		bag.Add(diagnostics.Warning(diagnostics.CodeMergeConflictMarker,
			"file contains unresolved merge conflict markers",
			diagnostics.Location{File: doc.ID.Path, Line: line, Column: 1}))
	}

	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		// Malformed front matter: treat the whole file as body.
		body = data
		fm = nil
	}
	fields, err := frontmatter.Parse(fm)
	if err != nil {
		return nil, fmt.Errorf("parse front matter of %s: %w", doc.ID.Path, err)
	}

	html, err := b.deps.Engine.Render(doc.ID, body, b.buildCtx, bag)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", doc.ID.Path, err)
	}

	stats, err := markdown.Analyze(html)
	if err != nil {
		return nil, fmt.Errorf("post-process %s: %w", doc.ID.Path, err)
	}
	if !stats.TitleFound {
		bag.Add(diagnostics.Warning(diagnostics.CodeHeadingNotFound,
			"document has no title heading", diagnostics.Location{File: doc.ID.Path}))
	}

	metadata := b.deps.Metadata.Merge(doc.ID, fields)
	return &loadResult{
		model: map[string]any{
			"conceptual": html,
			"word_count": stats.WordCount,
			"bookmarks":  stats.Bookmarks,
		},
		metadata:   metadata,
		input:      parseInputMetadata(metadata),
		stats:      stats,
		conceptual: true,
	}, nil
}

// loadStructured parses, validates, and transforms a YAML/JSON document. A
// missing schema for the declared kind is fatal for this document only.
func (b *Builder) loadStructured(ctx context.Context, doc Document, bag *diagnostics.Bag) (*loadResult, error) {
	data, err := b.readSource(doc)
	if err != nil {
		return nil, err
	}

	kind := schema.KindOf(doc.Format, data)
	if kind == "" {
		// Kind-less structured files are pure data pages: published verbatim.
		model, err := schema.ParseTree(doc.Format, data)
		if err != nil {
			return nil, err
		}
		return &loadResult{model: model, metadata: map[string]any{}, dataPage: true}, nil
	}

	sch, err := b.deps.Schemas.Get(kind)
	if err != nil {
		bag.Add(diagnostics.Error(diagnostics.CodeSchemaNotFound,
			err.Error(), diagnostics.Location{File: doc.ID.Path}))
		return nil, fmt.Errorf("load %s: %w", doc.ID.Path, err)
	}

	model, err := schema.ParseTree(doc.Format, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", doc.ID.Path, err)
	}

	if sch.Validate != nil {
		for _, d := range sch.Validate(doc.ID, model) {
			bag.Add(d)
		}
	}
	if sch.Transform != nil {
		model, err = sch.Transform(doc.ID, model)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", doc.ID.Path, err)
		}
	}

	fields, _ := model["metadata"].(map[string]any)
	metadata := b.deps.Metadata.Merge(doc.ID, fields)

	result := &loadResult{
		model:    model,
		metadata: metadata,
		input:    parseInputMetadata(metadata),
		landing:  sch.LandingPage,
	}

	// Landing pages are conceptual: in legacy-compatibility mode they render
	// through the secondary HTML path and fold extension fields into metadata.
	if sch.LandingPage {
		result.conceptual = true
		if b.deps.Config.LegacyOutput {
			if err := b.renderLandingLegacy(doc, result, bag); err != nil {
				return nil, err
			}
		}
	}
	return result, nil
}

// renderLandingLegacy renders the landing page's summary fields through the
// inline markdown pipeline and merges the results into the model.
func (b *Builder) renderLandingLegacy(doc Document, result *loadResult, bag *diagnostics.Bag) error {
	for _, field := range []string{"summary", "description"} {
		raw, ok := result.model[field].(string)
		if !ok || raw == "" {
			continue
		}
		html, err := b.deps.Engine.RenderInline(doc.ID, []byte(raw), b.buildCtx, bag)
		if err != nil {
			return fmt.Errorf("render landing field %s of %s: %w", field, doc.ID.Path, err)
		}
		result.model[field] = html
	}
	result.metadata["layout"] = "LandingPage"
	return nil
}

func (b *Builder) readSource(doc Document) ([]byte, error) {
	full := filepath.Join(b.deps.Root, filepath.FromSlash(doc.ID.Path))
	data, err := os.ReadFile(full) // #nosec G304 -- confined to the docset root
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", doc.ID.Path, err)
	}
	return data, nil
}

// findConflictMarker returns the 1-based line of the first merge-conflict
// marker at line start, or 0 when none exists.
func findConflictMarker(data []byte) int {
	line := 1
	for _, raw := range bytes.Split(data, []byte("\n")) {
		for _, marker := range conflictMarkers {
			if bytes.HasPrefix(raw, marker) {
				return line
			}
		}
		line++
	}
	return 0
}
