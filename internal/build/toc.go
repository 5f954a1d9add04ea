package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/publish"
)

// tocIndex maps directories to their table-of-contents document. Built once
// from the build scope; read-only afterwards.
type tocIndex struct {
	dirs map[string]bool
}

func newTOCIndex(files []docset.Identity) *tocIndex {
	t := &tocIndex{dirs: make(map[string]bool)}
	for _, f := range files {
		if docset.IsTOC(f.Path) {
			dir := path.Dir(f.Path)
			if dir == "." {
				dir = ""
			}
			t.dirs[dir] = true
		}
	}
	return t
}

// RelPath returns the output-relative path from doc to its nearest toc,
// searching the document's directory and every ancestor. Empty when the
// docset has no toc.
func (t *tocIndex) RelPath(doc docset.Identity) string {
	dir := path.Dir(doc.Path)
	if dir == "." {
		dir = ""
	}

	up := 0
	for {
		if t.dirs[dir] {
			return strings.Repeat("../", up) + "toc.json"
		}
		if dir == "" {
			return ""
		}
		parent := path.Dir(dir)
		if parent == "." {
			parent = ""
		}
		dir = parent
		up++
	}
}

// tocEntry is one navigation node in the published toc.json document.
type tocEntry struct {
	Name  string     `json:"name" yaml:"name"`
	Href  string     `json:"href,omitempty" yaml:"href"`
	Items []tocEntry `json:"items,omitempty" yaml:"items"`
}

// buildTOC parses a table-of-contents document and publishes the navigation
// tree as toc.json in the source file's output directory, where pages point
// their toc_rel metadata.
func (b *Builder) buildTOC(ctx context.Context, doc Document, bag *diagnostics.Bag) error {
	data, err := b.readSource(doc)
	if err != nil {
		return err
	}

	var entries []tocEntry
	switch doc.Format {
	case docset.FormatMarkdown:
		entries, err = b.parseTOCMarkdown(doc, data, bag)
	default:
		entries, err = parseTOCStructured(doc.Format, data)
	}
	if err != nil {
		return fmt.Errorf("parse toc %s: %w", doc.ID.Path, err)
	}
	b.resolveTOCHrefs(doc, entries)

	outputPath := tocOutputPath(doc.ID.Path)
	item := publish.Item{
		URL:        b.deps.Registry.SiteURL(doc.ID),
		OutputPath: outputPath,
		SourcePath: doc.ID.Path,
		Locale:     b.deps.Config.Locale,
	}
	if err := b.deps.Publish.Register(item); err != nil {
		slog.Debug("Publish registration rejected", "document", doc.ID.Path, "error", err)
		return nil
	}
	return b.deps.Publish.WriteJSON(outputPath, map[string]any{"items": entries})
}

// parseTOCMarkdown converts the navigation-pipeline AST into the entry tree.
// The heading marker count is the nesting level; a heading whose text is a
// link contributes that link's target.
func (b *Builder) parseTOCMarkdown(doc Document, data []byte, bag *diagnostics.Bag) ([]tocEntry, error) {
	root, body, err := b.deps.Engine.ParseTOC(doc.ID, data, bag)
	if err != nil {
		return nil, err
	}

	var top []tocEntry
	stack := []*[]tocEntry{&top}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*gmast.Heading)
		if !ok {
			continue
		}
		entry := tocEntry{Name: string(nodeText(heading, body))}
		if link := firstLink(heading); link != nil {
			entry.Name = string(nodeText(link, body))
			entry.Href = string(link.Destination)
		}

		// Levels that skip ahead clamp to the deepest open entry.
		depth := heading.Level
		if depth > len(stack) {
			depth = len(stack)
		}
		stack = stack[:depth]
		siblings := stack[depth-1]
		*siblings = append(*siblings, entry)
		stack = append(stack, &(*siblings)[len(*siblings)-1].Items)
	}
	return top, nil
}

// parseTOCStructured reads a structured toc document: either a bare entry
// array or an object wrapping the array under "items".
func parseTOCStructured(format docset.Format, data []byte) ([]tocEntry, error) {
	unmarshal := yaml.Unmarshal
	if format == docset.FormatJSON {
		unmarshal = json.Unmarshal
	}

	var entries []tocEntry
	if err := unmarshal(data, &entries); err == nil {
		return entries, nil
	}
	var wrapper struct {
		Items []tocEntry `json:"items" yaml:"items"`
	}
	if err := unmarshal(data, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Items, nil
}

// resolveTOCHrefs rewrites document-relative entry targets to site URLs,
// recursing through nested items. References that do not resolve to a build
// document keep their raw value.
func (b *Builder) resolveTOCHrefs(doc Document, entries []tocEntry) {
	for i := range entries {
		if entries[i].Href != "" {
			resolved, target := b.resolver.ResolveLink(doc.ID, entries[i].Href,
				diagnostics.Location{File: doc.ID.Path})
			if target != nil {
				entries[i].Href = resolved
			}
		}
		b.resolveTOCHrefs(doc, entries[i].Items)
	}
}

// tocOutputPath maps a toc source path to its fixed output location.
func tocOutputPath(relPath string) string {
	dir := path.Dir(relPath)
	if dir == "." {
		return "toc.json"
	}
	return dir + "/toc.json"
}

// nodeText concatenates the text segments under a node.
func nodeText(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*gmast.Text); ok {
				buf.Write(t.Segment.Value(source))
			}
		}
		return gmast.WalkContinue, nil
	})
	return buf.Bytes()
}

func firstLink(n gmast.Node) *gmast.Link {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if link, ok := c.(*gmast.Link); ok {
			return link
		}
	}
	return nil
}
