package markdown

import (
	"bytes"
	"fmt"
	"regexp"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
)

// linkMarker prefixes hrefs that resolved to a document in the build. The
// final URL is only settled after moniker decisions, so resolution inserts
// the marker at parse time and a post-render pass rewrites the href against
// the current document's site URL. The prefix is scheme-shaped so goldmark's
// URL escaping leaves it intact; it must never appear in document content.
const linkMarker = "docset-link://"

// linkTransformer resolves link and image destinations through the build's
// dependency resolver once the block structure of a document is parsed.
type linkTransformer struct{}

func (t *linkTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	ec := execFrom(pc)
	if ec == nil {
		return
	}
	fr := ec.current()
	if fr.build == nil || fr.build.Resolver == nil {
		return
	}
	source := reader.Source()

	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gmast.Link:
			node.Destination = t.resolve(ec, fr, source, n, node.Destination)
		case *gmast.Image:
			node.Destination = t.resolve(ec, fr, source, n, node.Destination)
		}
		return gmast.WalkContinue, nil
	})
}

func (t *linkTransformer) resolve(ec *ExecContext, fr frame, source []byte, n gmast.Node, dest []byte) []byte {
	resolved, target := fr.build.Resolver.ResolveLink(fr.doc, string(dest), locationOf(fr.doc, source, n))
	if target != nil {
		resolved = linkMarker + resolved
	}
	return []byte(resolved)
}

// xrefParser parses <xref:uid> cross-references and resolves them in place.
type xrefParser struct{}

var xrefPrefix = []byte("<xref:")

func (p *xrefParser) Trigger() []byte { return []byte{'<'} }

func (p *xrefParser) Parse(parent gmast.Node, block text.Reader, pc parser.Context) gmast.Node {
	line, seg := block.PeekLine()
	if !bytes.HasPrefix(line, xrefPrefix) {
		return nil
	}
	end := bytes.IndexByte(line, '>')
	if end <= len(xrefPrefix) {
		return nil
	}
	uid := string(line[len(xrefPrefix):end])

	ec := execFrom(pc)
	if ec == nil {
		return nil
	}
	fr := ec.current()
	if fr.build == nil || fr.build.Resolver == nil {
		// Plain parse: keep the reference as an opaque node for later passes.
		block.Advance(end + 1)
		return &xrefNode{UID: uid}
	}

	loc := lineColLocation(fr.doc, block.Source(), seg.Start)
	href, display, declaring := fr.build.Resolver.ResolveXref(fr.doc, uid, loc)
	node := &xrefNode{UID: uid, Href: href, Display: display}
	if declaring != nil && href != "" {
		node.Href = linkMarker + href
	}
	if href == "" {
		ec.report(diagnostics.Warning(diagnostics.CodeXrefNotFound,
			fmt.Sprintf("cannot resolve cross reference %q", uid), loc))
	}
	block.Advance(end + 1)
	return node
}

// includeParser recognizes [!include[title](path)] lines and resolves the
// referenced content at parse time. The nested parse of that content runs at
// render time on the same execution stack.
type includeParser struct{}

var includeRegexp = regexp.MustCompile(`^\[!include\[([^\]]*)\]\(([^)\s]+)\)\]\s*$`)

func (p *includeParser) Trigger() []byte { return []byte{'['} }

func (p *includeParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, seg := reader.PeekLine()
	m := includeRegexp.FindSubmatch(bytes.TrimSpace(line))
	if m == nil {
		return nil, parser.NoChildren
	}
	ec := execFrom(pc)
	if ec == nil {
		return nil, parser.NoChildren
	}
	fr := ec.current()
	if fr.build == nil || fr.build.Resolver == nil {
		return nil, parser.NoChildren
	}

	ref := string(m[2])
	loc := lineColLocation(fr.doc, reader.Source(), seg.Start)
	content, included := fr.build.Resolver.ResolveContent(fr.doc, ref, loc)
	node := &includeNode{Ref: ref, Content: content, Doc: included, exec: ec}
	if included == nil {
		ec.report(diagnostics.Warning(diagnostics.CodeIncludeNotFound,
			fmt.Sprintf("cannot resolve included content %q", ref), loc))
	}

	reader.Advance(seg.Len() - 1)
	return node, parser.NoChildren
}

func (p *includeParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *includeParser) Close(node gmast.Node, reader text.Reader, pc parser.Context) {}

func (p *includeParser) CanInterruptParagraph() bool { return true }

func (p *includeParser) CanAcceptIndentedLine() bool { return false }

// tocHeadingParser parses ATX-style headings without the six-marker depth
// cap. Navigation files use the marker count as the nesting level, so the
// level carries the full run length.
type tocHeadingParser struct{}

func (p *tocHeadingParser) Trigger() []byte { return []byte{'#'} }

func (p *tocHeadingParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, seg := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || line[pos] != '#' {
		return nil, parser.NoChildren
	}

	i := pos
	for i < len(line) && line[i] == '#' {
		i++
	}
	// The marker run must end the line or be followed by whitespace.
	if i < len(line) && line[i] != ' ' && line[i] != '\t' && line[i] != '\n' && line[i] != '\r' {
		return nil, parser.NoChildren
	}

	node := gmast.NewHeading(i - pos)
	start := seg.Start + i + util.TrimLeftSpaceLength(line[i:])
	stop := seg.Stop - util.TrimRightSpaceLength(line)
	if start < stop {
		node.Lines().Append(text.NewSegment(start, stop))
	}
	reader.Advance(seg.Len() - 1)
	return node, parser.NoChildren
}

func (p *tocHeadingParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *tocHeadingParser) Close(node gmast.Node, reader text.Reader, pc parser.Context) {}

func (p *tocHeadingParser) CanInterruptParagraph() bool { return true }

func (p *tocHeadingParser) CanAcceptIndentedLine() bool { return false }

// monikerZoneParser parses ::: moniker range="..." containers and resolves
// the version range through the moniker service at parse time.
type monikerZoneParser struct{}

var (
	zoneOpenRegexp  = regexp.MustCompile(`^:::\s*moniker\s+range="([^"]*)"\s*$`)
	zoneCloseRegexp = regexp.MustCompile(`^:::\s*moniker-end\s*$`)
)

func (p *monikerZoneParser) Trigger() []byte { return []byte{':'} }

func (p *monikerZoneParser) Open(parent gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	line, seg := reader.PeekLine()
	m := zoneOpenRegexp.FindSubmatch(bytes.TrimSpace(line))
	if m == nil {
		return nil, parser.NoChildren
	}

	node := &monikerZoneNode{Range: string(m[1])}
	if ec := execFrom(pc); ec != nil {
		fr := ec.current()
		if fr.build != nil && fr.build.Monikers != nil {
			loc := lineColLocation(fr.doc, reader.Source(), seg.Start)
			monikers, err := fr.build.Monikers.ResolveRange(fr.doc, node.Range)
			if err != nil {
				ec.report(diagnostics.Warning(diagnostics.CodeMonikerRangeInvalid,
					fmt.Sprintf("invalid moniker range %q: %v", node.Range, err), loc))
			} else {
				node.Monikers = monikers
			}
		}
	}

	reader.Advance(seg.Len() - 1)
	return node, parser.HasChildren
}

func (p *monikerZoneParser) Continue(node gmast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, seg := reader.PeekLine()
	if zoneCloseRegexp.Match(bytes.TrimSpace(line)) {
		reader.Advance(seg.Len() - 1)
		return parser.Close
	}
	return parser.Continue | parser.HasChildren
}

func (p *monikerZoneParser) Close(node gmast.Node, reader text.Reader, pc parser.Context) {}

func (p *monikerZoneParser) CanInterruptParagraph() bool { return true }

func (p *monikerZoneParser) CanAcceptIndentedLine() bool { return false }

// locationOf derives a source location for an AST node from its first text
// segment. Nodes without text children report the document only.
func locationOf(doc docset.Identity, source []byte, n gmast.Node) diagnostics.Location {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			return lineColLocation(doc, source, t.Segment.Start)
		}
	}
	return diagnostics.Location{File: doc.Path}
}

// lineColLocation converts a byte offset into a 1-based line/column location.
func lineColLocation(doc docset.Identity, source []byte, offset int) diagnostics.Location {
	if offset > len(source) {
		offset = len(source)
	}
	line, lastNL := 1, -1
	for i := 0; i < offset; i++ {
		if source[i] == '\n' {
			line++
			lastNL = i
		}
	}
	return diagnostics.Location{File: doc.Path, Line: line, Column: offset - lastNL}
}
