package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/frontmatter"
)

// Engine holds the three prebuilt pipeline configurations: the full document
// pipeline, an inline-only pipeline for short metadata strings, and a
// restricted navigation pipeline for table-of-contents extraction. All three
// are immutable after NewEngine and safe for concurrent use.
type Engine struct {
	full   goldmark.Markdown
	inline goldmark.Markdown
	toc    goldmark.Markdown
}

// NewEngine builds the pipeline configurations. Call once at process start
// and share the instance across workers.
func NewEngine() *Engine {
	e := &Engine{}
	customRenderers := goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{engine: e}, 100)),
		gmhtml.WithUnsafe(),
	)

	e.full = goldmark.New(
		goldmark.WithParserOptions(
			parser.WithBlockParsers(
				util.Prioritized(&includeParser{}, 100),
				util.Prioritized(&monikerZoneParser{}, 110),
			),
			parser.WithInlineParsers(util.Prioritized(&xrefParser{}, 150)),
			parser.WithASTTransformers(util.Prioritized(&linkTransformer{}, 500)),
		),
		customRenderers,
	)

	// Inline-only: a single paragraph block parser, full inline grammar.
	inlineParser := parser.NewParser(
		parser.WithBlockParsers(util.Prioritized(parser.NewParagraphParser(), 100)),
		parser.WithInlineParsers(parser.DefaultInlineParsers()...),
	)
	inlineParser.AddOptions(
		parser.WithInlineParsers(util.Prioritized(&xrefParser{}, 150)),
		parser.WithASTTransformers(util.Prioritized(&linkTransformer{}, 500)),
	)
	e.inline = goldmark.New(goldmark.WithParser(inlineParser), customRenderers)

	// Navigation-only: headings, paragraphs, thematic breaks, raw HTML
	// blocks, and link text. Used for table-of-contents extraction. The
	// heading parser has no depth cap: navigation files express nesting
	// with marker runs longer than six.
	tocParser := parser.NewParser(
		parser.WithBlockParsers(
			util.Prioritized(&tocHeadingParser{}, 100),
			util.Prioritized(parser.NewThematicBreakParser(), 200),
			util.Prioritized(parser.NewHTMLBlockParser(), 300),
			util.Prioritized(parser.NewParagraphParser(), 1000),
		),
		parser.WithInlineParsers(
			util.Prioritized(parser.NewLinkParser(), 100),
			util.Prioritized(&xrefParser{}, 150),
		),
	)
	e.toc = goldmark.New(goldmark.WithParser(tocParser), customRenderers)

	return e
}

// Render runs the full pipeline: parse, resolve links/xrefs/includes/moniker
// zones, render to HTML, and rewrite marker-prefixed hrefs against the
// current document's final site URL. Diagnostics land in bag.
func (e *Engine) Render(doc docset.Identity, source []byte, build *BuildContext, bag *diagnostics.Bag) (string, error) {
	ec := &ExecContext{}
	out, err := e.render(e.full, ec, doc, source, build, bag)
	if err != nil {
		return "", err
	}
	return rewriteMarkedLinks(out, build.siteURL(doc))
}

// RenderInline renders a short metadata string through the inline-only
// pipeline and strips the wrapping paragraph element.
func (e *Engine) RenderInline(doc docset.Identity, source []byte, build *BuildContext, bag *diagnostics.Bag) (string, error) {
	ec := &ExecContext{}
	out, err := e.render(e.inline, ec, doc, source, build, bag)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	// Multi-block input renders as sibling paragraphs; join them so the
	// result stays a single inline fragment.
	out = strings.ReplaceAll(out, "</p>\n<p>", " ")
	return rewriteMarkedLinks(out, build.siteURL(doc))
}

// ParseTOC parses navigation markdown through the restricted pipeline and
// returns the AST together with the body its segments index into. A leading
// front-matter block is consumed before parsing; malformed front matter
// leaves the source untouched. No build context is attached: this is a plain
// parse, no cross-document resolution happens.
func (e *Engine) ParseTOC(doc docset.Identity, source []byte, bag *diagnostics.Bag) (gmast.Node, []byte, error) {
	_, body, _, err := frontmatter.Split(source)
	if err != nil {
		body = source
	}

	ec := &ExecContext{}
	pop := ec.push(frame{doc: doc, bag: bag})
	defer pop()

	pc := parser.NewContext()
	pc.Set(execKey, ec)
	return e.toc.Parser().Parse(text.NewReader(body), parser.WithContext(pc)), body, nil
}

// renderNested re-enters the full pipeline for included content, pushing a
// frame for the included document on the caller's execution stack.
func (e *Engine) renderNested(ec *ExecContext, doc docset.Identity, source []byte) (string, error) {
	fr := ec.current()
	return e.render(e.full, ec, doc, source, fr.build, fr.bag)
}

func (e *Engine) render(md goldmark.Markdown, ec *ExecContext, doc docset.Identity, source []byte, build *BuildContext, bag *diagnostics.Bag) (string, error) {
	pop := ec.push(frame{doc: doc, build: build, bag: bag})
	defer pop()

	pc := parser.NewContext()
	pc.Set(execKey, ec)

	var buf bytes.Buffer
	if err := md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// siteURL returns the current document's final site URL for the marker
// rewrite pass; empty when no registry is attached.
func (b *BuildContext) siteURL(doc docset.Identity) string {
	if b == nil || b.URLs == nil {
		return ""
	}
	return b.URLs.SiteURL(doc)
}
