package markdown

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
)

// fakeResolver resolves links, xrefs, and includes from fixed tables.
type fakeResolver struct {
	links   map[string]string
	xrefs   map[string]string
	content map[string]string
}

func (f *fakeResolver) ResolveLink(doc docset.Identity, href string, loc diagnostics.Location) (string, *docset.Identity) {
	if resolved, ok := f.links[href]; ok {
		target := docset.NewIdentity(href, docset.OriginSource)
		return resolved, &target
	}
	return href, nil
}

func (f *fakeResolver) ResolveXref(doc docset.Identity, uid string, loc diagnostics.Location) (string, string, *docset.Identity) {
	if href, ok := f.xrefs[uid]; ok {
		declaring := docset.NewIdentity(uid+".md", docset.OriginSource)
		return href, uid, &declaring
	}
	return "", "", nil
}

func (f *fakeResolver) ResolveContent(doc docset.Identity, href string, loc diagnostics.Location) ([]byte, *docset.Identity) {
	if content, ok := f.content[href]; ok {
		included := docset.NewIdentity(href, docset.OriginSource)
		return []byte(content), &included
	}
	return nil, nil
}

// fakeRanger resolves every range to its fixed list; an empty list is an error.
type fakeRanger struct {
	monikers []string
}

func (f fakeRanger) ResolveRange(doc docset.Identity, rangeExpr string) ([]string, error) {
	if len(f.monikers) == 0 {
		return nil, fmt.Errorf("unknown moniker in range %q", rangeExpr)
	}
	return f.monikers, nil
}

// fakeURLs maps a document path to a site URL by dropping the extension.
type fakeURLs struct{}

func (fakeURLs) SiteURL(doc docset.Identity) string {
	return "/docs/" + strings.TrimSuffix(doc.Path, ".md")
}

func testBuild(r *fakeResolver, monikers ...string) *BuildContext {
	return &BuildContext{Resolver: r, Monikers: fakeRanger{monikers: monikers}, URLs: fakeURLs{}}
}

func TestRender_ResolvedLinkRewrittenWithoutMarker(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{links: map[string]string{"b.md": "/docs/new-b"}})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("See [the other page](b.md)."), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, `href="/docs/new-b"`)
	require.NotContains(t, out, linkMarker)
	require.Equal(t, 0, bag.Len())
}

func TestRender_UnresolvedLinkPassesThrough(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("[external](https://example.org/page)"), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, `href="https://example.org/page"`)
}

func TestRender_ImageDestinationResolved(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{links: map[string]string{"img/logo.png": "/docs/img/logo.png"}})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("![logo](img/logo.png)"), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, `src="/docs/img/logo.png"`)
	require.NotContains(t, out, linkMarker)
}

func TestRender_XrefResolvesToAnchor(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{xrefs: map[string]string{"System.String": "/docs/system-string"}})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("See <xref:System.String> for details."), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, `href="/docs/system-string"`)
	require.Contains(t, out, ">System.String</a>")
	require.NotContains(t, out, linkMarker)
	require.Equal(t, 0, bag.Len())
}

func TestRender_UnknownXrefKeepsLiteralAndWarns(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("See <xref:Missing.Type> for details."), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, "&lt;xref:Missing.Type&gt;")
	require.Equal(t, 1, bag.Len())
	require.Equal(t, diagnostics.CodeXrefNotFound, bag.Items()[0].Code)
}

func TestRender_IncludeInjectsRenderedContent(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{content: map[string]string{"shared/note.md": "A *shared* note."}})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("Before.\n\n[!include[note](shared/note.md)]\n\nAfter.\n"), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, "<em>shared</em>")
	require.Contains(t, out, "Before.")
	require.Contains(t, out, "After.")
	require.Equal(t, 0, bag.Len())
}

func TestRender_NestedIncludesReenterOnSameStack(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{content: map[string]string{
		"outer.md": "Outer start.\n\n[!include[inner](inner.md)]\n",
		"inner.md": "Innermost `code`.",
	}})
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("[!include[outer](outer.md)]\n"), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, "Outer start.")
	require.Contains(t, out, "<code>code</code>")
}

func TestRender_MissingIncludeWarns(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	_, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("[!include[gone](absent.md)]\n"), build, bag)

	require.NoError(t, err)
	require.Equal(t, 1, bag.Len())
	require.Equal(t, diagnostics.CodeIncludeNotFound, bag.Items()[0].Code)
}

func TestRender_MonikerZoneCarriesResolvedLabels(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{}, "v2", "v3")
	bag := &diagnostics.Bag{}

	out, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("::: moniker range=\">= v2\"\nVersioned content.\n::: moniker-end\n"), build, bag)

	require.NoError(t, err)
	require.Contains(t, out, `data-moniker="v2 v3"`)
	require.Contains(t, out, "Versioned content.")
	require.Contains(t, out, "</div>")
	require.Equal(t, 0, bag.Len())
}

func TestRender_InvalidMonikerRangeWarns(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	_, err := e.Render(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("::: moniker range=\">= v9\"\nContent.\n::: moniker-end\n"), build, bag)

	require.NoError(t, err)
	require.Equal(t, 1, bag.Len())
	require.Equal(t, diagnostics.CodeMonikerRangeInvalid, bag.Items()[0].Code)
}

func TestRenderInline_StripsWrappingParagraph(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	out, err := e.RenderInline(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("A *short* summary."), build, bag)

	require.NoError(t, err)
	require.Equal(t, "A <em>short</em> summary.", out)
}

func TestRenderInline_MultiParagraphInputJoinsToOneFragment(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{})
	bag := &diagnostics.Bag{}

	out, err := e.RenderInline(docset.NewIdentity("a.md", docset.OriginSource),
		[]byte("First part.\n\nSecond *part*."), build, bag)

	require.NoError(t, err)
	require.Equal(t, "First part. Second <em>part</em>.", out)
	require.NotContains(t, out, "<p>")
	require.NotContains(t, out, "</p>")
}

func countHeadings(root gmast.Node) []int {
	var levels []int
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering {
			if h, ok := n.(*gmast.Heading); ok {
				levels = append(levels, h.Level)
			}
		}
		return gmast.WalkContinue, nil
	})
	return levels
}

func TestParseTOC_ReturnsHeadingAST(t *testing.T) {
	e := NewEngine()
	bag := &diagnostics.Bag{}

	root, _, err := e.ParseTOC(docset.NewIdentity("toc.md", docset.OriginSource),
		[]byte("# Guide\n\n[Intro](intro.md)\n"), bag)

	require.NoError(t, err)
	require.Equal(t, []int{1}, countHeadings(root))
}

func TestParseTOC_MarkerDepthIsUnlimited(t *testing.T) {
	e := NewEngine()
	bag := &diagnostics.Bag{}

	root, body, err := e.ParseTOC(docset.NewIdentity("toc.md", docset.OriginSource),
		[]byte("####### Deep Entry\n"), bag)

	require.NoError(t, err)
	require.Equal(t, []int{7}, countHeadings(root))
	require.Contains(t, string(body), "Deep Entry")
}

func TestParseTOC_FrontMatterConsumedBeforeParse(t *testing.T) {
	e := NewEngine()
	bag := &diagnostics.Bag{}

	root, body, err := e.ParseTOC(docset.NewIdentity("toc.md", docset.OriginSource),
		[]byte("---\ntitle: Navigation\n---\n# Guide\n"), bag)

	require.NoError(t, err)
	require.Equal(t, []int{1}, countHeadings(root))
	require.NotContains(t, string(body), "title: Navigation")

	// The delimiters must not survive as thematic breaks.
	var breaks int
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if entering && n.Kind() == gmast.KindThematicBreak {
			breaks++
		}
		return gmast.WalkContinue, nil
	})
	require.Equal(t, 0, breaks)
}

func TestRender_ConcurrentDocumentsShareOneEngine(t *testing.T) {
	e := NewEngine()
	build := testBuild(&fakeResolver{content: map[string]string{"shared.md": "Shared *body*."}})

	var wg sync.WaitGroup
	errs := make([]error, 16)
	outs := make([]string, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bag := &diagnostics.Bag{}
			doc := docset.NewIdentity(fmt.Sprintf("doc-%d.md", i), docset.OriginSource)
			outs[i], errs[i] = e.Render(doc,
				[]byte("# Title\n\n[!include[s](shared.md)]\n"), build, bag)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 16; i++ {
		require.NoError(t, errs[i])
		require.Contains(t, outs[i], "<em>body</em>")
	}
}
