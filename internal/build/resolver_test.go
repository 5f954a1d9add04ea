package build

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/markdown"
	"git.home.luguber.info/inful/docset/internal/moniker"
	"git.home.luguber.info/inful/docset/internal/publish"
	"git.home.luguber.info/inful/docset/internal/redirect"
	"git.home.luguber.info/inful/docset/internal/registry"
)

// builderWithRedirects wires a builder whose redirect resolver carries the
// given declaration items.
func (e *env) builderWithRedirects(items []redirect.Item) *Builder {
	e.t.Helper()
	scope := docset.NewGlobScope(nil, nil)
	reg := registry.NewDocset(e.cfg)
	mon := moniker.NewRangeResolver(e.cfg)
	redirects := redirect.NewResolver(items, redirect.Deps{
		HostName:   e.cfg.HostName,
		Scope:      scope,
		Registry:   reg,
		Monikers:   mon,
		ScopeFiles: e.files,
		Log:        e.log,
	})
	e.publish = publish.NewModel(e.out)
	return NewBuilder(Deps{
		Config:     e.cfg,
		Root:       e.root,
		Engine:     markdown.NewEngine(),
		Redirects:  redirects,
		Monikers:   mon,
		Registry:   reg,
		Scope:      scope,
		ScopeFiles: e.files,
		Schemas:    e.schemas,
		Publish:    e.publish,
		Log:        e.log,
	})
}

func TestBuildPage_LinkToRedirectedDocumentUsesRedirectTarget(t *testing.T) {
	e := newEnv(t)
	doc := e.write("a.md", "# A\n\nSee [the moved page](b.md#details).\n")
	b := e.builderWithRedirects([]redirect.Item{
		{SourcePath: "b.md", RedirectURL: "/new-b"},
	})

	bag, err := b.BuildPage(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, 0, bag.Len())

	out := string(e.readOutput("a.html"))
	require.Contains(t, out, `href="/new-b#details"`)
	require.NotContains(t, out, "docset-link")
}

func TestBuildPage_LinkToScopeDocumentUsesSiteURL(t *testing.T) {
	e := newEnv(t)
	e.write("docs/c.md", "# C\n")
	doc := e.write("docs/a.md", "[c](c.md)\n")
	b := e.builder()

	_, err := b.BuildPage(context.Background(), doc)
	require.NoError(t, err)

	out := string(e.readOutput("docs/a.html"))
	require.Contains(t, out, `href="/widgets/docs/c"`)
}

func TestBuildPage_IncludedContentRendersInHostPage(t *testing.T) {
	e := newEnv(t)
	e.write("shared/note.md", "---\nauthor: ignored\n---\nA *shared* note.\n")
	doc := e.write("a.md", "# A\n\n[!include[note](shared/note.md)]\n")
	b := e.builder()

	bag, err := b.BuildPage(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, 0, bag.Len())

	out := string(e.readOutput("a.html"))
	// The include body renders; its front matter does not leak into output.
	require.Contains(t, out, "<em>shared</em>")
	require.NotContains(t, out, "ignored")
}

func TestDependencyResolver_PathForms(t *testing.T) {
	r := &dependencyResolver{
		scope:    docset.NewGlobScope(nil, nil),
		registry: registry.NewDocset(testCfg()),
		redirects: redirect.NewResolver(nil, redirect.Deps{
			Scope:    docset.NewGlobScope(nil, nil),
			Registry: registry.NewDocset(testCfg()),
			Monikers: moniker.NewRangeResolver(testCfg()),
			Log:      diagnostics.NewLog(),
		}),
	}
	doc := docset.NewIdentity("docs/a.md", docset.OriginSource)
	loc := diagnostics.Location{File: doc.Path}

	// Root-relative addressing.
	resolved, target := r.ResolveLink(doc, "~/other/b.md", loc)
	require.NotNil(t, target)
	require.Equal(t, "/widgets/other/b", resolved)

	// Sibling-relative addressing.
	resolved, target = r.ResolveLink(doc, "b.md", loc)
	require.NotNil(t, target)
	require.Equal(t, "/widgets/docs/b", resolved)

	// External, fragment-only, site-absolute, and escaping targets pass through.
	for _, href := range []string{
		"https://example.org/x",
		"#section",
		"/widgets/published",
		"../../outside.md",
		"mailto:a@b.c",
	} {
		resolved, target = r.ResolveLink(doc, href, loc)
		require.Nil(t, target, "href %q", href)
		require.Equal(t, href, resolved)
	}
}

func testCfg() *config.Config {
	cfg := &config.Config{HostName: "docs.example.com", BasePath: "/widgets"}
	cfg.Normalize()
	return cfg
}
