package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/docset"
)

func testConfig() *config.Config {
	cfg := &config.Config{HostName: "docs.example.com", BasePath: "/widgets"}
	cfg.Normalize()
	return cfg
}

func TestSitePath_DropsExtension(t *testing.T) {
	require.Equal(t, "docs/guide", SitePath("docs/guide.md"))
	require.Equal(t, "docs/guide", SitePath("docs/guide.yml"))
	require.Equal(t, "guide", SitePath("guide.md"))
}

func TestSitePath_IndexAndReadmeCollapseToDirectory(t *testing.T) {
	require.Equal(t, "docs/", SitePath("docs/index.md"))
	require.Equal(t, "docs/", SitePath("docs/README.md"))
	require.Equal(t, "", SitePath("index.md"))
	require.Equal(t, "", SitePath("readme.md"))
}

func TestSiteURL_PrependsBasePath(t *testing.T) {
	reg := NewDocset(testConfig())
	doc := docset.NewIdentity("docs/guide.md", docset.OriginSource)
	require.Equal(t, "/widgets/docs/guide", reg.SiteURL(doc))
}

func TestContentType_Classification(t *testing.T) {
	reg := NewDocset(testConfig())

	require.Equal(t, docset.ContentPage, reg.ContentType(docset.NewIdentity("a.md", docset.OriginSource)))
	require.Equal(t, docset.ContentPage, reg.ContentType(docset.NewIdentity("a.yml", docset.OriginSource)))
	require.Equal(t, docset.ContentAsset, reg.ContentType(docset.NewIdentity("img/logo.png", docset.OriginSource)))
	require.Equal(t, docset.ContentTableOfContents, reg.ContentType(docset.NewIdentity("docs/toc.yml", docset.OriginSource)))
}

func TestContentType_MarkRedirectedOverridesClassification(t *testing.T) {
	reg := NewDocset(testConfig())
	doc := docset.NewIdentity("a.md", docset.OriginRedirection)

	require.Equal(t, docset.ContentPage, reg.ContentType(doc))
	reg.MarkRedirected(doc)
	require.Equal(t, docset.ContentRedirection, reg.ContentType(doc))
}

func TestDocumentID_StableAndBasePathSensitive(t *testing.T) {
	reg := NewDocset(testConfig())
	doc := docset.NewIdentity("docs/guide.md", docset.OriginSource)

	id1, viid1 := reg.DocumentID(doc)
	id2, viid2 := reg.DocumentID(doc)
	require.Equal(t, id1, id2)
	require.Equal(t, viid1, viid2)
	require.NotEqual(t, id1, viid1)

	// A relocated docset keeps the version-independent id but not the id.
	otherBase := &config.Config{HostName: "docs.example.com", BasePath: "/gadgets"}
	otherBase.Normalize()
	id3, viid3 := NewDocset(otherBase).DocumentID(doc)
	require.NotEqual(t, id1, id3)
	require.Equal(t, viid1, viid3)
}

func TestDocumentID_RenamedFileKeepingURLKeepsID(t *testing.T) {
	reg := NewDocset(testConfig())

	// index.md and readme.md publish to the same URL, so they share ids.
	idA, viidA := reg.DocumentID(docset.NewIdentity("docs/index.md", docset.OriginSource))
	idB, viidB := reg.DocumentID(docset.NewIdentity("docs/readme.md", docset.OriginSource))
	require.Equal(t, idA, idB)
	require.Equal(t, viidA, viidB)
}
