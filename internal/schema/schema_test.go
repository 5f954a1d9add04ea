package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docset/internal/docset"
)

func TestKindOf_YAMLMimeComment(t *testing.T) {
	data := []byte("### YamlMime:LandingPage\ntitle: Hi\n")
	require.Equal(t, "LandingPage", KindOf(docset.FormatYAML, data))
}

func TestKindOf_YAMLWithoutMimeIsKindless(t *testing.T) {
	require.Equal(t, "", KindOf(docset.FormatYAML, []byte("title: Hi\n")))
}

func TestKindOf_JSONKindField(t *testing.T) {
	data := []byte(`{"$kind": "Reference", "title": "Hi"}`)
	require.Equal(t, "Reference", KindOf(docset.FormatJSON, data))
}

func TestKindOf_MarkdownHasNoKind(t *testing.T) {
	require.Equal(t, "", KindOf(docset.FormatMarkdown, []byte("### YamlMime:X\n")))
}

func TestRegistry_GetUnknownKindIsNotFound(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("Widget")

	require.Error(t, err)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "Widget", nf.Kind)
}

func TestRegistry_RegisteredKindResolves(t *testing.T) {
	r := NewRegistry()
	r.Register(&Schema{Kind: "Widget"})

	s, err := r.Get("Widget")
	require.NoError(t, err)
	require.Equal(t, "Widget", s.Kind)
}

func TestParseTree_YAMLAndJSON(t *testing.T) {
	m, err := ParseTree(docset.FormatYAML, []byte("title: Hi\n"))
	require.NoError(t, err)
	require.Equal(t, "Hi", m["title"])

	m, err = ParseTree(docset.FormatJSON, []byte(`{"title": "Hi"}`))
	require.NoError(t, err)
	require.Equal(t, "Hi", m["title"])
}

func TestParseTree_EmptyDocumentYieldsEmptyTree(t *testing.T) {
	m, err := ParseTree(docset.FormatYAML, []byte(""))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, m)
}
