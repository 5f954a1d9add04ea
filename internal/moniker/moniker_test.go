package moniker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/util/sets"
)

func testResolver() *RangeResolver {
	return NewRangeResolver(&config.Config{Monikers: []config.Moniker{
		{Name: "v1"}, {Name: "v2"}, {Name: "v3"}, {Name: "v4"},
	}})
}

func TestGroup_EmptySetHasNoGroup(t *testing.T) {
	require.Equal(t, "", Group(sets.New[string]()))
}

func TestGroup_StableAndOrderIndependent(t *testing.T) {
	a := Group(sets.New("v1", "v2"))
	b := Group(sets.New("v2", "v1"))

	require.Equal(t, a, b)
	require.Len(t, a, 12)
	require.NotEqual(t, a, Group(sets.New("v1")))
}

func TestMonikers_UnassignedDocumentIsUnversioned(t *testing.T) {
	r := testResolver()
	got, err := r.Monikers(docset.NewIdentity("a.md", docset.OriginSource))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMonikers_AssignedSetIsReturned(t *testing.T) {
	r := testResolver()
	doc := docset.NewIdentity("a.md", docset.OriginSource)
	r.Assign(doc, "v2", "v3")

	got, err := r.Monikers(doc)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"v2", "v3"}, sets.SortedStrings(got))
}

func TestResolveRange_BareNameMeansEquals(t *testing.T) {
	r := testResolver()
	got, err := r.ResolveRange(docset.Identity{}, "v2")
	require.NoError(t, err)
	require.Equal(t, []string{"v2"}, got)
}

func TestResolveRange_Comparators(t *testing.T) {
	r := testResolver()
	doc := docset.Identity{}

	got, err := r.ResolveRange(doc, ">= v3")
	require.NoError(t, err)
	require.Equal(t, []string{"v3", "v4"}, got)

	got, err = r.ResolveRange(doc, "< v2")
	require.NoError(t, err)
	require.Equal(t, []string{"v1"}, got)

	got, err = r.ResolveRange(doc, "> v1 && <= v3")
	require.NoError(t, err)
	require.Equal(t, []string{"v2", "v3"}, got)
}

func TestResolveRange_DisjunctionUnions(t *testing.T) {
	r := testResolver()
	got, err := r.ResolveRange(docset.Identity{}, "v1 || >= v4")
	require.NoError(t, err)
	require.Equal(t, []string{"v1", "v4"}, got)
}

func TestResolveRange_UnknownMonikerFails(t *testing.T) {
	r := testResolver()
	_, err := r.ResolveRange(docset.Identity{}, ">= v9")
	require.Error(t, err)
}

func TestResolveRange_EmptyExpressionFails(t *testing.T) {
	r := testResolver()
	_, err := r.ResolveRange(docset.Identity{}, "  ")
	require.Error(t, err)
}
