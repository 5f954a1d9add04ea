package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyze_CountsWordsAndFindsTitle(t *testing.T) {
	stats, err := Analyze(`<h1>Getting Started</h1><p>Three more words.</p>`)

	require.NoError(t, err)
	require.True(t, stats.TitleFound)
	require.Equal(t, "Getting Started", stats.Title)
	require.Equal(t, int64(5), stats.WordCount)
}

func TestAnalyze_NoHeadingMeansNoTitle(t *testing.T) {
	stats, err := Analyze(`<p>Body only.</p>`)

	require.NoError(t, err)
	require.False(t, stats.TitleFound)
	require.Equal(t, "", stats.Title)
}

func TestAnalyze_FirstH1Wins(t *testing.T) {
	stats, err := Analyze(`<h1>First</h1><h1>Second</h1>`)

	require.NoError(t, err)
	require.Equal(t, "First", stats.Title)
}

func TestAnalyze_CollectsBookmarkIDs(t *testing.T) {
	stats, err := Analyze(`<h2 id="setup">Setup</h2><p id="note">n</p><p>plain</p>`)

	require.NoError(t, err)
	require.Equal(t, []string{"setup", "note"}, stats.Bookmarks)
}

func TestAnalyze_ScriptAndStyleTextNotCounted(t *testing.T) {
	stats, err := Analyze(`<p>two words</p><script>var ignored = true;</script>`)

	require.NoError(t, err)
	require.Equal(t, int64(2), stats.WordCount)
}
