package docset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobScope_EmptyIncludesMatchEverything(t *testing.T) {
	s := NewGlobScope(nil, nil)
	require.True(t, s.Contains("docs/a.md"))
	require.True(t, s.Contains("a.md"))
}

func TestGlobScope_DoubleStarSpansDirectories(t *testing.T) {
	s := NewGlobScope([]string{"**/*.md"}, nil)

	require.True(t, s.Contains("a.md"))
	require.True(t, s.Contains("docs/a.md"))
	require.True(t, s.Contains("docs/deep/nested/a.md"))
	require.False(t, s.Contains("docs/a.png"))
}

func TestGlobScope_SingleStarStaysInSegment(t *testing.T) {
	s := NewGlobScope([]string{"docs/*.md"}, nil)

	require.True(t, s.Contains("docs/a.md"))
	require.False(t, s.Contains("docs/sub/a.md"))
	require.False(t, s.Contains("a.md"))
}

func TestGlobScope_ExcludeWinsOverInclude(t *testing.T) {
	s := NewGlobScope([]string{"**/*.md"}, []string{"drafts/**"})

	require.True(t, s.Contains("docs/a.md"))
	require.False(t, s.Contains("drafts/a.md"))
	require.False(t, s.Contains("drafts/deep/a.md"))
}

func TestGlobScope_EscapingPathNeverInScope(t *testing.T) {
	s := NewGlobScope(nil, nil)
	require.False(t, s.Contains("../outside.md"))
}
