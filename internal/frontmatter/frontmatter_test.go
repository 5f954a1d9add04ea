package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatterReturnsFullBody(t *testing.T) {
	content := []byte("# Heading\n\nBody text.\n")
	fm, body, had, err := Split(content)

	require.NoError(t, err)
	require.False(t, had)
	require.Nil(t, fm)
	require.Equal(t, content, body)
}

func TestSplit_SeparatesFrontmatterAndBody(t *testing.T) {
	content := []byte("---\ntitle: Hello\n---\n# Heading\n")
	fm, body, had, err := Split(content)

	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Hello\n", string(fm))
	require.Equal(t, "# Heading\n", string(body))
}

func TestSplit_CRLFNewlines(t *testing.T) {
	content := []byte("---\r\ntitle: Hello\r\n---\r\nBody\r\n")
	fm, body, had, err := Split(content)

	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, "title: Hello\r\n", string(fm))
	require.Equal(t, "Body\r\n", string(body))
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	content := []byte("---\n---\nBody\n")
	fm, body, had, err := Split(content)

	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, "Body\n", string(body))
}

func TestSplit_MissingClosingDelimiterFails(t *testing.T) {
	_, _, _, err := Split([]byte("---\ntitle: Hello\nBody without close\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
}

func TestParse_EmptyInputYieldsEmptyMap(t *testing.T) {
	fields, err := Parse(nil)
	require.NoError(t, err)
	require.NotNil(t, fields)
	require.Empty(t, fields)
}

func TestParse_FieldsDecode(t *testing.T) {
	fields, err := Parse([]byte("title: Hello\nauthor: dev\n"))
	require.NoError(t, err)
	require.Equal(t, "Hello", fields["title"])
	require.Equal(t, "dev", fields["author"])
}

func TestParse_InvalidYAMLFails(t *testing.T) {
	_, err := Parse([]byte("title: [unclosed"))
	require.Error(t, err)
}
