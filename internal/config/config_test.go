package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docset.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
host_name: https://docs.example.com/
base_path: widgets/
site_name: Example Docs
monikers:
  - name: v1
  - name: v2
files:
  - "**/*.md"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docs.example.com", cfg.HostName)
	require.Equal(t, "/widgets", cfg.BasePath)
	require.Equal(t, "en-us", cfg.Locale)
	require.Len(t, cfg.Monikers, 2)
	require.Equal(t, []string{"**/*.md"}, cfg.Files)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestNormalize_BasePathForms(t *testing.T) {
	for raw, want := range map[string]string{
		"":          "",
		"/":         "",
		"widgets":   "/widgets",
		"/widgets/": "/widgets",
	} {
		c := Config{BasePath: raw}
		c.Normalize()
		require.Equal(t, want, c.BasePath, "base path %q", raw)
	}
}

func TestSiteURLPrefix_Forms(t *testing.T) {
	c := Config{HostName: "docs.example.com", BasePath: "/widgets"}
	require.Equal(t, "https://docs.example.com/widgets", c.SiteURLPrefix())

	c = Config{BasePath: "/widgets"}
	require.Equal(t, "/widgets", c.SiteURLPrefix())
}
