package docset

import (
	"path"
	"strings"
)

// ContentType classifies what kind of output a source document produces.
type ContentType string

const (
	ContentPage            ContentType = "page"
	ContentAsset           ContentType = "asset"
	ContentTableOfContents ContentType = "toc"
	ContentRedirection     ContentType = "redirection"
)

// Format identifies the on-disk serialization of a source document.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// FormatOf derives the document format from the file extension.
// Unknown extensions default to Markdown, matching how stray text files are
// treated during discovery.
func FormatOf(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yml", ".yaml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatMarkdown
	}
}

// IsTOC reports whether the path names a table-of-contents document.
func IsTOC(p string) bool {
	base := strings.ToLower(path.Base(p))
	name := strings.TrimSuffix(base, path.Ext(base))
	return name == "toc"
}
