// Package redirect resolves declarative URL redirects and identity-preserving
// renames for a docset. The resolver is constructed once, before any parallel
// page builds, and is read-only afterwards.
package redirect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docset/internal/docset"
)

// Item is one declarative redirect rule. RedirectDocumentID marks a rename:
// the target document inherits the source's stable id and history.
type Item struct {
	SourcePath         string `yaml:"source_path" json:"source_path"`
	RedirectURL        string `yaml:"redirect_url" json:"redirect_url"`
	RedirectDocumentID bool   `yaml:"redirect_document_id,omitempty" json:"redirect_document_id,omitempty"`
}

// declarationFile is the on-disk shape of a redirect declaration. Both lists
// accept an array of items or an object keyed source→target.
type declarationFile struct {
	Redirections       ruleList `yaml:"redirections" json:"redirections"`
	RedirectionsWithID ruleList `yaml:"redirections_with_id" json:"redirections_with_id"`
}

// ruleList unmarshals either declaration form into a flat item list.
// Object-form expansion order follows document order of the keys.
type ruleList []Item

func (r *ruleList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var items []Item
		if err := value.Decode(&items); err != nil {
			return err
		}
		*r = items
		return nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			*r = append(*r, Item{
				SourcePath:  value.Content[i].Value,
				RedirectURL: value.Content[i+1].Value,
			})
		}
		return nil
	default:
		return fmt.Errorf("redirections must be a sequence or a mapping, got %v", value.Kind)
	}
}

func (r *ruleList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil
	}
	if trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*r = items
		return nil
	}
	// Object form. Decode token-wise to preserve declaration order.
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return err
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("redirection key must be a string, got %T", keyTok)
		}
		var target string
		if err := dec.Decode(&target); err != nil {
			return err
		}
		*r = append(*r, Item{SourcePath: key, RedirectURL: target})
	}
	return nil
}

// Declaration file names, in probe order. The legacy name is additionally
// searched upward from the docset root through every ancestor directory.
const (
	rootYAMLName   = "redirections.yml"
	rootJSONName   = "redirections.json"
	legacyFileName = ".openpublishing.redirection.json"
)

// LoadItems probes for a redirect declaration file, parses it, rebases every
// source path to be relative to the docset root, drops items that escape the
// root, and sorts the result by target URL for deterministic conflict
// reporting. A missing declaration file yields an empty list.
func LoadItems(docsetRoot string) ([]Item, error) {
	declPath, isYAML := probeDeclaration(docsetRoot)
	if declPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(declPath) // #nosec G304 -- probed under the docset tree
	if err != nil {
		return nil, fmt.Errorf("read redirect declarations %s: %w", declPath, err)
	}

	var decl declarationFile
	if isYAML {
		err = yaml.Unmarshal(data, &decl)
	} else {
		err = json.Unmarshal(data, &decl)
	}
	if err != nil {
		return nil, fmt.Errorf("parse redirect declarations %s: %w", declPath, err)
	}

	items := decl.Redirections
	for _, rename := range decl.RedirectionsWithID {
		rename.RedirectDocumentID = true
		items = append(items, rename)
	}

	return rebaseAndSort(items, docsetRoot, filepath.Dir(declPath)), nil
}

// probeDeclaration returns the first declaration file found: root YAML, root
// JSON, then the legacy filename searched upward to the filesystem root.
func probeDeclaration(docsetRoot string) (path string, isYAML bool) {
	if p := filepath.Join(docsetRoot, rootYAMLName); fileExists(p) {
		return p, true
	}
	if p := filepath.Join(docsetRoot, rootJSONName); fileExists(p) {
		return p, false
	}
	dir := docsetRoot
	for {
		if p := filepath.Join(dir, legacyFileName); fileExists(p) {
			return p, false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// rebaseAndSort rebases source paths from the declaration file's directory to
// the docset root and drops items that escape the root. The ascending sort by
// target URL makes conflict reporting deterministic; source files give no
// ordering guarantee across platforms.
func rebaseAndSort(items []Item, docsetRoot, declDir string) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if item.SourcePath != "" {
			rel, err := filepath.Rel(docsetRoot, filepath.Join(declDir, item.SourcePath))
			if err != nil {
				continue
			}
			rebased := docset.NormalizePath(rel)
			if docset.EscapesRoot(rebased) {
				continue
			}
			item.SourcePath = rebased
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RedirectURL < out[j].RedirectURL
	})
	return out
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
