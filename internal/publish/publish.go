// Package publish collects the manifest records of built documents and
// writes their output files.
package publish

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Item is the manifest record for one built document.
type Item struct {
	URL           string         `json:"url"`
	OutputPath    string         `json:"output_path"`
	SourcePath    string         `json:"source_path"`
	Locale        string         `json:"locale"`
	Monikers      []string       `json:"monikers"`
	MonikerGroup  string         `json:"moniker_group,omitempty"`
	ExtensionData map[string]any `json:"extension_data,omitempty"`
}

// Model accumulates publish items and writes output files. Registration is
// safe across concurrent workers; each output path is claimed exactly once.
type Model struct {
	mu         sync.Mutex
	outputRoot string
	items      []Item
	claimed    map[string]string // output path -> source path
}

// NewModel creates a publish model writing under outputRoot.
func NewModel(outputRoot string) *Model {
	return &Model{outputRoot: outputRoot, claimed: make(map[string]string)}
}

// Register claims the item's output path and records the manifest entry.
// A second claim for the same output path fails; the caller aborts writing
// output for that document.
func (m *Model) Register(item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, exists := m.claimed[item.OutputPath]; exists {
		return fmt.Errorf("output path %s already published by %s", item.OutputPath, prior)
	}
	m.claimed[item.OutputPath] = item.SourcePath
	m.items = append(m.items, item)
	return nil
}

// WriteText writes a text output file at the root-relative path.
func (m *Model) WriteText(relPath, content string) error {
	full, err := m.ensureDir(relPath)
	if err != nil {
		return err
	}
	// #nosec G306 -- outputs are public site content
	return os.WriteFile(full, []byte(content), 0o644)
}

// WriteJSON serializes v as indented JSON at the root-relative path.
func (m *Model) WriteJSON(relPath string, v any) error {
	full, err := m.ensureDir(relPath)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output %s: %w", relPath, err)
	}
	// #nosec G306 -- outputs are public site content
	return os.WriteFile(full, append(data, '\n'), 0o644)
}

// Items returns the registered manifest entries sorted by source path.
func (m *Model) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	sort.Slice(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out
}

// WriteManifest writes the publish.json manifest of all registered items.
func (m *Model) WriteManifest() error {
	return m.WriteJSON("publish.json", map[string]any{"files": m.Items()})
}

func (m *Model) ensureDir(relPath string) (string, error) {
	full := filepath.Join(m.outputRoot, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", fmt.Errorf("create output directory for %s: %w", relPath, err)
	}
	return full, nil
}
