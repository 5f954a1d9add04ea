// Package schema validates and transforms structured (YAML/JSON) documents.
// The schema language itself lives with the hosting application; the build
// core consumes registered schemas by document kind.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
)

// NotFoundError signals that no schema is registered for a document's
// declared kind. Fatal for that document only: the orchestrator converts it
// into a failed page build without aborting sibling documents.
type NotFoundError struct {
	Kind string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no schema registered for document kind %q", e.Kind)
}

// Schema validates and transforms one document kind. Transform may resolve
// links and cross references through collaborators captured at registration.
type Schema struct {
	Kind string

	// LandingPage marks kinds that additionally render through the secondary
	// HTML path in legacy-compatibility mode.
	LandingPage bool

	// Validate returns non-fatal findings for a parsed document tree.
	Validate func(doc docset.Identity, model map[string]any) []diagnostics.Diagnostic

	// Transform rewrites the tree into its output form.
	Transform func(doc docset.Identity, model map[string]any) (map[string]any, error)
}

// Registry holds registered schemas by kind. Populate before parallel
// builds; read-only afterwards.
type Registry struct {
	byKind map[string]*Schema
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[string]*Schema)}
}

// Register adds a schema, replacing any previous registration for the kind.
func (r *Registry) Register(s *Schema) {
	r.byKind[s.Kind] = s
}

// Get looks up the schema for a kind. The returned error is the fatal
// NotFoundError when no schema is registered.
func (r *Registry) Get(kind string) (*Schema, error) {
	if s, ok := r.byKind[kind]; ok {
		return s, nil
	}
	return nil, &NotFoundError{Kind: kind}
}

// mimePrefix declares a document kind in the first line of a structured
// YAML file, e.g. "### YamlMime:LandingPage".
const mimePrefix = "### YamlMime:"

// KindOf extracts the declared kind of a structured document: the YamlMime
// comment for YAML, the "$kind" field for JSON. Empty when undeclared.
func KindOf(format docset.Format, data []byte) string {
	switch format {
	case docset.FormatYAML:
		line, _, _ := bytes.Cut(data, []byte("\n"))
		text := strings.TrimSpace(strings.TrimSuffix(string(line), "\r"))
		if strings.HasPrefix(text, mimePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(text, mimePrefix))
		}
	case docset.FormatJSON:
		var probe struct {
			Kind string `json:"$kind"`
		}
		if err := json.Unmarshal(data, &probe); err == nil {
			return probe.Kind
		}
	}
	return ""
}

// ParseTree parses a structured document into a generic tree.
func ParseTree(format docset.Format, data []byte) (map[string]any, error) {
	var model map[string]any
	switch format {
	case docset.FormatYAML:
		if err := yaml.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("parse yaml document: %w", err)
		}
	case docset.FormatJSON:
		if err := json.Unmarshal(data, &model); err != nil {
			return nil, fmt.Errorf("parse json document: %w", err)
		}
	default:
		return nil, fmt.Errorf("format %s is not a structured document format", format)
	}
	if model == nil {
		model = map[string]any{}
	}
	return model, nil
}
