// Package diagnostics collects non-fatal build conditions. Every subsystem
// appends to a Bag (per document) or the shared Log; nothing in the build
// core raises for a recoverable condition.
package diagnostics

import (
	"fmt"
	"sync"
)

// Severity indicates how serious a diagnostic is.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Code is a stable machine-readable identifier for a diagnostic condition.
type Code string

const (
	CodeRedirectionNullOrEmpty  Code = "redirection-null-or-empty"
	CodeRedirectionInvalid      Code = "redirection-invalid"
	CodeRedirectionConflict     Code = "redirection-conflict"
	CodeRedirectUrlUnresolvable Code = "redirect-url-unresolvable"
	CodeRenameTargetNotFound    Code = "rename-target-not-found"
	CodeRenameConflict          Code = "rename-conflict"
	CodeSchemaNotFound          Code = "schema-not-found"
	CodeHeadingNotFound         Code = "heading-not-found"
	CodeMergeConflictMarker     Code = "merge-conflict-marker"
	CodeCustom404Page           Code = "custom-404-page"
	CodeLinkOutOfScope          Code = "link-out-of-scope"
	CodeXrefNotFound            Code = "xref-not-found"
	CodeIncludeNotFound         Code = "include-not-found"
	CodeMonikerRangeInvalid     Code = "moniker-range-invalid"
	CodeBreadcrumbNotFound      Code = "breadcrumb-not-found"
	CodePublishUrlConflict      Code = "publish-url-conflict"
)

// Location identifies where in the source tree a diagnostic originated.
// File is the identity path of the document; Line and Column are 1-based
// and zero when unknown.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Diagnostic is one recoverable build condition.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
	Location Location `json:"location,omitempty"`
}

// String renders the diagnostic for logs and test failure output.
func (d Diagnostic) String() string {
	if d.Location.File == "" {
		return fmt.Sprintf("%s [%s]: %s", d.Severity, d.Code, d.Message)
	}
	if d.Location.Line > 0 {
		return fmt.Sprintf("%s [%s] %s(%d,%d): %s", d.Severity, d.Code, d.Location.File, d.Location.Line, d.Location.Column, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Severity, d.Code, d.Location.File, d.Message)
}

// Warning creates a warning-severity diagnostic.
func Warning(code Code, message string, loc Location) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Message: message, Location: loc}
}

// Error creates an error-severity diagnostic.
func Error(code Code, message string, loc Location) Diagnostic {
	return Diagnostic{Severity: SeverityError, Code: code, Message: message, Location: loc}
}

// Bag accumulates diagnostics for a single document build. It is not safe
// for concurrent use; each build invocation owns its own Bag.
type Bag struct {
	items []Diagnostic
}

// Add appends one diagnostic.
func (b *Bag) Add(d Diagnostic) { b.items = append(b.items, d) }

// AddRange appends all diagnostics from another bag.
func (b *Bag) AddRange(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}

// Items returns the accumulated diagnostics in insertion order.
func (b *Bag) Items() []Diagnostic { return b.items }

// Len returns the number of accumulated diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Log is the process-wide diagnostics sink. Appends from concurrent workers
// interleave safely; no ordering across documents is guaranteed.
type Log struct {
	mu    sync.Mutex
	items []Diagnostic
}

// NewLog creates an empty shared sink.
func NewLog() *Log { return &Log{} }

// Add appends one diagnostic to the sink.
func (l *Log) Add(d Diagnostic) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, d)
}

// Merge appends every diagnostic from a per-document bag.
func (l *Log) Merge(b *Bag) {
	if b == nil || len(b.items) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, b.items...)
}

// Entries returns a copy of the recorded diagnostics.
func (l *Log) Entries() []Diagnostic {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	return out
}
