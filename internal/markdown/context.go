// Package markdown is the reusable, reentrant Markdown rendering engine.
// Three immutable goldmark pipelines are built once per Engine and shared by
// every parse; all per-execution state travels in an ExecContext threaded
// through the goldmark parser.Context, never in package-level mutables.
package markdown

import (
	"github.com/yuin/goldmark/parser"

	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
)

// Resolver is the cross-document dependency resolver the engine delegates to
// while parsing. Implementations must be safe for concurrent use.
type Resolver interface {
	// ResolveLink resolves a relative or absolute link found in doc. When the
	// link lands on a document in the build, target is non-nil and href is
	// that document's final site URL (or redirect target).
	ResolveLink(doc docset.Identity, href string, loc diagnostics.Location) (resolved string, target *docset.Identity)

	// ResolveXref resolves a cross-reference by uid, returning the href, the
	// display text, and the declaring document when one exists.
	ResolveXref(doc docset.Identity, uid string, loc diagnostics.Location) (href, display string, declaring *docset.Identity)

	// ResolveContent loads the raw text of an included document.
	ResolveContent(doc docset.Identity, href string, loc diagnostics.Location) (content []byte, included *docset.Identity)
}

// MonikerRanger resolves a raw version-range expression for a moniker zone.
// Satisfied by moniker.Service.
type MonikerRanger interface {
	ResolveRange(doc docset.Identity, rangeExpr string) ([]string, error)
}

// SiteURLer maps a document identity to its final site URL. Satisfied by
// registry.Registry.
type SiteURLer interface {
	SiteURL(doc docset.Identity) string
}

// BuildContext references the broader build during full rendering. It is nil
// for plain parses (TOC extraction), where no resolution happens.
type BuildContext struct {
	Resolver Resolver
	Monikers MonikerRanger
	URLs     SiteURLer
}

// frame is one entry of the execution stack: which document is being parsed,
// which build to delegate to, and where its diagnostics accumulate.
type frame struct {
	doc   docset.Identity
	build *BuildContext
	bag   *diagnostics.Bag
}

// ExecContext is the reentrant execution state for one top-level parse or
// render. Content inclusion pushes a nested frame for the included document
// while the outer frame stays intact; concurrent documents each own their own
// ExecContext, so no synchronization is needed.
type ExecContext struct {
	frames []frame
}

// push adds a frame and returns the matching pop. Callers defer the pop so
// the frame is released on every exit path, including errors.
func (c *ExecContext) push(f frame) func() {
	c.frames = append(c.frames, f)
	return func() {
		c.frames = c.frames[:len(c.frames)-1]
	}
}

// current returns the topmost frame. Extension code calls this to learn
// which document it is processing.
func (c *ExecContext) current() frame {
	if len(c.frames) == 0 {
		// Extensions only run under Engine entry points, which always push.
		panic("markdown: execution context used outside a parse")
	}
	return c.frames[len(c.frames)-1]
}

// depth reports the nesting level; 1 for a top-level parse.
func (c *ExecContext) depth() int { return len(c.frames) }

// report appends a diagnostic to the current frame's bag.
func (c *ExecContext) report(d diagnostics.Diagnostic) {
	c.current().bag.Add(d)
}

// execKey carries the ExecContext through goldmark's parser.Context so block
// and inline extensions can reach it.
var execKey = parser.NewContextKey()

func execFrom(pc parser.Context) *ExecContext {
	if v := pc.Get(execKey); v != nil {
		return v.(*ExecContext)
	}
	return nil
}
