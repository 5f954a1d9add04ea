package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/docset/internal/config"
	"git.home.luguber.info/inful/docset/internal/contribution"
	"git.home.luguber.info/inful/docset/internal/diagnostics"
	"git.home.luguber.info/inful/docset/internal/docset"
	"git.home.luguber.info/inful/docset/internal/markdown"
	"git.home.luguber.info/inful/docset/internal/metrics"
	"git.home.luguber.info/inful/docset/internal/moniker"
	"git.home.luguber.info/inful/docset/internal/observability"
	"git.home.luguber.info/inful/docset/internal/publish"
	"git.home.luguber.info/inful/docset/internal/redirect"
	"git.home.luguber.info/inful/docset/internal/registry"
	"git.home.luguber.info/inful/docset/internal/schema"
	"git.home.luguber.info/inful/docset/internal/template"
)

// Stage names for metrics and logging.
const (
	StageLoad     = "load"
	StageMetadata = "metadata"
	StageTemplate = "template"
	StagePublish  = "publish"
)

// Deps wires the orchestrator's collaborators. The redirect resolver must be
// fully constructed before BuildAll starts; its rename history requires the
// complete build scope.
type Deps struct {
	Config    *config.Config
	Root      string
	Engine    *markdown.Engine
	Redirects *redirect.Resolver
	Monikers  moniker.Service
	Registry  registry.Registry
	Scope     docset.Scope

	// ScopeFiles enumerates the complete build scope.
	ScopeFiles []docset.Identity

	Contribution contribution.Provider
	Metadata     MetadataProvider
	Templates    template.Engine
	Schemas      *schema.Registry
	Publish      *publish.Model
	Recorder     metrics.Recorder
	Log          *diagnostics.Log

	// Xrefs is the uid table for cross-reference resolution.
	Xrefs map[string]Xref
}

// Builder runs the per-document build state machine.
type Builder struct {
	deps     Deps
	resolver *dependencyResolver
	buildCtx *markdown.BuildContext
	toc      *tocIndex
	loaders  map[docset.Format]loaderFunc
}

type loaderFunc func(ctx context.Context, doc Document, bag *diagnostics.Bag) (*loadResult, error)

// NewBuilder creates the orchestrator. Call after the redirect resolver is
// constructed and the build scope is enumerated.
func NewBuilder(deps Deps) *Builder {
	if deps.Recorder == nil {
		deps.Recorder = metrics.NoopRecorder{}
	}
	if deps.Metadata == nil {
		deps.Metadata = GlobalMetadata{}
	}
	if deps.Contribution == nil {
		deps.Contribution = contribution.Noop{}
	}
	if deps.Templates == nil {
		deps.Templates = template.Passthrough{}
	}

	b := &Builder{deps: deps}
	b.resolver = &dependencyResolver{
		root:      deps.Root,
		scope:     deps.Scope,
		registry:  deps.Registry,
		redirects: deps.Redirects,
		xrefs:     deps.Xrefs,
	}
	b.buildCtx = &markdown.BuildContext{
		Resolver: b.resolver,
		Monikers: deps.Monikers,
		URLs:     deps.Registry,
	}
	b.toc = newTOCIndex(deps.ScopeFiles)
	b.loaders = map[docset.Format]loaderFunc{
		docset.FormatMarkdown: b.loadMarkdown,
		docset.FormatYAML:     b.loadStructured,
		docset.FormatJSON:     b.loadStructured,
	}
	return b
}

// BuildPage runs the four-stage state machine for one document. Non-fatal
// conditions accumulate in the returned bag; the error is non-nil only for
// per-document fatal conditions (schema not found), which never abort the
// overall build.
func (b *Builder) BuildPage(ctx context.Context, doc Document) (*diagnostics.Bag, error) {
	bag := &diagnostics.Bag{}

	// Table-of-contents documents publish a navigation tree instead of a page.
	if b.deps.Registry.ContentType(doc.ID) == docset.ContentTableOfContents {
		return bag, b.buildTOC(ctx, doc, bag)
	}

	load, err := timed(b.deps.Recorder, StageLoad, func() (*loadResult, error) {
		return b.loaders[doc.Format](ctx, doc, bag)
	})
	if err != nil {
		return bag, err
	}

	meta, _ := timed(b.deps.Recorder, StageMetadata, func() (*OutputMetadata, error) {
		return b.computeMetadata(doc, load, bag), nil
	})

	output, outMeta, err := b.applyTemplate(doc, load, meta)
	if err != nil {
		return bag, err
	}

	return bag, b.publishPage(doc, load, meta, output, outMeta, bag)
}

// applyTemplate merges metadata and model and hands off to the template
// engine. Pure data pages skip templating: the loaded model is the output.
func (b *Builder) applyTemplate(doc Document, load *loadResult, meta *OutputMetadata) (map[string]any, map[string]any, error) {
	started := time.Now()
	defer func() { b.deps.Recorder.ObserveStageDuration(StageTemplate, time.Since(started)) }()

	if load.dataPage {
		return load.model, nil, nil
	}

	metaMap, err := meta.Map()
	if err != nil {
		return nil, nil, err
	}
	for k, v := range load.metadata {
		if _, taken := metaMap[k]; !taken {
			metaMap[k] = v
		}
	}

	merged := template.Merge(metaMap, load.model)
	output, outMeta, err := b.deps.Templates.Apply(load.conceptual, merged)
	if err != nil {
		return nil, nil, fmt.Errorf("apply template for %s: %w", doc.ID.Path, err)
	}

	// Legacy compatibility runs a secondary transform that folds the
	// processed metadata back into the output object.
	if b.deps.Config.LegacyOutput && outMeta != nil {
		output = template.Merge(output, map[string]any{"_metadata": outMeta})
	}
	return output, outMeta, nil
}

// publishPage registers the manifest record and writes output files.
func (b *Builder) publishPage(doc Document, load *loadResult, meta *OutputMetadata, output, outMeta map[string]any, bag *diagnostics.Bag) error {
	started := time.Now()
	defer func() { b.deps.Recorder.ObserveStageDuration(StagePublish, time.Since(started)) }()

	name := strings.TrimSuffix(path.Base(doc.ID.Path), path.Ext(doc.ID.Path))
	if name == "404" {
		bag.Add(diagnostics.Warning(diagnostics.CodeCustom404Page,
			"custom 404 pages are not supported", diagnostics.Location{File: doc.ID.Path}))
	}

	item := publish.Item{
		URL:           b.deps.Registry.SiteURL(doc.ID),
		OutputPath:    meta.OutputPath,
		SourcePath:    doc.ID.Path,
		Locale:        meta.Locale,
		Monikers:      meta.Monikers,
		MonikerGroup:  meta.MonikerGroup,
		ExtensionData: extensionData(load.metadata),
	}
	if err := b.deps.Publish.Register(item); err != nil {
		// Duplicate registration aborts output for this document; the model
		// already reported the collision.
		slog.Debug("Publish registration rejected", "document", doc.ID.Path, "error", err)
		return nil
	}

	if b.deps.Config.OutputJSON || load.dataPage {
		if err := b.deps.Publish.WriteJSON(meta.OutputPath, output); err != nil {
			return err
		}
	} else {
		content, _ := output["conceptual"].(string)
		if err := b.deps.Publish.WriteText(meta.OutputPath, content); err != nil {
			return err
		}
	}

	if b.deps.Config.LegacyOutput && !load.dataPage && outMeta != nil {
		if err := b.deps.Publish.WriteJSON(sidecarPath(meta.OutputPath), outMeta); err != nil {
			return err
		}
	}
	return nil
}

// BuildAll builds every document using a worker pool. Per-document failures
// are logged and counted; they never abort sibling documents.
func (b *Builder) BuildAll(ctx context.Context, docs []Document, workers int) error {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan Document)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				b.buildOne(ctx, doc)
			}
		}()
	}

	started := time.Now()
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		case jobs <- doc:
		}
	}
	close(jobs)
	wg.Wait()
	b.deps.Recorder.ObserveBuildDuration(time.Since(started))
	return nil
}

func (b *Builder) buildOne(ctx context.Context, doc Document) {
	ctx = observability.WithDocument(ctx, doc.ID.Path)
	bag, err := b.BuildPage(ctx, doc)
	b.deps.Log.Merge(bag)
	for _, d := range bag.Items() {
		b.deps.Recorder.IncDiagnostic(string(d.Code))
	}

	switch {
	case err != nil:
		observability.ErrorContext(ctx, "Page build failed", slog.String("error", err.Error()))
		b.deps.Recorder.IncPageOutcome("failed")
	case bag.Len() > 0:
		b.deps.Recorder.IncPageOutcome("warning")
	default:
		observability.DebugContext(ctx, "Page built")
		b.deps.Recorder.IncPageOutcome("success")
	}
}

// WriteManifest writes the publish manifest for everything built so far.
func (b *Builder) WriteManifest() error {
	return b.deps.Publish.WriteManifest()
}

func timed[T any](rec metrics.Recorder, stage string, fn func() (T, error)) (T, error) {
	started := time.Now()
	out, err := fn()
	rec.ObserveStageDuration(stage, time.Since(started))
	return out, err
}

// extensionData picks the pass-through extension object out of merged
// metadata, when present.
func extensionData(metadata map[string]any) map[string]any {
	if ext, ok := metadata["extension_data"].(map[string]any); ok {
		return ext
	}
	return nil
}

// sidecarPath derives the legacy metadata sidecar path by substituting the
// primary output suffix with the fixed sidecar suffix.
func sidecarPath(outputPath string) string {
	for _, suffix := range []string{".raw.page.json", ".html"} {
		if strings.HasSuffix(outputPath, suffix) {
			return strings.TrimSuffix(outputPath, suffix) + ".mta.json"
		}
	}
	return outputPath + ".mta.json"
}

// IsSchemaNotFound reports whether a page-build error was the fatal
// schema-not-found condition.
func IsSchemaNotFound(err error) bool {
	var nf *schema.NotFoundError
	return errors.As(err, &nf)
}
