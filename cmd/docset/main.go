package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"git.home.luguber.info/inful/docset/internal/build"
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
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"docset.yml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Build struct {
		Root        string `short:"r" help:"Docset root directory" default:"."`
		Output      string `short:"o" help:"Output directory for built site" default:"./_site"`
		Workers     int    `short:"w" help:"Parallel page-build workers (0 = NumCPU)"`
		MetricsAddr string `help:"Expose Prometheus metrics on this address while building"`
	} `cmd:"" help:"Build the docset into versioned, cross-linked site output"`

	Redirects struct {
		Root string `short:"r" help:"Docset root directory" default:"."`
	} `cmd:"" help:"Resolve redirect declarations and report diagnostics without building"`
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild(CLI.Build.Root, CLI.Build.Output, CLI.Build.Workers, CLI.Build.MetricsAddr)
	case "redirects":
		err = runRedirects(CLI.Redirects.Root)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func runBuild(root, output string, workers int, metricsAddr string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if metricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		go serveMetrics(metricsAddr, reg)
	}

	log := diagnostics.NewLog()
	scope := docset.NewGlobScope(cfg.Files, cfg.Exclude)
	scopeFiles, err := enumerateScope(root, scope)
	if err != nil {
		return err
	}

	reg := registry.NewDocset(cfg)
	monikers := moniker.NewRangeResolver(cfg)

	// The redirect resolver needs the complete build scope; it is fully
	// constructed before any parallel page build starts.
	items, err := redirect.LoadItems(root)
	if err != nil {
		return err
	}
	redirects := redirect.NewResolver(items, redirect.Deps{
		HostName:   cfg.HostName,
		Scope:      scope,
		Registry:   reg,
		Monikers:   monikers,
		ScopeFiles: scopeFiles,
		Log:        log,
	})
	for _, doc := range redirects.RedirectedDocuments() {
		reg.MarkRedirected(doc)
	}

	contrib := newContribution(root)
	builder := build.NewBuilder(build.Deps{
		Config:       cfg,
		Root:         root,
		Engine:       markdown.NewEngine(),
		Redirects:    redirects,
		Monikers:     monikers,
		Registry:     reg,
		Scope:        scope,
		ScopeFiles:   scopeFiles,
		Contribution: contrib,
		Schemas:      schema.NewRegistry(),
		Publish:      publish.NewModel(output),
		Recorder:     recorder,
		Log:          log,
	})

	docs := make([]build.Document, 0, len(scopeFiles))
	for _, f := range scopeFiles {
		switch reg.ContentType(f) {
		case docset.ContentPage, docset.ContentTableOfContents:
			docs = append(docs, build.Document{ID: f, Format: docset.FormatOf(f.Path)})
		}
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	buildCtx := observability.WithDocset(observability.WithBuildID(sigCtx, uuid.NewString()), cfg.DocsetName)

	started := time.Now()
	observability.InfoContext(buildCtx, "Building docset",
		slog.Int("documents", len(docs)), slog.Int("workers", workers))
	if err := builder.BuildAll(buildCtx, docs, workers); err != nil {
		return err
	}
	if err := builder.WriteManifest(); err != nil {
		return err
	}

	reportDiagnostics(log)
	slog.Info("Build complete", "documents", len(docs), "duration", time.Since(started).Round(time.Millisecond))
	return nil
}

func runRedirects(root string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	log := diagnostics.NewLog()
	scope := docset.NewGlobScope(cfg.Files, cfg.Exclude)
	scopeFiles, err := enumerateScope(root, scope)
	if err != nil {
		return err
	}

	items, err := redirect.LoadItems(root)
	if err != nil {
		return err
	}
	resolver := redirect.NewResolver(items, redirect.Deps{
		HostName:   cfg.HostName,
		Scope:      scope,
		Registry:   registry.NewDocset(cfg),
		Monikers:   moniker.NewRangeResolver(cfg),
		ScopeFiles: scopeFiles,
		Log:        log,
	})

	slog.Info("Redirects resolved", "declarations", len(items), "redirected", len(resolver.RedirectedDocuments()))
	reportDiagnostics(log)
	return nil
}

// enumerateScope walks the docset root and collects in-scope source files.
func enumerateScope(root string, scope docset.Scope) ([]docset.Identity, error) {
	var files []docset.Identity
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != root && (strings.HasPrefix(name, ".") || name == "_site" || name == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		relPath := docset.NormalizePath(filepath.ToSlash(rel))
		if scope.Contains(relPath) {
			files = append(files, docset.NewIdentity(relPath, docset.OriginSource))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate docset scope: %w", err)
	}
	return files, nil
}

// serveMetrics exposes the build's Prometheus registry for scraping. The
// server lives for the duration of the process.
func serveMetrics(addr string, reg *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil { // #nosec G114 -- local scrape endpoint
		slog.Warn("Metrics endpoint failed", "addr", addr, "error", err)
	}
}

// newContribution opens the docset's git repository when one exists; builds
// outside a checkout fall back to the no-op provider.
func newContribution(root string) contribution.Provider {
	g, err := contribution.OpenGit(root, "")
	if err != nil {
		slog.Debug("Contribution data disabled", "error", err)
		return contribution.Noop{}
	}
	return g
}

func reportDiagnostics(log *diagnostics.Log) {
	for _, d := range log.Entries() {
		if d.Severity == diagnostics.SeverityError {
			slog.Error(d.Message, "code", string(d.Code), "file", d.Location.File)
		} else {
			slog.Warn(d.Message, "code", string(d.Code), "file", d.Location.File)
		}
	}
}
