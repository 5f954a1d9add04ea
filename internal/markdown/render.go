package markdown

import (
	stdhtml "html"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// nodeRenderer renders the engine's custom nodes. Include nodes re-enter the
// engine for a nested render on the execution stack captured at parse time.
type nodeRenderer struct {
	engine *Engine
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindXref, r.renderXref)
	reg.Register(KindInclude, r.renderInclude)
	reg.Register(KindMonikerZone, r.renderMonikerZone)
}

func (r *nodeRenderer) renderXref(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*xrefNode)
	if n.Href == "" {
		// Unresolved: keep the literal reference so it is visible in output.
		_, _ = w.WriteString(stdhtml.EscapeString("<xref:" + n.UID + ">"))
		return gmast.WalkContinue, nil
	}
	display := n.Display
	if display == "" {
		display = n.UID
	}
	_, _ = w.WriteString(`<a href="` + stdhtml.EscapeString(n.Href) + `">`)
	_, _ = w.WriteString(stdhtml.EscapeString(display))
	_, _ = w.WriteString(`</a>`)
	return gmast.WalkContinue, nil
}

func (r *nodeRenderer) renderInclude(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*includeNode)
	if n.Doc == nil {
		return gmast.WalkContinue, nil
	}
	nested, err := r.engine.renderNested(n.exec, *n.Doc, n.Content)
	if err != nil {
		return gmast.WalkStop, err
	}
	_, _ = w.WriteString(nested)
	return gmast.WalkContinue, nil
}

func (r *nodeRenderer) renderMonikerZone(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*monikerZoneNode)
	if entering {
		_, _ = w.WriteString(`<div class="moniker-zone" data-moniker="`)
		_, _ = w.WriteString(stdhtml.EscapeString(strings.Join(n.Monikers, " ")))
		_, _ = w.WriteString("\">\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gmast.WalkContinue, nil
}
