package markdown

import (
	gmast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/docset/internal/docset"
)

// KindXref identifies resolved cross-reference inline nodes.
var KindXref = gmast.NewNodeKind("Xref")

// xrefNode is a resolved <xref:uid> reference. Href and Display are empty
// when the uid did not resolve; the renderer then falls back to raw text.
type xrefNode struct {
	gmast.BaseInline
	UID     string
	Href    string
	Display string
}

func (n *xrefNode) Kind() gmast.NodeKind { return KindXref }

func (n *xrefNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{
		"UID":  n.UID,
		"Href": n.Href,
	}, nil)
}

// KindInclude identifies content-inclusion block nodes.
var KindInclude = gmast.NewNodeKind("Include")

// includeNode carries the resolved raw content of an included document. The
// nested parse happens at render time; exec is the execution context of the
// parse that created the node, so the nested frame lands on the same stack.
type includeNode struct {
	gmast.BaseBlock
	Ref     string
	Content []byte
	Doc     *docset.Identity
	exec    *ExecContext
}

func (n *includeNode) Kind() gmast.NodeKind { return KindInclude }

func (n *includeNode) IsRaw() bool { return true }

func (n *includeNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Ref": n.Ref}, nil)
}

// KindMonikerZone identifies version-scoped container blocks.
var KindMonikerZone = gmast.NewNodeKind("MonikerZone")

// monikerZoneNode is a container whose children apply only to the resolved
// moniker list. Monikers are resolved at parse time; the range expression is
// kept for the rendered data attribute.
type monikerZoneNode struct {
	gmast.BaseBlock
	Range    string
	Monikers []string
}

func (n *monikerZoneNode) Kind() gmast.NodeKind { return KindMonikerZone }

func (n *monikerZoneNode) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Range": n.Range}, nil)
}
