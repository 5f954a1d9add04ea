package markdown

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rewriteMarkedLinks replaces every marker-prefixed href/src in the rendered
// fragment with the carried URL resolved against the current document's site
// URL. Fragments without markers pass through untouched.
func rewriteMarkedLinks(fragment, baseURL string) (string, error) {
	if !strings.Contains(fragment, linkMarker) {
		return fragment, nil
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = &url.URL{}
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, n := range nodes {
		rewriteNode(n, base)
		if err := html.Render(&sb, n); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func rewriteNode(n *html.Node, base *url.URL) {
	if n.Type == html.ElementNode {
		for i, attr := range n.Attr {
			if attr.Key != "href" && attr.Key != "src" {
				continue
			}
			if !strings.HasPrefix(attr.Val, linkMarker) {
				continue
			}
			raw := strings.TrimPrefix(attr.Val, linkMarker)
			ref, err := url.Parse(raw)
			if err != nil {
				n.Attr[i].Val = raw
				continue
			}
			n.Attr[i].Val = base.ResolveReference(ref).String()
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, base)
	}
}
