package markdown

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// PageStats summarizes a rendered HTML page: word count, in-page bookmarks
// (element ids), and the extracted title.
type PageStats struct {
	WordCount  int64
	Bookmarks  []string
	Title      string
	TitleFound bool
}

// Analyze walks a rendered HTML fragment and collects page statistics.
// The title is the text of the first h1; TitleFound is false when no heading
// exists (callers emit the heading-not-found diagnostic).
func Analyze(fragment string) (PageStats, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return PageStats{}, err
	}

	var stats PageStats
	for _, n := range nodes {
		collect(n, &stats)
	}
	return stats, nil
}

func collect(n *html.Node, stats *PageStats) {
	switch n.Type {
	case html.TextNode:
		stats.WordCount += int64(len(strings.Fields(n.Data)))
		return
	case html.ElementNode:
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val != "" {
				stats.Bookmarks = append(stats.Bookmarks, attr.Val)
			}
		}
		if n.Data == "h1" && !stats.TitleFound {
			stats.Title = strings.TrimSpace(textOf(n))
			stats.TitleFound = true
		}
		// Script and style text is not page content.
		if n.Data == "script" || n.Data == "style" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, stats)
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			sb.WriteString(m.Data)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
