package enrich

import (
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// baseScraper provides the DOM helpers shared by the page scrapers
type baseScraper struct{}

// blockElements end a line when their text is flattened
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "ul": true, "ol": true, "dd": true, "dt": true,
}

// ParseHTML parses HTML string into a node tree
func (b *baseScraper) ParseHTML(htmlContent string) (*html.Node, error) {
	return html.Parse(strings.NewReader(htmlContent))
}

// Text flattens n to text, one line per block element. Scripts and styles
// are skipped.
func (b *baseScraper) Text(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		switch node.Type {
		case html.TextNode:
			// source line breaks are plain whitespace; only blocks end a line
			buf.WriteString(strings.ReplaceAll(node.Data, "\n", " "))
			return
		case html.ElementNode:
			if node.Data == "script" || node.Data == "style" || node.Data == "sup" {
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if node.Type == html.ElementNode && blockElements[node.Data] {
			buf.WriteString("\n")
		}
	}
	walk(n)

	lines := strings.Split(buf.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// hasClass reports whether n is an element whose class attribute lists
// class as a whole word
func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			return slices.Contains(strings.Fields(attr.Val), class)
		}
	}
	return false
}

// visit walks n and its descendants in document order until fn returns false
func visit(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !visit(c, fn) {
			return false
		}
	}
	return true
}

// elements collects the tag elements under n
func elements(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	visit(n, func(node *html.Node) bool {
		if isElement(node, tag) {
			out = append(out, node)
		}
		return true
	})
	return out
}

// firstElement returns the first tag element under n, restricted to those
// carrying class unless class is empty
func firstElement(n *html.Node, tag, class string) *html.Node {
	var found *html.Node
	visit(n, func(node *html.Node) bool {
		if isElement(node, tag) && (class == "" || hasClass(node, class)) {
			found = node
		}
		return found == nil
	})
	return found
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}
