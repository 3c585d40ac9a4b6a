package locator

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a static, parsed HTML page. It answers locator queries
// without a browser: CSS through cascadia, XPath through htmlquery.
type Document struct {
	root *html.Node
}

// ParseDocument parses an HTML page.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := htmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return &Document{root: root}, nil
}

// ParseDocumentString parses an HTML page held in a string.
func ParseDocumentString(s string) (*Document, error) {
	return ParseDocument(strings.NewReader(s))
}

// QueryAll implements Querier.
func (d *Document) QueryAll(_ context.Context, q Query) ([]*html.Node, error) {
	switch q.Language {
	case XPath:
		nodes, err := htmlquery.QueryAll(d.root, q.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid XPath %q: %w", q.Expr, err)
		}
		return elementsOnly(nodes), nil
	default:
		sel, err := cascadia.Compile(q.Expr)
		if err != nil {
			return nil, fmt.Errorf("invalid CSS selector %q: %w", q.Expr, err)
		}
		return sel.MatchAll(d.root), nil
	}
}

// Title returns the trimmed text of the first <title> element.
func (d *Document) Title() string {
	n := htmlquery.FindOne(d.root, "//title")
	if n == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

// Text returns the text content of n.
func Text(n *html.Node) string {
	return htmlquery.InnerText(n)
}

// Attr returns the value of the named attribute of n.
func Attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func elementsOnly(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			out = append(out, n)
		}
	}
	return out
}
