package htmlaudit

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// strippedElements carry no accessibility information for the audit.
var strippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// Compact removes markup that only inflates the prompt: scripts, styles,
// noscript and template elements, comments and the drawing instructions
// inside svg elements. Inline data URIs are replaced with a short marker.
// Everything a screen reader could observe is kept.
func Compact(src string) (string, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			switch {
			case c.Type == html.CommentNode:
				n.RemoveChild(c)
			case c.Type == html.ElementNode && strippedElements[c.Data]:
				n.RemoveChild(c)
			case c.Type == html.ElementNode && c.Data == "svg":
				stripSVG(c)
			default:
				if c.Type == html.ElementNode {
					shortenDataURIs(c)
				}
				walk(c)
			}
			c = next
		}
	}
	walk(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render HTML: %w", err)
	}
	return buf.String(), nil
}

// stripSVG keeps only the accessible name parts of an svg element.
func stripSVG(svg *html.Node) {
	for c := svg.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.ElementNode || (c.Data != "title" && c.Data != "desc") {
			svg.RemoveChild(c)
		}
		c = next
	}
}

func shortenDataURIs(n *html.Node) {
	for i, attr := range n.Attr {
		if (attr.Key == "src" || attr.Key == "href") && strings.HasPrefix(attr.Val, "data:") {
			meta, _, _ := strings.Cut(attr.Val, ",")
			n.Attr[i].Val = meta + ",..."
		}
	}
}
