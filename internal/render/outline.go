package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"resume-builder/internal/model"
)

// OutlineEntry summarises one rendered section.
type OutlineEntry struct {
	SectionID string            `json:"sectionId"`
	Type      model.SectionType `json:"type"`
	Title     string            `json:"title"`
	Entries   int               `json:"entries"`
}

// Outline is the ordered list of sections as they appear in rendered output.
type Outline []OutlineEntry

// ExtractOutline reads the outline back from rendered HTML. Section
// fragments split across export pages are merged.
func ExtractOutline(doc string) (Outline, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse rendered html: %w", err)
	}
	var out Outline
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "rs-section") {
			e := OutlineEntry{
				SectionID: attr(n, "data-section-id"),
				Type:      model.SectionType(attr(n, "data-section-type")),
				Title:     attr(n, "data-title"),
				Entries:   countItems(n),
			}
			if h := find(n, "rs-title"); h != nil {
				e.Title = strings.TrimSpace(text(h))
			}
			if last := len(out) - 1; last >= 0 && hasClass(n, "rs-cont") && out[last].SectionID == e.SectionID {
				out[last].Entries += e.Entries
			} else {
				out = append(out, e)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func find(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if f := find(c, class); f != nil {
			return f
		}
	}
	return nil
}

func countItems(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, "rs-item") {
			count++
			continue
		}
		count += countItems(c)
	}
	return count
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}
