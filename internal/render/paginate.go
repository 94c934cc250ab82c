package render

import (
	"fmt"
	"html/template"
	"math"
	"unicode/utf8"

	"resume-builder/internal/model"
)

const mmPerInch = 25.4

// PageGeometry is the fixed page box of the export, in millimetres.
type PageGeometry struct {
	WidthMM  float64 `json:"widthMm"`
	HeightMM float64 `json:"heightMm"`
	MarginMM float64 `json:"marginMm"`
}

// A4 is 210x297mm with 15mm margins.
func A4() PageGeometry {
	return PageGeometry{WidthMM: 210, HeightMM: 297, MarginMM: 15}
}

func (g PageGeometry) PaperWidthInches() float64  { return g.WidthMM / mmPerInch }
func (g PageGeometry) PaperHeightInches() float64 { return g.HeightMM / mmPerInch }

func (g PageGeometry) ContentWidthMM() float64  { return g.WidthMM - 2*g.MarginMM }
func (g PageGeometry) ContentHeightMM() float64 { return g.HeightMM - 2*g.MarginMM }

func (g PageGeometry) css() template.CSS {
	return template.CSS(fmt.Sprintf(
		"@page{size:%gmm %gmm;margin:0}\n.page{width:%gmm;height:%gmm;padding:%gmm}",
		g.WidthMM, g.HeightMM, g.WidthMM, g.HeightMM, g.MarginMM))
}

// Line-height model at 10pt body text. Heights are in millimetres; the
// character width is an average for the body font.
const (
	lineMM       = 4.8
	titleMM      = 10.0
	nameMM       = 10.0
	itemGapMM    = 2.0
	charWidthMM  = 1.9
	bulletIndent = 5.0
)

type metrics struct {
	geo PageGeometry
}

func (m metrics) lines(text string, indentMM float64) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	perLine := int((m.geo.ContentWidthMM() - indentMM) / charWidthMM)
	if perLine < 1 {
		perLine = 1
	}
	return int(math.Ceil(float64(n) / float64(perLine)))
}

func (m metrics) itemHeight(it Item) float64 {
	h := lineMM
	if it.Subheading != "" || it.Location != "" {
		h += lineMM
	}
	if it.Link != nil {
		h += lineMM
	}
	for _, d := range it.Details {
		h += float64(m.lines(d, 0)) * lineMM
	}
	for _, b := range it.Bullets {
		h += float64(m.lines(b, bulletIndent)) * lineMM
	}
	return h + itemGapMM
}

// unitHeights returns the height of every countable row of b. A header is
// one row.
func (m metrics) unitHeights(b Block) []float64 {
	var out []float64
	switch b.Kind {
	case model.KindEntries:
		for _, it := range b.Items {
			out = append(out, m.itemHeight(it))
		}
	case model.KindSkills:
		for _, s := range b.Skills {
			out = append(out, float64(m.lines(s.Category+": "+s.Items, 0))*lineMM)
		}
	case model.KindText:
		for _, p := range b.Paragraphs {
			out = append(out, float64(m.lines(p, 0))*lineMM+1)
		}
	case model.KindItems:
		// the list is set inline, one row for the whole run
		text := ""
		for _, s := range b.List {
			text += s + " · "
		}
		out = append(out, float64(m.lines(text, 0))*lineMM)
	case model.KindPersonal:
		h := nameMM
		if b.Header != nil && len(b.Header.Contacts) > 0 {
			h += lineMM
		}
		out = append(out, h+itemGapMM)
	}
	return out
}

// Page is one export page: the fragments placed on it in order.
type Page struct {
	Number    int
	Fragments []Block
}

// Paginate packs blocks into pages of geometry g. Rows are never split. A
// section title stays on the page of its first row. A row taller than a
// page gets a page of its own. The result only depends on the layout and g.
func Paginate(l Layout, g PageGeometry) []Page {
	m := metrics{geo: g}
	capacity := g.ContentHeightMM()
	pages := []Page{{Number: 1}}
	used := 0.0

	newPage := func() {
		pages = append(pages, Page{Number: len(pages) + 1})
		used = 0
	}
	place := func(b Block) {
		p := &pages[len(pages)-1]
		p.Fragments = append(p.Fragments, b)
	}

	for _, b := range l.Blocks {
		heights := m.unitHeights(b)
		head := 0.0
		if b.Kind != model.KindPersonal {
			head = titleMM
		}
		if len(heights) == 0 {
			if used > 0 && used+head > capacity {
				newPage()
			}
			place(b)
			used += head
			continue
		}

		from := 0
		continued := false
		for from < len(heights) {
			title := head
			if continued {
				title = 0
			}
			// fit as many rows as possible after the (optional) title
			to := from
			h := title
			for to < len(heights) && used+h+heights[to] <= capacity {
				h += heights[to]
				to++
			}
			if to == from {
				if used > 0 {
					newPage()
					continue
				}
				// taller than a whole page
				h += heights[to]
				to++
			}
			place(b.slice(from, to, continued))
			used += h
			from = to
			continued = true
			if from < len(heights) {
				newPage()
			}
		}
	}
	return pages
}
