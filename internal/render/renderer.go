// Package render turns a document snapshot into the interactive preview and
// the paginated export. Both paths read the same Layout, so they agree on
// sections, titles, order and visible entries.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"resume-builder/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultPreviewScale shrinks the A4 preview to fit next to the editor.
const DefaultPreviewScale = 0.75

// Backend turns export HTML into a binary document, typically a PDF.
type Backend interface {
	RenderHTMLToPDF(ctx context.Context, html string, geo PageGeometry) ([]byte, error)
}

type PreviewOptions struct {
	Scale float64
}

type PreviewResult struct {
	HTML    string
	Outline Outline
}

type ExportOptions struct {
	Geometry PageGeometry
	// Title ends up in the <title> of the standalone HTML.
	Title string
}

type ExportResult struct {
	HTML     string
	Pages    int
	Geometry PageGeometry
	Outline  Outline
}

// Renderer owns the parsed template sets of both paths.
type Renderer struct {
	preview *template.Template
	export  *template.Template
	logger  *slog.Logger
}

var funcs = template.FuncMap{"safeURL": safeURL}

// safeURL lets through the link schemes a resume uses. Anything else is
// neutralised.
func safeURL(s string) template.URL {
	u, err := url.Parse(s)
	if err != nil {
		return "#"
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "mailto", "tel":
		return template.URL(s)
	}
	return "#"
}

// New parses the embedded templates. A nil logger means slog.Default().
func New(logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	preview, err := template.New("preview.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/preview.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse preview templates: %w", err)
	}
	export, err := template.New("export.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/export.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse export templates: %w", err)
	}
	return &Renderer{preview: preview, export: export, logger: logger}, nil
}

// Layout runs the shared rule table.
func (r *Renderer) Layout(doc model.Document) Layout {
	return BuildLayout(doc, r.logger)
}

func (r *Renderer) fragment(set *template.Template, name string, b Block) (template.HTML, bool, error) {
	t := set.Lookup(name)
	if t == nil {
		r.logger.Warn("render skip: no template bound", "section", b.SectionID, "type", string(b.Type), "binding", name)
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, b); err != nil {
		return "", false, fmt.Errorf("render %s section %s: %w", name, b.SectionID, err)
	}
	return template.HTML(buf.String()), true, nil
}

// Preview renders the interactive HTML fragment of doc.
func (r *Renderer) Preview(doc model.Document, opts PreviewOptions) (PreviewResult, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = DefaultPreviewScale
	}
	layout := r.Layout(doc)

	var sections []template.HTML
	for _, b := range layout.Blocks {
		html, ok, err := r.fragment(r.preview, b.Binding.Preview, b)
		if err != nil {
			return PreviewResult{}, err
		}
		if ok {
			sections = append(sections, html)
		}
	}

	var buf bytes.Buffer
	err := r.preview.ExecuteTemplate(&buf, "preview", map[string]any{
		"Style":    template.CSS(fmt.Sprintf("transform:scale(%g);transform-origin:top left", scale)),
		"Sections": sections,
	})
	if err != nil {
		return PreviewResult{}, fmt.Errorf("render preview: %w", err)
	}
	out := buf.String()
	outline, err := ExtractOutline(out)
	if err != nil {
		return PreviewResult{}, err
	}
	return PreviewResult{HTML: out, Outline: outline}, nil
}

type exportPage struct {
	Number    int
	Fragments []template.HTML
}

// Export renders the standalone, paginated HTML handed to a Backend.
func (r *Renderer) Export(doc model.Document, opts ExportOptions) (ExportResult, error) {
	geo := opts.Geometry
	if geo.WidthMM <= 0 || geo.HeightMM <= 0 {
		geo = A4()
	}
	title := opts.Title
	if title == "" {
		title = strings.TrimSpace(doc.PersonalInfo.FullName)
	}
	if title == "" {
		title = "Resume"
	}

	layout := r.Layout(doc)
	var bound Layout
	for _, b := range layout.Blocks {
		if r.export.Lookup(b.Binding.Export) == nil {
			r.logger.Warn("render skip: no template bound", "section", b.SectionID, "type", string(b.Type), "binding", b.Binding.Export)
			continue
		}
		bound.Blocks = append(bound.Blocks, b)
	}

	pages := Paginate(bound, geo)
	rendered := make([]exportPage, 0, len(pages))
	for _, p := range pages {
		ep := exportPage{Number: p.Number}
		for _, f := range p.Fragments {
			html, _, err := r.fragment(r.export, f.Binding.Export, f)
			if err != nil {
				return ExportResult{}, err
			}
			ep.Fragments = append(ep.Fragments, html)
		}
		rendered = append(rendered, ep)
	}

	var buf bytes.Buffer
	err := r.export.ExecuteTemplate(&buf, "document", map[string]any{
		"Title":   title,
		"PageCSS": geo.css(),
		"Pages":   rendered,
	})
	if err != nil {
		return ExportResult{}, fmt.Errorf("render export: %w", err)
	}
	out := buf.String()
	outline, err := ExtractOutline(out)
	if err != nil {
		return ExportResult{}, err
	}
	return ExportResult{HTML: out, Pages: len(pages), Geometry: geo, Outline: outline}, nil
}
