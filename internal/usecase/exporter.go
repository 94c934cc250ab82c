package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"resume-builder/internal/model"
	"resume-builder/internal/render"
)

// ErrExportFailed is returned when the backend could not produce a valid
// PDF after all attempts. No partial output accompanies it.
var ErrExportFailed = errors.New("export failed")

var pdfMagic = []byte("%PDF")

// Artifact is the outcome of one export.
type Artifact struct {
	PDF      []byte
	HTML     string
	Pages    int
	Geometry render.PageGeometry
	Outline  render.Outline
}

type ExporterOption func(*Exporter)

// WithAttempts sets how many times the backend is tried.
func WithAttempts(n int) ExporterOption {
	return func(e *Exporter) {
		if n > 0 {
			e.attempts = n
		}
	}
}

// WithBackoff sets the wait before the second attempt. It doubles on
// every further attempt. Zero retries immediately.
func WithBackoff(d time.Duration) ExporterOption {
	return func(e *Exporter) { e.backoff = d }
}

// WithArtifactDir keeps a copy of every exported HTML and PDF under dir.
func WithArtifactDir(dir string) ExporterOption {
	return func(e *Exporter) { e.artifactDir = dir }
}

func WithGeometry(g render.PageGeometry) ExporterOption {
	return func(e *Exporter) { e.geometry = g }
}

func WithExportLogger(l *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// Exporter renders the paginated HTML of a snapshot and turns it into a
// PDF through a Backend.
type Exporter struct {
	renderer    *render.Renderer
	backend     render.Backend
	attempts    int
	backoff     time.Duration
	artifactDir string
	geometry    render.PageGeometry
	logger      *slog.Logger
}

func NewExporter(r *render.Renderer, backend render.Backend, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		renderer: r,
		backend:  backend,
		attempts: 3,
		backoff:  time.Second,
		geometry: render.A4(),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// HTML renders the standalone export HTML without calling the backend.
func (e *Exporter) HTML(doc model.Document) (render.ExportResult, error) {
	return e.renderer.Export(doc, render.ExportOptions{Geometry: e.geometry})
}

// Export renders doc and converts it to PDF. name labels the artifacts
// written to the artifact directory, if one is configured.
func (e *Exporter) Export(ctx context.Context, name string, doc model.Document) (Artifact, error) {
	res, err := e.HTML(doc)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	if e.backend == nil {
		return Artifact{}, fmt.Errorf("%w: no pdf backend configured", ErrExportFailed)
	}
	e.keep(name+".html", []byte(res.HTML))

	var pdf []byte
	var renderErr error
	for i := 0; i < e.attempts; i++ {
		pdf, renderErr = e.backend.RenderHTMLToPDF(ctx, res.HTML, res.Geometry)
		if renderErr == nil {
			if bytes.HasPrefix(pdf, pdfMagic) {
				break
			}
			renderErr = fmt.Errorf("invalid PDF output (len=%d)", len(pdf))
		}
		e.logger.Warn("export attempt failed", "document", name, "attempt", i+1, "error", renderErr)
		if i < e.attempts-1 {
			select {
			case <-time.After(time.Duration(1<<i) * e.backoff):
			case <-ctx.Done():
				return Artifact{}, fmt.Errorf("%w: %w", ErrExportFailed, ctx.Err())
			}
		}
	}
	if renderErr != nil {
		e.logger.Error("export failed", "document", name, "attempts", e.attempts, "error", renderErr)
		return Artifact{}, fmt.Errorf("%w after %d attempts: %w", ErrExportFailed, e.attempts, renderErr)
	}
	e.keep(name+".pdf", pdf)

	return Artifact{
		PDF:      pdf,
		HTML:     res.HTML,
		Pages:    res.Pages,
		Geometry: res.Geometry,
		Outline:  res.Outline,
	}, nil
}

// keep writes an artifact copy. Failures are logged only.
func (e *Exporter) keep(name string, data []byte) {
	if e.artifactDir == "" {
		return
	}
	if err := os.MkdirAll(e.artifactDir, 0o755); err != nil {
		e.logger.Warn("artifact dir unavailable", "dir", e.artifactDir, "error", err)
		return
	}
	if err := os.WriteFile(filepath.Join(e.artifactDir, name), data, 0o644); err != nil {
		e.logger.Warn("unable to keep artifact", "name", name, "error", err)
	}
}
