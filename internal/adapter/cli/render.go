package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"resume-builder/internal/render"
	"resume-builder/internal/usecase"
	"resume-builder/pkg/infrastructure"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Render the interactive preview HTML",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export a document to PDF",
	Long:  `Paginates the document on A4 and prints it with headless Chrome. With --html-only the paginated HTML is written instead.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var outlineCmd = &cobra.Command{
	Use:   "outline [file]",
	Short: "Show the sections both renderers produce",
	Args:  cobra.ExactArgs(1),
	RunE:  runOutline,
}

var (
	previewScale float64
	htmlOnly     bool
	chromePath   string
	exportWait   time.Duration
)

func init() {
	previewCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	previewCmd.Flags().Float64Var(&previewScale, "scale", render.DefaultPreviewScale, "preview scale factor")

	exportCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <file>.pdf)")
	exportCmd.Flags().BoolVar(&htmlOnly, "html-only", false, "write the paginated HTML instead of a PDF")
	exportCmd.Flags().StringVar(&chromePath, "chrome-path", "", "Chrome binary (default: $CHROME_PATH, then autodetect)")
	exportCmd.Flags().DurationVar(&exportWait, "timeout", 2*time.Minute, "overall export timeout")

	rootCmd.AddCommand(previewCmd, exportCmd, outlineCmd)
}

// chromeBinary prefers --chrome-path, then CHROME_PATH as the server reads it.
func chromeBinary() string {
	if chromePath != "" {
		return chromePath
	}
	return os.Getenv("CHROME_PATH")
}

func runPreview(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	r, err := render.New(logger(cmd))
	if err != nil {
		return err
	}
	res, err := r.Preview(doc, render.PreviewOptions{Scale: previewScale})
	if err != nil {
		return err
	}
	return writeString(cmd, outPath, res.HTML)
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	log := logger(cmd)
	r, err := render.New(log)
	if err != nil {
		return err
	}

	dest := outPath
	if dest == "" {
		ext := ".pdf"
		if htmlOnly {
			ext = ".html"
		}
		dest = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ext
	}

	if htmlOnly {
		res, err := usecase.NewExporter(r, nil).HTML(doc)
		if err != nil {
			return err
		}
		if err := writeString(cmd, dest, res.HTML); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d pages)\n", dest, res.Pages)
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), exportWait)
	defer cancel()
	exporter := usecase.NewExporter(r, infrastructure.NewChromedpRenderer(chromeBinary()), usecase.WithExportLogger(log))
	name := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	art, err := exporter.Export(ctx, name, doc)
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd, dest)
	if err != nil {
		return err
	}
	if _, err := w.Write(art.PDF); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d pages)\n", dest, art.Pages)
	return nil
}

func runOutline(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	r, err := render.New(logger(cmd))
	if err != nil {
		return err
	}
	pv, err := r.Preview(doc, render.PreviewOptions{})
	if err != nil {
		return err
	}
	ex, err := r.Export(doc, render.ExportOptions{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range pv.Outline {
		fmt.Fprintf(out, "%-16s %-28s %d\n", e.Type, e.Title, e.Entries)
	}
	fmt.Fprintf(out, "pages: %d\n", ex.Pages)
	if !slices.Equal(pv.Outline, ex.Outline) {
		return fmt.Errorf("preview and export disagree")
	}
	return nil
}

func writeString(cmd *cobra.Command, path, s string) error {
	w, closeFn, err := output(cmd, path)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}
