// Package cli is the resumectl command line: offline migration,
// validation and rendering of resume documents stored as JSON files.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"resume-builder/internal/model"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "resumectl",
	Short:         "Work with resume documents offline",
	Long:          `Create, migrate, validate and render resume documents kept as JSON files.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func logger(cmd *cobra.Command) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// loadDocument reads path and migrates it to the canonical shape.
// Anomalies are reported on stderr.
func loadDocument(cmd *cobra.Command, path string) (model.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, anomalies := model.Migrate(raw)
	for _, a := range anomalies {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", a)
	}
	return doc, nil
}

// output returns the -o destination or stdout.
func output(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
