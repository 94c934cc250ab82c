package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"resume-builder/internal/model"
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Print a starter document",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate [file]",
	Short: "Convert a stored document to the canonical shape",
	Long:  `Reads a legacy or canonical document and writes its canonical form. Malformed parts are defaulted and reported as warnings.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runMigrate,
}

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a canonical document against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var outPath string

func init() {
	newCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	migrateCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	rootCmd.AddCommand(newCmd, migrateCmd, validateCmd)
}

func runNew(cmd *cobra.Command, _ []string) error {
	w, closeFn, err := output(cmd, outPath)
	if err != nil {
		return err
	}
	if err := writeJSON(w, model.NewDocument(uuid.NewString)); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runMigrate(cmd *cobra.Command, args []string) error {
	doc, err := loadDocument(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd, outPath)
	if err != nil {
		return err
	}
	if err := writeJSON(w, doc); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err == nil && !model.HasSectionsArray(top) {
		return fmt.Errorf("%s is a legacy document; run migrate first", args[0])
	}
	if err := model.ValidateJSON(bytes.TrimSpace(raw)); err != nil {
		return err
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	if err := model.Validate(doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d sections)\n", args[0], len(doc.Sections))
	return nil
}
