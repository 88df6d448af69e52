package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/ledger"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the notebook and settings as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		settings, err := d.svc.Settings.Load(cmd.Context())
		if err != nil {
			return err
		}
		doc := d.svc.Ledger.Export(settings)

		if path == "-" {
			return ledger.WriteDocument(cmd.OutOrStdout(), doc)
		}
		if path == "" {
			path = ledger.ExportFileName(time.Now())
		}
		err = writeFile(path, func(w io.Writer) error {
			return ledger.WriteDocument(w, doc)
		})
		if err != nil {
			return err
		}

		d.logger.Info("export written", "path", path, "entries", d.svc.Ledger.Count())
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", d.svc.Ledger.Count(), path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the notebook with an exported JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		doc, err := d.svc.Ledger.Import(ctx, raw)
		if err != nil {
			return err
		}

		// Only an explicit dark mode is carried over.
		if doc.Settings != nil && doc.Settings.DarkMode {
			settings, err := d.svc.Settings.Load(ctx)
			if err != nil {
				return err
			}
			settings.DarkMode = true
			if err := d.svc.Settings.Save(ctx, settings); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if doc.WrongAnswers == nil {
			fmt.Fprintln(out, "Document has no wrong answers; notebook unchanged.")
			return nil
		}
		fmt.Fprintf(out, "Imported %d entries.\n", d.svc.Ledger.Count())
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default quiz-data-<date>.json)")
}
