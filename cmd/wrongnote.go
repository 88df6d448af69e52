package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/app"
	"github.com/abhisek/quiznote/internal/ledger"
	"github.com/abhisek/quiznote/internal/quiz"
)

var wrongnoteCmd = &cobra.Command{
	Use:   "wrongnote",
	Short: "Browse and study the wrong-answer notebook",
}

var wrongnoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebook entries (optionally filtered by range)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rangeID, _ := cmd.Flags().GetString("range")
		sortFlag, _ := cmd.Flags().GetString("sort")
		order, err := ledger.ParseSortOrder(sortFlag)
		if err != nil {
			return err
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		entries := d.svc.Ledger.List(ledger.ListOptions{Range: rangeID, Sort: order})
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "The wrong-answer notebook is empty.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-10s  %-6s  %5s  %-16s  %s\n",
			"QID", "Range", "Type", "Wrong", "Last miss", "Prompt")
		fmt.Fprintln(out, strings.Repeat("─", 100))

		for _, e := range entries {
			prompt := e.Prompt
			if len(prompt) > 40 {
				prompt = prompt[:37] + "..."
			}
			mark := ""
			if e.Important {
				mark = " *"
			}
			fmt.Fprintf(out, "%-16s  %-10s  %-6s  %5d  %-16s  %s%s\n",
				e.QID, e.Range, e.Type, e.WrongCount,
				e.LastWrongDate.In(ledger.ReferenceZone).Format("2006-01-02 15:04"), prompt, mark)
		}

		fmt.Fprintf(out, "\n%d entries\n", len(entries))
		return nil
	},
}

var wrongnoteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every notebook entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("clear deletes every notebook entry; pass --yes to confirm")
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		n := d.svc.Ledger.Count()
		if err := d.svc.Ledger.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries.\n", n)
		return nil
	},
}

var wrongnoteStudyCmd = &cobra.Command{
	Use:   "study",
	Short: "Start a study session over the notebook",
	RunE: func(cmd *cobra.Command, args []string) error {
		shuffle, _ := cmd.Flags().GetBool("shuffle")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.svc.Machine.StartWrongNote(cmd.Context(), quiz.BuildOptions{Shuffle: shuffle}); err != nil {
			return err
		}
		return app.Run(d.svc, app.Options{Study: true})
	},
}

var wrongnoteReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the notebook as a printable text report",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		if d.svc.Ledger.Count() == 0 {
			return ledger.ErrEmpty
		}
		if path == "-" {
			return d.svc.Ledger.WriteReport(cmd.OutOrStdout())
		}
		if path == "" {
			path = ledger.ReportFileName(time.Now())
		}

		if err := writeFile(path, d.svc.Ledger.WriteReport); err != nil {
			return err
		}
		d.logger.Info("report written", "path", path, "entries", d.svc.Ledger.Count())
		fmt.Fprintln(cmd.OutOrStdout(), "Report written to", path)
		return nil
	},
}

// writeFile creates path and streams write into it. A failed write removes
// the partial file.
func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func init() {
	wrongnoteListCmd.Flags().String("range", ledger.AllRanges, "Only list entries from this range")
	wrongnoteListCmd.Flags().String("sort", "", "Sort by recent or count (default: insertion order)")
	wrongnoteClearCmd.Flags().Bool("yes", false, "Confirm deletion")
	wrongnoteStudyCmd.Flags().Bool("shuffle", false, "Shuffle the study order")
	wrongnoteReportCmd.Flags().StringP("output", "o", "", "Output file, - for stdout (default wrongnote_<date>.txt)")

	wrongnoteCmd.AddCommand(wrongnoteListCmd)
	wrongnoteCmd.AddCommand(wrongnoteClearCmd)
	wrongnoteCmd.AddCommand(wrongnoteStudyCmd)
	wrongnoteCmd.AddCommand(wrongnoteReportCmd)
}
