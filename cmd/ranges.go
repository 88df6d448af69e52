package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "List the question bank's ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcqOnly, _ := cmd.Flags().GetBool("mcq-only")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ranges, err := d.svc.Bank.Manifest(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-16s  %-36s  %9s\n", "ID", "Title", "Questions")
		fmt.Fprintln(out, strings.Repeat("─", 65))

		total := 0
		for _, r := range ranges {
			n := r.QuestionCount(mcqOnly)
			total += n
			fmt.Fprintf(out, "%-16s  %-36s  %9d\n", r.ID, r.Title, n)
		}

		fmt.Fprintf(out, "\n%d ranges, %d questions\n", len(ranges), total)
		return nil
	},
}

func init() {
	rangesCmd.Flags().Bool("mcq-only", false, "Count multiple-choice questions only")
}
