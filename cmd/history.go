package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently completed sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		events, err := d.svc.History.RecentCompleted(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No finished sessions yet.")
			return nil
		}

		fmt.Fprintf(out, "%-16s  %-9s  %7s  %9s  %s\n", "Finished", "Mode", "Score", "Questions", "Ranges")
		fmt.Fprintln(out, strings.Repeat("─", 70))
		for _, ev := range events {
			fmt.Fprintf(out, "%-16s  %-9s  %3d/%-3d  %9d  %s\n",
				ev.Timestamp.Local().Format("2006-01-02 15:04"), ev.Mode, ev.Score, ev.GradedTotal,
				ev.QuestionCount, strings.Join(ev.Ranges, ", "))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show, 0 for all")
}
