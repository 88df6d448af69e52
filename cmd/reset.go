package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the wrong-answer notebook and all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return fmt.Errorf("reset deletes all saved data; pass --yes to confirm")
		}

		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := cmd.Context()
		if err := d.svc.Ledger.Clear(ctx); err != nil {
			return err
		}
		if err := d.svc.Settings.Reset(ctx); err != nil {
			return err
		}
		d.logger.Info("data reset")
		fmt.Fprintln(cmd.OutOrStdout(), "Wrong-answer notebook and settings deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deletion")
}
