package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/ledger"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show saved settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		settings, err := d.svc.Settings.Load(cmd.Context())
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var settingsDarkModeCmd = &cobra.Command{
	Use:   "dark-mode",
	Short: "Toggle dark mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd)
		if err != nil {
			return err
		}
		defer d.Close()

		settings, err := d.svc.Settings.ToggleDarkMode(cmd.Context())
		if err != nil {
			return err
		}
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

func printSettings(w io.Writer, s ledger.Settings) {
	dark := "off"
	if s.DarkMode {
		dark = "on"
	}
	fmt.Fprintln(w, "dark-mode:", dark)
}

func init() {
	settingsCmd.AddCommand(settingsDarkModeCmd)
}
