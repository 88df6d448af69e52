package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/app"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start the quiz app",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, app.Options{})
	},
}
