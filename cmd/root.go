package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/quiznote/internal/app"
	"github.com/abhisek/quiznote/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "quiznote",
	Short: "Terminal quiz with a wrong-answer notebook",
	Long: "QuizNote runs quizzes over a question bank and keeps every missed or " +
		"flagged question in a wrong-answer notebook you can study, export and print.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, app.Options{})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "Path to SQLite database file (overrides "+config.EnvDB+")")
	flags.String("bank", "", "Question bank directory or http(s) URL (overrides "+config.EnvBank+")")
	flags.String("log", "", "Log file path (overrides "+config.EnvLog+")")
	flags.String("log-level", "", "Log level: debug, info, warn or error (overrides "+config.EnvLogLevel+")")
	flags.String("seed", "", "Shuffle seed, 0 for time-based (overrides "+config.EnvSeed+")")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(wrongnoteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(rangesCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig resolves the configuration from the persistent flags, the
// environment and .env.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var f config.Flags
	f.DB, _ = cmd.Flags().GetString("db")
	f.Bank, _ = cmd.Flags().GetString("bank")
	f.Log, _ = cmd.Flags().GetString("log")
	f.LogLevel, _ = cmd.Flags().GetString("log-level")
	f.Seed, _ = cmd.Flags().GetString("seed")
	return config.Load(f, "")
}
