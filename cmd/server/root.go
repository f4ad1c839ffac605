package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/arturoeanton/codechat/pkg/config"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "codechat",
	Short: "CodeChat - summarize a repository and chat with it",
	Long: `CodeChat clones a public repository, summarizes its text files with a
language model and answers questions about the project from those summaries.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return err
			}
		} else {
			_ = godotenv.Load() // silently ignore if .env doesn't exist
		}
		cfg = config.Load()
		slog.SetDefault(cfg.Logger())
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment from this file instead of .env")
}
