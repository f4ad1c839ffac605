package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askAPIKey string

var askCmd = &cobra.Command{
	Use:   "ask <id> <question>",
	Short: "Ask a question about a processed repository",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		c, err := wire(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		answer, err := c.chat.Answer(ctx, args[0], strings.Join(args[1:], " "), askAPIKey)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askAPIKey, "api-key", "", "Language-model credential (defaults to AI_API_KEY)")
	rootCmd.AddCommand(askCmd)
}
