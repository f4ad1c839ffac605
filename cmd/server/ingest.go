package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/service"
)

var (
	ingestEmail  string
	ingestAPIKey string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Ingest one repository in the foreground",
	Long: `Submit a repository and wait for its ingestion to finish.

If the repository was already processed its stored summary is printed.`,
	Args: cobra.ExactArgs(1),
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

		sub, err := c.repos.Submit(ctx, args[0], ingestEmail, ingestAPIKey)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch sub.Status {
		case service.SubmitInProgress:
			fmt.Fprintf(out, "Repository %s is already being processed (id %s)\n", sub.Repo.SourceURL, sub.Repo.ID)
			return nil
		case service.SubmitProcessed:
			printRepo(cmd, sub.Repo)
			return nil
		}

		fmt.Fprintf(out, "Ingesting %s (id %s)...\n", sub.Repo.SourceURL, sub.Repo.ID)
		res := <-sub.Done
		if res.Err != nil {
			return fmt.Errorf("ingestion failed: %w", res.Err)
		}
		if res.Result.Outcome == domain.OutcomeEmptyRepository {
			fmt.Fprintln(out, "No eligible text files found; the record was removed.")
			return nil
		}
		printRepo(cmd, res.Result.Repo)
		return nil
	},
}

func printRepo(cmd *cobra.Command, r *domain.Repo) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:      %s\n", r.ID)
	fmt.Fprintf(out, "URL:     %s\n", r.SourceURL)
	fmt.Fprintf(out, "Explain: %s\n", cfg.ExplainURL(r.ID))
	if r.Failed() {
		fmt.Fprintf(out, "Error:   %s\n", r.ProcessingError)
		return
	}
	fmt.Fprintf(out, "Files:   %d summarized\n\n%s\n", len(r.FileSummaries), r.Summary)
}

func init() {
	ingestCmd.Flags().StringVar(&ingestEmail, "email", "", "Address to notify when ingestion finishes")
	ingestCmd.Flags().StringVar(&ingestAPIKey, "api-key", "", "Language-model credential (defaults to AI_API_KEY)")
	rootCmd.AddCommand(ingestCmd)
}
