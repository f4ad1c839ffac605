package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturoeanton/codechat/internal/adapter/ai"
	"github.com/arturoeanton/codechat/internal/adapter/github"
	"github.com/arturoeanton/codechat/internal/adapter/mail"
	"github.com/arturoeanton/codechat/internal/adapter/store"
	"github.com/arturoeanton/codechat/internal/adapter/vcs"
	"github.com/arturoeanton/codechat/internal/port"
	"github.com/arturoeanton/codechat/internal/service"
	"github.com/arturoeanton/codechat/pkg/config"
)

// components holds the wired services shared by every subcommand.
type components struct {
	store  *store.SQLStore
	runner *service.Runner
	repos  *service.RepoService
	chat   *service.ChatService
}

func (c *components) Close() {
	if err := c.store.Close(); err != nil {
		slog.Warn("closing store", "error", err)
	}
}

func wire(ctx context.Context, cfg *config.Config) (*components, error) {
	// ── Database ─────────────────────────────────────────────────────────
	db, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	model, err := ai.NewProvider(cfg.AIProvider, ai.EndpointConfig{
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.ChatModel,
		Token:   cfg.AIAPIKey,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var notifier port.Notifier
	if cfg.SMTPHost != "" {
		notifier, err = mail.NewSMTPNotifier(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			TLS:      cfg.SMTPTLS,
			Insecure: cfg.SMTPInsecure,
		}, cfg.ExplainURL)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
	} else {
		slog.Warn("SMTP_HOST not set, notifications are only logged")
		notifier = mail.NewLogNotifier(cfg.ExplainURL)
	}

	var inspector port.RepoInspector
	if cfg.GitHubPrecheck {
		inspector = github.NewInspector(cfg.GitHubToken, cfg.GitHubMaxRepoKB)
	}

	// ── Services ─────────────────────────────────────────────────────────
	ingest := service.NewIngestService(
		db,
		service.NewFetcher(vcs.NewGitProvider(cfg.CloneDepth), cfg.WorkspaceDir),
		service.NewSummarizer(model, cfg.SummaryModel, cfg.ProjectModel),
		notifier,
		service.IngestOptions{MaxFileSize: cfg.MaxFileSize, Workers: cfg.SummaryWorkers},
	)
	runner := service.NewRunner(ctx, ingest, service.WithJobRetention(cfg.JobRetention))

	return &components{
		store:  db,
		runner: runner,
		repos:  service.NewRepoService(db, runner, inspector),
		chat:   service.NewChatService(db, model, cfg.ChatModel, cfg.MaxContextSummaries),
	}, nil
}
