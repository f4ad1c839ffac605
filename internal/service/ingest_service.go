package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// Pipeline steps reported to a StepFunc.
const (
	StepFetch     = "fetch"
	StepFilter    = "filter"
	StepSummarize = "summarize"
	StepAggregate = "aggregate"
	StepPersist   = "persist"
	StepNotify    = "notify"
)

// StepFunc observes pipeline progress. It may be nil.
type StepFunc func(step string)

// IngestResult is the terminal, non-error outcome of one run.
type IngestResult struct {
	Outcome domain.Outcome
	Repo    *domain.Repo // nil for the empty-repository outcome
}

// IngestOptions tunes the pipeline.
type IngestOptions struct {
	MaxFileSize int64
	Workers     int // concurrent per-file summaries; 1 is sequential
}

// IngestService drives one repository record from submitted to processed.
type IngestService struct {
	store      port.RepoStore
	fetcher    *Fetcher
	summarizer *Summarizer
	notifier   port.Notifier
	opts       IngestOptions
}

// NewIngestService creates the ingestion orchestrator.
func NewIngestService(store port.RepoStore, fetcher *Fetcher, summarizer *Summarizer, notifier port.Notifier, opts IngestOptions) *IngestService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = 32 * 1024
	}
	return &IngestService{
		store:      store,
		fetcher:    fetcher,
		summarizer: summarizer,
		notifier:   notifier,
		opts:       opts,
	}
}

// Ingest runs the pipeline for the record repoID. Any error after the record
// is loaded is written to its processingError before being returned.
func (s *IngestService) Ingest(ctx context.Context, repoID, credential string, step StepFunc) (*IngestResult, error) {
	if step == nil {
		step = func(string) {}
	}

	repo, err := s.store.GetByID(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	log := slog.With("repo_id", repo.ID, "url", repo.SourceURL)

	res, err := s.run(ctx, log, repo, credential, step)
	if err != nil {
		log.Error("ingestion failed", "error", err)
		// The record is still written when the run's context is gone.
		if mErr := s.store.MarkFailed(context.WithoutCancel(ctx), repo.ID, err.Error()); mErr != nil {
			log.Error("failed to record processing error", "error", mErr)
		}
		return nil, err
	}
	return res, nil
}

func (s *IngestService) run(ctx context.Context, log *slog.Logger, repo *domain.Repo, credential string, step StepFunc) (*IngestResult, error) {
	step(StepFetch)
	log.Info("fetching repository")
	ws, err := s.fetcher.Fetch(ctx, repo.SourceURL)
	if err != nil {
		return nil, err
	}
	defer removeWorkspace(ws)

	step(StepFilter)
	eligible := FilterEligible(ws.Dir, ws.TextFiles, s.opts.MaxFileSize)
	log.Info("files enumerated", "files", len(ws.Files), "text", len(ws.TextFiles), "eligible", len(eligible))

	if len(eligible) == 0 {
		return s.finishEmpty(ctx, log, repo)
	}

	step(StepSummarize)
	summaries, err := s.summarizeFiles(ctx, log, eligible, credential)
	if err != nil {
		return nil, err
	}

	step(StepAggregate)
	blob := BuildAggregateInput(summaries, ws.Listing())
	summary, err := s.summarizer.SummarizeProject(ctx, blob, credential)
	if err != nil {
		return nil, err
	}

	step(StepPersist)
	if err := s.store.SaveResult(ctx, repo.ID, summary, summaries); err != nil {
		return nil, fmt.Errorf("persist summaries: %w", err)
	}
	log.Info("ingestion complete", "file_summaries", len(summaries))

	// Contacts may have been added while the run was in flight.
	saved, err := s.store.GetByID(ctx, repo.ID)
	if err != nil {
		log.Warn("reload after save failed", "error", err)
		saved = repo
		saved.Summary = summary
		saved.FileSummaries = summaries
		saved.IsProcessed = true
	}

	step(StepNotify)
	s.notify(ctx, log, saved.Contacts, domain.OutcomeSucceeded, saved.SourceURL, saved.ID)
	return &IngestResult{Outcome: domain.OutcomeSucceeded, Repo: saved}, nil
}

// finishEmpty removes the record and tells its contacts nothing was processable.
func (s *IngestService) finishEmpty(ctx context.Context, log *slog.Logger, repo *domain.Repo) (*IngestResult, error) {
	contacts := repo.Contacts
	if current, err := s.store.GetByID(ctx, repo.ID); err == nil {
		contacts = current.Contacts
	}
	if err := s.store.Delete(ctx, repo.ID); err != nil && !errors.Is(err, port.ErrRepoNotFound) {
		return nil, fmt.Errorf("delete empty record: %w", err)
	}
	log.Info("no eligible files, record removed")
	s.notify(ctx, log, contacts, domain.OutcomeEmptyRepository, repo.SourceURL, "")
	return &IngestResult{Outcome: domain.OutcomeEmptyRepository}, nil
}

// summarizeFiles summarizes every eligible file with a bounded pool. Failed
// files are logged and left out; the rest keep discovery order.
func (s *IngestService) summarizeFiles(ctx context.Context, log *slog.Logger, files []domain.WorkspaceFile, credential string) ([]string, error) {
	results := make([]string, len(files))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, f := range files {
		g.Go(func() error {
			content, err := os.ReadFile(f.Path)
			if err != nil {
				log.Warn("read failed, skipping file", "file", f.Path, "error", err)
				return nil
			}
			summary, err := s.summarizer.SummarizeFile(ctx, string(content), credential)
			if err != nil {
				log.Warn("file summary failed, skipping file", "file", f.Path, "error", err)
				return nil
			}
			results[i] = summary
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	summaries := make([]string, 0, len(results))
	for _, r := range results {
		if r != "" {
			summaries = append(summaries, r)
		}
	}
	return summaries, nil
}

func (s *IngestService) notify(ctx context.Context, log *slog.Logger, contacts []string, outcome domain.Outcome, sourceURL, recordID string) {
	if len(contacts) == 0 {
		log.Info("no contacts to notify", "outcome", outcome)
		return
	}
	if err := s.notifier.Notify(ctx, contacts, outcome, sourceURL, recordID); err != nil {
		log.Error("notification failed", "outcome", outcome, "error", err)
	}
}

// BuildAggregateInput joins the file summaries with spaces, then appends the
// newline-separated file listing after a blank line.
func BuildAggregateInput(summaries, listing []string) string {
	return strings.Join(summaries, " ") + "\n\n" + strings.Join(listing, "\n")
}
