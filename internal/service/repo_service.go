package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// SubmitStatus tells the caller what a submission did.
type SubmitStatus string

// Submission outcomes.
const (
	SubmitStarted    SubmitStatus = "started"     // new record, ingestion began
	SubmitProcessed  SubmitStatus = "processed"   // record already processed
	SubmitInProgress SubmitStatus = "in_progress" // record exists, ingestion still running
)

// Submission is the result of RepoService.Submit.
type Submission struct {
	Status SubmitStatus
	Repo   *domain.Repo
	Done   <-chan TaskResult // set only for SubmitStarted
}

// TaskStarter starts a background ingestion run.
type TaskStarter interface {
	Start(repoID, sourceURL, credential string) <-chan TaskResult
}

// RepoService manages submissions and record lookups.
type RepoService struct {
	store     port.RepoStore
	runner    TaskStarter
	inspector port.RepoInspector // optional
}

// NewRepoService creates a new repository service. inspector may be nil.
func NewRepoService(store port.RepoStore, runner TaskStarter, inspector port.RepoInspector) *RepoService {
	return &RepoService{store: store, runner: runner, inspector: inspector}
}

// Submit registers sourceURL for ingestion on behalf of contact. One record
// exists per URL: a repeat submission reuses it and adds contact to its
// notification list while it is still running.
func (s *RepoService) Submit(ctx context.Context, sourceURL, contact, credential string) (*Submission, error) {
	sourceURL, err := NormalizeURL(sourceURL)
	if err != nil {
		return nil, err
	}
	if contact != "" {
		addr, err := mail.ParseAddress(contact)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", port.ErrInvalidContact, contact)
		}
		contact = addr.Address
	}

	if sub, err := s.existing(ctx, sourceURL, contact); err == nil {
		return sub, nil
	} else if !errors.Is(err, port.ErrRepoNotFound) {
		return nil, err
	}

	if s.inspector != nil && s.inspector.Supports(sourceURL) {
		if _, err := s.inspector.Inspect(ctx, sourceURL); err != nil {
			return nil, err
		}
	}

	repo := &domain.Repo{ID: uuid.NewString(), SourceURL: sourceURL}
	if contact != "" {
		repo.Contacts = []string{contact}
	}
	if err := s.store.Create(ctx, repo); err != nil {
		if errors.Is(err, port.ErrConflict) {
			// Another submission of the same URL won the race.
			return s.existing(ctx, sourceURL, contact)
		}
		return nil, fmt.Errorf("create record: %w", err)
	}

	slog.Info("repository submitted", "repo_id", repo.ID, "url", sourceURL)
	done := s.runner.Start(repo.ID, sourceURL, credential)
	return &Submission{Status: SubmitStarted, Repo: repo, Done: done}, nil
}

func (s *RepoService) existing(ctx context.Context, sourceURL, contact string) (*Submission, error) {
	repo, err := s.store.GetByURL(ctx, sourceURL)
	if err != nil {
		return nil, err
	}
	if repo.IsProcessed {
		return &Submission{Status: SubmitProcessed, Repo: repo}, nil
	}
	if contact != "" && !repo.HasContact(contact) {
		err := s.store.AddContact(ctx, repo.ID, contact)
		if errors.Is(err, port.ErrAlreadyProcessed) {
			// The run finished after the read above.
			if repo, err = s.store.GetByID(ctx, repo.ID); err != nil {
				return nil, err
			}
			return &Submission{Status: SubmitProcessed, Repo: repo}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("add contact: %w", err)
		}
		repo.Contacts = append(repo.Contacts, contact)
	}
	slog.Info("repository already in progress", "repo_id", repo.ID, "url", sourceURL)
	return &Submission{Status: SubmitInProgress, Repo: repo}, nil
}

// Get returns a record by its shareable identifier.
func (s *RepoService) Get(ctx context.Context, id string) (*domain.Repo, error) {
	return s.store.GetByID(ctx, id)
}

// NormalizeURL validates a repository URL and strips surrounding whitespace
// and trailing slashes.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return "", fmt.Errorf("%w: empty", port.ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", port.ErrInvalidURL, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return "", fmt.Errorf("%w: unsupported scheme %q", port.ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" || strings.Trim(u.Path, "/") == "" {
		return "", fmt.Errorf("%w: %s", port.ErrInvalidURL, raw)
	}
	return raw, nil
}
