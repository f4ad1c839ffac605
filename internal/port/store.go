package port

import (
	"context"

	"github.com/arturoeanton/codechat/internal/domain"
)

// RepoStore persists repository records.
// Every method is a single atomic write or read; there are no multi-step transactions.
type RepoStore interface {
	// Create inserts a new record. A record with the same SourceURL returns ErrConflict.
	Create(ctx context.Context, r *domain.Repo) error

	// GetByID returns the record with the given shareable id or ErrRepoNotFound.
	GetByID(ctx context.Context, id string) (*domain.Repo, error)

	// GetByURL returns the record for sourceURL or ErrRepoNotFound.
	GetByURL(ctx context.Context, sourceURL string) (*domain.Repo, error)

	// AddContact appends addr to the record's notification addresses if absent.
	// It fails with ErrAlreadyProcessed once the record is processed.
	AddContact(ctx context.Context, id, addr string) error

	// SaveResult stores the summaries and marks the record processed in one write.
	SaveResult(ctx context.Context, id, summary string, fileSummaries []string) error

	// MarkFailed records a processing error and marks the record processed.
	MarkFailed(ctx context.Context, id, message string) error

	// Delete removes the record.
	Delete(ctx context.Context, id string) error
}

// Notifier sends the end-of-run email.
type Notifier interface {
	// Notify sends one message to all addresses. recordID is empty for the
	// empty-repository outcome. Transport failures return *NotificationError.
	Notify(ctx context.Context, addresses []string, outcome domain.Outcome, sourceURL, recordID string) error
}
