package domain

import "time"

// Repo is the record kept for one submitted repository URL.
// ID is the shareable identifier used in links and chat requests; the
// store keeps its own internal key.
type Repo struct {
	ID              string    `json:"id"`
	SourceURL       string    `json:"source_url"`
	Contacts        []string  `json:"-"`
	Summary         string    `json:"summary"`
	FileSummaries   []string  `json:"file_summaries,omitempty"`
	IsProcessed     bool      `json:"is_processed"`
	ProcessingError string    `json:"processing_error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Failed reports whether ingestion reached a recorded failure.
func (r *Repo) Failed() bool {
	return r.IsProcessed && r.ProcessingError != ""
}

// HasContact reports whether addr is already registered for notifications.
func (r *Repo) HasContact(addr string) bool {
	for _, c := range r.Contacts {
		if c == addr {
			return true
		}
	}
	return false
}

// Outcome is the kind of notification sent at the end of an ingestion run.
type Outcome string

// Outcome constants.
const (
	OutcomeSucceeded       Outcome = "succeeded"
	OutcomeEmptyRepository Outcome = "empty-repository"
)

// WorkspaceFile is a file found in a scratch workspace. It is never persisted.
type WorkspaceFile struct {
	Path     string // absolute path inside the workspace
	Size     int64
	Eligible bool
}
