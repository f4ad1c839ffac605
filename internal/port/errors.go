package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrRepoNotFound     = errors.New("repository not found")
	ErrNotReady         = errors.New("repository is not processed yet")
	ErrAlreadyProcessed = errors.New("repository is already processed")
	ErrIngestionFailed  = errors.New("repository ingestion failed")
	ErrConflict         = errors.New("repository already submitted")
	ErrInvalidURL       = errors.New("invalid repository url")
	ErrInvalidContact   = errors.New("invalid contact address")
	ErrRepoPrivate      = errors.New("repository is private or does not exist")
	ErrRepoEmpty        = errors.New("repository is empty")
	ErrRepoTooLarge     = errors.New("repository is too large")
	ErrJobNotFound      = errors.New("job not found")
	ErrEmptyQuestion    = errors.New("question is required")
	ErrModelCall        = errors.New("language model call failed")
)

// FetchError reports that a repository could not be cloned or enumerated.
// Its message is the cause's message so it can be recorded as is.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// SummarizationError reports that the language model returned no usable text.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string { return "summarize: " + e.Err.Error() }
func (e *SummarizationError) Unwrap() error { return e.Err }

// NotificationError reports a mail transport failure.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string { return "notify: " + e.Err.Error() }
func (e *NotificationError) Unwrap() error { return e.Err }
